// Package audit rebuilds ledger state from the event log published to a
// consensus topic and reports where the log breaks ledger invariants.
//
// An Auditor reads topic messages through the mirror node, replays each
// event against its own balances and records a Violation for sequence gaps,
// overdrafts, events before the deploy and reward amounts that
// disagree with the announced rate. Replay is
// incremental: each AuditOnce only fetches messages after the last one seen.
package audit
