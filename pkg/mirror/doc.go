// Package mirror reads consensus topic messages from a Hedera mirror node.
//
// The auditor uses it to page through the event log a ledger published,
// starting after the last sequence number it has already replayed.
package mirror
