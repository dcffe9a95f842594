// Package tokenledger is a fungible token ledger with an owner-gated mint,
// a miner reward minted on every transfer, holder burns and an event log that
// can be published to a Hedera consensus topic and audited from a mirror
// node.
//
// # Packages
//
//   - pkg/ledger: balances, supply, the reward hook, events and snapshots
//   - pkg/identity: secp256k1 signed requests that prove the caller address
//   - pkg/publisher: topic and socket.io sinks for ledger events
//   - pkg/audit: replay of a published event log with invariant checks
//   - pkg/mirror: mirror node topic message client
//   - pkg/shared: network, operator and TOKEN_* environment configuration
//
// # Quick start
//
//	tokenLedger, err := ledger.New(ledger.Config{
//		Name:          "AespaToken",
//		Symbol:        "AES",
//		InitialSupply: big.NewInt(100_000_000_000),
//		BlockReward:   big.NewInt(50),
//		Owner:         "0.0.1001",
//	})
package tokenledger
