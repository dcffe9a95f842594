// Package ledger implements a fungible-token ledger with owner-gated supply
// control and a per-operation miner reward. It keeps account balances and
// total supply behind a single lock, enforces ownership for privileged
// operations, and emits one notification per state transition to the
// configured event sinks.
//
// # Invariants
//
// For every reachable state the sum of all balances equals the total supply,
// and no balance is negative. Total supply changes only through Mint, Destroy
// and the miner reward; Transfer never changes it.
//
// # Construct a Ledger
//
//	recorder := ledger.NewRecorder()
//	tokenLedger, err := ledger.New(ledger.Config{
//		Name:          "AespaToken",
//		Symbol:        "AES",
//		InitialSupply: big.NewInt(100000000000),
//		BlockReward:   big.NewInt(50),
//		Owner:         "0.0.1001",
//		Options: ledger.Options{
//			Beneficiary: ledger.StaticBeneficiary("0.0.3"),
//			Sinks:       []ledger.EventSink{recorder},
//		},
//	})
//
// # Miner Reward
//
// Each transfer triggers the miner-reward hook, which credits the address
// supplied by the configured BeneficiarySource with the current block reward.
// RewardPolicy decides whether a transfer that fails still mints the reward.
//
// # Snapshots
//
// Snapshot captures the full ledger state. EncodeSnapshot produces a
// deterministic CBOR document compressed with brotli, and Restore rebuilds a
// ledger from a decoded snapshot after checking the supply invariant.
package ledger
