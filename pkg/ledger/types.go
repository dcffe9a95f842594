package ledger

import (
	"math/big"
	"regexp"

	"github.com/rs/zerolog"
)

const (
	ProtocolID = "token-ledger"

	EventDeploy         = "deploy"
	EventTransfer       = "transfer"
	EventMint           = "mint"
	EventBurn           = "burn"
	EventBlockRewardSet = "block_reward_set"
	EventMinerReward    = "miner_reward"

	DefaultDecimals = 18

	MaxNameLength   = 100
	MaxSymbolLength = 32
)

var amountRegex = regexp.MustCompile(`^\d+$`)

// Address identifies an account as a Hedera entity ID (shard.realm.num).
type Address string

// String returns the address as a plain string.
func (address Address) String() string {
	return string(address)
}

// IsZero reports whether the address is unset.
func (address Address) IsZero() bool {
	return address == ""
}

// RewardPolicy decides what happens to the miner reward when a transfer fails.
//
// RewardOnSuccess mints the reward only for transfers that are applied.
// RewardOnAttempt mints it before the balance check, so a transfer rejected
// with InsufficientBalance still leaves the reward minted; this is the one
// exception to the all-or-nothing rule of the ledger's operations.
type RewardPolicy int

const (
	RewardOnSuccess RewardPolicy = iota
	RewardOnAttempt
)

// String returns the policy name.
func (policy RewardPolicy) String() string {
	switch policy {
	case RewardOnSuccess:
		return "on-success"
	case RewardOnAttempt:
		return "on-attempt"
	default:
		return "unknown"
	}
}

// Options carries the collaborators of a ledger.
type Options struct {
	Beneficiary  BeneficiarySource
	RewardPolicy RewardPolicy
	Sinks        []EventSink
	Logger       *zerolog.Logger
}

// Config holds the construction parameters of a ledger. Owner is the
// constructing caller and receives the whole initial supply. A nil Decimals
// selects DefaultDecimals; use DecimalPlaces(0) for an indivisible token.
type Config struct {
	Name          string
	Symbol        string
	Decimals      *uint8
	InitialSupply *big.Int
	BlockReward   *big.Int
	Owner         Address

	Options
}

// DecimalPlaces returns a Config.Decimals value.
func DecimalPlaces(places uint8) *uint8 {
	return &places
}

// Event is one notification emitted by a ledger transition. Sequence starts
// at 1 for the deploy event and grows by one per event.
type Event struct {
	Sequence uint64
	Kind     string
	From     Address
	To       Address
	Amount   *big.Int
}

// SupplyView summarizes supply-related state at one instant.
type SupplyView struct {
	TotalSupply *big.Int
	BlockReward *big.Int
	Holders     int
}

// BalanceEntry is one account balance inside a Snapshot.
type BalanceEntry struct {
	_       struct{} `cbor:",toarray"`
	Address Address
	Amount  *big.Int
}

// Snapshot is a point-in-time copy of the whole ledger state. Balances are
// sorted by address.
type Snapshot struct {
	Name        string         `cbor:"name"`
	Symbol      string         `cbor:"symbol"`
	Decimals    uint8          `cbor:"decimals"`
	Owner       Address        `cbor:"owner"`
	TotalSupply *big.Int       `cbor:"supply"`
	BlockReward *big.Int       `cbor:"reward"`
	Sequence    uint64         `cbor:"seq"`
	Balances    []BalanceEntry `cbor:"balances"`
}
