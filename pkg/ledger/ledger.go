package ledger

import (
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	operationMint           = "mint"
	operationSetBlockReward = "set block reward"
)

type Ledger struct {
	mutex sync.RWMutex

	name     string
	symbol   string
	decimals uint8
	owner    Address

	totalSupply *big.Int
	blockReward *big.Int
	balances    map[Address]*big.Int
	sequence    uint64

	beneficiary  BeneficiarySource
	rewardPolicy RewardPolicy
	sink         EventSink
	logger       zerolog.Logger
}

// New constructs a ledger and credits the initial supply to the owner.
func New(config Config) (*Ledger, error) {
	name := strings.TrimSpace(config.Name)
	symbol := strings.TrimSpace(config.Symbol)
	if err := validateMetadata(name, symbol); err != nil {
		return nil, err
	}
	if err := validateAmount("initial supply", config.InitialSupply); err != nil {
		return nil, err
	}
	if err := validateAmount("block reward", config.BlockReward); err != nil {
		return nil, err
	}
	owner, err := NormalizeAddress(string(config.Owner))
	if err != nil {
		return nil, err
	}

	decimals := uint8(DefaultDecimals)
	if config.Decimals != nil {
		decimals = *config.Decimals
	}

	ledger := newLedger(config.Options)
	ledger.name = name
	ledger.symbol = symbol
	ledger.decimals = decimals
	ledger.owner = owner
	ledger.totalSupply = cloneAmount(config.InitialSupply)
	ledger.blockReward = cloneAmount(config.BlockReward)
	if ledger.totalSupply.Sign() > 0 {
		ledger.balances[owner] = cloneAmount(config.InitialSupply)
	}

	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()
	ledger.emitLocked(EventDeploy, "", owner, ledger.totalSupply)

	ledger.logger.Info().
		Str("name", name).
		Str("symbol", symbol).
		Str("owner", string(owner)).
		Str("initial_supply", ledger.totalSupply.String()).
		Str("block_reward", ledger.blockReward.String()).
		Str("reward_policy", ledger.rewardPolicy.String()).
		Msg("ledger deployed")

	return ledger, nil
}

func newLedger(options Options) *Ledger {
	logger := zerolog.Nop()
	if options.Logger != nil {
		logger = options.Logger.With().Str("component", "ledger").Logger()
	}

	var sink EventSink
	switch len(options.Sinks) {
	case 0:
	case 1:
		sink = options.Sinks[0]
	default:
		sink = MultiSink(append([]EventSink{}, options.Sinks...))
	}

	return &Ledger{
		totalSupply:  new(big.Int),
		blockReward:  new(big.Int),
		balances:     map[Address]*big.Int{},
		beneficiary:  options.Beneficiary,
		rewardPolicy: options.RewardPolicy,
		sink:         sink,
		logger:       logger,
	}
}

// Name returns the token name.
func (ledger *Ledger) Name() string {
	return ledger.name
}

// Symbol returns the token symbol.
func (ledger *Ledger) Symbol() string {
	return ledger.symbol
}

// Decimals returns the display precision of amounts.
func (ledger *Ledger) Decimals() uint8 {
	return ledger.decimals
}

// Owner returns the address holding mint and reward-rate authority.
func (ledger *Ledger) Owner() Address {
	return ledger.owner
}

// RewardPolicy returns the configured miner reward policy.
func (ledger *Ledger) RewardPolicy() RewardPolicy {
	return ledger.rewardPolicy
}

// BalanceOf returns the balance of address. Unknown or malformed addresses
// hold zero.
func (ledger *Ledger) BalanceOf(address Address) *big.Int {
	normalized, err := NormalizeAddress(string(address))
	if err != nil {
		return new(big.Int)
	}

	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return cloneAmount(ledger.balances[normalized])
}

// TotalSupply returns the current total supply.
func (ledger *Ledger) TotalSupply() *big.Int {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return cloneAmount(ledger.totalSupply)
}

// BlockReward returns the amount minted per miner reward.
func (ledger *Ledger) BlockReward() *big.Int {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return cloneAmount(ledger.blockReward)
}

// Sequence returns the sequence number of the last emitted event.
func (ledger *Ledger) Sequence() uint64 {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return ledger.sequence
}

// Holders returns every address with a positive balance, sorted.
func (ledger *Ledger) Holders() []Address {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return ledger.holdersLocked()
}

// Supply returns a consistent view of supply, reward and holder count.
func (ledger *Ledger) Supply() SupplyView {
	ledger.mutex.RLock()
	defer ledger.mutex.RUnlock()
	return SupplyView{
		TotalSupply: cloneAmount(ledger.totalSupply),
		BlockReward: cloneAmount(ledger.blockReward),
		Holders:     len(ledger.balances),
	}
}

// Transfer moves amount from one account to another. It triggers the miner
// reward once per admitted call. Under RewardOnAttempt the reward stays
// minted even when the transfer fails with InsufficientBalance; under
// RewardOnSuccess nothing changes on failure.
func (ledger *Ledger) Transfer(from Address, to Address, amount *big.Int) error {
	normalizedFrom, err := NormalizeAddress(string(from))
	if err != nil {
		return err
	}
	normalizedTo, err := NormalizeAddress(string(to))
	if err != nil {
		return err
	}
	if err := validateAmount("amount", amount); err != nil {
		return err
	}

	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	if ledger.rewardPolicy == RewardOnAttempt {
		ledger.rewardForTransferLocked()
	}

	available := ledger.balanceLocked(normalizedFrom)
	if available.Cmp(amount) < 0 {
		err := NewInsufficientBalanceError(normalizedFrom, amount.String(), available.String())
		ledger.logger.Warn().
			Err(err).
			Str("from", string(normalizedFrom)).
			Str("to", string(normalizedTo)).
			Msg("transfer rejected")
		return err
	}

	if ledger.rewardPolicy == RewardOnSuccess {
		ledger.rewardForTransferLocked()
	}

	ledger.debitLocked(normalizedFrom, amount)
	ledger.creditLocked(normalizedTo, amount)
	ledger.emitLocked(EventTransfer, normalizedFrom, normalizedTo, amount)

	ledger.logger.Debug().
		Str("from", string(normalizedFrom)).
		Str("to", string(normalizedTo)).
		Str("amount", amount.String()).
		Msg("transfer applied")
	return nil
}

// Mint creates amount new tokens for to. Only the owner may mint.
func (ledger *Ledger) Mint(caller Address, to Address, amount *big.Int) error {
	if err := ledger.authorize(caller, operationMint); err != nil {
		return err
	}
	normalizedTo, err := NormalizeAddress(string(to))
	if err != nil {
		return err
	}
	if err := validateAmount("amount", amount); err != nil {
		return err
	}

	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	ledger.creditLocked(normalizedTo, amount)
	ledger.totalSupply.Add(ledger.totalSupply, amount)
	ledger.emitLocked(EventMint, "", normalizedTo, amount)

	ledger.logger.Debug().
		Str("to", string(normalizedTo)).
		Str("amount", amount.String()).
		Str("total_supply", ledger.totalSupply.String()).
		Msg("mint applied")
	return nil
}

// Destroy burns amount from the caller's own balance.
func (ledger *Ledger) Destroy(caller Address, amount *big.Int) error {
	normalizedCaller, err := NormalizeAddress(string(caller))
	if err != nil {
		return err
	}
	if err := validateAmount("amount", amount); err != nil {
		return err
	}

	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	available := ledger.balanceLocked(normalizedCaller)
	if available.Cmp(amount) < 0 {
		err := NewInsufficientBalanceError(normalizedCaller, amount.String(), available.String())
		ledger.logger.Warn().Err(err).Str("from", string(normalizedCaller)).Msg("burn rejected")
		return err
	}

	ledger.debitLocked(normalizedCaller, amount)
	ledger.totalSupply.Sub(ledger.totalSupply, amount)
	ledger.emitLocked(EventBurn, normalizedCaller, "", amount)

	ledger.logger.Debug().
		Str("from", string(normalizedCaller)).
		Str("amount", amount.String()).
		Str("total_supply", ledger.totalSupply.String()).
		Msg("burn applied")
	return nil
}

// SetBlockReward replaces the miner reward rate. Only the owner may call it.
func (ledger *Ledger) SetBlockReward(caller Address, rate *big.Int) error {
	if err := ledger.authorize(caller, operationSetBlockReward); err != nil {
		return err
	}
	if err := validateAmount("block reward", rate); err != nil {
		return err
	}

	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()

	ledger.blockReward = cloneAmount(rate)
	ledger.emitLocked(EventBlockRewardSet, "", "", rate)

	ledger.logger.Debug().Str("block_reward", rate.String()).Msg("block reward set")
	return nil
}

// authorize admits caller only if it is the owner. Owner is immutable, so
// the check needs no lock.
func (ledger *Ledger) authorize(caller Address, operation string) error {
	normalizedCaller, err := NormalizeAddress(string(caller))
	if err != nil || normalizedCaller != ledger.owner {
		unauthorized := NewUnauthorizedError(caller, operation)
		ledger.logger.Warn().Err(unauthorized).Str("caller", string(caller)).Msg("privileged operation rejected")
		return unauthorized
	}
	return nil
}

func (ledger *Ledger) balanceLocked(address Address) *big.Int {
	balance, exists := ledger.balances[address]
	if !exists {
		return new(big.Int)
	}
	return balance
}

func (ledger *Ledger) creditLocked(address Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	balance, exists := ledger.balances[address]
	if !exists {
		ledger.balances[address] = cloneAmount(amount)
		return
	}
	balance.Add(balance, amount)
}

// debitLocked expects the caller to have checked the balance.
func (ledger *Ledger) debitLocked(address Address, amount *big.Int) {
	balance, exists := ledger.balances[address]
	if !exists {
		return
	}
	balance.Sub(balance, amount)
	if balance.Sign() == 0 {
		delete(ledger.balances, address)
	}
}

func (ledger *Ledger) holdersLocked() []Address {
	holders := make([]Address, 0, len(ledger.balances))
	for address := range ledger.balances {
		holders = append(holders, address)
	}
	sort.Slice(holders, func(left, right int) bool {
		return holders[left] < holders[right]
	})
	return holders
}

func (ledger *Ledger) emitLocked(kind string, from Address, to Address, amount *big.Int) {
	ledger.sequence++
	if ledger.sink == nil {
		return
	}

	event := Event{
		Sequence: ledger.sequence,
		Kind:     kind,
		From:     from,
		To:       to,
		Amount:   cloneAmount(amount),
	}
	if err := ledger.sink.Emit(event); err != nil {
		ledger.logger.Error().
			Err(err).
			Str("kind", kind).
			Uint64("sequence", event.Sequence).
			Msg("event sink failed")
	}
}
