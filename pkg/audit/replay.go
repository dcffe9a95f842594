package audit

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
)

// replayState applies events the way a ledger would, refusing transitions a
// ledger would have reverted.
type replayState struct {
	owner        ledger.Address
	deployed     bool
	missingFlag  bool
	lastSequence uint64
	totalSupply  *big.Int
	blockReward  *big.Int
	balances     map[ledger.Address]*big.Int
	events       int
	violations   []Violation
}

func newReplayState() *replayState {
	return &replayState{
		totalSupply: big.NewInt(0),
		balances:    map[ledger.Address]*big.Int{},
	}
}

func (state *replayState) record(kind ViolationKind, event ledger.Event, topicSequence int64, format string, args ...any) {
	state.violations = append(state.violations, Violation{
		Kind:          kind,
		Sequence:      event.Sequence,
		TopicSequence: topicSequence,
		Message:       fmt.Sprintf(format, args...),
	})
}

func (state *replayState) apply(event ledger.Event, topicSequence int64) {
	expected := state.lastSequence + 1
	if event.Sequence < expected {
		state.record(ViolationSequenceRegression, event, topicSequence, "expected seq %d", expected)
		return
	}
	if event.Sequence > expected {
		state.record(ViolationSequenceGap, event, topicSequence, "missing seq %d..%d", expected, event.Sequence-1)
	}
	state.lastSequence = event.Sequence
	state.events++

	if event.Kind == ledger.EventDeploy {
		if state.deployed {
			state.record(ViolationDuplicateDeploy, event, topicSequence, "ledger already deployed to %s", state.owner)
			return
		}
		state.deployed = true
		state.owner = event.To
		state.credit(event.To, event.Amount)
		return
	}
	if !state.deployed && !state.missingFlag {
		state.missingFlag = true
		state.record(ViolationMissingDeploy, event, topicSequence, "%s before deploy", event.Kind)
	}

	switch event.Kind {
	case ledger.EventTransfer:
		if !state.covers(event, topicSequence) {
			return
		}
		state.debit(event.From, event.Amount)
		state.credit(event.To, event.Amount)
	case ledger.EventMint:
		state.credit(event.To, event.Amount)
	case ledger.EventMinerReward:
		if state.blockReward != nil && state.blockReward.Cmp(event.Amount) != 0 {
			state.record(ViolationRewardMismatch, event, topicSequence, "reward %s, rate %s", event.Amount, state.blockReward)
		}
		state.credit(event.To, event.Amount)
	case ledger.EventBurn:
		if !state.covers(event, topicSequence) {
			return
		}
		state.debit(event.From, event.Amount)
	case ledger.EventBlockRewardSet:
		state.blockReward = new(big.Int).Set(event.Amount)
	}
}

func (state *replayState) covers(event ledger.Event, topicSequence int64) bool {
	available := state.balance(event.From)
	if available.Cmp(event.Amount) >= 0 {
		return true
	}
	state.record(ViolationOverdraft, event, topicSequence, "%s moves %s, holds %s", event.From, event.Amount, available)
	return false
}

func (state *replayState) balance(address ledger.Address) *big.Int {
	if balance, exists := state.balances[address]; exists {
		return balance
	}
	return big.NewInt(0)
}

func (state *replayState) credit(address ledger.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	state.balances[address] = new(big.Int).Add(state.balance(address), amount)
	state.totalSupply.Add(state.totalSupply, amount)
}

// debit is the inverse of credit. A transfer's credit restores the supply
// its debit removed.
func (state *replayState) debit(address ledger.Address, amount *big.Int) {
	remaining := new(big.Int).Sub(state.balance(address), amount)
	if remaining.Sign() == 0 {
		delete(state.balances, address)
	} else {
		state.balances[address] = remaining
	}
	state.totalSupply.Sub(state.totalSupply, amount)
}

func (state *replayState) holders() []ledger.Address {
	holders := make([]ledger.Address, 0, len(state.balances))
	for address := range state.balances {
		holders = append(holders, address)
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
	return holders
}
