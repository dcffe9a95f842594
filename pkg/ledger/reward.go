package ledger

import (
	"math/big"
	"sync"
)

// BeneficiarySource supplies the address credited by the miner reward of the
// current unit of work. It returns false when no beneficiary is known.
type BeneficiarySource interface {
	Beneficiary() (Address, bool)
}

// BeneficiaryFunc adapts a function to BeneficiarySource.
type BeneficiaryFunc func() (Address, bool)

func (fn BeneficiaryFunc) Beneficiary() (Address, bool) {
	return fn()
}

// StaticBeneficiary always names the same address.
func StaticBeneficiary(address Address) BeneficiarySource {
	return BeneficiaryFunc(func() (Address, bool) {
		return address, !address.IsZero()
	})
}

// RotatingBeneficiary hands out a fixed set of miners round-robin, one per
// call.
type RotatingBeneficiary struct {
	mutex  sync.Mutex
	miners []Address
	next   int
}

func NewRotatingBeneficiary(miners ...Address) *RotatingBeneficiary {
	return &RotatingBeneficiary{miners: append([]Address{}, miners...)}
}

func (rotating *RotatingBeneficiary) Beneficiary() (Address, bool) {
	rotating.mutex.Lock()
	defer rotating.mutex.Unlock()

	if len(rotating.miners) == 0 {
		return "", false
	}
	miner := rotating.miners[rotating.next%len(rotating.miners)]
	rotating.next++
	return miner, true
}

// MintMinerReward credits the current beneficiary with the block reward and
// grows total supply by the same amount. It performs no authorization check
// and is not idempotent: each call mints again. It returns the credited
// address and amount; a zero address means nothing was minted.
func (ledger *Ledger) MintMinerReward() (Address, *big.Int, error) {
	ledger.mutex.Lock()
	defer ledger.mutex.Unlock()
	return ledger.mintMinerRewardLocked()
}

func (ledger *Ledger) mintMinerRewardLocked() (Address, *big.Int, error) {
	if ledger.beneficiary == nil || ledger.blockReward.Sign() == 0 {
		return "", new(big.Int), nil
	}

	candidate, ok := ledger.beneficiary.Beneficiary()
	if !ok {
		return "", new(big.Int), nil
	}
	beneficiary, err := NormalizeAddress(string(candidate))
	if err != nil {
		return "", new(big.Int), err
	}

	reward := cloneAmount(ledger.blockReward)
	ledger.creditLocked(beneficiary, reward)
	ledger.totalSupply.Add(ledger.totalSupply, reward)
	ledger.emitLocked(EventMinerReward, "", beneficiary, reward)

	ledger.logger.Debug().
		Str("beneficiary", string(beneficiary)).
		Str("amount", reward.String()).
		Msg("miner reward minted")
	return beneficiary, cloneAmount(reward), nil
}

func (ledger *Ledger) rewardForTransferLocked() {
	if _, _, err := ledger.mintMinerRewardLocked(); err != nil {
		ledger.logger.Warn().Err(err).Msg("miner reward skipped")
	}
}
