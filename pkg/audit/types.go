package audit

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
)

type ViolationKind string

const (
	ViolationSequenceGap        ViolationKind = "sequence_gap"
	ViolationSequenceRegression ViolationKind = "sequence_regression"
	ViolationMissingDeploy      ViolationKind = "missing_deploy"
	ViolationDuplicateDeploy    ViolationKind = "duplicate_deploy"
	ViolationOverdraft          ViolationKind = "overdraft"
	ViolationRewardMismatch     ViolationKind = "reward_mismatch"
	ViolationMalformedMessage   ViolationKind = "malformed_message"
)

// ErrStateMismatch is wrapped by Verify when a live ledger disagrees with
// the replayed log.
var ErrStateMismatch = errors.New("ledger state does not match event log")

// Violation is one broken invariant found in the log. Sequence is the
// ledger event sequence, zero when the message could not be decoded.
type Violation struct {
	Kind          ViolationKind
	Sequence      uint64
	TopicSequence int64
	Message       string
}

func (violation Violation) String() string {
	return fmt.Sprintf("%s at seq %d (topic seq %d): %s", violation.Kind, violation.Sequence, violation.TopicSequence, violation.Message)
}

// Report summarizes the replayed state after an audit pass.
type Report struct {
	TopicID      string
	Events       int
	NewEvents    int
	LastSequence uint64
	Owner        ledger.Address
	TotalSupply  *big.Int
	// BlockReward is nil until the log contains a block_reward_set event.
	BlockReward *big.Int
	Holders     int
	Violations  []Violation
}

// Clean reports whether no violation has been recorded.
func (report Report) Clean() bool {
	return len(report.Violations) == 0
}
