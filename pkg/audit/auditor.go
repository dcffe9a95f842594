package audit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	"github.com/hashgraph-online/token-ledger-go/pkg/mirror"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

const defaultPageLimit = 100

type Config struct {
	Network       string
	MirrorBaseURL string
	TopicID       string
	APIKey        string
	HTTPClient    *http.Client
	PageLimit     int
	Logger        *zerolog.Logger
}

// Auditor replays a ledger event topic. It is safe for concurrent use.
type Auditor struct {
	mirrorClient *mirror.Client
	topicID      string
	pageLimit    int
	logger       zerolog.Logger

	runMutex          sync.Mutex
	mutex             sync.RWMutex
	state             *replayState
	lastTopicSequence int64
	pollStopChannel   chan struct{}
	pollDoneChannel   chan struct{}
}

func NewAuditor(config Config) (*Auditor, error) {
	topicID := strings.TrimSpace(config.TopicID)
	if topicID == "" {
		return nil, fmt.Errorf("topic ID is required")
	}
	if _, err := hedera.TopicIDFromString(topicID); err != nil {
		return nil, fmt.Errorf("invalid topic ID: %w", err)
	}

	mirrorClient, err := mirror.NewClient(mirror.Config{
		Network:    config.Network,
		BaseURL:    config.MirrorBaseURL,
		HTTPClient: config.HTTPClient,
		APIKey:     config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	pageLimit := config.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Auditor{
		mirrorClient: mirrorClient,
		topicID:      topicID,
		pageLimit:    pageLimit,
		logger:       logger.With().Str("component", "auditor").Str("topic_id", topicID).Logger(),
		state:        newReplayState(),
	}, nil
}

// AuditOnce replays every message published since the previous pass and
// returns the cumulative report.
func (auditor *Auditor) AuditOnce(ctx context.Context) (Report, error) {
	auditor.runMutex.Lock()
	defer auditor.runMutex.Unlock()

	auditor.mutex.RLock()
	after := auditor.lastTopicSequence
	auditor.mutex.RUnlock()

	messages, err := auditor.mirrorClient.TopicMessages(ctx, auditor.topicID, mirror.MessageQuery{
		AfterSequence: after,
		Limit:         auditor.pageLimit,
		Order:         mirror.OrderAscending,
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to read event topic %s: %w", auditor.topicID, err)
	}

	auditor.mutex.Lock()
	violationsBefore := len(auditor.state.violations)
	applied := 0
	for _, message := range messages {
		if message.SequenceNumber <= auditor.lastTopicSequence {
			continue
		}
		auditor.lastTopicSequence = message.SequenceNumber
		auditor.applyMessage(message)
		applied++
	}
	report := auditor.reportLocked()
	report.NewEvents = applied
	auditor.mutex.Unlock()

	auditor.logger.Debug().
		Int("messages", applied).
		Uint64("last_seq", report.LastSequence).
		Msg("audit pass complete")
	for _, violation := range report.Violations[violationsBefore:] {
		auditor.logger.Warn().
			Str("kind", string(violation.Kind)).
			Uint64("seq", violation.Sequence).
			Int64("topic_seq", violation.TopicSequence).
			Msg(violation.Message)
	}
	return report, nil
}

func (auditor *Auditor) applyMessage(message mirror.TopicMessage) {
	if message.ChunkInfo != nil && message.ChunkInfo.Total > 1 {
		auditor.state.record(ViolationMalformedMessage, ledger.Event{}, message.SequenceNumber, "chunked message")
		return
	}
	payload, err := mirror.DecodeMessageData(message)
	if err != nil {
		auditor.state.record(ViolationMalformedMessage, ledger.Event{}, message.SequenceNumber, "%v", err)
		return
	}
	event, err := ledger.ParseEventBytes(payload)
	if err != nil {
		auditor.state.record(ViolationMalformedMessage, ledger.Event{}, message.SequenceNumber, "%v", err)
		return
	}
	auditor.state.apply(event, message.SequenceNumber)
}

// Report returns the state reached by the last audit pass.
func (auditor *Auditor) Report() Report {
	auditor.mutex.RLock()
	defer auditor.mutex.RUnlock()
	return auditor.reportLocked()
}

func (auditor *Auditor) reportLocked() Report {
	state := auditor.state
	report := Report{
		TopicID:      auditor.topicID,
		Events:       state.events,
		LastSequence: state.lastSequence,
		Owner:        state.owner,
		TotalSupply:  new(big.Int).Set(state.totalSupply),
		Holders:      len(state.balances),
		Violations:   append([]Violation(nil), state.violations...),
	}
	if state.blockReward != nil {
		report.BlockReward = new(big.Int).Set(state.blockReward)
	}
	return report
}

// BalanceOf returns the replayed balance of address.
func (auditor *Auditor) BalanceOf(address ledger.Address) *big.Int {
	auditor.mutex.RLock()
	defer auditor.mutex.RUnlock()
	return new(big.Int).Set(auditor.state.balance(address))
}

// Verify compares the replayed state with source. The returned error wraps
// ErrStateMismatch and lists every difference.
func (auditor *Auditor) Verify(source *ledger.Ledger) error {
	if source == nil {
		return fmt.Errorf("ledger is required")
	}
	snapshot := source.Snapshot()

	auditor.mutex.RLock()
	defer auditor.mutex.RUnlock()
	state := auditor.state

	var mismatches []error
	if snapshot.Sequence != state.lastSequence {
		mismatches = append(mismatches, fmt.Errorf("sequence: ledger %d, log %d", snapshot.Sequence, state.lastSequence))
	}
	if snapshot.TotalSupply.Cmp(state.totalSupply) != 0 {
		mismatches = append(mismatches, fmt.Errorf("total supply: ledger %s, log %s", snapshot.TotalSupply, state.totalSupply))
	}
	if state.deployed && snapshot.Owner != state.owner {
		mismatches = append(mismatches, fmt.Errorf("owner: ledger %s, log %s", snapshot.Owner, state.owner))
	}

	seen := make(map[ledger.Address]struct{}, len(snapshot.Balances))
	for _, entry := range snapshot.Balances {
		seen[entry.Address] = struct{}{}
		if replayed := state.balance(entry.Address); replayed.Cmp(entry.Amount) != 0 {
			mismatches = append(mismatches, fmt.Errorf("balance of %s: ledger %s, log %s", entry.Address, entry.Amount, replayed))
		}
	}
	for _, address := range state.holders() {
		if _, exists := seen[address]; !exists {
			mismatches = append(mismatches, fmt.Errorf("balance of %s: ledger 0, log %s", address, state.balance(address)))
		}
	}

	if len(mismatches) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStateMismatch, errors.Join(mismatches...))
}

// StartPolling runs AuditOnce immediately and then every interval until
// StopPolling is called or ctx is done.
func (auditor *Auditor) StartPolling(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	auditor.mutex.Lock()
	if auditor.pollStopChannel != nil {
		auditor.mutex.Unlock()
		return fmt.Errorf("auditor polling already running")
	}
	stopChannel := make(chan struct{})
	doneChannel := make(chan struct{})
	auditor.pollStopChannel = stopChannel
	auditor.pollDoneChannel = doneChannel
	auditor.mutex.Unlock()

	go func() {
		defer close(doneChannel)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		auditor.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				auditor.releasePolling(stopChannel)
				return
			case <-stopChannel:
				return
			case <-ticker.C:
				auditor.poll(ctx)
			}
		}
	}()
	return nil
}

// releasePolling clears the loop state when the loop ends on its own, so
// polling can be started again after ctx is cancelled.
func (auditor *Auditor) releasePolling(stopChannel chan struct{}) {
	auditor.mutex.Lock()
	defer auditor.mutex.Unlock()
	if auditor.pollStopChannel == stopChannel {
		auditor.pollStopChannel = nil
		auditor.pollDoneChannel = nil
	}
}

func (auditor *Auditor) poll(ctx context.Context) {
	if _, err := auditor.AuditOnce(ctx); err != nil && ctx.Err() == nil {
		auditor.logger.Error().Err(err).Msg("audit pass failed")
	}
}

// StopPolling stops an active polling loop and waits for it to exit.
func (auditor *Auditor) StopPolling() {
	auditor.mutex.Lock()
	stopChannel := auditor.pollStopChannel
	doneChannel := auditor.pollDoneChannel
	auditor.pollStopChannel = nil
	auditor.pollDoneChannel = nil
	auditor.mutex.Unlock()

	if stopChannel != nil {
		close(stopChannel)
	}
	if doneChannel != nil {
		<-doneChannel
	}
}
