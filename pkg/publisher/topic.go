package publisher

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultQueueSize     = 256
	DefaultRatePerSecond = 5
)

type TopicConfig struct {
	TopicID         string
	Submitter       Submitter
	TransactionMemo string
	QueueSize       int
	// RatePerSecond caps submissions; zero selects DefaultRatePerSecond and a
	// negative value disables the limit.
	RatePerSecond float64
	Burst         int
	Logger        *zerolog.Logger
	// OnPublished, when set, is called from the worker after each submission.
	OnPublished func(event ledger.Event, result SubmitResult, err error)
}

// Stats counts events by outcome.
type Stats struct {
	Queued    uint64
	Published uint64
	Failed    uint64
	Dropped   uint64
}

// TopicPublisher is a ledger.EventSink that submits events to a consensus
// topic in emission order from a single worker goroutine.
type TopicPublisher struct {
	topicID     hedera.TopicID
	memo        string
	submitter   Submitter
	limiter     *rate.Limiter
	dispatcher  *dispatcher
	onPublished func(ledger.Event, SubmitResult, error)
	logger      zerolog.Logger

	mutex sync.Mutex
	stats Stats
}

func NewTopicPublisher(config TopicConfig) (*TopicPublisher, error) {
	topicID, err := parseTopicID(config.TopicID)
	if err != nil {
		return nil, err
	}
	if config.Submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	limit := rate.Inf
	burst := config.Burst
	switch {
	case config.RatePerSecond == 0:
		limit = rate.Limit(DefaultRatePerSecond)
	case config.RatePerSecond > 0:
		limit = rate.Limit(config.RatePerSecond)
	}
	if burst <= 0 {
		burst = 1
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	publisher := &TopicPublisher{
		topicID:     topicID,
		memo:        config.TransactionMemo,
		submitter:   config.Submitter,
		limiter:     rate.NewLimiter(limit, burst),
		onPublished: config.OnPublished,
		logger:      logger.With().Str("component", "topic-publisher").Str("topic_id", topicID.String()).Logger(),
	}
	publisher.dispatcher = newDispatcher(queueSize, publisher.publish)
	return publisher, nil
}

func (publisher *TopicPublisher) TopicID() string {
	return publisher.topicID.String()
}

// Emit validates and enqueues event. It never blocks.
func (publisher *TopicPublisher) Emit(event ledger.Event) error {
	payload, err := ledger.BuildEventPayload(event)
	if err != nil {
		return err
	}

	if publisher.dispatcher.enqueue(pendingEvent{event: event, payload: payload}) {
		publisher.count(func(stats *Stats) { stats.Queued++ })
		return nil
	}
	publisher.count(func(stats *Stats) { stats.Dropped++ })
	publisher.logger.Error().Uint64("seq", event.Sequence).Str("op", event.Kind).Msg("event dropped, queue full")
	return ErrQueueFull
}

// Pending returns the number of queued events not yet submitted.
func (publisher *TopicPublisher) Pending() int {
	return publisher.dispatcher.pending()
}

func (publisher *TopicPublisher) Stats() Stats {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return publisher.stats
}

// Start launches the submission worker. The worker exits when ctx is done
// or Stop is called; after a cancelled ctx the publisher may be started again.
func (publisher *TopicPublisher) Start(ctx context.Context) error {
	if err := publisher.dispatcher.start(ctx); err != nil {
		return err
	}
	publisher.logger.Debug().Msg("publisher started")
	return nil
}

// Stop submits whatever is still queued, then stops the worker. It drains
// the queue itself when no worker is running.
func (publisher *TopicPublisher) Stop() {
	publisher.dispatcher.stop()
}

func (publisher *TopicPublisher) publish(ctx context.Context, pending pendingEvent) {
	var result SubmitResult
	err := publisher.limiter.Wait(ctx)
	if err == nil {
		transaction := buildPayloadSubmitTx(publisher.topicID, pending.payload, publisher.memo)
		result, err = publisher.submitter.Submit(ctx, transaction)
	}

	if err != nil {
		publisher.count(func(stats *Stats) { stats.Failed++ })
		publisher.logger.Error().Err(err).
			Uint64("seq", pending.event.Sequence).
			Str("op", pending.event.Kind).
			Msg("failed to publish ledger event")
	} else {
		publisher.count(func(stats *Stats) { stats.Published++ })
		publisher.logger.Debug().
			Uint64("seq", pending.event.Sequence).
			Str("op", pending.event.Kind).
			Str("transaction_id", result.TransactionID).
			Uint64("topic_seq", result.SequenceNumber).
			Msg("ledger event published")
	}

	if publisher.onPublished != nil {
		publisher.onPublished(pending.event, result, err)
	}
}

func (publisher *TopicPublisher) count(update func(*Stats)) {
	publisher.mutex.Lock()
	update(&publisher.stats)
	publisher.mutex.Unlock()
}
