package publisher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	"github.com/rs/zerolog"
	socketio "github.com/zhouhui8915/go-socket.io-client"
)

// StreamEventName is the socket.io event each payload is emitted under.
const StreamEventName = "ledger-event"

type StreamConfig struct {
	URL       string
	APIKey    string
	QueueSize int
	Logger    *zerolog.Logger
}

type emitter interface {
	Emit(method string, args ...interface{}) error
}

// StreamPublisher is a ledger.EventSink that emits JSON event payloads on a
// socket.io connection. Emit only enqueues; a worker started with Start
// writes to the socket, so a stalled connection never holds up the ledger.
type StreamPublisher struct {
	client     emitter
	dispatcher *dispatcher
	logger     zerolog.Logger

	mutex sync.Mutex
	stats Stats
}

// NewStreamPublisher connects to config.URL over the websocket transport.
func NewStreamPublisher(config StreamConfig) (*StreamPublisher, error) {
	endpoint := strings.TrimSpace(config.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("stream URL is required")
	}

	options := &socketio.Options{
		Transport: "websocket",
		Query:     map[string]string{},
		Header:    map[string][]string{},
	}
	if apiKey := strings.TrimSpace(config.APIKey); apiKey != "" {
		options.Query["apiKey"] = apiKey
		options.Header["x-api-key"] = []string{apiKey}
	}

	client, err := socketio.NewClient(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to event stream: %w", err)
	}

	publisher := newStreamPublisher(client, config.QueueSize, config.Logger)
	_ = client.On("error", func(message any) {
		publisher.logger.Error().Str("error", fmt.Sprintf("%v", message)).Msg("event stream error")
	})
	_ = client.On("disconnection", func() {
		publisher.logger.Warn().Msg("event stream disconnected")
	})
	return publisher, nil
}

func newStreamPublisher(client emitter, queueSize int, logger *zerolog.Logger) *StreamPublisher {
	base := zerolog.Nop()
	if logger != nil {
		base = *logger
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	publisher := &StreamPublisher{
		client: client,
		logger: base.With().Str("component", "stream-publisher").Logger(),
	}
	publisher.dispatcher = newDispatcher(queueSize, publisher.stream)
	return publisher
}

// Emit validates and enqueues event. It returns ErrQueueFull instead of
// blocking when the worker falls behind.
func (publisher *StreamPublisher) Emit(event ledger.Event) error {
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

func (publisher *StreamPublisher) Pending() int {
	return publisher.dispatcher.pending()
}

func (publisher *StreamPublisher) Stats() Stats {
	publisher.mutex.Lock()
	defer publisher.mutex.Unlock()
	return publisher.stats
}

// Start launches the worker that writes queued payloads to the socket.
func (publisher *StreamPublisher) Start(ctx context.Context) error {
	return publisher.dispatcher.start(ctx)
}

// Stop writes whatever is still queued, then stops the worker.
func (publisher *StreamPublisher) Stop() {
	publisher.dispatcher.stop()
}

func (publisher *StreamPublisher) stream(_ context.Context, pending pendingEvent) {
	if err := publisher.client.Emit(StreamEventName, string(pending.payload)); err != nil {
		publisher.count(func(stats *Stats) { stats.Failed++ })
		publisher.logger.Error().Err(err).
			Uint64("seq", pending.event.Sequence).
			Str("op", pending.event.Kind).
			Msg("failed to stream ledger event")
		return
	}
	publisher.count(func(stats *Stats) { stats.Published++ })
	publisher.logger.Debug().Uint64("seq", pending.event.Sequence).Str("op", pending.event.Kind).Msg("ledger event streamed")
}

func (publisher *StreamPublisher) count(update func(*Stats)) {
	publisher.mutex.Lock()
	update(&publisher.stats)
	publisher.mutex.Unlock()
}
