package publisher

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeEmitter struct {
	mutex   sync.Mutex
	methods []string
	args    [][]interface{}
	fail    error
}

func (emitter *fakeEmitter) Emit(method string, args ...interface{}) error {
	emitter.mutex.Lock()
	defer emitter.mutex.Unlock()
	if emitter.fail != nil {
		return emitter.fail
	}
	emitter.methods = append(emitter.methods, method)
	emitter.args = append(emitter.args, args)
	return nil
}

// stallingEmitter blocks every write until release is closed, like a socket
// whose peer stopped reading.
type stallingEmitter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	fakeEmitter
}

func newStallingEmitter() *stallingEmitter {
	return &stallingEmitter{entered: make(chan struct{}), release: make(chan struct{})}
}

func (emitter *stallingEmitter) Emit(method string, args ...interface{}) error {
	emitter.once.Do(func() { close(emitter.entered) })
	<-emitter.release
	return emitter.fakeEmitter.Emit(method, args...)
}

func TestStreamPublisherEmitsPayload(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	emitter := &fakeEmitter{}
	publisher := newStreamPublisher(emitter, 0, nil)
	require.NoError(t, publisher.Start(context.Background()))

	require.NoError(t, publisher.Emit(sampleEvent()))
	publisher.Stop()

	require.Equal(t, []string{StreamEventName}, emitter.methods)
	require.Len(t, emitter.args[0], 1)

	payload, ok := emitter.args[0][0].(string)
	require.True(t, ok)
	event, err := ledger.ParseEventBytes([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, ledger.Address("0.0.1002"), event.To)
	assert.Equal(t, Stats{Queued: 1, Published: 1}, publisher.Stats())
}

func TestStreamPublisherErrors(t *testing.T) {
	failure := errors.New("closed")
	publisher := newStreamPublisher(&fakeEmitter{fail: failure}, 0, nil)
	require.NoError(t, publisher.Emit(sampleEvent()))
	publisher.Stop()
	assert.Equal(t, Stats{Queued: 1, Failed: 1}, publisher.Stats())

	invalid := sampleEvent()
	invalid.Kind = ""
	assert.ErrorIs(t, newStreamPublisher(&fakeEmitter{}, 0, nil).Emit(invalid), ledger.ErrInvalidArgument)

	_, err := NewStreamPublisher(StreamConfig{URL: " "})
	assert.Error(t, err)
}

func TestStreamPublisherQueueFull(t *testing.T) {
	publisher := newStreamPublisher(&fakeEmitter{}, 1, nil)
	require.NoError(t, publisher.Emit(sampleEvent()))
	assert.ErrorIs(t, publisher.Emit(sampleEvent()), ErrQueueFull)
	assert.Equal(t, 1, publisher.Pending())
	assert.Equal(t, uint64(1), publisher.Stats().Dropped)
}

func TestStalledStreamDoesNotBlockLedger(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	emitter := newStallingEmitter()
	publisher := newStreamPublisher(emitter, 1, nil)
	require.NoError(t, publisher.Start(context.Background()))

	type outcome struct {
		tokenLedger *ledger.Ledger
		err         error
	}
	finished := make(chan outcome, 1)
	go func() {
		tokenLedger, err := ledger.New(ledger.Config{
			Name:          "AespaToken",
			Symbol:        "AES",
			InitialSupply: big.NewInt(1000),
			BlockReward:   big.NewInt(50),
			Owner:         "0.0.1001",
			Options: ledger.Options{
				Beneficiary: ledger.StaticBeneficiary("0.0.3"),
				Sinks:       []ledger.EventSink{publisher},
			},
		})
		if err == nil {
			err = tokenLedger.Transfer("0.0.1001", "0.0.1002", big.NewInt(10))
		}
		finished <- outcome{tokenLedger: tokenLedger, err: err}
	}()

	var result outcome
	select {
	case result = <-finished:
	case <-time.After(2 * time.Second):
		close(emitter.release)
		publisher.Stop()
		t.Fatal("ledger blocked behind a stalled stream")
	}
	require.NoError(t, result.err)

	select {
	case <-emitter.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached the socket")
	}
	assert.Equal(t, "10", result.tokenLedger.BalanceOf("0.0.1002").String())
	assert.GreaterOrEqual(t, publisher.Stats().Dropped, uint64(1))

	close(emitter.release)
	publisher.Stop()
	assert.Equal(t, 0, publisher.Pending())
	stats := publisher.Stats()
	assert.Equal(t, stats.Queued, stats.Published)
}
