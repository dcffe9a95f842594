package publisher

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingSubmitter struct {
	mutex    sync.Mutex
	payloads [][]byte
	fail     error
}

func (submitter *recordingSubmitter) Submit(
	_ context.Context,
	transaction *hedera.TopicMessageSubmitTransaction,
) (SubmitResult, error) {
	submitter.mutex.Lock()
	defer submitter.mutex.Unlock()
	if submitter.fail != nil {
		return SubmitResult{}, submitter.fail
	}
	submitter.payloads = append(submitter.payloads, transaction.GetMessage())
	return SubmitResult{
		TransactionID:  "0.0.2@1700000000.000000000",
		SequenceNumber: uint64(len(submitter.payloads)),
	}, nil
}

func (submitter *recordingSubmitter) events(t *testing.T) []ledger.Event {
	t.Helper()
	submitter.mutex.Lock()
	defer submitter.mutex.Unlock()
	events := make([]ledger.Event, 0, len(submitter.payloads))
	for _, payload := range submitter.payloads {
		event, err := ledger.ParseEventBytes(payload)
		require.NoError(t, err)
		events = append(events, event)
	}
	return events
}

func sampleEvent() ledger.Event {
	return ledger.Event{
		Sequence: 2,
		Kind:     ledger.EventTransfer,
		From:     "0.0.1001",
		To:       "0.0.1002",
		Amount:   big.NewInt(25),
	}
}

func TestBuildEventSubmitTx(t *testing.T) {
	transaction, err := BuildEventSubmitTx("0.0.9000", sampleEvent(), " ledger ")
	require.NoError(t, err)
	assert.Equal(t, "0.0.9000", transaction.GetTopicID().String())
	assert.Equal(t, "ledger", transaction.GetTransactionMemo())

	decoded, err := ledger.ParseEventBytes(transaction.GetMessage())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), decoded.Sequence)
	assert.Equal(t, ledger.EventTransfer, decoded.Kind)
	assert.Equal(t, "25", decoded.Amount.String())
}

func TestBuildEventSubmitTxErrors(t *testing.T) {
	_, err := BuildEventSubmitTx("", sampleEvent(), "")
	assert.Error(t, err)

	_, err = BuildEventSubmitTx("topic", sampleEvent(), "")
	assert.Error(t, err)

	invalid := sampleEvent()
	invalid.Kind = "approve"
	_, err = BuildEventSubmitTx("0.0.9000", invalid, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestNewTopicPublisherValidation(t *testing.T) {
	_, err := NewTopicPublisher(TopicConfig{Submitter: &recordingSubmitter{}})
	assert.Error(t, err)

	_, err = NewTopicPublisher(TopicConfig{TopicID: "0.0.9000"})
	assert.Error(t, err)

	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: &recordingSubmitter{}})
	require.NoError(t, err)
	assert.Equal(t, "0.0.9000", publisher.TopicID())
}

func TestTopicPublisherDeliversLedgerEventsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	submitter := &recordingSubmitter{}
	publisher, err := NewTopicPublisher(TopicConfig{
		TopicID:       "0.0.9000",
		Submitter:     submitter,
		RatePerSecond: -1,
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Start(context.Background()))

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
	require.NoError(t, err)
	require.NoError(t, tokenLedger.Transfer("0.0.1001", "0.0.1002", big.NewInt(10)))
	require.NoError(t, tokenLedger.Mint("0.0.1001", "0.0.1002", big.NewInt(5)))
	require.NoError(t, tokenLedger.Destroy("0.0.1001", big.NewInt(1)))

	publisher.Stop()

	events := submitter.events(t)
	require.Len(t, events, 5)
	kinds := make([]string, 0, len(events))
	for index, event := range events {
		assert.Equal(t, uint64(index+1), event.Sequence)
		kinds = append(kinds, event.Kind)
	}
	assert.Equal(t, []string{
		ledger.EventDeploy,
		ledger.EventMinerReward,
		ledger.EventTransfer,
		ledger.EventMint,
		ledger.EventBurn,
	}, kinds)

	stats := publisher.Stats()
	assert.Equal(t, uint64(5), stats.Queued)
	assert.Equal(t, uint64(5), stats.Published)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, publisher.Pending())
}

func TestTopicPublisherStopDrainsQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	submitter := &recordingSubmitter{}
	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: submitter, RatePerSecond: -1})
	require.NoError(t, err)

	for sequence := uint64(1); sequence <= 3; sequence++ {
		event := sampleEvent()
		event.Sequence = sequence
		require.NoError(t, publisher.Emit(event))
	}
	assert.Equal(t, 3, publisher.Pending())

	require.NoError(t, publisher.Start(context.Background()))
	publisher.Stop()

	assert.Len(t, submitter.events(t), 3)
	assert.Zero(t, publisher.Pending())
}

func TestTopicPublisherQueueFull(t *testing.T) {
	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: &recordingSubmitter{}, QueueSize: 1})
	require.NoError(t, err)

	require.NoError(t, publisher.Emit(sampleEvent()))
	assert.ErrorIs(t, publisher.Emit(sampleEvent()), ErrQueueFull)
	assert.Equal(t, uint64(1), publisher.Stats().Dropped)
}

func TestTopicPublisherRejectsInvalidEvent(t *testing.T) {
	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: &recordingSubmitter{}})
	require.NoError(t, err)

	invalid := sampleEvent()
	invalid.Sequence = 0
	assert.ErrorIs(t, publisher.Emit(invalid), ledger.ErrInvalidArgument)
	assert.Zero(t, publisher.Pending())
}

func TestTopicPublisherReportsSubmitFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	failure := errors.New("BUSY")
	var reported []error
	publisher, err := NewTopicPublisher(TopicConfig{
		TopicID:       "0.0.9000",
		Submitter:     &recordingSubmitter{fail: failure},
		RatePerSecond: -1,
		OnPublished: func(_ ledger.Event, _ SubmitResult, err error) {
			reported = append(reported, err)
		},
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Emit(sampleEvent()))
	require.NoError(t, publisher.Start(context.Background()))
	publisher.Stop()

	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], failure)
	assert.Equal(t, uint64(1), publisher.Stats().Failed)
}

func TestTopicPublisherLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: &recordingSubmitter{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.Start(ctx))
	assert.ErrorIs(t, publisher.Start(ctx), ErrAlreadyRunning)

	cancel()
	publisher.Stop()
	publisher.Stop()

	require.NoError(t, publisher.Start(context.Background()))
	publisher.Stop()
}

func isRunning(d *dispatcher) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.stopChannel != nil
}

func TestTopicPublisherRestartsAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	submitter := &recordingSubmitter{}
	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: submitter, RatePerSecond: -1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.Start(ctx))
	cancel()
	require.Eventually(t, func() bool { return !isRunning(publisher.dispatcher) }, time.Second, time.Millisecond)

	require.NoError(t, publisher.Emit(sampleEvent()))
	require.NoError(t, publisher.Start(context.Background()))
	publisher.Stop()

	assert.Equal(t, 0, publisher.Pending())
	assert.Equal(t, uint64(1), publisher.Stats().Published)
	assert.Len(t, submitter.payloads, 1)
}

func TestTopicPublisherStopDrainsWithoutWorker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	submitter := &recordingSubmitter{}
	publisher, err := NewTopicPublisher(TopicConfig{TopicID: "0.0.9000", Submitter: submitter, RatePerSecond: -1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.Start(ctx))
	cancel()
	require.Eventually(t, func() bool { return !isRunning(publisher.dispatcher) }, time.Second, time.Millisecond)

	require.NoError(t, publisher.Emit(sampleEvent()))
	publisher.Stop()

	assert.Equal(t, 0, publisher.Pending())
	assert.Equal(t, uint64(1), publisher.Stats().Published)
}

func TestSubmitterFunc(t *testing.T) {
	called := false
	submitter := SubmitterFunc(func(context.Context, *hedera.TopicMessageSubmitTransaction) (SubmitResult, error) {
		called = true
		return SubmitResult{SequenceNumber: 7}, nil
	})
	result, err := submitter.Submit(context.Background(), hedera.NewTopicMessageSubmitTransaction())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, uint64(7), result.SequenceNumber)
}

func TestHederaSubmitterRequiresClient(t *testing.T) {
	_, err := NewHederaSubmitter(nil).Submit(context.Background(), hedera.NewTopicMessageSubmitTransaction())
	assert.Error(t, err)
}
