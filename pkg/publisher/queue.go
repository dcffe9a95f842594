package publisher

import (
	"context"
	"sync"

	"github.com/hashgraph-online/token-ledger-go/pkg/ledger"
)

type pendingEvent struct {
	event   ledger.Event
	payload []byte
}

// dispatcher owns the bounded queue and the single worker shared by the
// publishers. handle is only ever called from one goroutine at a time.
type dispatcher struct {
	queue  chan pendingEvent
	handle func(ctx context.Context, pending pendingEvent)

	mutex       sync.Mutex
	stopChannel chan struct{}
	doneChannel chan struct{}
}

func newDispatcher(size int, handle func(context.Context, pendingEvent)) *dispatcher {
	return &dispatcher{
		queue:  make(chan pendingEvent, size),
		handle: handle,
	}
}

// enqueue reports false when the queue is full.
func (d *dispatcher) enqueue(pending pendingEvent) bool {
	select {
	case d.queue <- pending:
		return true
	default:
		return false
	}
}

func (d *dispatcher) pending() int {
	return len(d.queue)
}

func (d *dispatcher) start(ctx context.Context) error {
	d.mutex.Lock()
	if d.stopChannel != nil {
		d.mutex.Unlock()
		return ErrAlreadyRunning
	}
	stopChannel := make(chan struct{})
	doneChannel := make(chan struct{})
	d.stopChannel = stopChannel
	d.doneChannel = doneChannel
	d.mutex.Unlock()

	go func() {
		defer close(doneChannel)

		for {
			select {
			case <-ctx.Done():
				d.release(stopChannel)
				return
			case <-stopChannel:
				d.drain(ctx)
				return
			case pending := <-d.queue:
				d.handle(ctx, pending)
			}
		}
	}()
	return nil
}

// release forgets the worker identified by stopChannel so the dispatcher can
// be started again. A concurrent stop that already took the channels wins.
func (d *dispatcher) release(stopChannel chan struct{}) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopChannel == stopChannel {
		d.stopChannel = nil
		d.doneChannel = nil
	}
}

// stop ends the worker after it drains the queue. Without a running worker
// the queue is drained on the calling goroutine.
func (d *dispatcher) stop() {
	d.mutex.Lock()
	stopChannel := d.stopChannel
	doneChannel := d.doneChannel
	d.stopChannel = nil
	d.doneChannel = nil
	d.mutex.Unlock()

	if stopChannel == nil {
		d.drain(context.Background())
		return
	}
	close(stopChannel)
	<-doneChannel
}

func (d *dispatcher) drain(ctx context.Context) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	for {
		select {
		case pending := <-d.queue:
			d.handle(ctx, pending)
		default:
			return
		}
	}
}
