package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// EventSink receives ledger notifications in sequence order. Emit is called
// with the ledger lock held and must not call back into the ledger.
type EventSink interface {
	Emit(event Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event) error

func (fn SinkFunc) Emit(event Event) error {
	return fn(event)
}

// MultiSink forwards each event to every sink and joins their errors.
type MultiSink []EventSink

func (sinks MultiSink) Emit(event Event) error {
	var errs []error
	for index, sink := range sinks {
		if err := sink.Emit(event); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", index, err))
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every emitted event in memory along with a running BLAKE2b-256
// hash chained over the wire payload of each event.
type Recorder struct {
	mutex       sync.RWMutex
	events      []Event
	runningHash [blake2b.Size256]byte
}

func NewRecorder() *Recorder {
	return &Recorder{events: []Event{}}
}

func (recorder *Recorder) Emit(event Event) error {
	payload, err := BuildEventPayload(event)
	if err != nil {
		return err
	}

	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()

	chained := make([]byte, 0, len(recorder.runningHash)+len(payload))
	chained = append(chained, recorder.runningHash[:]...)
	chained = append(chained, payload...)
	recorder.runningHash = blake2b.Sum256(chained)
	recorder.events = append(recorder.events, cloneEvent(event))
	return nil
}

// Events returns a copy of the recorded events.
func (recorder *Recorder) Events() []Event {
	recorder.mutex.RLock()
	defer recorder.mutex.RUnlock()

	events := make([]Event, len(recorder.events))
	for index, event := range recorder.events {
		events[index] = cloneEvent(event)
	}
	return events
}

// Filter returns the recorded events of one kind.
func (recorder *Recorder) Filter(kind string) []Event {
	recorder.mutex.RLock()
	defer recorder.mutex.RUnlock()

	events := make([]Event, 0)
	for _, event := range recorder.events {
		if event.Kind == kind {
			events = append(events, cloneEvent(event))
		}
	}
	return events
}

// Last returns the most recent event.
func (recorder *Recorder) Last() (Event, bool) {
	recorder.mutex.RLock()
	defer recorder.mutex.RUnlock()

	if len(recorder.events) == 0 {
		return Event{}, false
	}
	return cloneEvent(recorder.events[len(recorder.events)-1]), true
}

func (recorder *Recorder) Len() int {
	recorder.mutex.RLock()
	defer recorder.mutex.RUnlock()
	return len(recorder.events)
}

// RunningHash returns the hex-encoded hash over all recorded events.
func (recorder *Recorder) RunningHash() string {
	recorder.mutex.RLock()
	defer recorder.mutex.RUnlock()
	return hex.EncodeToString(recorder.runningHash[:])
}

func cloneEvent(event Event) Event {
	clone := event
	clone.Amount = cloneAmount(event.Amount)
	return clone
}
