package publisher

import "errors"

var (
	// ErrQueueFull is returned by Emit when the submission queue has no room.
	ErrQueueFull = errors.New("publisher queue is full")

	ErrAlreadyRunning = errors.New("publisher is already running")
)
