package affinity

import "errors"

// Coordinator errors.
var (
	// ErrClosed indicates the coordinator has been closed and no further
	// UI work can be scheduled.
	ErrClosed = errors.New("affinity: coordinator is closed")

	// ErrPanic indicates a scheduled UI task panicked. The panic value is
	// attached via error wrapping.
	ErrPanic = errors.New("affinity: ui task panic")
)
