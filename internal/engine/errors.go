package engine

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start when the engine is not Stopped, and
// by Load when bindings cannot be replaced because a generation is live.
var ErrAlreadyRunning = errors.New("engine already running")

// DeviceError reports a failed acquisition of, or sustained read failure on,
// a capture device. The engine is back in Stopped when it is returned; a
// later Start may succeed.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
