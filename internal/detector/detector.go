// Package detector provides the uniform detection-unit surface for the
// abhinaya engine: voice, face, and hand detectors that watch one input
// channel each and report discrete events through a shared emit callback.
package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Modality identifies one of the three input channels.
type Modality string

const (
	ModalityVoice Modality = "voice"
	ModalityFace  Modality = "face"
	ModalityHand  Modality = "hand"
)

// IsValid reports whether m is a recognised modality.
func (m Modality) IsValid() bool {
	switch m {
	case ModalityVoice, ModalityFace, ModalityHand:
		return true
	}
	return false
}

// Visual reports whether the modality is driven by camera frames.
func (m Modality) Visual() bool {
	return m == ModalityFace || m == ModalityHand
}

// Event is a discrete occurrence reported by a detector, e.g. a spoken
// trigger word or a gesture state transition. Events are transient values;
// the engine maps them to actions and drops the rest.
type Event struct {
	Modality Modality
	ID       string
	Time     time.Time
}

// Emitter receives events from a running detector. Detectors know nothing
// about bindings or actions; the engine supplies its ingress method here.
type Emitter func(Event)

// Handle is the engine's control surface over one detection unit. A Handle
// is built fresh for every engine start and never reused across generations.
type Handle interface {
	Modality() Modality

	// Start transitions the detector to running and registers the emit
	// callback. Voice detectors spawn their own listen goroutine here;
	// visual detectors only arm their per-frame state.
	Start(emit Emitter) error

	// Stop halts the detector and releases its resources. Idempotent.
	Stop()
}

// FrameProcessor is implemented by visual detectors. ProcessFrame is called
// synchronously from the frame distributor's capture loop; implementations
// must not retain the frame past the call.
type FrameProcessor interface {
	Handle
	ProcessFrame(frame *gocv.Mat) error
}
