package detector

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Hand gesture event identifiers. EventHandNone marks the return to no
// stable gesture and is bindable like any other event.
const (
	EventOpenPalm      = "OPEN_PALM"
	EventFist          = "FIST"
	EventThumbsUp      = "THUMBS_UP"
	EventPointingIndex = "POINTING_INDEX"
	EventVictory       = "VICTORY"
	EventHandNone      = "HAND_GESTURE_NONE"
)

// HandLandmarker extracts hand landmarks from a frame. An empty slice means
// no hand is visible.
type HandLandmarker interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// HandConfig holds the hand detector settings.
type HandConfig struct {
	// StableFrames is how many consecutive frames a gesture must persist
	// before its event is emitted.
	StableFrames int `yaml:"stable_frames"`
}

// DefaultHandConfig returns the default hand detector settings.
func DefaultHandConfig() HandConfig {
	return HandConfig{StableFrames: 5}
}

// HandDetector classifies static hand poses from landmark geometry and
// emits an event each time the stable gesture changes. Like the facial
// detector it is frame-driven: the distributor calls ProcessFrame.
type HandDetector struct {
	cfg        HandConfig
	landmarker HandLandmarker
	emit       Emitter
	now        func() time.Time

	mu      sync.Mutex
	active  bool
	closed  bool
	stable  string
	last    string
	counter int
}

// NewHandDetector returns a hand detector reading landmarks from lm.
func NewHandDetector(cfg HandConfig, lm HandLandmarker) *HandDetector {
	if cfg.StableFrames <= 0 {
		cfg.StableFrames = DefaultHandConfig().StableFrames
	}
	return &HandDetector{cfg: cfg, landmarker: lm, now: time.Now}
}

// Modality implements Handle.
func (d *HandDetector) Modality() Modality { return ModalityHand }

// Start arms the detector and registers the emit callback.
func (d *HandDetector) Start(emit Emitter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}
	if d.landmarker == nil {
		return errors.New("hand detector: no landmarker configured")
	}
	d.emit = emit
	d.stable = EventHandNone
	d.last = EventHandNone
	d.counter = 0
	d.active = true
	return nil
}

// Stop disarms the detector and closes the landmarker. Idempotent, and it
// releases the landmarker even when the detector was never started.
func (d *HandDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = false
	if d.closed || d.landmarker == nil {
		return
	}
	d.closed = true
	if err := d.landmarker.Close(); err != nil {
		slog.Warn("hand detector: landmarker close failed", "error", err)
	}
}

// ProcessFrame implements FrameProcessor.
func (d *HandDetector) ProcessFrame(frame *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	hands, err := d.landmarker.Detect(frame)
	if err != nil {
		return err
	}

	gesture := EventHandNone
	if len(hands) > 0 {
		// Only the first detected hand drives gesture state.
		gesture = classifyHand(&hands[0])
	}

	if gesture == d.last {
		d.counter++
	} else {
		d.counter = 0
		d.last = gesture
	}

	// Emit only on a stable-gesture change; the drop back to none fires
	// immediately so release bindings stay responsive.
	isStable := d.counter >= d.cfg.StableFrames
	switch {
	case isStable && gesture != d.stable:
		d.stable = gesture
		d.emitEvent(gesture)
	case d.counter == 0 && gesture == EventHandNone && d.stable != EventHandNone:
		d.stable = EventHandNone
		d.emitEvent(EventHandNone)
	}

	return nil
}

func (d *HandDetector) emitEvent(id string) {
	if d.emit == nil {
		return
	}
	d.emit(Event{Modality: ModalityHand, ID: id, Time: d.now()})
}

// classifyHand maps landmark geometry to a static pose. A finger counts as
// extended when its tip sits above its PIP joint in frame coordinates
// (y grows downward).
func classifyHand(h *HandLandmarks) string {
	p := h.Points

	thumbExt := p[ThumbTip].Y < p[ThumbIP].Y
	thumbFlex := p[ThumbTip].Y > p[ThumbIP].Y
	indexExt := p[IndexTip].Y < p[IndexPIP].Y
	indexFlex := p[IndexTip].Y > p[IndexPIP].Y
	middleExt := p[MiddleTip].Y < p[MiddlePIP].Y
	middleFlex := p[MiddleTip].Y > p[MiddlePIP].Y
	ringExt := p[RingTip].Y < p[RingPIP].Y
	ringFlex := p[RingTip].Y > p[RingPIP].Y
	pinkyExt := p[PinkyTip].Y < p[PinkyPIP].Y
	pinkyFlex := p[PinkyTip].Y > p[PinkyPIP].Y

	switch {
	case thumbExt && indexFlex && middleFlex && ringFlex && pinkyFlex &&
		p[ThumbTip].Y < p[IndexPIP].Y && p[ThumbTip].Y < p[MiddlePIP].Y:
		return EventThumbsUp
	case indexExt && middleExt && ringFlex && pinkyFlex:
		return EventVictory
	case indexExt && middleFlex && ringFlex && pinkyFlex:
		return EventPointingIndex
	case thumbExt && indexExt && middleExt && ringExt && pinkyExt:
		return EventOpenPalm
	case thumbFlex && indexFlex && middleFlex && ringFlex && pinkyFlex:
		palmY := p[MiddleMCP].Y
		if p[IndexTip].Y > palmY && p[MiddleTip].Y > palmY &&
			p[RingTip].Y > palmY && p[PinkyTip].Y > palmY {
			return EventFist
		}
	}
	return EventHandNone
}
