package detector

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Facial gesture event identifiers. Blinks are momentary; the rest come in
// START/STOP pairs emitted as independent events.
const (
	EventLeftBlink           = "LEFT_BLINK"
	EventRightBlink          = "RIGHT_BLINK"
	EventMouthOpenStart      = "MOUTH_OPEN_START"
	EventMouthOpenStop       = "MOUTH_OPEN_STOP"
	EventBothEyesClosedStart = "BOTH_EYES_CLOSED_START"
	EventBothEyesClosedStop  = "BOTH_EYES_CLOSED_STOP"
	EventEyebrowsRaisedStart = "EYEBROWS_RAISED_START"
	EventEyebrowsRaisedStop  = "EYEBROWS_RAISED_STOP"
	EventHeadTiltLeftStart   = "HEAD_TILT_LEFT_START"
	EventHeadTiltLeftStop    = "HEAD_TILT_LEFT_STOP"
	EventHeadTiltRightStart  = "HEAD_TILT_RIGHT_START"
	EventHeadTiltRightStop   = "HEAD_TILT_RIGHT_STOP"
)

// FaceMesher extracts a face mesh from a frame. It returns nil landmarks
// when no face is visible.
type FaceMesher interface {
	Mesh(frame *gocv.Mat) (FaceLandmarks, error)
	Close() error
}

// FaceConfig holds the gesture thresholds for the facial detector.
type FaceConfig struct {
	EARThreshold   float64       `yaml:"ear_threshold"`
	MARThreshold   float64       `yaml:"mar_threshold"`
	ERRThreshold   float64       `yaml:"err_threshold"`
	TiltLeftMin    float64       `yaml:"tilt_left_min"`
	TiltLeftMax    float64       `yaml:"tilt_left_max"`
	TiltRightMin   float64       `yaml:"tilt_right_min"`
	TiltRightMax   float64       `yaml:"tilt_right_max"`
	MouthFrames    int           `yaml:"mouth_frames"`
	EyebrowFrames  int           `yaml:"eyebrow_frames"`
	TiltFrames     int           `yaml:"tilt_frames"`
	BothEyesFrames int           `yaml:"both_eyes_frames"`
	BlinkCooldown  time.Duration `yaml:"blink_cooldown"`
}

// DefaultFaceConfig returns the tuned default thresholds.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		EARThreshold:   0.20,
		MARThreshold:   0.35,
		ERRThreshold:   1.34,
		TiltLeftMin:    -100,
		TiltLeftMax:    -160,
		TiltRightMin:   100,
		TiltRightMax:   160,
		MouthFrames:    3,
		EyebrowFrames:  3,
		TiltFrames:     3,
		BothEyesFrames: 2,
		BlinkCooldown:  300 * time.Millisecond,
	}
}

// holdState tracks one sustained gesture signal: a debounce counter that
// must saturate before the signal is considered on, with hysteresis on the
// way back down.
type holdState struct {
	counter int
	frames  int
	active  bool
}

func (s *holdState) update(on bool) (changed, active bool) {
	if on {
		if s.counter < s.frames {
			s.counter++
		}
	} else if s.counter > 0 {
		s.counter--
	}

	next := s.counter >= s.frames
	if next != s.active {
		s.active = next
		return true, next
	}
	return false, s.active
}

// FaceDetector turns face mesh geometry into discrete facial gesture events.
// It is purely reactive: the frame distributor drives it via ProcessFrame.
type FaceDetector struct {
	cfg    FaceConfig
	mesher FaceMesher
	emit   Emitter
	now    func() time.Time

	mu             sync.Mutex
	active         bool
	closed         bool
	mouth          holdState
	brows          holdState
	eyes           holdState
	tiltL          holdState
	tiltR          holdState
	leftWasClosed  bool
	rightWasClosed bool
	lastLeftBlink  time.Time
	lastRightBlink time.Time
}

// NewFaceDetector returns a facial detector reading meshes from mesher.
func NewFaceDetector(cfg FaceConfig, mesher FaceMesher) *FaceDetector {
	return &FaceDetector{
		cfg:    cfg,
		mesher: mesher,
		now:    time.Now,
	}
}

// Modality implements Handle.
func (d *FaceDetector) Modality() Modality { return ModalityFace }

// Start arms the detector and registers the emit callback.
func (d *FaceDetector) Start(emit Emitter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}
	if d.mesher == nil {
		return errors.New("face detector: no mesher configured")
	}
	d.emit = emit
	d.resetLocked()
	d.active = true
	return nil
}

// Stop disarms the detector and closes the mesher. Idempotent, and it
// releases the mesher even when the detector was never started.
func (d *FaceDetector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = false
	if d.closed || d.mesher == nil {
		return
	}
	d.closed = true
	if err := d.mesher.Close(); err != nil {
		slog.Warn("face detector: mesher close failed", "error", err)
	}
}

func (d *FaceDetector) resetLocked() {
	d.mouth = holdState{frames: d.cfg.MouthFrames}
	d.brows = holdState{frames: d.cfg.EyebrowFrames}
	d.eyes = holdState{frames: d.cfg.BothEyesFrames}
	d.tiltL = holdState{frames: d.cfg.TiltFrames}
	d.tiltR = holdState{frames: d.cfg.TiltFrames}
	d.leftWasClosed = false
	d.rightWasClosed = false
	d.lastLeftBlink = time.Time{}
	d.lastRightBlink = time.Time{}
}

// ProcessFrame implements FrameProcessor. A frame with no visible face still
// advances the debounce counters so sustained gestures release cleanly.
func (d *FaceDetector) ProcessFrame(frame *gocv.Mat) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	mesh, err := d.mesher.Mesh(frame)
	if err != nil {
		return err
	}

	// Neutral geometry when no face is in frame.
	earLeft, earRight := 1.0, 1.0
	mar, brow, tilt := 0.0, 0.0, 0.0
	if mesh != nil {
		earLeft = mesh.LeftEAR()
		earRight = mesh.RightEAR()
		mar = mesh.MouthAspectRatio()
		brow = mesh.EyebrowRatio()
		tilt = mesh.HeadTiltDegrees()
	}

	now := d.now()

	// Blinks are momentary and mirrored: the person's right eye appears on
	// screen left. A blink only counts if the other eye stayed open.
	leftClosed := earRight < d.cfg.EARThreshold
	rightClosed := earLeft < d.cfg.EARThreshold

	if leftClosed && !d.leftWasClosed && !rightClosed &&
		now.Sub(d.lastLeftBlink) > d.cfg.BlinkCooldown {
		d.emitEvent(EventLeftBlink, now)
		d.lastLeftBlink = now
	}
	d.leftWasClosed = leftClosed

	if rightClosed && !d.rightWasClosed && !leftClosed &&
		now.Sub(d.lastRightBlink) > d.cfg.BlinkCooldown {
		d.emitEvent(EventRightBlink, now)
		d.lastRightBlink = now
	}
	d.rightWasClosed = rightClosed

	if changed, on := d.mouth.update(mar > d.cfg.MARThreshold); changed {
		d.emitPair(on, EventMouthOpenStart, EventMouthOpenStop, now)
	}
	if changed, on := d.eyes.update(leftClosed && rightClosed); changed {
		d.emitPair(on, EventBothEyesClosedStart, EventBothEyesClosedStop, now)
	}
	if changed, on := d.brows.update(brow > d.cfg.ERRThreshold); changed {
		d.emitPair(on, EventEyebrowsRaisedStart, EventEyebrowsRaisedStop, now)
	}

	// Tilt left and right are mutually exclusive; entering one zone clears
	// the other's counter so a fast swing does not latch both.
	tiltLeft := d.cfg.TiltLeftMin >= tilt && tilt >= d.cfg.TiltLeftMax
	tiltRight := d.cfg.TiltRightMin <= tilt && tilt <= d.cfg.TiltRightMax
	if tiltLeft {
		d.tiltR.counter = 0
	}
	if tiltRight {
		d.tiltL.counter = 0
	}
	if changed, on := d.tiltL.update(tiltLeft); changed {
		d.emitPair(on, EventHeadTiltLeftStart, EventHeadTiltLeftStop, now)
	}
	if changed, on := d.tiltR.update(tiltRight); changed {
		d.emitPair(on, EventHeadTiltRightStart, EventHeadTiltRightStop, now)
	}

	return nil
}

func (d *FaceDetector) emitPair(on bool, startID, stopID string, now time.Time) {
	if on {
		d.emitEvent(startID, now)
	} else {
		d.emitEvent(stopID, now)
	}
}

func (d *FaceDetector) emitEvent(id string, now time.Time) {
	if d.emit == nil {
		return
	}
	d.emit(Event{Modality: ModalityFace, ID: id, Time: now})
}
