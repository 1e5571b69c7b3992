// Package engine coordinates input detectors, the binding table, and action
// dispatch for hands-free computer control.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/abhinaya/internal/action"
	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
)

// State is the engine lifecycle state.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// FaceSettings configures the facial gesture detector.
type FaceSettings struct {
	CameraIndex int
	Config      detector.FaceConfig
}

// HandSettings configures the hand gesture detector.
type HandSettings struct {
	CameraIndex int
	Config      detector.HandConfig
}

// VoiceSettings configures the voice detector. When TriggerWords is empty
// the trigger set is derived from the loaded voice bindings.
type VoiceSettings struct {
	TriggerWords []string
}

// Settings selects which detectors a generation runs and how. A nil section
// means that modality is absent.
type Settings struct {
	Face            *FaceSettings
	Hand            *HandSettings
	Voice           *VoiceSettings
	MotionThreshold float64
	Distributor     DistributorConfig
}

// Factories builds the concrete resources a generation needs. Tests inject
// mocks; production uses DefaultFactories.
type Factories struct {
	NewCamera         func(index int) capture.Camera
	NewFaceMesher     func() (detector.FaceMesher, error)
	NewHandLandmarker func() (detector.HandLandmarker, error)
	NewRecognizer     func() (detector.Recognizer, error)
}

// DefaultFactories returns factories backed by the real camera, the
// landmark subprocess service, and the transcriber subprocess service.
func DefaultFactories(transcriber detector.TranscriberConfig) Factories {
	return Factories{
		NewCamera: capture.NewCamera,
		NewFaceMesher: func() (detector.FaceMesher, error) {
			return detector.NewMediaPipeFaceMesh()
		},
		NewHandLandmarker: func() (detector.HandLandmarker, error) {
			return detector.NewMediaPipeHands()
		},
		NewRecognizer: func() (detector.Recognizer, error) {
			return detector.NewTranscriber(transcriber)
		},
	}
}

type dispatchItem struct {
	event    detector.Event
	actionID string
}

// dispatchQueueSize bounds how many pending action dispatches can queue
// before events are dropped rather than stalling a detector. Gesture and
// voice events arrive at human speed, so the queue only fills when an
// action wedges for a long time.
const dispatchQueueSize = 256

// Engine owns detector lifecycles, routes every detected event through the
// binding table, and hands matches to the action dispatcher. One Engine
// instance serves the whole process; all dependencies are injected.
type Engine struct {
	registry   *action.Registry
	dispatcher *action.Dispatcher
	factories  Factories

	table atomic.Pointer[bindingTable]

	mu          sync.Mutex
	state       State
	settings    Settings
	handles     []detector.Handle
	distributor *distributor

	cbMu          sync.Mutex
	onStateChange func(State)
	onDispatch    func(detector.Event, string)

	dispatchCh chan dispatchItem
	workerDone chan struct{}
	closeOnce  sync.Once
}

// New creates a stopped engine dispatching against registry. The caller
// should Close the engine when it is no longer needed.
func New(registry *action.Registry, factories Factories) *Engine {
	e := &Engine{
		registry:   registry,
		dispatcher: action.NewDispatcher(registry),
		factories:  factories,
		dispatchCh: make(chan dispatchItem, dispatchQueueSize),
		workerDone: make(chan struct{}),
	}
	go e.dispatchWorker()
	return e
}

// OnStateChange registers a callback invoked after every state transition,
// outside engine locks. Must be set before Start.
func (e *Engine) OnStateChange(fn func(State)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onStateChange = fn
}

// OnDispatch registers a callback invoked from the dispatch worker after an
// event is matched to an action. Must be set before Start.
func (e *Engine) OnDispatch(fn func(detector.Event, string)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onDispatch = fn
}

// Load replaces the binding table and detector settings. Only allowed while
// Stopped; a running generation must be stopped first. Bindings with an
// unknown action id or modality are skipped individually.
func (e *Engine) Load(bindings []Binding, settings Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Stopped {
		return ErrAlreadyRunning
	}

	table := newBindingTable(bindings, e.registry.Has)
	e.table.Store(table)
	e.settings = settings
	slog.Info("bindings loaded", "count", table.size(), "skipped", len(bindings)-table.size())
	return nil
}

// Start transitions Stopped through Starting to Running. It builds one detector
// handle per modality in the loaded settings and acquires capture devices
// all-or-nothing: any failure rolls everything back to Stopped.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != Stopped {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.state = Starting
	settings := e.settings
	e.mu.Unlock()
	e.notifyState(Starting)

	handles, dist, err := e.buildGeneration(settings)
	if err != nil {
		e.enterState(Stopped)
		return err
	}

	// Arm every handle; the emitter funnels all modalities into HandleEvent.
	g := new(errgroup.Group)
	for _, h := range handles {
		h := h
		g.Go(func() error { return h.Start(e.HandleEvent) })
	}
	if err := g.Wait(); err != nil {
		for _, h := range handles {
			h.Stop()
		}
		if dist != nil {
			dist.stop()
		}
		e.enterState(Stopped)
		return err
	}

	if dist != nil {
		if err := dist.start(); err != nil {
			for _, h := range handles {
				h.Stop()
			}
			dist.stop()
			e.enterState(Stopped)
			return err
		}
	}

	e.mu.Lock()
	if e.state != Starting {
		// A concurrent Stop ran while the lock was released for device
		// acquisition. The stop request wins: discard this generation
		// instead of resurrecting a stopped engine.
		e.mu.Unlock()
		if dist != nil {
			dist.stop()
		}
		for _, h := range handles {
			h.Stop()
		}
		slog.Info("engine start aborted by concurrent stop")
		return nil
	}
	e.handles = handles
	e.distributor = dist
	e.state = Running
	e.mu.Unlock()
	e.notifyState(Running)
	slog.Info("engine running", "detectors", len(handles))
	return nil
}

// buildGeneration constructs the detector handles and the frame distributor
// for the current settings. Nothing is armed or opened except via the
// returned distributor.
func (e *Engine) buildGeneration(settings Settings) ([]detector.Handle, *distributor, error) {
	var (
		handles []detector.Handle
		closers []func()
	)
	rollback := func() {
		for _, c := range closers {
			c()
		}
	}

	// Visual processors grouped by camera index, face before hand.
	visual := make(map[int][]detector.FrameProcessor)
	order := []int{}

	if fs := settings.Face; fs != nil {
		mesher, err := e.factories.NewFaceMesher()
		if err != nil {
			rollback()
			return nil, nil, &DeviceError{Device: "face landmarker", Err: err}
		}
		closers = append(closers, func() { mesher.Close() })

		face := detector.NewFaceDetector(fs.Config, mesher)
		handles = append(handles, face)
		if _, seen := visual[fs.CameraIndex]; !seen {
			order = append(order, fs.CameraIndex)
		}
		visual[fs.CameraIndex] = append(visual[fs.CameraIndex], face)
	}

	if hs := settings.Hand; hs != nil {
		lm, err := e.factories.NewHandLandmarker()
		if err != nil {
			rollback()
			return nil, nil, &DeviceError{Device: "hand landmarker", Err: err}
		}
		closers = append(closers, func() { lm.Close() })

		hand := detector.NewHandDetector(hs.Config, lm)
		handles = append(handles, hand)
		if _, seen := visual[hs.CameraIndex]; !seen {
			order = append(order, hs.CameraIndex)
		}
		visual[hs.CameraIndex] = append(visual[hs.CameraIndex], hand)
	}

	if vs := settings.Voice; vs != nil {
		rec, err := e.factories.NewRecognizer()
		if err != nil {
			rollback()
			return nil, nil, &DeviceError{Device: "microphone", Err: err}
		}
		closers = append(closers, func() { rec.Close() })

		words := vs.TriggerWords
		if len(words) == 0 {
			if table := e.table.Load(); table != nil {
				words = table.triggerWords(detector.ModalityVoice)
			}
		}
		handles = append(handles, detector.NewVoiceDetector(detector.VoiceConfig{TriggerWords: words}, rec))
	}

	var dist *distributor
	if len(order) > 0 {
		dist = newDistributor(settings.Distributor, e.onDeviceFailure)
		for _, index := range order {
			dist.addFeed(
				e.factories.NewCamera(index),
				capture.NewMotionDetector(settings.MotionThreshold),
				visual[index],
			)
		}
	}

	return handles, dist, nil
}

// onDeviceFailure is called from a capture loop when a camera fails past
// its retry budget. The loop has already exited, so Stop can join cleanly.
func (e *Engine) onDeviceFailure(err *DeviceError) {
	slog.Error("engine stopping after device failure", "error", err)
	go e.Stop()
}

// Stop transitions Running through Stopping to Stopped, releasing the capture
// devices and discarding the detector generation. Idempotent: stopping a
// stopped engine is a no-op. An in-flight action dispatch is left to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == Stopped || e.state == Stopping {
		e.mu.Unlock()
		return
	}
	e.state = Stopping
	handles := e.handles
	dist := e.distributor
	e.handles = nil
	e.distributor = nil
	e.mu.Unlock()
	e.notifyState(Stopping)

	if dist != nil {
		dist.stop()
	}
	for _, h := range handles {
		h.Stop()
	}

	e.enterState(Stopped)
	slog.Info("engine stopped")
}

// HandleEvent is the single event ingress, safe to call from any goroutine.
// The binding lookup is lock-free; a hit is queued for the dispatch worker
// so slow actions never stall capture or listen loops, and a miss is
// silently dropped. When the queue is full the event is dropped with a
// warning; HandleEvent never blocks the calling detector.
func (e *Engine) HandleEvent(ev detector.Event) {
	table := e.table.Load()
	if table == nil {
		return
	}
	actionID, ok := table.lookup(ev.Modality, ev.ID)
	if !ok {
		return
	}

	select {
	case e.dispatchCh <- dispatchItem{event: ev, actionID: actionID}:
	default:
		slog.Warn("dispatch queue full, dropping event",
			"modality", string(ev.Modality), "event", ev.ID, "action", actionID)
	}
}

// dispatchWorker serializes action execution on one goroutine, preserving
// the order events arrived in.
func (e *Engine) dispatchWorker() {
	defer close(e.workerDone)
	for item := range e.dispatchCh {
		e.dispatcher.Dispatch(item.actionID, item.event.ID)

		e.cbMu.Lock()
		cb := e.onDispatch
		e.cbMu.Unlock()
		if cb != nil {
			cb(item.event, item.actionID)
		}
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsRunning reports whether the engine is in the Running state.
func (e *Engine) IsRunning() bool {
	return e.State() == Running
}

// Close stops the engine and shuts down the dispatch worker. The engine
// cannot be restarted afterwards.
func (e *Engine) Close() {
	e.Stop()
	e.closeOnce.Do(func() {
		close(e.dispatchCh)
		<-e.workerDone
	})
}

func (e *Engine) enterState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.notifyState(s)
}

func (e *Engine) notifyState(s State) {
	e.cbMu.Lock()
	cb := e.onStateChange
	e.cbMu.Unlock()
	if cb != nil {
		cb(s)
	}
}
