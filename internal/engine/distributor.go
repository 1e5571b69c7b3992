package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
)

// DistributorConfig tunes the capture loops.
type DistributorConfig struct {
	IdleFPS      int
	ActiveFPS    int
	IdleTimeout  time.Duration
	ReadRetries  int
	RetryBackoff time.Duration
	JoinTimeout  time.Duration
}

// DefaultDistributorConfig returns the tuned capture loop settings: a slow
// idle rate with a burst to the active rate while the scene is moving.
func DefaultDistributorConfig() DistributorConfig {
	return DistributorConfig{
		IdleFPS:      5,
		ActiveFPS:    15,
		IdleTimeout:  2 * time.Second,
		ReadRetries:  5,
		RetryBackoff: 200 * time.Millisecond,
		JoinTimeout:  2 * time.Second,
	}
}

func (c DistributorConfig) withDefaults() DistributorConfig {
	def := DefaultDistributorConfig()
	if c.IdleFPS <= 0 {
		c.IdleFPS = def.IdleFPS
	}
	if c.ActiveFPS <= 0 {
		c.ActiveFPS = def.ActiveFPS
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.ReadRetries <= 0 {
		c.ReadRetries = def.ReadRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = def.JoinTimeout
	}
	return c
}

// feed is one camera with the visual processors reading from it, in fan-out
// order.
type feed struct {
	camera     capture.Camera
	motion     *capture.MotionDetector
	processors []detector.FrameProcessor
}

// distributor owns the capture devices for one engine generation. Each
// distinct camera index gets exactly one camera and one capture loop; every
// frame is handed synchronously to the feed's processors in fixed order, so
// no frame is queued or processed twice.
type distributor struct {
	cfg     DistributorConfig
	feeds   []*feed
	onFatal func(*DeviceError)

	stopCh    chan struct{}
	done      chan struct{}
	started   bool
	stopOnce  sync.Once
	fatalOnce sync.Once
}

// newDistributor creates a distributor. onFatal is invoked at most once,
// from a capture loop goroutine, when a camera fails past the retry budget.
func newDistributor(cfg DistributorConfig, onFatal func(*DeviceError)) *distributor {
	return &distributor{
		cfg:     cfg.withDefaults(),
		onFatal: onFatal,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// addFeed registers a camera and its processors. Processors run in the
// order given.
func (d *distributor) addFeed(cam capture.Camera, motion *capture.MotionDetector, processors []detector.FrameProcessor) {
	d.feeds = append(d.feeds, &feed{camera: cam, motion: motion, processors: processors})
}

// start opens every camera, rolling back already-opened ones on failure,
// then spawns one capture loop per feed.
func (d *distributor) start() error {
	for i, f := range d.feeds {
		if err := f.camera.Open(); err != nil {
			for _, prev := range d.feeds[:i] {
				if cerr := prev.camera.Close(); cerr != nil {
					slog.Warn("camera close during rollback failed",
						"camera", prev.camera.Index(), "error", cerr)
				}
			}
			return &DeviceError{Device: fmt.Sprintf("camera %d", f.camera.Index()), Err: err}
		}
	}

	var wg sync.WaitGroup
	for _, f := range d.feeds {
		wg.Add(1)
		go func(f *feed) {
			defer wg.Done()
			d.captureLoop(f)
		}(f)
	}
	go func() {
		wg.Wait()
		close(d.done)
	}()
	d.started = true
	return nil
}

// captureLoop reads frames at the current rate and fans each one out. The
// rate rises to ActiveFPS while motion is present and falls back to IdleFPS
// after IdleTimeout without motion; frames keep flowing at the idle rate so
// sustained facial states continue to update.
func (d *distributor) captureLoop(f *feed) {
	f.camera.SetFPS(d.cfg.IdleFPS)
	interval := time.Second / time.Duration(d.cfg.IdleFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	active := false
	lastMotion := time.Now()
	failures := 0

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			frame, err := f.camera.ReadFrame()
			if err != nil {
				failures++
				slog.Warn("frame read failed",
					"camera", f.camera.Index(), "attempt", failures, "error", err)
				if failures >= d.cfg.ReadRetries {
					d.fatal(&DeviceError{
						Device: fmt.Sprintf("camera %d", f.camera.Index()),
						Err:    err,
					})
					return
				}
				select {
				case <-d.stopCh:
					return
				case <-time.After(d.cfg.RetryBackoff):
				}
				continue
			}
			failures = 0

			if motion, _ := f.motion.Detect(frame); motion {
				lastMotion = time.Now()
				if !active {
					active = true
					f.camera.SetFPS(d.cfg.ActiveFPS)
					ticker.Reset(time.Second / time.Duration(d.cfg.ActiveFPS))
					slog.Debug("capture switched to active rate", "camera", f.camera.Index())
				}
			} else if active && time.Since(lastMotion) > d.cfg.IdleTimeout {
				active = false
				f.camera.SetFPS(d.cfg.IdleFPS)
				ticker.Reset(time.Second / time.Duration(d.cfg.IdleFPS))
				slog.Debug("capture switched to idle rate", "camera", f.camera.Index())
			}

			for _, p := range f.processors {
				if err := p.ProcessFrame(frame); err != nil {
					slog.Warn("frame processing failed",
						"modality", string(p.Modality()), "error", err)
				}
			}
			frame.Close()
		}
	}
}

func (d *distributor) fatal(err *DeviceError) {
	d.fatalOnce.Do(func() {
		slog.Error("capture failed", "error", err)
		if d.onFatal != nil {
			d.onFatal(err)
		}
	})
}

// stop signals the capture loops, waits for them with a bounded timeout and
// releases the cameras and motion detectors.
func (d *distributor) stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })

	if d.started {
		select {
		case <-d.done:
		case <-time.After(d.cfg.JoinTimeout):
			slog.Warn("capture loop did not exit in time")
		}
	}

	for _, f := range d.feeds {
		f.motion.Close()
		if f.camera.IsOpen() {
			if err := f.camera.Close(); err != nil {
				slog.Warn("camera close failed", "camera", f.camera.Index(), "error", err)
			}
		}
	}
}
