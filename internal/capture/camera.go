// Package capture owns the camera resource and frame acquisition for the
// abhinaya detection pipeline, built on GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Capture defaults. Resolution is kept low on purpose: the landmark
// extractors downscale anyway and a 640x480 read keeps each capture loop
// iteration well under the frame budget.
const (
	DefaultFPS    = 10
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrNotOpen is returned when reading from a camera that has not been opened.
var ErrNotOpen = errors.New("camera is not open")

// Camera is the capture surface the frame distributor drives. Exactly one
// component owns a Camera at a time; detectors never open devices themselves.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
	Index() int
}

// device is the gocv-backed Camera implementation.
type device struct {
	index int
	cap   *gocv.VideoCapture
	fps   int
	open  bool
	mu    sync.Mutex
}

// NewCamera returns a Camera for the given device index. The device is not
// acquired until Open is called.
func NewCamera(index int) Camera {
	return &device{index: index, fps: DefaultFPS}
}

// Open acquires the capture device. Calling Open on an already open camera
// is a no-op.
func (d *device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return nil
	}

	cap, err := gocv.OpenVideoCapture(d.index)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", d.index, err)
	}

	cap.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	cap.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	cap.Set(gocv.VideoCaptureFPS, float64(d.fps))

	d.cap = cap
	d.open = true
	return nil
}

// Close releases the capture device. Safe to call when already closed.
func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open || d.cap == nil {
		d.open = false
		return nil
	}

	err := d.cap.Close()
	d.cap = nil
	d.open = false
	return err
}

// ReadFrame reads a single frame. The caller owns the returned Mat and must
// Close it.
func (d *device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.open || d.cap == nil {
		return nil, ErrNotOpen
	}

	mat := gocv.NewMat()
	if ok := d.cap.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("camera %d: frame read failed", d.index)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: empty frame", d.index)
	}
	return &mat, nil
}

// SetFPS adjusts the capture rate. Non-positive values are ignored.
func (d *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.fps = fps
	if d.cap != nil {
		d.cap.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current capture rate setting.
func (d *device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}

// IsOpen reports whether the device is currently acquired.
func (d *device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Index returns the configured device index.
func (d *device) Index() int {
	return d.index
}
