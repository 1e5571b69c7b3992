package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back a pre-recorded frame sequence for tests. It can loop
// the sequence forever or report end-of-stream, and can be told to fail reads
// to exercise the distributor's retry path.
type MockCamera struct {
	frames   []*gocv.Mat
	index    int
	pos      int
	loop     bool
	open     bool
	openErr  error
	failNext int
	failErr  error
	fps      int
	mu       sync.Mutex
}

// NewMockCamera returns a MockCamera that plays back frames, looping when
// loop is true.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.open = true
	c.pos = 0
	return nil
}

// FailOpen makes Open return err until cleared with a nil err.
func (c *MockCamera) FailOpen(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrNotOpen
	}
	if c.failNext > 0 {
		c.failNext--
		err := c.failErr
		if err == nil {
			err = errors.New("mock read failure")
		}
		return nil, err
	}
	if len(c.frames) == 0 {
		return nil, errors.New("no frames available")
	}
	if c.pos >= len(c.frames) {
		if !c.loop {
			return nil, errors.New("end of stream")
		}
		c.pos = 0
	}

	// Clone so callers can Close their copy without touching the source.
	frame := c.frames[c.pos].Clone()
	c.pos++
	return &frame, nil
}

func (c *MockCamera) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps > 0 {
		c.fps = fps
	}
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *MockCamera) Index() int { return c.index }

// SetIndex sets the device index the mock reports.
func (c *MockCamera) SetIndex(i int) { c.index = i }

// FailReads makes the next n ReadFrame calls return err.
func (c *MockCamera) FailReads(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext = n
	c.failErr = err
}

// Reset restarts playback from the first frame.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = 0
}
