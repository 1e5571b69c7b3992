package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// TranscriberConfig holds the microphone and speech recognition settings
// passed through to the transcription sidecar.
type TranscriberConfig struct {
	Model           string  `yaml:"model"`
	DeviceIndex     int     `yaml:"device_index"`
	EnergyThreshold int     `yaml:"energy_threshold"`
	PauseThreshold  float64 `yaml:"pause_threshold"`
}

// DefaultTranscriberConfig returns the default speech settings.
func DefaultTranscriberConfig() TranscriberConfig {
	return TranscriberConfig{
		Model:           "tiny.en",
		DeviceIndex:     -1, // system default microphone
		EnergyThreshold: 350,
		PauseThreshold:  0.4,
	}
}

// Transcriber is a Recognizer backed by the Python transcription sidecar,
// which owns the microphone and emits one transcript per line on stdout.
// The process is started lazily on the first Listen call.
type Transcriber struct {
	cfg TranscriberConfig

	mu      sync.Mutex
	cmd     *exec.Cmd
	lines   chan string
	readErr chan error
	started bool
}

// NewTranscriber returns a sidecar-backed recognizer, or an error if the
// sidecar script cannot be located.
func NewTranscriber(cfg TranscriberConfig) (*Transcriber, error) {
	if findTranscribeScript() == "" {
		return nil, fmt.Errorf("transcribe_service.py not found")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultTranscriberConfig().Model
	}
	return &Transcriber{cfg: cfg}, nil
}

// Listen blocks until the sidecar produces the next transcript, the stream
// ends, or ctx is cancelled.
func (t *Transcriber) Listen(ctx context.Context) (string, error) {
	if err := t.ensureStarted(); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return "", errors.New("transcriber: stream closed")
		}
		return line, nil
	case err := <-t.readErr:
		return "", fmt.Errorf("transcriber: %w", err)
	}
}

func (t *Transcriber) ensureStarted() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	scriptPath := findTranscribeScript()
	if scriptPath == "" {
		return fmt.Errorf("transcribe_service.py not found")
	}
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{
		scriptPath,
		"--model", t.cfg.Model,
		"--energy-threshold", strconv.Itoa(t.cfg.EnergyThreshold),
		"--pause-threshold", strconv.FormatFloat(t.cfg.PauseThreshold, 'f', -1, 64),
	}
	if t.cfg.DeviceIndex >= 0 {
		args = append(args, "--device-index", strconv.Itoa(t.cfg.DeviceIndex))
	}

	cmd := exec.Command(pythonPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start transcribe service: %w", err)
	}

	t.cmd = cmd
	t.lines = make(chan string)
	t.readErr = make(chan error, 1)
	t.started = true

	go func(lines chan<- string, readErr chan<- error) {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
		}
		close(lines)
	}(t.lines, t.readErr)

	return nil
}

// Close terminates the sidecar and releases the microphone.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return nil
	}
	t.started = false

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	err := t.cmd.Wait()
	t.cmd = nil
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Killed on purpose; not a caller-visible failure.
		return nil
	}
	return err
}

// findTranscribeScript locates the transcription sidecar script.
func findTranscribeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/transcribe_service.py",
		"../scripts/transcribe_service.py",
		filepath.Join(execDir, "scripts/transcribe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".abhinaya/scripts/transcribe_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
