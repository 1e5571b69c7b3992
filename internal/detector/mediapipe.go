package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// landmarkService talks to the Python MediaPipe sidecar over a simple
// framed protocol: 4-byte big-endian length + JPEG in, one JSON line out.
// The sidecar runs either the hand landmarker or the face mesh, selected by
// the mode argument. The process is started lazily on first use.
type landmarkService struct {
	mode    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
}

const (
	serviceModeHands = "hands"
	serviceModeFace  = "face"
)

func newLandmarkService(mode string) (*landmarkService, error) {
	if findLandmarkScript() == "" {
		return nil, fmt.Errorf("landmark_service.py not found")
	}
	return &landmarkService{mode: mode}, nil
}

// request sends one frame to the sidecar and returns its JSON response line.
func (s *landmarkService) request(frame *gocv.Mat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := s.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := s.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return []byte(line), nil
}

func (s *landmarkService) ensureStarted() error {
	if s.started {
		return nil
	}

	scriptPath := findLandmarkScript()
	if scriptPath == "" {
		return fmt.Errorf("landmark_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	s.cmd = exec.Command(pythonPath, scriptPath, "--mode", s.mode)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	return nil
}

// Close shuts the sidecar process down.
func (s *landmarkService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if s.stdin != nil {
		s.stdin.Close()
	}
	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	return err
}

// MediaPipeHands is the HandLandmarker backed by the MediaPipe sidecar.
type MediaPipeHands struct {
	svc *landmarkService
}

// NewMediaPipeHands returns a sidecar-backed hand landmarker, or an error if
// the sidecar script cannot be located.
func NewMediaPipeHands() (*MediaPipeHands, error) {
	svc, err := newLandmarkService(serviceModeHands)
	if err != nil {
		return nil, err
	}
	return &MediaPipeHands{svc: svc}, nil
}

type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// Detect implements HandLandmarker.
func (h *MediaPipeHands) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	line, err := h.svc.request(frame)
	if err != nil {
		return nil, err
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse hands response: %w", err)
	}

	result := make([]HandLandmarks, len(response.Hands))
	for i, jh := range response.Hands {
		lm := HandLandmarks{Handedness: jh.Handedness, Score: jh.Score}
		for j, p := range jh.Points {
			if j >= NumLandmarks {
				break
			}
			lm.Points[j] = p
		}
		result[i] = lm
	}
	return result, nil
}

func (h *MediaPipeHands) Close() error { return h.svc.Close() }

// MediaPipeFaceMesh is the FaceMesher backed by the MediaPipe sidecar.
type MediaPipeFaceMesh struct {
	svc *landmarkService
}

// NewMediaPipeFaceMesh returns a sidecar-backed face mesher, or an error if
// the sidecar script cannot be located.
func NewMediaPipeFaceMesh() (*MediaPipeFaceMesh, error) {
	svc, err := newLandmarkService(serviceModeFace)
	if err != nil {
		return nil, err
	}
	return &MediaPipeFaceMesh{svc: svc}, nil
}

// Mesh implements FaceMesher. Only the first detected face is returned;
// nil landmarks mean no face was visible.
func (m *MediaPipeFaceMesh) Mesh(frame *gocv.Mat) (FaceLandmarks, error) {
	line, err := m.svc.request(frame)
	if err != nil {
		return nil, err
	}

	var response struct {
		Faces [][]Point3D `json:"faces"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse face response: %w", err)
	}

	if len(response.Faces) == 0 {
		return nil, nil
	}
	return FaceLandmarks(response.Faces[0]), nil
}

func (m *MediaPipeFaceMesh) Close() error { return m.svc.Close() }

// findLandmarkScript locates the Python sidecar script, checking the working
// directory, the executable directory, and the user data directory.
func findLandmarkScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/landmark_service.py",
		"../scripts/landmark_service.py",
		filepath.Join(execDir, "scripts/landmark_service.py"),
		filepath.Join(os.Getenv("HOME"), ".abhinaya/scripts/landmark_service.py"),
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

// findVenvPython looks for a Python interpreter in a project virtualenv.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".abhinaya/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
