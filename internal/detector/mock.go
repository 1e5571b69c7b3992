package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockHandLandmarker is a test HandLandmarker with scripted results.
type MockHandLandmarker struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	closed bool
}

func NewMockHandLandmarker() *MockHandLandmarker {
	return &MockHandLandmarker{}
}

// SetHands sets the landmarks returned by every Detect call.
func (m *MockHandLandmarker) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError makes Detect fail with err.
func (m *MockHandLandmarker) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockHandLandmarker) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

func (m *MockHandLandmarker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockHandLandmarker) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockFaceMesher is a test FaceMesher with scripted meshes.
type MockFaceMesher struct {
	mu     sync.Mutex
	mesh   FaceLandmarks
	err    error
	closed bool
}

func NewMockFaceMesher() *MockFaceMesher {
	return &MockFaceMesher{}
}

// SetMesh sets the mesh returned by every Mesh call; nil means no face.
func (m *MockFaceMesher) SetMesh(mesh FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mesh = mesh
}

// SetError makes Mesh fail with err.
func (m *MockFaceMesher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockFaceMesher) Mesh(frame *gocv.Mat) (FaceLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.mesh, nil
}

func (m *MockFaceMesher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockFaceMesher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockRecognizer is a test Recognizer that plays back scripted transcripts,
// then blocks until the context is cancelled.
type MockRecognizer struct {
	mu          sync.Mutex
	transcripts []string
	closed      bool
}

func NewMockRecognizer(transcripts ...string) *MockRecognizer {
	return &MockRecognizer{transcripts: transcripts}
}

func (m *MockRecognizer) Listen(ctx context.Context) (string, error) {
	m.mu.Lock()
	if len(m.transcripts) > 0 {
		next := m.transcripts[0]
		m.transcripts = m.transcripts[1:]
		m.mu.Unlock()
		return next, nil
	}
	m.mu.Unlock()

	<-ctx.Done()
	return "", ctx.Err()
}

func (m *MockRecognizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockRecognizer) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ThumbsUpLandmarks returns a hand pose with the thumb extended upward and
// all other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}

	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	// Thumb extended upward (y decreases going up).
	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75}
	lm.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65}
	lm.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50}
	lm.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35}

	// Remaining fingers curled: tips below their PIP joints, near the palm.
	curl := func(mcp, pip, dip, tip int, x float64) {
		lm.Points[mcp] = Point3D{X: x, Y: 0.70, Z: -0.02}
		lm.Points[pip] = Point3D{X: x, Y: 0.68, Z: -0.05}
		lm.Points[dip] = Point3D{X: x - 0.03, Y: 0.70, Z: -0.04}
		lm.Points[tip] = Point3D{X: x - 0.05, Y: 0.72, Z: -0.02}
	}
	curl(IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.55)
	curl(MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50)
	curl(RingMCP, RingPIP, RingDIP, RingTip, 0.45)
	curl(PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.40)

	return lm
}

// OpenPalmLandmarks returns a hand pose with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	lm := HandLandmarks{Handedness: "Right", Score: 0.95}

	lm.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	lm.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	lm.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	lm.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	lm.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	extend := func(mcp, pip, dip, tip int, x float64) {
		lm.Points[mcp] = Point3D{X: x, Y: 0.68}
		lm.Points[pip] = Point3D{X: x, Y: 0.55}
		lm.Points[dip] = Point3D{X: x, Y: 0.45}
		lm.Points[tip] = Point3D{X: x, Y: 0.35}
	}
	extend(IndexMCP, IndexPIP, IndexDIP, IndexTip, 0.57)
	extend(MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip, 0.50)
	extend(RingMCP, RingPIP, RingDIP, RingTip, 0.43)
	extend(PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip, 0.36)

	return lm
}

// FistLandmarks returns a hand pose with every finger curled below the palm
// center.
func FistLandmarks() HandLandmarks {
	lm := ThumbsUpLandmarks()

	// Fold the thumb down as well.
	lm.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.70}
	lm.Points[ThumbTip] = Point3D{X: 0.54, Y: 0.74}

	// Push all tips below the middle MCP.
	palmY := lm.Points[MiddleMCP].Y
	for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
		lm.Points[tip] = Point3D{X: lm.Points[tip].X, Y: palmY + 0.06}
	}
	return lm
}

// NeutralFaceMesh returns a full-size face mesh with open eyes, closed
// mouth, resting brows, and an upright head.
func NeutralFaceMesh() FaceLandmarks {
	mesh := make(FaceLandmarks, FaceMeshPoints)

	setEye := func(idx [6]int, cx float64) {
		// Wide-open eye: vertical lid gap comparable to eye width.
		mesh[idx[0]] = Point3D{X: cx - 0.03, Y: 0.40}
		mesh[idx[1]] = Point3D{X: cx - 0.015, Y: 0.385}
		mesh[idx[2]] = Point3D{X: cx + 0.015, Y: 0.385}
		mesh[idx[3]] = Point3D{X: cx + 0.03, Y: 0.40}
		mesh[idx[4]] = Point3D{X: cx + 0.015, Y: 0.415}
		mesh[idx[5]] = Point3D{X: cx - 0.015, Y: 0.415}
	}
	setEye(leftEyeIndices, 0.62)
	setEye(rightEyeIndices, 0.38)

	// Closed mouth: corners wide apart, lips touching.
	mesh[mouthCornerLeft] = Point3D{X: 0.42, Y: 0.62}
	mesh[mouthCornerRight] = Point3D{X: 0.58, Y: 0.62}
	mesh[lipUpper] = Point3D{X: 0.50, Y: 0.615}
	mesh[lipLower] = Point3D{X: 0.50, Y: 0.625}

	// Resting brows just above the eyes.
	setBrow := func(idx [5]int, cx float64) {
		for i, off := range []float64{-0.04, -0.02, 0, 0.02, 0.04} {
			mesh[idx[i]] = Point3D{X: cx + off, Y: 0.355}
		}
	}
	setBrow(leftBrowIndices, 0.62)
	setBrow(rightBrowIndices, 0.38)

	// Upright head axis.
	mesh[chinIndex] = Point3D{X: 0.50, Y: 0.80}
	mesh[foreheadIndex] = Point3D{X: 0.50, Y: 0.25}

	return mesh
}

// MouthOpenFaceMesh returns the neutral mesh with the lips wide apart.
func MouthOpenFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	mesh[lipUpper] = Point3D{X: 0.50, Y: 0.58}
	mesh[lipLower] = Point3D{X: 0.50, Y: 0.68}
	return mesh
}

// LeftEyeClosedFaceMesh returns the neutral mesh with the person's left eye
// shut (the eye that appears on screen right).
func LeftEyeClosedFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	closeEye(mesh, rightEyeIndices)
	return mesh
}

// RightEyeClosedFaceMesh returns the neutral mesh with the person's right
// eye shut.
func RightEyeClosedFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	closeEye(mesh, leftEyeIndices)
	return mesh
}

// BothEyesClosedFaceMesh returns the neutral mesh with both eyes shut.
func BothEyesClosedFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	closeEye(mesh, leftEyeIndices)
	closeEye(mesh, rightEyeIndices)
	return mesh
}

// RaisedBrowFaceMesh returns the neutral mesh with both brows raised high
// above the eyelids.
func RaisedBrowFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	raise := func(idx [5]int) {
		for _, li := range idx {
			mesh[li] = Point3D{X: mesh[li].X, Y: 0.32}
		}
	}
	raise(leftBrowIndices)
	raise(rightBrowIndices)
	return mesh
}

// HeadTiltRightFaceMesh returns a mesh whose chin-to-forehead axis leans
// deep into the rightward tilt window.
func HeadTiltRightFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	mesh[chinIndex] = Point3D{X: 0.30, Y: 0.50}
	mesh[foreheadIndex] = Point3D{X: 0.80, Y: 0.79}
	return mesh
}

// HeadTiltLeftFaceMesh returns a mesh leaning deep into the leftward tilt
// window.
func HeadTiltLeftFaceMesh() FaceLandmarks {
	mesh := NeutralFaceMesh()
	mesh[chinIndex] = Point3D{X: 0.70, Y: 0.50}
	mesh[foreheadIndex] = Point3D{X: 0.20, Y: 0.79}
	return mesh
}

func closeEye(mesh FaceLandmarks, idx [6]int) {
	// Collapse the lids: vertical gap near zero against unchanged width.
	top := (mesh[idx[1]].Y + mesh[idx[5]].Y) / 2
	mesh[idx[1]] = Point3D{X: mesh[idx[1]].X, Y: top}
	mesh[idx[2]] = Point3D{X: mesh[idx[2]].X, Y: top}
	mesh[idx[4]] = Point3D{X: mesh[idx[4]].X, Y: top}
	mesh[idx[5]] = Point3D{X: mesh[idx[5]].X, Y: top}
}
