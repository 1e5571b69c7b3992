package detector

import "math"

// Hand landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a 3D landmark coordinate. X and Y are normalised to the frame,
// Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks holds the 21 hand landmarks reported by the hand landmarker.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// distance3D is the Euclidean distance between two landmarks.
func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Face mesh landmark indices (MediaPipe face mesh convention). Only the
// subsets needed for the gesture ratios are named here.
var (
	leftEyeIndices   = [6]int{362, 385, 387, 263, 373, 380}
	rightEyeIndices  = [6]int{33, 160, 158, 133, 153, 144}
	leftBrowIndices  = [5]int{70, 63, 105, 66, 107}
	rightBrowIndices = [5]int{336, 296, 334, 293, 300}
)

const (
	mouthCornerLeft  = 61
	mouthCornerRight = 291
	lipUpper         = 13
	lipLower         = 14
	chinIndex        = 152
	foreheadIndex    = 10

	// FaceMeshPoints is the number of landmarks a full face mesh carries.
	FaceMeshPoints = 468
)

// FaceLandmarks is a full face mesh. The geometry methods return neutral
// values (open eye, closed mouth, level head) when the mesh is too short,
// so a partial detection never produces a spurious gesture.
type FaceLandmarks []Point3D

func (f FaceLandmarks) point(i int) (Point3D, bool) {
	if i < 0 || i >= len(f) {
		return Point3D{}, false
	}
	return f[i], true
}

// eyeAspectRatio computes the EAR over a 6-point eye contour: the mean of
// the two vertical lid distances over the horizontal eye width. Values drop
// toward zero as the eye closes.
func (f FaceLandmarks) eyeAspectRatio(idx [6]int) float64 {
	pts := make([]Point3D, 6)
	for i, li := range idx {
		p, ok := f.point(li)
		if !ok {
			return 1.0
		}
		pts[i] = p
	}
	h := distance3D(pts[0], pts[3])
	if h == 0 {
		return 1.0
	}
	v1 := distance3D(pts[1], pts[5])
	v2 := distance3D(pts[2], pts[4])
	return (v1 + v2) / (2.0 * h)
}

// LeftEAR is the aspect ratio of the person's left eye (screen right).
func (f FaceLandmarks) LeftEAR() float64 { return f.eyeAspectRatio(leftEyeIndices) }

// RightEAR is the aspect ratio of the person's right eye (screen left).
func (f FaceLandmarks) RightEAR() float64 { return f.eyeAspectRatio(rightEyeIndices) }

// MouthAspectRatio is lip opening over mouth width; rises as the mouth opens.
func (f FaceLandmarks) MouthAspectRatio() float64 {
	left, ok1 := f.point(mouthCornerLeft)
	right, ok2 := f.point(mouthCornerRight)
	upper, ok3 := f.point(lipUpper)
	lower, ok4 := f.point(lipLower)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0
	}
	w := distance3D(left, right)
	if w == 0 {
		return 0
	}
	return distance3D(upper, lower) / w
}

// browRatio is the eyebrow raise ratio for one side: vertical brow-to-eyelid
// distance over brow width.
func (f FaceLandmarks) browRatio(brow [5]int, eye [6]int) float64 {
	browMid, ok1 := f.point(brow[2])
	browOuter, ok2 := f.point(brow[4])
	eyeTop, ok3 := f.point(eye[1])
	if !ok1 || !ok2 || !ok3 {
		return 0
	}
	w := distance3D(browMid, browOuter)
	if w == 0 {
		return 0
	}
	return math.Abs(browMid.Y-eyeTop.Y) / w
}

// EyebrowRatio averages the left and right brow raise ratios.
func (f FaceLandmarks) EyebrowRatio() float64 {
	l := f.browRatio(leftBrowIndices, leftEyeIndices)
	r := f.browRatio(rightBrowIndices, rightEyeIndices)
	return (l + r) / 2.0
}

// HeadTiltDegrees is the sideways tilt of the chin-to-forehead axis.
// 0 is upright; the sign follows the screen-space x direction of the lean,
// with magnitude growing past 90 as the tilt deepens.
func (f FaceLandmarks) HeadTiltDegrees() float64 {
	chin, ok1 := f.point(chinIndex)
	forehead, ok2 := f.point(foreheadIndex)
	if !ok1 || !ok2 {
		return 0
	}
	dx := forehead.X - chin.X
	dy := forehead.Y - chin.Y
	return math.Atan2(dx, -dy) * 180.0 / math.Pi
}
