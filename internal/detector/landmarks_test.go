package detector

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func TestFaceLandmarks_Ratios(t *testing.T) {
	t.Run("neutral mesh has open eyes", func(t *testing.T) {
		mesh := NeutralFaceMesh()

		if ear := mesh.LeftEAR(); math.Abs(ear-0.5) > 1e-6 {
			t.Errorf("expected left EAR 0.5, got %f", ear)
		}
		if ear := mesh.RightEAR(); math.Abs(ear-0.5) > 1e-6 {
			t.Errorf("expected right EAR 0.5, got %f", ear)
		}
	})

	t.Run("closed eye EAR drops to zero", func(t *testing.T) {
		mesh := LeftEyeClosedFaceMesh()

		// The person's left eye appears on screen right and is read
		// through RightEAR's mirror in the detector, but geometrically
		// the closed contour itself collapses.
		if ear := mesh.RightEAR(); ear > epsilon {
			t.Errorf("expected closed eye EAR near 0, got %f", ear)
		}
		if ear := mesh.LeftEAR(); math.Abs(ear-0.5) > 1e-6 {
			t.Errorf("expected open eye EAR 0.5, got %f", ear)
		}
	})

	t.Run("mouth aspect ratio rises when mouth opens", func(t *testing.T) {
		closed := NeutralFaceMesh().MouthAspectRatio()
		open := MouthOpenFaceMesh().MouthAspectRatio()

		if closed > 0.1 {
			t.Errorf("expected closed-mouth MAR below 0.1, got %f", closed)
		}
		if open < 0.5 {
			t.Errorf("expected open-mouth MAR above 0.5, got %f", open)
		}
	})

	t.Run("eyebrow ratio rises when brows raise", func(t *testing.T) {
		resting := NeutralFaceMesh().EyebrowRatio()
		raised := RaisedBrowFaceMesh().EyebrowRatio()

		if resting > 1.0 {
			t.Errorf("expected resting brow ratio below 1.0, got %f", resting)
		}
		if raised < 1.34 {
			t.Errorf("expected raised brow ratio above 1.34, got %f", raised)
		}
	})

	t.Run("upright head has zero tilt", func(t *testing.T) {
		if tilt := NeutralFaceMesh().HeadTiltDegrees(); math.Abs(tilt) > epsilon {
			t.Errorf("expected zero tilt, got %f", tilt)
		}
	})

	t.Run("tilt fixtures land inside the trigger windows", func(t *testing.T) {
		right := HeadTiltRightFaceMesh().HeadTiltDegrees()
		if right < 100 || right > 160 {
			t.Errorf("expected right tilt in [100,160], got %f", right)
		}

		left := HeadTiltLeftFaceMesh().HeadTiltDegrees()
		if left > -100 || left < -160 {
			t.Errorf("expected left tilt in [-160,-100], got %f", left)
		}
	})

	t.Run("short mesh returns neutral values", func(t *testing.T) {
		mesh := make(FaceLandmarks, 10)

		if ear := mesh.LeftEAR(); math.Abs(ear-1.0) > epsilon {
			t.Errorf("expected neutral EAR 1.0, got %f", ear)
		}
		if mar := mesh.MouthAspectRatio(); mar > epsilon {
			t.Errorf("expected neutral MAR 0, got %f", mar)
		}
		if ratio := mesh.EyebrowRatio(); ratio > epsilon {
			t.Errorf("expected neutral brow ratio 0, got %f", ratio)
		}
		if tilt := mesh.HeadTiltDegrees(); math.Abs(tilt) > epsilon {
			t.Errorf("expected neutral tilt 0, got %f", tilt)
		}
	})
}

func TestDistance3D(t *testing.T) {
	a := Point3D{X: 1, Y: 2, Z: 3}
	b := Point3D{X: 4, Y: 6, Z: 3}

	if d := distance3D(a, b); math.Abs(d-5.0) > epsilon {
		t.Errorf("expected distance 5.0, got %f", d)
	}
	if d := distance3D(a, a); d > epsilon {
		t.Errorf("expected zero distance, got %f", d)
	}
}
