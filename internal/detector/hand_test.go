package detector

import (
	"errors"
	"testing"
)

func TestClassifyHand(t *testing.T) {
	t.Run("thumbs up", func(t *testing.T) {
		lm := ThumbsUpLandmarks()
		if got := classifyHand(&lm); got != EventThumbsUp {
			t.Errorf("expected %s, got %s", EventThumbsUp, got)
		}
	})

	t.Run("open palm", func(t *testing.T) {
		lm := OpenPalmLandmarks()
		if got := classifyHand(&lm); got != EventOpenPalm {
			t.Errorf("expected %s, got %s", EventOpenPalm, got)
		}
	})

	t.Run("fist", func(t *testing.T) {
		lm := FistLandmarks()
		if got := classifyHand(&lm); got != EventFist {
			t.Errorf("expected %s, got %s", EventFist, got)
		}
	})

	t.Run("pointing index", func(t *testing.T) {
		lm := FistLandmarks()
		// Extend just the index finger.
		lm.Points[IndexTip] = Point3D{X: 0.57, Y: 0.35}
		if got := classifyHand(&lm); got != EventPointingIndex {
			t.Errorf("expected %s, got %s", EventPointingIndex, got)
		}
	})

	t.Run("victory", func(t *testing.T) {
		lm := FistLandmarks()
		lm.Points[IndexTip] = Point3D{X: 0.57, Y: 0.35}
		lm.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.35}
		if got := classifyHand(&lm); got != EventVictory {
			t.Errorf("expected %s, got %s", EventVictory, got)
		}
	})

	t.Run("ambiguous pose classifies as none", func(t *testing.T) {
		lm := OpenPalmLandmarks()
		// Curl the thumb so no case matches cleanly.
		lm.Points[ThumbTip] = Point3D{X: 0.56, Y: 0.72}
		lm.Points[IndexTip] = Point3D{X: 0.57, Y: 0.60}
		if got := classifyHand(&lm); got != EventHandNone {
			t.Errorf("expected %s, got %s", EventHandNone, got)
		}
	})
}

func TestHandDetector(t *testing.T) {
	setup := func(t *testing.T) (*HandDetector, *MockHandLandmarker, *[]string) {
		t.Helper()
		mock := NewMockHandLandmarker()
		det := NewHandDetector(HandConfig{StableFrames: 3}, mock)

		ids := &[]string{}
		if err := det.Start(func(ev Event) { *ids = append(*ids, ev.ID) }); err != nil {
			t.Fatalf("start failed: %v", err)
		}
		return det, mock, ids
	}

	feed := func(t *testing.T, det *HandDetector, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			if err := det.ProcessFrame(nil); err != nil {
				t.Fatalf("process frame failed: %v", err)
			}
		}
	}

	t.Run("gesture emits only after the stability window", func(t *testing.T) {
		det, mock, ids := setup(t)

		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks()})
		feed(t, det, 3)
		if len(*ids) != 0 {
			t.Fatalf("expected no events yet, got %v", *ids)
		}

		feed(t, det, 1)
		assertEvents(t, *ids, EventThumbsUp)
	})

	t.Run("stable gesture does not re-emit", func(t *testing.T) {
		det, mock, ids := setup(t)

		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})
		feed(t, det, 10)

		assertEvents(t, *ids, EventOpenPalm)
	})

	t.Run("hand leaving frame emits none immediately", func(t *testing.T) {
		det, mock, ids := setup(t)

		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks()})
		feed(t, det, 4)
		mock.SetHands(nil)
		feed(t, det, 1)

		assertEvents(t, *ids, EventThumbsUp, EventHandNone)
	})

	t.Run("gesture change requires a fresh stability window", func(t *testing.T) {
		det, mock, ids := setup(t)

		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks()})
		feed(t, det, 4)
		mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})
		feed(t, det, 3)
		assertEvents(t, *ids, EventThumbsUp)

		feed(t, det, 1)
		assertEvents(t, *ids, EventThumbsUp, EventOpenPalm)
	})

	t.Run("flicker does not emit", func(t *testing.T) {
		det, mock, ids := setup(t)

		for i := 0; i < 6; i++ {
			if i%2 == 0 {
				mock.SetHands([]HandLandmarks{ThumbsUpLandmarks()})
			} else {
				mock.SetHands([]HandLandmarks{OpenPalmLandmarks()})
			}
			feed(t, det, 1)
		}

		if len(*ids) != 0 {
			t.Errorf("expected no events from flickering input, got %v", *ids)
		}
	})

	t.Run("only the first hand drives state", func(t *testing.T) {
		det, mock, ids := setup(t)

		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks(), OpenPalmLandmarks()})
		feed(t, det, 4)

		assertEvents(t, *ids, EventThumbsUp)
	})

	t.Run("landmarker error propagates", func(t *testing.T) {
		det, mock, _ := setup(t)

		wantErr := errors.New("detect failed")
		mock.SetError(wantErr)

		if err := det.ProcessFrame(nil); !errors.Is(err, wantErr) {
			t.Errorf("expected %v, got %v", wantErr, err)
		}
	})

	t.Run("zero stable frames falls back to default", func(t *testing.T) {
		det := NewHandDetector(HandConfig{}, NewMockHandLandmarker())
		if det.cfg.StableFrames != DefaultHandConfig().StableFrames {
			t.Errorf("expected default stable frames, got %d", det.cfg.StableFrames)
		}
	})

	t.Run("process after stop is a no-op", func(t *testing.T) {
		det, mock, ids := setup(t)

		det.Stop()
		mock.SetHands([]HandLandmarks{ThumbsUpLandmarks()})
		feed(t, det, 10)

		if len(*ids) != 0 {
			t.Errorf("expected no events after stop, got %v", *ids)
		}
	})

	t.Run("stop before start releases the landmarker", func(t *testing.T) {
		mock := NewMockHandLandmarker()
		det := NewHandDetector(HandConfig{StableFrames: 3}, mock)

		det.Stop()

		if !mock.Closed() {
			t.Error("expected the landmarker to be closed by a stop without start")
		}
	})
}
