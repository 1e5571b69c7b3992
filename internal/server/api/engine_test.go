package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/abhinaya/internal/engine"
)

// fakeController records the commands it receives.
type fakeController struct {
	state     engine.State
	startErr  error
	reloadErr error
	starts    int
	stops     int
	reloads   int
}

func (c *fakeController) Start() error {
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.state = engine.Running
	return nil
}

func (c *fakeController) Stop() {
	c.stops++
	c.state = engine.Stopped
}

func (c *fakeController) State() engine.State { return c.state }

func (c *fakeController) Reload() error {
	c.reloads++
	return c.reloadErr
}

func do(t *testing.T, h *EngineHandler, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEngineHandler_Status(t *testing.T) {
	c := &fakeController{state: engine.Stopped}
	h := NewEngineHandler(c)

	rec := do(t, h, http.MethodGet, "/api/engine")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp engineStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.State != "stopped" || resp.Running {
		t.Errorf("unexpected status: %+v", resp)
	}
}

func TestEngineHandler_StartStop(t *testing.T) {
	c := &fakeController{}
	h := NewEngineHandler(c)

	rec := do(t, h, http.MethodPost, "/api/engine/start")
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if c.starts != 1 {
		t.Errorf("starts = %d, want 1", c.starts)
	}

	var resp engineStatusResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.State != "running" || !resp.Running {
		t.Errorf("unexpected status after start: %+v", resp)
	}

	rec = do(t, h, http.MethodPost, "/api/engine/stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if c.stops != 1 {
		t.Errorf("stops = %d, want 1", c.stops)
	}
}

func TestEngineHandler_StartFailure(t *testing.T) {
	c := &fakeController{startErr: errors.New("camera 0: device busy")}
	h := NewEngineHandler(c)

	rec := do(t, h, http.MethodPost, "/api/engine/start")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	var resp errorResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error == "" {
		t.Error("expected error message in response")
	}
}

func TestEngineHandler_Reload(t *testing.T) {
	c := &fakeController{}
	h := NewEngineHandler(c)

	rec := do(t, h, http.MethodPost, "/api/engine/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if c.reloads != 1 {
		t.Errorf("reloads = %d, want 1", c.reloads)
	}

	c.reloadErr = engine.ErrAlreadyRunning
	rec = do(t, h, http.MethodPost, "/api/engine/reload")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestEngineHandler_BadRequests(t *testing.T) {
	h := NewEngineHandler(&fakeController{})

	if rec := do(t, h, http.MethodPost, "/api/engine"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST to status: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/engine/start"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET to command: expected %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/engine/selfdestruct"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown command: expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}
