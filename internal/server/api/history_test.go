package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/abhinaya/internal/store"
)

func newHistoryHandler(t *testing.T) (*HistoryHandler, *store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewHistoryHandler(s), s
}

func TestHistoryHandler_Recent(t *testing.T) {
	h, s := newHistoryHandler(t)

	events := s.Events()
	events.Record("voice", "go", "PRESS_RIGHT")
	events.Record("hand", "fist", "PRESS_ENTER")

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp historyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	// Newest first.
	if resp.Events[0].Event != "fist" {
		t.Errorf("first event = %q, want fist", resp.Events[0].Event)
	}
}

func TestHistoryHandler_Limit(t *testing.T) {
	h, s := newHistoryHandler(t)

	events := s.Events()
	for i := 0; i < 5; i++ {
		events.Record("face", "mouth_open", "PRESS_SPACE")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp historyResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Events) != 2 {
		t.Errorf("expected 2 events with limit=2, got %d", len(resp.Events))
	}
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	h, _ := newHistoryHandler(t)

	for _, limit := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/history?limit="+limit, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected status %d, got %d", limit, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestHistoryHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newHistoryHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
