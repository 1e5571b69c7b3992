package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/abhinaya/internal/store"
)

// HistoryHandler exposes the recent dispatch history.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a new HistoryHandler for the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type historyEntry struct {
	Modality   string `json:"modality"`
	Event      string `json:"event"`
	ActionID   string `json:"action_id"`
	OccurredAt string `json:"occurred_at"`
}

type historyResponse struct {
	Events []historyEntry `json:"events"`
}

// ServeHTTP handles GET /api/history?limit=N.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	records, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	response := historyResponse{Events: make([]historyEntry, 0, len(records))}
	for _, rec := range records {
		response.Events = append(response.Events, historyEntry{
			Modality:   rec.Modality,
			Event:      rec.Event,
			ActionID:   rec.ActionID,
			OccurredAt: rec.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
