package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/abhinaya/internal/store"
)

// SettingsHandler exposes the persisted key-value settings the UI stores
// its preferences in.
type SettingsHandler struct {
	store *store.Store
}

// NewSettingsHandler creates a new SettingsHandler for the given store.
func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type listSettingsResponse struct {
	Settings []settingResponse `json:"settings"`
}

type setSettingRequest struct {
	Value string `json:"value"`
}

// ServeHTTP routes /api/settings and /api/settings/{key}.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/settings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	key := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, key)
	case http.MethodPut:
		h.set(w, r, key)
	case http.MethodDelete:
		h.delete(w, r, key)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// list handles GET /api/settings and returns every setting.
func (h *SettingsHandler) list(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.Settings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}

	response := listSettingsResponse{
		Settings: make([]settingResponse, 0, len(settings)),
	}
	for _, s := range settings {
		response.Settings = append(response.Settings, settingResponse{Key: s.Key, Value: s.Value})
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/settings/{key}.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request, key string) {
	value, err := h.store.Settings().Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get setting")
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

// set handles PUT /api/settings/{key}, creating or replacing the value.
func (h *SettingsHandler) set(w http.ResponseWriter, r *http.Request, key string) {
	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.store.Settings().Set(key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: req.Value})
}

// delete handles DELETE /api/settings/{key}. Deleting a missing key
// succeeds.
func (h *SettingsHandler) delete(w http.ResponseWriter, r *http.Request, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
