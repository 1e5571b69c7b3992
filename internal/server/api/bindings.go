// Package api provides HTTP API handlers for the abhinaya control server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/abhinaya/internal/action"
	"github.com/ayusman/abhinaya/internal/store"
)

var validTriggerTypes = map[string]bool{
	"voice": true,
	"face":  true,
	"hand":  true,
}

// BindingHandler handles HTTP requests for binding resources.
type BindingHandler struct {
	store   *store.Store
	actions *action.Registry
}

// NewBindingHandler creates a new BindingHandler. actions may be nil, in
// which case action IDs are not checked against the registry.
func NewBindingHandler(s *store.Store, actions *action.Registry) *BindingHandler {
	return &BindingHandler{store: s, actions: actions}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/bindings or /api/bindings/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createBindingRequest struct {
	TriggerType  string `json:"trigger_type"`
	TriggerEvent string `json:"trigger_event"`
	ActionID     string `json:"action_id"`
	Enabled      *bool  `json:"enabled"`
}

type updateBindingRequest struct {
	TriggerType  string `json:"trigger_type"`
	TriggerEvent string `json:"trigger_event"`
	ActionID     string `json:"action_id"`
	Enabled      *bool  `json:"enabled"`
}

type bindingResponse struct {
	ID           string `json:"id"`
	TriggerType  string `json:"trigger_type"`
	TriggerEvent string `json:"trigger_event"`
	ActionID     string `json:"action_id"`
	Enabled      bool   `json:"enabled"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Binding to a bindingResponse.
func toResponse(b *store.Binding) bindingResponse {
	return bindingResponse{
		ID:           b.ID,
		TriggerType:  b.TriggerType,
		TriggerEvent: b.TriggerEvent,
		ActionID:     b.ActionID,
		Enabled:      b.Enabled,
		CreatedAt:    b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// knownAction reports whether id can be dispatched.
func (h *BindingHandler) knownAction(id string) bool {
	if h.actions == nil {
		return true
	}
	return h.actions.Has(id)
}

// list handles GET /api/bindings and returns all bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id} and returns a single binding.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	binding, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(binding))
}

// create handles POST /api/bindings and creates a new binding.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.TriggerEvent == "" {
		writeError(w, http.StatusBadRequest, "Trigger event is required")
		return
	}
	if !validTriggerTypes[strings.ToLower(req.TriggerType)] {
		writeError(w, http.StatusBadRequest, "Invalid trigger type")
		return
	}
	if req.ActionID == "" {
		writeError(w, http.StatusBadRequest, "Action ID is required")
		return
	}
	if !h.knownAction(req.ActionID) {
		writeError(w, http.StatusBadRequest, "Unknown action ID")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	binding := &store.Binding{
		ID:           uuid.New().String(),
		TriggerType:  req.TriggerType,
		TriggerEvent: req.TriggerEvent,
		ActionID:     req.ActionID,
		Enabled:      enabled,
	}

	if err := h.store.Bindings().Create(binding); err != nil {
		writeError(w, http.StatusConflict, "Failed to create binding; the trigger may already be bound")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(binding))
}

// update handles PUT /api/bindings/{id} and updates an existing binding.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	binding, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.TriggerType != "" {
		if !validTriggerTypes[strings.ToLower(req.TriggerType)] {
			writeError(w, http.StatusBadRequest, "Invalid trigger type")
			return
		}
		binding.TriggerType = req.TriggerType
	}
	if req.TriggerEvent != "" {
		binding.TriggerEvent = req.TriggerEvent
	}
	if req.ActionID != "" {
		if !h.knownAction(req.ActionID) {
			writeError(w, http.StatusBadRequest, "Unknown action ID")
			return
		}
		binding.ActionID = req.ActionID
	}
	if req.Enabled != nil {
		binding.Enabled = *req.Enabled
	}

	if err := h.store.Bindings().Update(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(binding))
}

// delete handles DELETE /api/bindings/{id} and removes a binding.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Bindings().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
