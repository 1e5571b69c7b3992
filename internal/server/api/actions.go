package api

import (
	"net/http"

	"github.com/ayusman/abhinaya/internal/action"
)

// ActionsHandler exposes the registered action catalog.
type ActionsHandler struct {
	registry *action.Registry
}

// NewActionsHandler creates a new ActionsHandler for the given registry.
func NewActionsHandler(r *action.Registry) *ActionsHandler {
	return &ActionsHandler{registry: r}
}

type listActionsResponse struct {
	Actions []string `json:"actions"`
}

// ServeHTTP handles GET /api/actions.
func (h *ActionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, listActionsResponse{Actions: h.registry.IDs()})
}
