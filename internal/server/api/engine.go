package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/abhinaya/internal/engine"
)

// Controller is the slice of the engine the API drives. The settings and
// binding wiring live in the composition root, so the handlers never see
// them.
type Controller interface {
	Start() error
	Stop()
	State() engine.State

	// Reload re-reads the enabled bindings and swaps them into the engine.
	Reload() error
}

// EngineHandler exposes engine status and the start/stop/reload commands.
type EngineHandler struct {
	engine Controller
}

// NewEngineHandler creates a new EngineHandler for the given controller.
func NewEngineHandler(c Controller) *EngineHandler {
	return &EngineHandler{engine: c}
}

type engineStatusResponse struct {
	State   string `json:"state"`
	Running bool   `json:"running"`
}

// ServeHTTP routes between GET /api/engine and POST /api/engine/{command}.
func (h *EngineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/engine")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "start":
		h.start(w)
	case "stop":
		h.stop(w)
	case "reload":
		h.reload(w)
	default:
		writeError(w, http.StatusNotFound, "Unknown engine command")
	}
}

func (h *EngineHandler) status(w http.ResponseWriter) {
	state := h.engine.State()
	writeJSON(w, http.StatusOK, engineStatusResponse{
		State:   state.String(),
		Running: state == engine.Running,
	})
}

func (h *EngineHandler) start(w http.ResponseWriter) {
	if err := h.engine.Start(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.status(w)
}

func (h *EngineHandler) stop(w http.ResponseWriter) {
	h.engine.Stop()
	h.status(w)
}

func (h *EngineHandler) reload(w http.ResponseWriter) {
	if err := h.engine.Reload(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.status(w)
}
