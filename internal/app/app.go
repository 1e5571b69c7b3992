// Package app wires the abhinaya subsystems together: configuration,
// storage, the action plugins, the detection engine, and the UI surfaces.
package app

import (
	"fmt"
	"log/slog"

	"github.com/ayusman/abhinaya/internal/action"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/engine"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/store"
)

// historyKeep bounds the dispatch history table.
const historyKeep = 500

// App owns the engine and its persistent state, and implements the control
// surface the HTTP API and the tray drive.
type App struct {
	cfg      *config.Config
	store    *store.Store
	registry *action.Registry
	plugins  *plugin.Manager
	engine   *engine.Engine
}

// New assembles the application: it discovers plugins, registers the
// built-in action catalog, and creates the engine. The engine is not
// started; call Start (or let the tray toggle do it).
func New(cfg *config.Config, st *store.Store, pluginDir string) (*App, error) {
	mgr := plugin.NewManager(pluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}

	registry := action.NewRegistry()
	exec := plugin.NewExecutor(cfg.Plugins.ExecTimeout)
	action.RegisterBuiltins(registry, mgr, exec)

	eng := engine.New(registry, engine.DefaultFactories(cfg.Voice.Transcriber))

	return &App{
		cfg:      cfg,
		store:    st,
		registry: registry,
		plugins:  mgr,
		engine:   eng,
	}, nil
}

// Engine returns the engine for callback wiring.
func (a *App) Engine() *engine.Engine { return a.engine }

// Registry returns the action registry.
func (a *App) Registry() *action.Registry { return a.registry }

// settings maps the file configuration onto an engine generation.
func (a *App) settings() engine.Settings {
	s := engine.Settings{
		MotionThreshold: a.cfg.Capture.MotionThreshold,
		Distributor: engine.DistributorConfig{
			IdleFPS:     a.cfg.Capture.IdleFPS,
			ActiveFPS:   a.cfg.Capture.ActiveFPS,
			IdleTimeout: a.cfg.Capture.IdleTimeout,
		},
	}
	if a.cfg.Face.Enabled {
		s.Face = &engine.FaceSettings{
			CameraIndex: a.cfg.Face.CameraIndex,
			Config:      a.cfg.Face.Detector,
		}
	}
	if a.cfg.Hand.Enabled {
		s.Hand = &engine.HandSettings{
			CameraIndex: a.cfg.Hand.CameraIndex,
			Config:      a.cfg.Hand.Detector,
		}
	}
	if a.cfg.Voice.Enabled {
		s.Voice = &engine.VoiceSettings{
			TriggerWords: a.cfg.Voice.TriggerWords,
		}
	}
	return s
}

// loadBindings reads the enabled bindings from the store and loads them
// into the engine together with the current settings.
func (a *App) loadBindings() error {
	rows, err := a.store.Bindings().ListEnabled()
	if err != nil {
		return fmt.Errorf("list bindings: %w", err)
	}

	bindings := make([]engine.Binding, 0, len(rows))
	for _, row := range rows {
		bindings = append(bindings, engine.Binding{
			TriggerType:  detector.Modality(row.TriggerType),
			TriggerEvent: row.TriggerEvent,
			ActionID:     row.ActionID,
		})
	}

	return a.engine.Load(bindings, a.settings())
}

// Start loads the current bindings and starts the engine.
func (a *App) Start() error {
	if err := a.loadBindings(); err != nil {
		return err
	}
	return a.engine.Start()
}

// Stop stops the engine. Safe to call when already stopped.
func (a *App) Stop() {
	a.engine.Stop()
}

// State returns the engine state.
func (a *App) State() engine.State {
	return a.engine.State()
}

// Reload re-reads the bindings from the store. A running engine is
// restarted so the new trigger set takes effect everywhere, including the
// voice trigger words.
func (a *App) Reload() error {
	wasRunning := a.engine.IsRunning()
	if wasRunning {
		a.engine.Stop()
	}
	if err := a.loadBindings(); err != nil {
		return err
	}
	if wasRunning {
		return a.engine.Start()
	}
	return nil
}

// RecordDispatch appends a dispatch to the history and prunes old rows.
// Called from the engine's dispatch callback.
func (a *App) RecordDispatch(ev detector.Event, actionID string) {
	if err := a.store.Events().Record(string(ev.Modality), ev.ID, actionID); err != nil {
		slog.Warn("failed to record dispatch", "error", err)
		return
	}
	if err := a.store.Events().Prune(historyKeep); err != nil {
		slog.Warn("failed to prune dispatch history", "error", err)
	}
}

// Close stops the engine and releases its worker.
func (a *App) Close() {
	a.engine.Close()
}
