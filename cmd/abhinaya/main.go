package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/config"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/engine"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/tray"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	})))

	dataDir, err := ensureDataDir()
	if err != nil {
		return err
	}

	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "abhinaya.db")
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pluginDir := cfg.Plugins.Dir
	if pluginDir == "" {
		pluginDir = findPluginDir(dataDir)
	}

	a, err := app.New(cfg, st, pluginDir)
	if err != nil {
		return err
	}
	defer a.Close()

	events := server.NewEventsHandler()
	tr := tray.New()

	a.Engine().OnStateChange(func(s engine.State) {
		events.BroadcastState(s.String())
		tr.SetEngineState(s.String())
		tr.SetEnabled(s == engine.Running || s == engine.Starting)
	})
	a.Engine().OnDispatch(func(ev detector.Event, actionID string) {
		a.RecordDispatch(ev, actionID)
		events.BroadcastDispatch(string(ev.Modality), ev.ID, actionID)
		tr.SetLastTrigger(ev.ID, actionID)
	})

	srv := server.New(server.Config{
		StaticDir: findWebDir(dataDir),
		Store:     st,
		Engine:    a,
		Actions:   a.Registry(),
		Events:    events,
	})

	go func() {
		slog.Info("control server listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(cfg.Server.ListenAddr); err != nil {
			slog.Error("control server failed", "error", err)
			tr.Quit()
		}
	}()

	tr.OnToggle(func(enabled bool) {
		if enabled {
			if err := a.Start(); err != nil {
				slog.Error("engine start failed", "error", err)
				tr.SetEnabled(false)
			}
			return
		}
		a.Stop()
	})
	tr.OnSettings(func() {
		openBrowser("http://" + cfg.Server.ListenAddr)
	})
	tr.OnQuit(func() {
		a.Stop()
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutting down")
		tr.Quit()
	}()

	if err := a.Start(); err != nil {
		// A missing camera or microphone should not keep the tray from
		// coming up; the user can retry from the menu.
		slog.Warn("engine did not start", "error", err)
	}

	// Blocks until the tray quits. Must run on the main goroutine.
	tr.Run()
	return nil
}

// ensureDataDir creates and returns ~/.abhinaya.
func ensureDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".abhinaya")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// findPluginDir searches for the plugins directory in common locations:
// next to the executable, the working directory, then the data directory.
func findPluginDir(dataDir string) string {
	candidates := []string{"plugins"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "plugins"))
	}
	candidates = append(candidates, filepath.Join(dataDir, "plugins"))

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			abs, err := filepath.Abs(p)
			if err == nil {
				return abs
			}
			return p
		}
	}
	return filepath.Join(dataDir, "plugins")
}

// findWebDir searches for the settings UI directory. Returns empty when
// none exists; the API still serves.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			abs, err := filepath.Abs(p)
			if err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// openBrowser opens url with the platform opener. Errors only get logged;
// the URL is in the log for manual use.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch {
	case fileExists("/usr/bin/open"):
		cmd = exec.Command("/usr/bin/open", url)
	case fileExists("/usr/bin/xdg-open"):
		cmd = exec.Command("/usr/bin/xdg-open", url)
	default:
		slog.Info("open settings manually", "url", url)
		return
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("failed to open browser", "url", url, "error", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
