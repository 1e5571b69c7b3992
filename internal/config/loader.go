package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location when set.
const EnvConfigPath = "ABHINAYA_CONFIG"

// DefaultPath returns the config file location: $ABHINAYA_CONFIG when set,
// otherwise ~/.abhinaya/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".abhinaya", "config.yaml"), nil
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Missing fields keep their [Default] values. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Capture.MotionThreshold < 0 || cfg.Capture.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("capture.motion_threshold %.2f is out of range [0, 100]", cfg.Capture.MotionThreshold))
	}
	if cfg.Capture.IdleFPS <= 0 {
		errs = append(errs, fmt.Errorf("capture.idle_fps must be positive, got %d", cfg.Capture.IdleFPS))
	}
	if cfg.Capture.ActiveFPS <= 0 {
		errs = append(errs, fmt.Errorf("capture.active_fps must be positive, got %d", cfg.Capture.ActiveFPS))
	}
	if cfg.Capture.IdleFPS > 0 && cfg.Capture.ActiveFPS > 0 && cfg.Capture.ActiveFPS < cfg.Capture.IdleFPS {
		errs = append(errs, fmt.Errorf("capture.active_fps %d must be at least capture.idle_fps %d", cfg.Capture.ActiveFPS, cfg.Capture.IdleFPS))
	}
	if cfg.Capture.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("capture.idle_timeout must not be negative, got %s", cfg.Capture.IdleTimeout))
	}

	if cfg.Face.Enabled {
		d := cfg.Face.Detector
		if d.EARThreshold <= 0 || d.EARThreshold >= 1 {
			errs = append(errs, fmt.Errorf("face.detector.ear_threshold %.3f is out of range (0, 1)", d.EARThreshold))
		}
		if d.MARThreshold <= 0 {
			errs = append(errs, fmt.Errorf("face.detector.mar_threshold must be positive, got %.3f", d.MARThreshold))
		}
		if d.ERRThreshold <= 0 {
			errs = append(errs, fmt.Errorf("face.detector.err_threshold must be positive, got %.3f", d.ERRThreshold))
		}
		if cfg.Face.CameraIndex < 0 {
			errs = append(errs, fmt.Errorf("face.camera_index must not be negative, got %d", cfg.Face.CameraIndex))
		}
	}

	if cfg.Hand.Enabled {
		if cfg.Hand.Detector.StableFrames < 0 {
			errs = append(errs, fmt.Errorf("hand.detector.stable_frames must not be negative, got %d", cfg.Hand.Detector.StableFrames))
		}
		if cfg.Hand.CameraIndex < 0 {
			errs = append(errs, fmt.Errorf("hand.camera_index must not be negative, got %d", cfg.Hand.CameraIndex))
		}
	}

	if cfg.Voice.Enabled {
		t := cfg.Voice.Transcriber
		if t.Model == "" {
			errs = append(errs, fmt.Errorf("voice.transcriber.model is required when voice is enabled"))
		}
		if t.PauseThreshold <= 0 {
			errs = append(errs, fmt.Errorf("voice.transcriber.pause_threshold must be positive, got %.2f", t.PauseThreshold))
		}
	}

	if cfg.Plugins.ExecTimeout < 0 {
		errs = append(errs, fmt.Errorf("plugins.exec_timeout must not be negative, got %s", cfg.Plugins.ExecTimeout))
	}

	if !cfg.Face.Enabled && !cfg.Hand.Enabled && !cfg.Voice.Enabled {
		slog.Warn("no detector modality is enabled; the engine will have nothing to run")
	}

	return errors.Join(errs...)
}

// SlogLevel maps the configured log level onto slog's scale. The empty
// string maps to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
