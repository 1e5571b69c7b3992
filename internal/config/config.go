// Package config provides the configuration schema and loader for the
// abhinaya hands-free control system.
package config

import (
	"time"

	"github.com/ayusman/abhinaya/internal/detector"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Face    FaceConfig    `yaml:"face"`
	Hand    HandConfig    `yaml:"hand"`
	Voice   VoiceConfig   `yaml:"voice"`
	Plugins PluginsConfig `yaml:"plugins"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig holds network and logging settings for the control server.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g., "127.0.0.1:8750").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// CaptureConfig tunes the shared frame acquisition loop.
type CaptureConfig struct {
	// MotionThreshold is the percentage of changed pixels above which a
	// frame counts as motion, switching capture to the active rate.
	MotionThreshold float64 `yaml:"motion_threshold"`

	// IdleFPS is the capture rate while the scene is still.
	IdleFPS int `yaml:"idle_fps"`

	// ActiveFPS is the capture rate while motion is present.
	ActiveFPS int `yaml:"active_fps"`

	// IdleTimeout is how long after the last motion the rate drops back
	// to IdleFPS.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// FaceConfig enables the facial gesture detector and tunes its thresholds.
type FaceConfig struct {
	Enabled     bool `yaml:"enabled"`
	CameraIndex int  `yaml:"camera_index"`

	Detector detector.FaceConfig `yaml:"detector"`
}

// HandConfig enables the hand gesture detector.
type HandConfig struct {
	Enabled     bool `yaml:"enabled"`
	CameraIndex int  `yaml:"camera_index"`

	Detector detector.HandConfig `yaml:"detector"`
}

// VoiceConfig enables the voice trigger detector. TriggerWords may be left
// empty, in which case the trigger set is derived from the loaded voice
// bindings.
type VoiceConfig struct {
	Enabled      bool     `yaml:"enabled"`
	TriggerWords []string `yaml:"trigger_words"`

	Transcriber detector.TranscriberConfig `yaml:"transcriber"`
}

// PluginsConfig locates the action plugin directory.
type PluginsConfig struct {
	// Dir is the directory scanned for plugin manifests. Empty means the
	// bundled plugins directory next to the executable.
	Dir string `yaml:"dir"`

	// ExecTimeout bounds a single plugin invocation.
	ExecTimeout time.Duration `yaml:"exec_timeout"`
}

// StorageConfig locates the bindings database.
type StorageConfig struct {
	// Path is the SQLite database file. Empty means bindings.db under the
	// application data directory.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present: face and
// voice control on camera 0 and the system microphone, HTTP API on
// localhost.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8750",
			LogLevel:   LogInfo,
		},
		Capture: CaptureConfig{
			MotionThreshold: 1.0,
			IdleFPS:         5,
			ActiveFPS:       15,
			IdleTimeout:     2 * time.Second,
		},
		Face: FaceConfig{
			Enabled:  true,
			Detector: detector.DefaultFaceConfig(),
		},
		Hand: HandConfig{
			Enabled:  true,
			Detector: detector.DefaultHandConfig(),
		},
		Voice: VoiceConfig{
			Enabled:     true,
			Transcriber: detector.DefaultTranscriberConfig(),
		},
		Plugins: PluginsConfig{
			ExecTimeout: 10 * time.Second,
		},
	}
}
