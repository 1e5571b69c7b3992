// Package plugin provides discovery and execution of external action
// plugins for the Abhinaya hands-free control system.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the actions it can perform.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is sent to a plugin on stdin as a single JSON document. Trigger
// names the event that caused the action, so plugins can vary behaviour by
// input gesture.
type Request struct {
	Action  string          `json:"action"`
	Trigger string          `json:"trigger"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response is what a plugin writes to stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location on disk.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
