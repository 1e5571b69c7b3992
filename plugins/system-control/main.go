// Package main provides a system control plugin for macOS.
// It handles mouse clicks, scrolling and screenshots.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Trigger string          `json:"trigger"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ClickParams defines parameters for the mouse-click action.
type ClickParams struct {
	Button string `json:"button"`
	Clicks int    `json:"clicks"`
}

// ScrollParams defines parameters for the scroll action. Positive amounts
// scroll up, negative amounts scroll down.
type ScrollParams struct {
	Amount int `json:"amount"`
}

// actionHandler defines a function type for handling specific actions.
type actionHandler func(params json.RawMessage) (json.RawMessage, error)

// actionHandlers maps action names to their handler functions.
var actionHandlers = map[string]actionHandler{
	"mouse-click":     mouseClick,
	"scroll":          scroll,
	"take-screenshot": takeScreenshot,
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	// Look up the handler for the action
	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	// Execute the handler
	data, err := handler(req.Params)
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse(data)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse(data json.RawMessage) {
	resp := Response{
		Success: true,
		Data:    data,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// runCliclick drives the mouse through cliclick, which must be on PATH.
func runCliclick(args ...string) error {
	cmd := exec.Command("cliclick", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// mouseClick clicks at the current cursor position.
func mouseClick(params json.RawMessage) (json.RawMessage, error) {
	var p ClickParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Clicks <= 0 {
		p.Clicks = 1
	}

	switch p.Button {
	case "", "left":
		if p.Clicks >= 3 {
			return nil, runCliclick("tc:.")
		}
		if p.Clicks == 2 {
			return nil, runCliclick("dc:.")
		}
		return nil, runCliclick("c:.")
	case "right":
		return nil, runCliclick("rc:.")
	case "middle":
		return nil, fmt.Errorf("middle click is not supported by cliclick")
	default:
		return nil, fmt.Errorf("unknown button: %s", p.Button)
	}
}

// scroll emulates wheel scrolling with the Page Up and Page Down keys, one
// page per unit of amount.
func scroll(params json.RawMessage) (json.RawMessage, error) {
	var p ScrollParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Amount == 0 {
		return nil, fmt.Errorf("amount must be non-zero")
	}

	keyCode := 116 // Page Up
	steps := p.Amount
	if p.Amount < 0 {
		keyCode = 121 // Page Down
		steps = -p.Amount
	}

	for i := 0; i < steps; i++ {
		script := fmt.Sprintf(`tell application "System Events" to key code %d`, keyCode)
		if err := runAppleScript(script); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// takeScreenshot captures the full screen to the desktop and reports the
// file path.
func takeScreenshot(json.RawMessage) (json.RawMessage, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(home, "Desktop", time.Now().Format("screenshot-20060102-150405.png"))

	cmd := exec.Command("screencapture", "-x", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, string(output))
	}

	data, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return nil, err
	}
	return data, nil
}
