// Package main provides a keyboard plugin for macOS.
// It presses, holds and releases keys via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
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

// KeyParams defines parameters for press-key, key-down and key-up.
type KeyParams struct {
	Key string `json:"key"`
}

// HotkeyParams defines parameters for hotkey. All keys except the last
// must be modifiers.
type HotkeyParams struct {
	Keys []string `json:"keys"`
}

// keyCodes maps friendly key names to macOS virtual key codes.
var keyCodes = map[string]int{
	"a": 0, "s": 1, "d": 2, "f": 3, "h": 4, "g": 5,
	"z": 6, "x": 7, "c": 8, "v": 9, "b": 11,
	"q": 12, "w": 13, "e": 14, "r": 15, "y": 16, "t": 17,
	"j": 38, "k": 40, "l": 37,
	"enter":  36,
	"return": 36,
	"tab":    48,
	"space":  49,
	"esc":    53,
	"escape": 53,
	"delete": 117,
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
	"f4":     118,
	"shift":  56,
	"ctrl":   59,
	"alt":    58,
	"cmd":    55,
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// modifierConstants maps modifier names to AppleScript key down/up constants.
var modifierConstants = map[string]string{
	"command": "command",
	"cmd":     "command",
	"option":  "option",
	"alt":     "option",
	"control": "control",
	"ctrl":    "control",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var err error
	switch req.Action {
	case "press-key":
		err = handlePressKey(req.Params)
	case "key-down":
		err = handleHold(req.Params, "key down")
	case "key-up":
		err = handleHold(req.Params, "key up")
	case "hotkey":
		err = handleHotkey(req.Params)
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse()
}

// handlePressKey taps a single key once.
func handlePressKey(params json.RawMessage) error {
	var p KeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	key := strings.ToLower(p.Key)
	if code, ok := keyCodes[key]; ok {
		return runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d`, code))
	}
	if len([]rune(key)) == 1 {
		return runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key))
	}
	return fmt.Errorf("unknown key: %s", p.Key)
}

// handleHold holds down or releases a key. direction is the AppleScript
// command, "key down" or "key up". Only character keys and modifiers can be
// held; key codes always press and release in one step.
func handleHold(params json.RawMessage, direction string) error {
	var p KeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Key == "" {
		return fmt.Errorf("key is required")
	}

	key := strings.ToLower(p.Key)
	if constant, ok := modifierConstants[key]; ok {
		return runAppleScript(fmt.Sprintf(`tell application "System Events" to %s %s`, direction, constant))
	}

	char := key
	if key == "space" {
		char = " "
	}
	if len([]rune(char)) != 1 {
		return fmt.Errorf("key %q cannot be held", p.Key)
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to %s "%s"`, direction, char))
}

// handleHotkey presses the last key in the list while holding the preceding
// keys as modifiers.
func handleHotkey(params json.RawMessage) error {
	var p HotkeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if len(p.Keys) < 2 {
		return fmt.Errorf("hotkey requires at least a modifier and a key")
	}

	var appleModifiers []string
	for _, mod := range p.Keys[:len(p.Keys)-1] {
		appleMod, ok := modifierMap[strings.ToLower(mod)]
		if !ok {
			return fmt.Errorf("unknown modifier: %s", mod)
		}
		appleModifiers = append(appleModifiers, appleMod)
	}
	modifierList := strings.Join(appleModifiers, ", ")

	key := strings.ToLower(p.Keys[len(p.Keys)-1])
	if code, ok := keyCodes[key]; ok {
		return runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d using {%s}`, code, modifierList))
	}
	if len([]rune(key)) == 1 {
		return runAppleScript(fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, modifierList))
	}
	return fmt.Errorf("unknown key: %s", key)
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
func writeSuccessResponse() {
	resp := Response{
		Success: true,
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
