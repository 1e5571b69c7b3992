package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScriptPlugin writes an executable shell script into a temp dir and
// returns a Plugin pointing at it.
func writeScriptPlugin(t *testing.T, name, action, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell script test on Windows")
	}

	dir := t.TempDir()
	scriptPath := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    []string{action},
		},
		Path:       dir,
		Executable: scriptPath,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := writeScriptPlugin(t, "hello", "greet", `#!/bin/sh
cat <<'EOF'
{"success":true,"data":{"message":"hello world"}}
EOF
`)

	executor := NewExecutor(5 * time.Second)
	resp, err := executor.Execute(p, &Request{
		Action:  "greet",
		Trigger: "THUMBS_UP",
		Config:  json.RawMessage(`{"key":"value"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !resp.Success {
		t.Error("expected success=true, got false")
	}
	if resp.Error != "" {
		t.Errorf("expected empty error, got %q", resp.Error)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	p := writeScriptPlugin(t, "echo", "echo", `#!/bin/sh
INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`)

	executor := NewExecutor(5 * time.Second)
	resp, err := executor.Execute(p, &Request{
		Action:  "echo",
		Trigger: "MOUTH_OPEN_START",
		Params:  json.RawMessage(`{"count":42}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true, got false")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	received, ok := data["received"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected 'received' to be an object, got %T", data["received"])
	}
	if received["action"] != "echo" {
		t.Errorf("expected action 'echo', got %v", received["action"])
	}
	if received["trigger"] != "MOUTH_OPEN_START" {
		t.Errorf("expected trigger 'MOUTH_OPEN_START', got %v", received["trigger"])
	}
}

func TestExecutor_Timeout(t *testing.T) {
	p := writeScriptPlugin(t, "slow", "slow", `#!/bin/sh
sleep 10
echo '{"success":true}'
`)

	executor := NewExecutor(100 * time.Millisecond)
	_, err := executor.Execute(p, &Request{Action: "slow", Trigger: "FIST"})
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") &&
		!strings.Contains(err.Error(), "killed") &&
		!strings.Contains(err.Error(), "context deadline exceeded") {
		t.Errorf("expected timeout-related error, got: %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := writeScriptPlugin(t, "failing", "fail", `#!/bin/sh
echo '{"success":false,"error":"something went wrong"}'
`)

	executor := NewExecutor(5 * time.Second)
	resp, err := executor.Execute(p, &Request{Action: "fail", Trigger: "go"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if resp.Success {
		t.Error("expected success=false, got true")
	}
	if resp.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", resp.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	p := writeScriptPlugin(t, "garbled", "bad", `#!/bin/sh
echo 'not valid json'
`)

	executor := NewExecutor(5 * time.Second)
	if _, err := executor.Execute(p, &Request{Action: "bad"}); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	p := writeScriptPlugin(t, "crashing", "crash", `#!/bin/sh
echo "Error: something failed" >&2
exit 1
`)

	executor := NewExecutor(5 * time.Second)
	_, err := executor.Execute(p, &Request{Action: "crash"})
	if err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
	if !strings.Contains(err.Error(), "something failed") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}
