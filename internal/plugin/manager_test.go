package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()

	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return dir
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Keyboard input actions",
		Executable:  "keyboard",
		Actions:     []string{"press-key", "key-down"},
	})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "keyboard" {
		t.Errorf("expected plugin name 'keyboard', got %q", p.Manifest.Name)
	}
	if len(p.Manifest.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(p.Manifest.Actions))
	}
	if p.Path != dir {
		t.Errorf("expected path %q, got %q", dir, p.Path)
	}
	if p.Executable != filepath.Join(dir, "keyboard") {
		t.Errorf("unexpected executable path %q", p.Executable)
	}
}

func TestManager_Discover_MultiplePlugins(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"keyboard", "system-control"} {
		writeManifest(t, root, Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name,
			Actions:    []string{"run"},
		})
	}

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if plugins := manager.List(); len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
}

func TestManager_Discover_EmptyDir(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on empty dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Discover_InvalidJSON(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte("not valid json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected invalid manifest to be skipped, got %d plugins", len(plugins))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{Name: "first", Executable: "first"})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	// A second plugin appearing later shows up on rescan.
	writeManifest(t, root, Manifest{Name: "second", Executable: "second"})
	if err := manager.Discover(); err != nil {
		t.Fatalf("rescan failed: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 2 {
		t.Fatalf("expected 2 plugins after rescan, got %d", len(plugins))
	}
}

func TestManager_Get(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, Manifest{
		Name:       "system-control",
		Version:    "2.0.0",
		Executable: "system-control",
		Actions:    []string{"take-screenshot"},
	})

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	p, err := manager.Get("system-control")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", p.Manifest.Version)
	}

	if _, err := manager.Get("nonexistent"); err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/path/to/plugins")
	if manager.PluginDir() != "/path/to/plugins" {
		t.Errorf("unexpected plugin dir %q", manager.PluginDir())
	}
}
