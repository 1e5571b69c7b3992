package store

import (
	"errors"
	"testing"
)

func TestBindingRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{
		TriggerType:  "voice",
		TriggerEvent: "Go",
		ActionID:     "PRESS_RIGHT",
		Enabled:      true,
	}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.ID == "" {
		t.Fatal("Create() should assign an ID")
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.TriggerType != "voice" {
		t.Errorf("TriggerType = %q, want voice", got.TriggerType)
	}
	// Trigger fields are normalised on write.
	if got.TriggerEvent != "go" {
		t.Errorf("TriggerEvent = %q, want lowercased go", got.TriggerEvent)
	}
	if got.ActionID != "PRESS_RIGHT" {
		t.Errorf("ActionID = %q, want PRESS_RIGHT", got.ActionID)
	}
	if !got.Enabled {
		t.Error("binding should be enabled")
	}
}

func TestBindingRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Bindings().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() on missing row: got %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_DuplicateTriggerRejected(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	first := &Binding{TriggerType: "face", TriggerEvent: "blink_left", ActionID: "MOUSE_CLICK_LEFT", Enabled: true}
	if err := repo.Create(first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &Binding{TriggerType: "face", TriggerEvent: "BLINK_LEFT", ActionID: "MOUSE_CLICK_RIGHT", Enabled: true}
	if err := repo.Create(dup); err == nil {
		t.Error("expected unique constraint error for duplicate trigger")
	}
}

func TestBindingRepository_ListEnabled(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	bindings := []*Binding{
		{TriggerType: "voice", TriggerEvent: "go", ActionID: "PRESS_RIGHT", Enabled: true},
		{TriggerType: "voice", TriggerEvent: "stop", ActionID: "PRESS_SPACE", Enabled: false},
		{TriggerType: "hand", TriggerEvent: "fist", ActionID: "PRESS_ENTER", Enabled: true},
	}
	for _, b := range bindings {
		if err := repo.Create(b); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d bindings, want 3", len(all))
	}

	enabled, err := repo.ListEnabled()
	if err != nil {
		t.Fatalf("ListEnabled() error = %v", err)
	}
	if len(enabled) != 2 {
		t.Fatalf("ListEnabled() returned %d bindings, want 2", len(enabled))
	}
	for _, b := range enabled {
		if !b.Enabled {
			t.Errorf("ListEnabled() returned disabled binding %s", b.ID)
		}
	}
}

func TestBindingRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{TriggerType: "hand", TriggerEvent: "open_palm", ActionID: "PRESS_SPACE", Enabled: true}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	b.ActionID = "PRESS_ESC"
	b.Enabled = false
	if err := repo.Update(b); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(b.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ActionID != "PRESS_ESC" {
		t.Errorf("ActionID = %q, want PRESS_ESC", got.ActionID)
	}
	if got.Enabled {
		t.Error("binding should be disabled after update")
	}
}

func TestBindingRepository_Update_NotFound(t *testing.T) {
	s := newTestStore(t)

	b := &Binding{ID: "missing", TriggerType: "voice", TriggerEvent: "go", ActionID: "PRESS_SPACE"}
	if err := s.Bindings().Update(b); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() on missing row: got %v, want ErrNotFound", err)
	}
}

func TestBindingRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Bindings()

	b := &Binding{TriggerType: "voice", TriggerEvent: "quit", ActionID: "PRESS_ESC", Enabled: true}
	if err := repo.Create(b); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete: got %v, want ErrNotFound", err)
	}

	if err := repo.Delete(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() on missing row: got %v, want ErrNotFound", err)
	}
}

func TestSettingRepository_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing key: got %v, want ErrNotFound", err)
	}

	if err := repo.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := repo.Get("theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "light" {
		t.Errorf("Get() = %q, want light", got)
	}

	if err := repo.Delete("theme"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("theme"); err != nil {
		t.Errorf("Delete() on missing key should be a no-op, got %v", err)
	}
}

func TestSettingRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	empty, err := repo.List()
	if err != nil {
		t.Fatalf("List() on empty table error = %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("List() on empty table returned %d settings", len(empty))
	}

	repo.Set("theme", "dark")
	repo.Set("autostart", "true")

	settings, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(settings) != 2 {
		t.Fatalf("List() returned %d settings, want 2", len(settings))
	}
	if settings[0].Key != "autostart" || settings[1].Key != "theme" {
		t.Errorf("List() order = %q, %q; want autostart, theme", settings[0].Key, settings[1].Key)
	}
	if settings[1].Value != "dark" {
		t.Errorf("theme value = %q, want dark", settings[1].Value)
	}
}
