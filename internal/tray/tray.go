// Package tray provides the system tray interface for the abhinaya
// hands-free control system.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application. It mirrors the engine's
// state: the toggle entry starts or stops detection, and the last trigger
// entry shows the most recent dispatched event.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastTrigger *systray.MenuItem
	menuStatus      *systray.MenuItem
}

// New creates a new Tray instance. The toggle starts out disabled; the
// composition root flips it once the engine is running.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback invoked when detection is toggled on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback invoked when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback invoked when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears down the tray from outside, e.g. on SIGTERM.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Abhinaya")
	systray.SetTooltip("Abhinaya Hands-Free Control")

	t.menuToggle = systray.AddMenuItem("○ Detection off", "Toggle hands-free detection")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("Engine: stopped", "Engine state")
	t.menuStatus.Disable()
	t.menuLastTrigger = systray.AddMenuItem("Last: none", "Last dispatched trigger")
	t.menuLastTrigger.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Abhinaya")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.updateToggleLocked()
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) updateToggleLocked() {
	if t.menuToggle == nil {
		return
	}
	if t.enabled {
		t.menuToggle.SetTitle("● Detection on")
	} else {
		t.menuToggle.SetTitle("○ Detection off")
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled reflects an engine start or stop that did not originate from
// the tray, keeping the toggle in sync.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.updateToggleLocked()
}

// SetEngineState updates the engine state display in the menu.
func (t *Tray) SetEngineState(state string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle("Engine: " + state)
	}
}

// SetLastTrigger updates the last trigger display in the menu.
func (t *Tray) SetLastTrigger(event, actionID string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastTrigger == nil {
		return
	}
	if event == "" {
		t.menuLastTrigger.SetTitle("Last: none")
		return
	}
	t.menuLastTrigger.SetTitle("Last: " + event + " -> " + actionID)
}

// IsEnabled returns the current toggle state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
