package action

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/abhinaya/internal/plugin"
)

// Plugin and action names the built-in catalog depends on.
const (
	keyboardPlugin = "keyboard"
	systemPlugin   = "system-control"
)

// pluginAction executes one named action of one plugin with fixed params.
type pluginAction struct {
	manager *plugin.Manager
	exec    *plugin.Executor
	plugin  string
	action  string
	params  json.RawMessage
}

func (p *pluginAction) Execute(trigger string) error {
	pl, err := p.manager.Get(p.plugin)
	if err != nil {
		return fmt.Errorf("plugin %q: %w", p.plugin, err)
	}

	resp, err := p.exec.Execute(pl, &plugin.Request{
		Action:  p.action,
		Trigger: trigger,
		Params:  p.params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %q action %q: %s", p.plugin, p.action, resp.Error)
	}
	return nil
}

// RegisterBuiltins populates the registry with the standard action catalog,
// each id backed by a plugin invocation.
func RegisterBuiltins(reg *Registry, manager *plugin.Manager, exec *plugin.Executor) {
	bind := func(id, pluginName, actionName string, params any) {
		raw, err := json.Marshal(params)
		if err != nil {
			// Params are literals built below; this cannot fail at runtime.
			panic(fmt.Sprintf("marshal params for %s: %v", id, err))
		}
		reg.Register(id, &pluginAction{
			manager: manager,
			exec:    exec,
			plugin:  pluginName,
			action:  actionName,
			params:  raw,
		})
	}

	type keyParams struct {
		Key string `json:"key"`
	}

	// Momentary key presses.
	pressKeys := []string{
		"space", "enter", "esc", "left", "right", "up", "down",
		"w", "a", "s", "d", "q", "e", "r", "f", "j", "k",
		"shift", "ctrl", "tab",
	}
	for _, key := range pressKeys {
		bind("PRESS_"+strings.ToUpper(key), keyboardPlugin, "press-key", keyParams{Key: key})
	}

	// Sustained hold and release pairs, for START/STOP event bindings.
	holdKeys := []string{"a", "d", "j", "k", "space", "w", "s"}
	for _, key := range holdKeys {
		upper := strings.ToUpper(key)
		bind("PRESS_"+upper+"_DOWN", keyboardPlugin, "key-down", keyParams{Key: key})
		bind("PRESS_"+upper+"_UP", keyboardPlugin, "key-up", keyParams{Key: key})
	}

	type hotkeyParams struct {
		Keys []string `json:"keys"`
	}
	bind("PRESS_SHIFT_A_COMBO", keyboardPlugin, "hotkey", hotkeyParams{Keys: []string{"shift", "a"}})
	bind("PRESS_SHIFT_D_COMBO", keyboardPlugin, "hotkey", hotkeyParams{Keys: []string{"shift", "d"}})
	bind("PRESS_CTRL_ALT_DEL", keyboardPlugin, "hotkey", hotkeyParams{Keys: []string{"ctrl", "alt", "delete"}})
	bind("PRESS_ALT_F4", keyboardPlugin, "hotkey", hotkeyParams{Keys: []string{"alt", "f4"}})

	type clickParams struct {
		Button string `json:"button"`
		Clicks int    `json:"clicks"`
	}
	bind("MOUSE_CLICK_LEFT", systemPlugin, "mouse-click", clickParams{Button: "left", Clicks: 1})
	bind("MOUSE_CLICK_RIGHT", systemPlugin, "mouse-click", clickParams{Button: "right", Clicks: 1})
	bind("MOUSE_CLICK_MIDDLE", systemPlugin, "mouse-click", clickParams{Button: "middle", Clicks: 1})
	bind("MOUSE_DBL_CLICK_LEFT", systemPlugin, "mouse-click", clickParams{Button: "left", Clicks: 2})

	type scrollParams struct {
		Amount int `json:"amount"`
	}
	bind("SCROLL_UP", systemPlugin, "scroll", scrollParams{Amount: 1})
	bind("SCROLL_DOWN", systemPlugin, "scroll", scrollParams{Amount: -1})

	bind("TAKE_SCREENSHOT", systemPlugin, "take-screenshot", struct{}{})
}
