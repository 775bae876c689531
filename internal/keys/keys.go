// Package keys contains keybinding definitions.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Focus    key.Binding
	Back     key.Binding

	// Global
	Quit    key.Binding
	Help    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab4    key.Binding
	Refresh key.Binding
	Fetch   key.Binding

	// Status
	Stage   key.Binding
	Discard key.Binding
	Commit  key.Binding
	Stash   key.Binding
	Reset   key.Binding

	// Branches
	Checkout     key.Binding
	NewBranch    key.Binding
	DeleteBranch key.Binding
	Filter       key.Binding

	// Stashes
	ApplyStash key.Binding
	DropStash  key.Binding

	// Log
	CopyHash key.Binding

	// Diff
	StageHunk key.Binding
	NextHunk  key.Binding
	PrevHunk  key.Binding

	// Popups
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Focus: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "focus diff"),
		),
		Back: key.NewBinding(
			key.WithKeys("h", "left", "esc"),
			key.WithHelp("h/←", "back"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev tab"),
		),
		Tab1: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "status"),
		),
		Tab2: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "log"),
		),
		Tab3: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "branches"),
		),
		Tab4: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "stashes"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		Fetch: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fetch"),
		),

		Stage: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "stage/unstage"),
		),
		Discard: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "discard"),
		),
		Commit: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "commit"),
		),
		Stash: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "stash"),
		),
		Reset: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "reset"),
		),

		Checkout: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "checkout"),
		),
		NewBranch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new branch"),
		),
		DeleteBranch: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),

		ApplyStash: key.NewBinding(
			key.WithKeys("enter", "a"),
			key.WithHelp("a", "apply"),
		),
		DropStash: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "drop"),
		),

		CopyHash: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy hash"),
		),

		StageHunk: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "stage/unstage hunk"),
		),
		NextHunk: key.NewBinding(
			key.WithKeys("]", "n"),
			key.WithHelp("]", "next hunk"),
		),
		PrevHunk: key.NewBinding(
			key.WithKeys("[", "p"),
			key.WithHelp("[", "prev hunk"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// actions maps config action names to bindings of km.
func (km *KeyMap) actions() map[string]*key.Binding {
	return map[string]*key.Binding{
		"up":            &km.Up,
		"down":          &km.Down,
		"page_up":       &km.PageUp,
		"page_down":     &km.PageDown,
		"home":          &km.Home,
		"end":           &km.End,
		"focus":         &km.Focus,
		"back":          &km.Back,
		"quit":          &km.Quit,
		"help":          &km.Help,
		"next_tab":      &km.NextTab,
		"prev_tab":      &km.PrevTab,
		"tab_status":    &km.Tab1,
		"tab_log":       &km.Tab2,
		"tab_branches":  &km.Tab3,
		"tab_stashes":   &km.Tab4,
		"refresh":       &km.Refresh,
		"fetch":         &km.Fetch,
		"stage":         &km.Stage,
		"discard":       &km.Discard,
		"commit":        &km.Commit,
		"stash":         &km.Stash,
		"reset":         &km.Reset,
		"checkout":      &km.Checkout,
		"new_branch":    &km.NewBranch,
		"delete_branch": &km.DeleteBranch,
		"filter":        &km.Filter,
		"apply_stash":   &km.ApplyStash,
		"drop_stash":    &km.DropStash,
		"copy_hash":     &km.CopyHash,
		"stage_hunk":    &km.StageHunk,
		"next_hunk":     &km.NextHunk,
		"prev_hunk":     &km.PrevHunk,
		"confirm":       &km.Confirm,
		"cancel":        &km.Cancel,
	}
}

// Actions lists the action names accepted by WithOverrides.
func Actions() []string {
	km := DefaultKeyMap()
	names := make([]string, 0, len(km.actions()))
	for name := range km.actions() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithOverrides returns a copy of km with the keys of the named actions
// replaced. The help text keeps the action description and shows the new
// keys.
func (km KeyMap) WithOverrides(overrides map[string][]string) (KeyMap, error) {
	actions := km.actions()
	for name, keys := range overrides {
		b, ok := actions[name]
		if !ok {
			return km, fmt.Errorf("unknown key action %q", name)
		}
		if len(keys) == 0 {
			return km, fmt.Errorf("key action %q has no keys", name)
		}
		desc := b.Help().Desc
		*b = key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(strings.Join(keys, "/"), desc),
		)
	}
	return km, nil
}
