package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitui-go/internal/state"
)

// Component is one interactive region. Components read the snapshot they
// are handed and answer with Commands; they never talk to git themselves.
type Component interface {
	// ID names the component in the focus path.
	ID() string
	// HandleKey reports whether the key was consumed. Unconsumed keys fall
	// through to the component below on the focus stack.
	HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command)
	View(snap *state.Snapshot, width, height int) string
	// Bindings lists the keys shown in the command bar; disabled bindings
	// are shown dimmed.
	Bindings(snap *state.Snapshot) []key.Binding
	// Modal components swallow every key, consumed or not.
	Modal() bool
}

// enabled returns a copy of b with its enabled flag set to on.
func enabled(b key.Binding, on bool) key.Binding {
	b.SetEnabled(on)
	return b
}

// clamp keeps a cursor inside [0, n).
func clamp(cursor, n int) int {
	if n <= 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// scrollWindow returns the first row to draw so that cursor stays visible
// in a window of height rows starting at top.
func scrollWindow(top, cursor, height int) int {
	if height <= 0 {
		return 0
	}
	if cursor < top {
		return cursor
	}
	if cursor >= top+height {
		return cursor - height + 1
	}
	return top
}
