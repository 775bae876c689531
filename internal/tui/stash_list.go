package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

type StashList struct {
	keys   *keys.KeyMap
	st     *styles
	cursor int
	top    int
}

func NewStashList(km *keys.KeyMap, st *styles) *StashList {
	return &StashList{keys: km, st: st}
}

func (l *StashList) ID() string  { return "stashes" }
func (l *StashList) Modal() bool { return false }

func (l *StashList) Selected(snap *state.Snapshot) (git.Stash, bool) {
	stashes := snap.Stashes()
	if len(stashes) == 0 {
		return git.Stash{}, false
	}
	return stashes[clamp(l.cursor, len(stashes))], true
}

func (l *StashList) HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command) {
	n := len(snap.Stashes())
	switch {
	case key.Matches(msg, l.keys.Up):
		l.cursor--
	case key.Matches(msg, l.keys.Down):
		l.cursor++
	case key.Matches(msg, l.keys.Home):
		l.cursor = 0
	case key.Matches(msg, l.keys.End):
		l.cursor = n - 1
	case key.Matches(msg, l.keys.ApplyStash):
		s, ok := l.Selected(snap)
		if !ok {
			return true, nil
		}
		return true, []Command{Submit{Request: git.ApplyStash{Index: s.Index}}}
	case key.Matches(msg, l.keys.DropStash):
		s, ok := l.Selected(snap)
		if !ok {
			return true, nil
		}
		return true, []Command{PushPopup{Component: NewConfirmPopup(l.keys, l.st, "Drop stash",
			fmt.Sprintf("Drop %s (%s)?", s.Ref(), s.Message),
			Choice{Key: "y", Label: "drop", Commands: []Command{Submit{Request: git.DropStash{Index: s.Index}}}},
		)}}
	default:
		return false, nil
	}
	l.cursor = clamp(l.cursor, n)
	return true, nil
}

func (l *StashList) View(snap *state.Snapshot, width, height int) string {
	lines := []string{l.st.title.Render("Stashes")}
	if msg := snap.Error(git.ResourceStashes); msg != "" {
		lines = append(lines, l.st.errorText.Render(ansi.Truncate("failed to load stashes: "+msg, width, "…")))
	}
	stashes := snap.Stashes()
	if len(stashes) == 0 {
		lines = append(lines, l.st.subtle.Render("no stashes"))
		return strings.Join(lines, "\n")
	}
	rows := max(height-len(lines), 1)
	l.cursor = clamp(l.cursor, len(stashes))
	l.top = scrollWindow(l.top, l.cursor, rows)
	for i := l.top; i < len(stashes) && i < l.top+rows; i++ {
		s := stashes[i]
		text := ansi.Truncate(fmt.Sprintf("%-10s %s", s.Ref(), s.Message), width, "…")
		if i == l.cursor {
			text = l.st.selected.Width(width).Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func (l *StashList) Bindings(snap *state.Snapshot) []key.Binding {
	_, ok := l.Selected(snap)
	return []key.Binding{
		enabled(l.keys.ApplyStash, ok),
		enabled(l.keys.DropStash, ok),
	}
}
