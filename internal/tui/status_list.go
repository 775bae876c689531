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

// StatusList is the working tree file list of the status tab.
type StatusList struct {
	keys   *keys.KeyMap
	st     *styles
	cursor int
	top    int
	height int
}

func NewStatusList(km *keys.KeyMap, st *styles) *StatusList {
	return &StatusList{keys: km, st: st, height: 10}
}

func (l *StatusList) ID() string  { return "status" }
func (l *StatusList) Modal() bool { return false }

// Selected returns the entry under the cursor.
func (l *StatusList) Selected(snap *state.Snapshot) (git.FileEntry, bool) {
	files := snap.Status().Files
	if len(files) == 0 {
		return git.FileEntry{}, false
	}
	return files[clamp(l.cursor, len(files))], true
}

// openSelected is the command showing the diff of the selected entry.
func (l *StatusList) openSelected(snap *state.Snapshot) []Command {
	entry, ok := l.Selected(snap)
	if !ok {
		return nil
	}
	return []Command{OpenDiff{
		Key:       state.DiffKey{Path: entry.Path, Staged: entry.Staged},
		Untracked: entry.Kind == git.ChangeUntracked,
	}}
}

func (l *StatusList) HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command) {
	files := snap.Status().Files
	prev := clamp(l.cursor, len(files))
	switch {
	case key.Matches(msg, l.keys.Up):
		l.cursor = prev - 1
	case key.Matches(msg, l.keys.Down):
		l.cursor = prev + 1
	case key.Matches(msg, l.keys.PageUp):
		l.cursor = prev - max(l.height-1, 1)
	case key.Matches(msg, l.keys.PageDown):
		l.cursor = prev + max(l.height-1, 1)
	case key.Matches(msg, l.keys.Home):
		l.cursor = 0
	case key.Matches(msg, l.keys.End):
		l.cursor = len(files) - 1
	case key.Matches(msg, l.keys.Stage):
		return true, l.toggleStage(snap)
	case key.Matches(msg, l.keys.Discard):
		return true, l.discard(snap)
	case key.Matches(msg, l.keys.Commit):
		return true, l.commit(snap)
	case key.Matches(msg, l.keys.Stash):
		return true, l.stash(snap)
	case key.Matches(msg, l.keys.Reset):
		return true, l.reset()
	case key.Matches(msg, l.keys.Focus):
		if _, ok := l.Selected(snap); !ok {
			return true, nil
		}
		return true, []Command{FocusDiff{}}
	default:
		return false, nil
	}
	l.cursor = clamp(l.cursor, len(files))
	if l.cursor == prev {
		return true, nil
	}
	return true, l.openSelected(snap)
}

func (l *StatusList) toggleStage(snap *state.Snapshot) []Command {
	entry, ok := l.Selected(snap)
	if !ok {
		return nil
	}
	if entry.Staged {
		return []Command{Submit{Request: git.UnstageFile{Path: entry.Path}}}
	}
	return []Command{Submit{Request: git.StageFile{Path: entry.Path}}}
}

func (l *StatusList) discard(snap *state.Snapshot) []Command {
	entry, ok := l.Selected(snap)
	if !ok {
		return nil
	}
	if entry.Staged {
		return []Command{Notify{Text: "unstage " + entry.Path + " before discarding it"}}
	}
	what := "Discard changes to " + entry.Path + "?"
	if entry.Kind == git.ChangeUntracked {
		what = "Delete untracked file " + entry.Path + "?"
	}
	req := git.DiscardFile{Path: entry.Path, Untracked: entry.Kind == git.ChangeUntracked}
	return []Command{PushPopup{Component: NewConfirmPopup(l.keys, l.st, "Discard", what,
		Choice{Key: "y", Label: "discard", Commands: []Command{Submit{Request: req}}},
	)}}
}

func (l *StatusList) commit(snap *state.Snapshot) []Command {
	if !hasStaged(snap.Status()) {
		return []Command{Notify{Text: "nothing staged to commit"}}
	}
	return []Command{PushPopup{Component: NewCommitPopup(l.keys, l.st, "Commit", "commit message", false,
		func(msg string) []Command {
			return []Command{Submit{Request: git.CreateCommit{Message: msg}}}
		},
	)}}
}

func (l *StatusList) stash(snap *state.Snapshot) []Command {
	if len(snap.Status().Files) == 0 {
		return []Command{Notify{Text: "no local changes to stash"}}
	}
	return []Command{PushPopup{Component: NewCommitPopup(l.keys, l.st, "Stash", "stash message (optional)", true,
		func(msg string) []Command {
			return []Command{Submit{Request: git.SaveStash{Message: msg}}}
		},
	)}}
}

func (l *StatusList) reset() []Command {
	choice := func(k string, mode git.ResetMode) Choice {
		return Choice{Key: k, Label: mode.String(), Commands: []Command{Submit{Request: git.Reset{Mode: mode}}}}
	}
	return []Command{PushPopup{Component: NewConfirmPopup(l.keys, l.st, "Reset",
		"Reset the index to HEAD. hard also discards every worktree change.",
		choice("s", git.ResetSoft),
		choice("m", git.ResetMixed),
		choice("h", git.ResetHard),
	)}}
}

func hasStaged(st git.Status) bool {
	for _, f := range st.Files {
		if f.Staged {
			return true
		}
	}
	return false
}

func (l *StatusList) View(snap *state.Snapshot, width, height int) string {
	l.height = max(height-1, 1)
	st := snap.Status()
	lines := make([]string, 0, height)
	header := "On branch " + st.Head
	if st.Detached {
		header = "HEAD detached"
	}
	lines = append(lines, l.st.title.Render(ansi.Truncate(header, width, "…")))

	if msg := snap.Error(git.ResourceStatus); msg != "" {
		lines = append(lines, l.st.errorText.Render(ansi.Truncate("failed to load status: "+msg, width, "…")))
	}
	switch {
	case !snap.StatusLoaded():
		lines = append(lines, l.st.subtle.Render("loading status…"))
	case len(st.Files) == 0:
		lines = append(lines, l.st.subtle.Render("working tree clean"))
	}

	rows := max(height-len(lines), 1)
	l.cursor = clamp(l.cursor, len(st.Files))
	l.top = scrollWindow(l.top, l.cursor, rows)
	for i := l.top; i < len(st.Files) && i < l.top+rows; i++ {
		lines = append(lines, l.row(st.Files[i], i == l.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (l *StatusList) row(f git.FileEntry, selected bool, width int) string {
	mark, style := "[ ]", l.st.unstaged
	if f.Staged {
		mark, style = "[x]", l.st.staged
	}
	path := f.Path
	if f.OrigPath != "" {
		path = f.OrigPath + " → " + f.Path
	}
	text := ansi.Truncate(fmt.Sprintf("%s %c %s", mark, kindLetter(f.Kind), path), width, "…")
	if selected {
		return l.st.selected.Width(width).Render(text)
	}
	return style.Render(text)
}

func kindLetter(k git.ChangeKind) rune {
	switch k {
	case git.ChangeAdded:
		return 'A'
	case git.ChangeDeleted:
		return 'D'
	case git.ChangeRenamed:
		return 'R'
	case git.ChangeConflicted:
		return 'U'
	case git.ChangeUntracked:
		return '?'
	default:
		return 'M'
	}
}

func (l *StatusList) Bindings(snap *state.Snapshot) []key.Binding {
	entry, ok := l.Selected(snap)
	return []key.Binding{
		enabled(l.keys.Stage, ok),
		enabled(l.keys.Discard, ok && !entry.Staged),
		enabled(l.keys.Commit, hasStaged(snap.Status())),
		enabled(l.keys.Stash, len(snap.Status().Files) > 0),
		l.keys.Reset,
		enabled(l.keys.Focus, ok),
	}
}
