package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

// BranchList shows local and remote branches with an optional fuzzy
// filter.
type BranchList struct {
	keys   *keys.KeyMap
	st     *styles
	cursor int
	top    int
	height int

	filtering bool
	filter    textinput.Model
}

func NewBranchList(km *keys.KeyMap, st *styles) *BranchList {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter branches"
	_ = filter.Cursor.SetMode(cursor.CursorStatic)
	return &BranchList{keys: km, st: st, height: 10, filter: filter}
}

func (l *BranchList) ID() string  { return "branches" }
func (l *BranchList) Modal() bool { return false }

// visible returns the branches matching the filter, in list order.
func (l *BranchList) visible(snap *state.Snapshot) []git.Branch {
	return filterBranches(snap.Branches(), l.filter.Value())
}

func filterBranches(branches []git.Branch, query string) []git.Branch {
	query = strings.TrimSpace(query)
	if query == "" {
		return branches
	}
	names := make([]string, len(branches))
	for i, b := range branches {
		names[i] = b.Name
	}
	matches := map[int]struct{}{}
	for _, rank := range fuzzy.RankFindNormalizedFold(query, names) {
		matches[rank.OriginalIndex] = struct{}{}
	}
	out := make([]git.Branch, 0, len(matches))
	for i, b := range branches {
		if _, ok := matches[i]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (l *BranchList) Selected(snap *state.Snapshot) (git.Branch, bool) {
	branches := l.visible(snap)
	if len(branches) == 0 {
		return git.Branch{}, false
	}
	return branches[clamp(l.cursor, len(branches))], true
}

func (l *BranchList) HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command) {
	if l.filtering {
		return true, l.handleFilterKey(msg)
	}
	n := len(l.visible(snap))
	switch {
	case key.Matches(msg, l.keys.Up):
		l.cursor--
	case key.Matches(msg, l.keys.Down):
		l.cursor++
	case key.Matches(msg, l.keys.PageUp):
		l.cursor -= max(l.height-1, 1)
	case key.Matches(msg, l.keys.PageDown):
		l.cursor += max(l.height-1, 1)
	case key.Matches(msg, l.keys.Home):
		l.cursor = 0
	case key.Matches(msg, l.keys.End):
		l.cursor = n - 1
	case key.Matches(msg, l.keys.Filter):
		l.filtering = true
		_ = l.filter.Focus()
	case key.Matches(msg, l.keys.Cancel) && l.filter.Value() != "":
		l.filter.SetValue("")
		l.cursor = 0
	case key.Matches(msg, l.keys.Checkout):
		return true, l.checkout(snap)
	case key.Matches(msg, l.keys.NewBranch):
		return true, []Command{PushPopup{Component: NewCommitPopup(l.keys, l.st, "New branch", "branch name", false,
			func(name string) []Command {
				return []Command{Submit{Request: git.CreateBranch{Branch: name}}}
			},
		)}}
	case key.Matches(msg, l.keys.DeleteBranch):
		return true, l.delete(snap)
	default:
		return false, nil
	}
	l.cursor = clamp(l.cursor, n)
	return true, nil
}

func (l *BranchList) handleFilterKey(msg tea.KeyMsg) []Command {
	switch {
	case key.Matches(msg, l.keys.Cancel):
		l.filter.SetValue("")
		fallthrough
	case key.Matches(msg, l.keys.Confirm):
		l.filtering = false
		l.filter.Blur()
		l.cursor = 0
		return nil
	}
	l.filter, _ = l.filter.Update(msg)
	l.cursor = 0
	return nil
}

func (l *BranchList) checkout(snap *state.Snapshot) []Command {
	b, ok := l.Selected(snap)
	switch {
	case !ok:
		return nil
	case b.Current:
		return []Command{Notify{Text: "already on " + b.Name}}
	case b.Remote:
		// switch creates a tracking branch for origin/x when given x
		_, local, found := strings.Cut(b.Name, "/")
		if !found {
			return nil
		}
		return []Command{Submit{Request: git.CheckoutBranch{Branch: local}}}
	}
	return []Command{Submit{Request: git.CheckoutBranch{Branch: b.Name}}}
}

func (l *BranchList) delete(snap *state.Snapshot) []Command {
	b, ok := l.Selected(snap)
	switch {
	case !ok:
		return nil
	case b.Current:
		return []Command{Notify{Text: "cannot delete the current branch"}}
	case b.Remote:
		return []Command{Notify{Text: "remote branches cannot be deleted from here"}}
	}
	return []Command{PushPopup{Component: NewConfirmPopup(l.keys, l.st, "Delete branch",
		"Delete branch "+b.Name+"?",
		Choice{Key: "y", Label: "delete", Commands: []Command{Submit{Request: git.DeleteBranch{Branch: b.Name}}}},
	)}}
}

func (l *BranchList) View(snap *state.Snapshot, width, height int) string {
	l.height = max(height-1, 1)
	lines := []string{l.st.title.Render("Branches")}
	if l.filtering || l.filter.Value() != "" {
		l.filter.Width = max(width-2, 1)
		lines = append(lines, l.filter.View())
	}
	if msg := snap.Error(git.ResourceBranches); msg != "" {
		lines = append(lines, l.st.errorText.Render(ansi.Truncate("failed to load branches: "+msg, width, "…")))
	}
	branches := l.visible(snap)
	if len(branches) == 0 {
		lines = append(lines, l.st.subtle.Render("no branches"))
		return strings.Join(lines, "\n")
	}
	rows := max(height-len(lines), 1)
	l.cursor = clamp(l.cursor, len(branches))
	l.top = scrollWindow(l.top, l.cursor, rows)
	for i := l.top; i < len(branches) && i < l.top+rows; i++ {
		b := branches[i]
		mark := "  "
		if b.Current {
			mark = "* "
		}
		text := ansi.Truncate(mark+b.Name+"  "+shortHash(b.Hash), width, "…")
		switch {
		case i == l.cursor:
			text = l.st.selected.Width(width).Render(text)
		case b.Current:
			text = l.st.label.Render(text)
		case b.Remote:
			text = l.st.subtle.Render(text)
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}

func (l *BranchList) Bindings(snap *state.Snapshot) []key.Binding {
	if l.filtering {
		return []key.Binding{l.keys.Confirm, l.keys.Cancel}
	}
	b, ok := l.Selected(snap)
	return []key.Binding{
		enabled(l.keys.Checkout, ok && !b.Current),
		l.keys.NewBranch,
		enabled(l.keys.DeleteBranch, ok && !b.Current && !b.Remote),
		l.keys.Filter,
	}
}
