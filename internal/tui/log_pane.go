package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

// Held-key scrolling speeds up: each repeat within scrollRepeatWindow
// multiplies the speed, which starts below one row and tops out at
// scrollSpeedMax rows per key.
const (
	scrollRepeatWindow    = 300 * time.Millisecond
	scrollSpeedStart      = 0.1
	scrollSpeedMax        = 10.0
	scrollSpeedMultiplier = 1.05

	// loadMoreMargin is how close to the last loaded commit the cursor gets
	// before the next page is requested.
	loadMoreMargin = 20
)

// LogPane lists the history of the current branch, loading it page by page.
type LogPane struct {
	keys   *keys.KeyMap
	st     *styles
	cursor int
	top    int
	height int

	now        func() time.Time
	lastScroll time.Time
	speed      float64
}

func NewLogPane(km *keys.KeyMap, st *styles) *LogPane {
	return &LogPane{keys: km, st: st, height: 10, now: time.Now}
}

func (l *LogPane) ID() string  { return "log" }
func (l *LogPane) Modal() bool { return false }

// Cursor is the index of the selected commit.
func (l *LogPane) Cursor() int { return l.cursor }

func (l *LogPane) Selected(snap *state.Snapshot) (git.Commit, bool) {
	commits := snap.Log().Commits
	if len(commits) == 0 {
		return git.Commit{}, false
	}
	return commits[clamp(l.cursor, len(commits))], true
}

// step returns how many rows one Up/Down moves.
func (l *LogPane) step() int {
	now := l.now()
	if !l.lastScroll.IsZero() && now.Sub(l.lastScroll) < scrollRepeatWindow {
		l.speed *= scrollSpeedMultiplier
	} else {
		l.speed = scrollSpeedStart
	}
	l.lastScroll = now
	l.speed = min(l.speed, scrollSpeedMax)
	return max(int(l.speed), 1)
}

func (l *LogPane) HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command) {
	log := snap.Log()
	n := len(log.Commits)
	switch {
	case key.Matches(msg, l.keys.Up):
		l.cursor -= l.step()
	case key.Matches(msg, l.keys.Down):
		l.cursor += l.step()
	case key.Matches(msg, l.keys.PageUp):
		l.cursor -= max(l.height-1, 1)
	case key.Matches(msg, l.keys.PageDown):
		l.cursor += max(l.height-1, 1)
	case key.Matches(msg, l.keys.Home):
		l.cursor = 0
	case key.Matches(msg, l.keys.End):
		l.cursor = n - 1
	case key.Matches(msg, l.keys.CopyHash):
		c, ok := l.Selected(snap)
		if !ok {
			return true, nil
		}
		return true, []Command{CopyText{Text: c.Hash}}
	default:
		return false, nil
	}
	l.cursor = clamp(l.cursor, n)
	if log.HasMore && l.cursor >= n-loadMoreMargin {
		return true, []Command{LoadMoreLog{}}
	}
	return true, nil
}

func (l *LogPane) View(snap *state.Snapshot, width, height int) string {
	l.height = max(height-1, 1)
	log := snap.Log()
	title := "Log"
	if log.Ref != "" {
		title += " of " + log.Ref
	}
	if n := len(log.Commits); n > 0 {
		title += fmt.Sprintf(" (%d/%d", clamp(l.cursor, n)+1, n)
		if log.HasMore {
			title += "+"
		}
		title += ")"
	}
	lines := []string{l.st.title.Render(ansi.Truncate(title, width, "…"))}
	if msg := snap.Error(git.ResourceLog); msg != "" {
		lines = append(lines, l.st.errorText.Render(ansi.Truncate("failed to load log: "+msg, width, "…")))
	}
	switch {
	case !log.Loaded:
		lines = append(lines, l.st.subtle.Render("loading history…"))
		return strings.Join(lines, "\n")
	case len(log.Commits) == 0:
		lines = append(lines, l.st.subtle.Render("no commits yet"))
		return strings.Join(lines, "\n")
	}

	rows := max(height-len(lines), 1)
	l.cursor = clamp(l.cursor, len(log.Commits))
	l.top = scrollWindow(l.top, l.cursor, rows)
	for i := l.top; i < len(log.Commits) && i < l.top+rows; i++ {
		lines = append(lines, l.row(log.Commits[i], log.Labels[log.Commits[i].Hash], i == l.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (l *LogPane) row(c git.Commit, labels []string, selected bool, width int) string {
	hash := c.Hash
	if len(hash) > 7 {
		hash = hash[:7]
	}
	date := c.Author.When.Format(time.DateOnly)
	author := ansi.Truncate(c.Author.Name, 16, "…")
	var deco string
	if len(labels) > 0 {
		deco = "(" + strings.Join(labels, ", ") + ") "
	}
	if selected {
		text := fmt.Sprintf("%s %s %-16s %s%s", hash, date, author, deco, c.Summary())
		return l.st.selected.Width(width).Render(ansi.Truncate(text, width, "…"))
	}
	text := l.st.hash.Render(hash) + " " +
		l.st.subtle.Render(date) + " " +
		fmt.Sprintf("%-16s", author) + " " +
		l.st.label.Render(deco) + c.Summary()
	return ansi.Truncate(text, width, "…")
}

func (l *LogPane) Bindings(snap *state.Snapshot) []key.Binding {
	hasCommits := len(snap.Log().Commits) > 0
	return []key.Binding{
		l.keys.Up,
		l.keys.Down,
		enabled(l.keys.CopyHash, hasCommits),
	}
}
