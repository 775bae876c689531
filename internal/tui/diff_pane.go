package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

// DiffPane shows the diff of the file selected in the status list. It only
// takes input once focused; scrolling happens in a viewport. One hunk is
// selected at a time and can be moved between the index and the worktree.
type DiffPane struct {
	keys      *keys.KeyMap
	st        *styles
	highlight *highlighter
	vp        viewport.Model

	target    state.DiffKey
	hasTarget bool
	hunk      int
	// cache of what the viewport holds
	renderedVersion uint64
	renderedWidth   int
	renderedKey     state.DiffKey
	renderedHunk    int
}

func NewDiffPane(km *keys.KeyMap, st *styles, hl *highlighter) *DiffPane {
	return &DiffPane{keys: km, st: st, highlight: hl, vp: viewport.New(0, 0)}
}

func (p *DiffPane) ID() string  { return "diff" }
func (p *DiffPane) Modal() bool { return false }

// SetTarget selects the diff to display.
func (p *DiffPane) SetTarget(k state.DiffKey) {
	if p.hasTarget && p.target == k {
		return
	}
	p.target = k
	p.hasTarget = true
	p.hunk = 0
	p.vp.GotoTop()
}

// Target returns the diff shown, if any.
func (p *DiffPane) Target() (state.DiffKey, bool) {
	return p.target, p.hasTarget
}

// Hunk is the index of the selected hunk.
func (p *DiffPane) Hunk() int { return p.hunk }

func (p *DiffPane) HandleKey(msg tea.KeyMsg, snap *state.Snapshot) (bool, []Command) {
	switch {
	case key.Matches(msg, p.keys.Back):
		return true, []Command{Pop{}}
	case key.Matches(msg, p.keys.StageHunk):
		return true, p.toggleHunk(snap)
	case key.Matches(msg, p.keys.NextHunk):
		p.selectHunk(snap, p.hunk+1)
	case key.Matches(msg, p.keys.PrevHunk):
		p.selectHunk(snap, p.hunk-1)
	case key.Matches(msg, p.keys.Up):
		p.vp.ScrollUp(1)
	case key.Matches(msg, p.keys.Down):
		p.vp.ScrollDown(1)
	case key.Matches(msg, p.keys.PageUp):
		p.vp.HalfViewUp()
	case key.Matches(msg, p.keys.PageDown):
		p.vp.HalfViewDown()
	case key.Matches(msg, p.keys.Home):
		p.vp.GotoTop()
	case key.Matches(msg, p.keys.End):
		p.vp.GotoBottom()
	default:
		return false, nil
	}
	return true, nil
}

// loaded returns the diff on screen once it has been read.
func (p *DiffPane) loaded(snap *state.Snapshot) (git.Diff, bool) {
	if !p.hasTarget {
		return git.Diff{}, false
	}
	entry, ok := snap.Diff(p.target)
	if !ok || !entry.Loaded {
		return git.Diff{}, false
	}
	return entry.Diff, true
}

func (p *DiffPane) selectHunk(snap *state.Snapshot, hunk int) {
	d, ok := p.loaded(snap)
	if !ok {
		return
	}
	starts := d.HunkStarts()
	if len(starts) == 0 {
		return
	}
	p.hunk = clamp(hunk, len(starts))
	p.vp.SetYOffset(starts[p.hunk])
}

// toggleHunk stages the selected hunk of an unstaged diff, or unstages it
// from a staged one.
func (p *DiffPane) toggleHunk(snap *state.Snapshot) []Command {
	d, ok := p.loaded(snap)
	if !ok {
		return nil
	}
	if p.untracked(snap) {
		return []Command{Notify{Text: "stage " + p.target.Path + " as a whole, it is untracked"}}
	}
	starts := d.HunkStarts()
	if len(starts) == 0 {
		return []Command{Notify{Text: "no hunk to stage"}}
	}
	patch, err := d.HunkPatch(clamp(p.hunk, len(starts)))
	if err != nil {
		return []Command{Notify{Text: err.Error()}}
	}
	if p.target.Staged {
		return []Command{Submit{Request: git.UnstageHunk{Path: p.target.Path, Patch: patch}}}
	}
	return []Command{Submit{Request: git.StageHunk{Path: p.target.Path, Patch: patch}}}
}

func (p *DiffPane) untracked(snap *state.Snapshot) bool {
	if p.target.Staged {
		return false
	}
	for _, f := range snap.Status().Files {
		if f.Path == p.target.Path && !f.Staged {
			return f.Kind == git.ChangeUntracked
		}
	}
	return false
}

func (p *DiffPane) View(snap *state.Snapshot, width, height int) string {
	if !p.hasTarget {
		return p.st.subtle.Render("select a file to see its diff")
	}
	side := "unstaged"
	if p.target.Staged {
		side = "staged"
	}
	header := p.st.title.Render(ansi.Truncate(fmt.Sprintf("%s (%s)", p.target.Path, side), width, "…"))
	lines := []string{header}
	if msg := snap.Error(p.target.Resource()); msg != "" {
		lines = append(lines, p.st.errorText.Render(ansi.Truncate("failed to load diff: "+msg, width, "…")))
	}
	entry, ok := snap.Diff(p.target)
	switch {
	case !ok || !entry.Loaded && entry.Loading:
		lines = append(lines, p.st.subtle.Render("loading diff…"))
		return strings.Join(lines, "\n")
	case !entry.Loaded:
		return strings.Join(lines, "\n")
	case entry.Loading:
		lines[0] += p.st.subtle.Render(" refreshing…")
	}

	p.vp.Width = width
	p.vp.Height = max(height-len(lines), 1)
	p.hunk = clamp(p.hunk, len(entry.Diff.HunkStarts()))
	if p.renderedVersion != snap.Version() || p.renderedWidth != width || p.renderedKey != p.target || p.renderedHunk != p.hunk {
		p.vp.SetContent(p.renderDiff(entry.Diff, width))
		p.renderedVersion, p.renderedWidth, p.renderedKey, p.renderedHunk = snap.Version(), width, p.target, p.hunk
	}
	lines = append(lines, p.vp.View())
	return strings.Join(lines, "\n")
}

func (p *DiffPane) renderDiff(d git.Diff, width int) string {
	if d.Binary {
		return p.st.subtle.Render("binary file")
	}
	if len(d.Lines) == 0 {
		return p.st.subtle.Render("no changes")
	}
	const gutterWidth = 10
	codeWidth := max(width-gutterWidth-1, 1)
	out := make([]string, 0, len(d.Lines))
	hunk := -1
	for _, line := range d.Lines {
		content := ansi.Truncate(strings.ReplaceAll(line.Content, "\t", "    "), codeWidth, "")
		switch line.Origin {
		case git.OriginHeader:
			out = append(out, p.st.diffHead.Render(ansi.Truncate(line.Content, width, "")))
		case git.OriginHunk:
			hunk++
			style := p.st.diffHunk
			if hunk == p.hunk {
				style = p.st.selected
			}
			out = append(out, style.Render(ansi.Truncate(line.Content, width, "")))
		case git.OriginAdd:
			out = append(out, p.codeLine(d.Path, gutter(0, line.NewLine), "+", content, p.st.diffAdd))
		case git.OriginRemove:
			out = append(out, p.codeLine(d.Path, gutter(line.OldLine, 0), "-", content, p.st.diffDel))
		default:
			out = append(out, p.codeLine(d.Path, gutter(line.OldLine, line.NewLine), " ", content, lipgloss.NewStyle()))
		}
	}
	return strings.Join(out, "\n")
}

func (p *DiffPane) codeLine(path, numbers, sign, code string, base lipgloss.Style) string {
	return p.st.gutter.Render(numbers) + base.Render(sign) + p.highlight.render(path, code, base)
}

// gutter renders old and new line numbers; zero means absent.
func gutter(oldNo, newNo int) string {
	num := func(n int) string {
		if n == 0 {
			return "    "
		}
		return fmt.Sprintf("%4d", n)
	}
	return num(oldNo) + " " + num(newNo) + " "
}

func (p *DiffPane) Bindings(*state.Snapshot) []key.Binding {
	return []key.Binding{p.keys.Up, p.keys.Down, p.keys.StageHunk, p.keys.NextHunk, p.keys.Back}
}
