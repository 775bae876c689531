package tui

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

func testStyles() *styles {
	st := newStyles(darkPalette)
	return &st
}

func testKeys() *keys.KeyMap {
	km := keys.DefaultKeyMap()
	return &km
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(5, 0))
	assert.Equal(t, 0, clamp(-1, 3))
	assert.Equal(t, 2, clamp(7, 3))
	assert.Equal(t, 1, clamp(1, 3))
}

func TestScrollWindow(t *testing.T) {
	assert.Equal(t, 0, scrollWindow(0, 3, 5))
	assert.Equal(t, 4, scrollWindow(0, 8, 5))
	assert.Equal(t, 2, scrollWindow(6, 2, 5))
	assert.Equal(t, 0, scrollWindow(3, 2, 0))
}

func TestLogPaneAcceleratedScroll(t *testing.T) {
	l := NewLogPane(testKeys(), testStyles())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	steps := make([]int, 0, 120)
	for range 120 {
		now = now.Add(20 * time.Millisecond)
		steps = append(steps, l.step())
	}
	assert.Equal(t, 1, steps[0])
	assert.Equal(t, 1, steps[40], "speed starts below one row")
	assert.True(t, slices.IsSorted(steps), "held key never slows down")
	assert.Equal(t, int(scrollSpeedMax), steps[len(steps)-1])

	now = now.Add(scrollRepeatWindow + time.Millisecond)
	assert.Equal(t, 1, l.step(), "a pause resets the speed")
}

func TestLogPaneRequestsMoreNearEnd(t *testing.T) {
	l := NewLogPane(testKeys(), testStyles())
	store := state.New()
	snap := store.Apply(state.AppendLogPage{Ref: "main", Commits: makeCommits(30), HasMore: true})

	_, cmds := l.HandleKey(keyMsg("j"), snap)
	assert.Empty(t, cmds)

	_, cmds = l.HandleKey(keyMsg("G"), snap)
	assert.Equal(t, []Command{LoadMoreLog{}}, cmds)
	assert.Equal(t, 29, l.Cursor())

	snap = store.Apply(state.AppendLogPage{Ref: "main", Offset: 30, Commits: makeCommits(5)})
	_, cmds = l.HandleKey(keyMsg("G"), snap)
	assert.Empty(t, cmds, "nothing left to load")
}

func TestLogPaneView(t *testing.T) {
	l := NewLogPane(testKeys(), testStyles())
	snap := state.New().Apply(state.AppendLogPage{
		Ref:     "main",
		Commits: makeCommits(2),
		Labels:  map[string][]string{makeCommits(2)[0].Hash: {"HEAD -> main"}},
	})

	view := ansi.Strip(l.View(snap, 100, 10))
	assert.Contains(t, view, "Log of main (1/2)")
	assert.Contains(t, view, "HEAD -> main")
	assert.Contains(t, view, "commit 2")
	assert.NotContains(t, view, "body")
}

func TestFilterBranches(t *testing.T) {
	branches := []git.Branch{
		{Name: "feature/login"},
		{Name: "main"},
		{Name: "fix-logging"},
		{Name: "origin/feature/login", Remote: true},
	}

	assert.Equal(t, branches, filterBranches(branches, "  "))

	names := func(bs []git.Branch) []string {
		out := make([]string, len(bs))
		for i, b := range bs {
			out[i] = b.Name
		}
		return out
	}
	assert.Equal(t, []string{"feature/login", "fix-logging", "origin/feature/login"}, names(filterBranches(branches, "log")))
	assert.Equal(t, []string{"feature/login", "origin/feature/login"}, names(filterBranches(branches, "FTLGN")))
	assert.Empty(t, filterBranches(branches, "xyz"))
}

func TestBranchListFilterMode(t *testing.T) {
	l := NewBranchList(testKeys(), testStyles())
	snap := state.New().Apply(state.ReplaceBranches{Branches: []git.Branch{
		{Name: "main", Current: true},
		{Name: "release"},
		{Name: "origin/topic", Remote: true},
	}})

	consumed, _ := l.HandleKey(keyMsg("/"), snap)
	require.True(t, consumed)
	for _, r := range "top" {
		l.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, snap)
	}
	l.HandleKey(keyMsg("enter"), snap)

	b, ok := l.Selected(snap)
	require.True(t, ok)
	assert.Equal(t, "origin/topic", b.Name)

	// remote branches check out as their local tracking name
	_, cmds := l.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Submit{Request: git.CheckoutBranch{Branch: "topic"}}}, cmds)

	_, cmds = l.HandleKey(keyMsg("D"), snap)
	assert.Equal(t, []Command{Notify{Text: "remote branches cannot be deleted from here"}}, cmds)

	// esc clears the filter before it falls through to the global keys
	consumed, _ = l.HandleKey(keyMsg("esc"), snap)
	assert.True(t, consumed)
	consumed, _ = l.HandleKey(keyMsg("esc"), snap)
	assert.False(t, consumed)
	assert.Len(t, l.visible(snap), 3)
}

func TestBranchListDeleteAsksFirst(t *testing.T) {
	km, st := testKeys(), testStyles()
	l := NewBranchList(km, st)
	snap := state.New().Apply(state.ReplaceBranches{Branches: []git.Branch{
		{Name: "main", Current: true},
		{Name: "old"},
	}})

	_, cmds := l.HandleKey(keyMsg("D"), snap)
	assert.Equal(t, []Command{Notify{Text: "cannot delete the current branch"}}, cmds)

	l.HandleKey(keyMsg("j"), snap)
	_, cmds = l.HandleKey(keyMsg("D"), snap)
	require.Len(t, cmds, 1)
	popup := cmds[0].(PushPopup).Component.(*ConfirmPopup)
	_, cmds = popup.HandleKey(keyMsg("y"), snap)
	assert.Equal(t, []Command{Pop{}, Submit{Request: git.DeleteBranch{Branch: "old"}}}, cmds)
}

func TestConfirmPopupChoices(t *testing.T) {
	km, st := testKeys(), testStyles()
	choices := []Choice{
		{Key: "s", Label: "soft", Commands: []Command{Notify{Text: "soft"}}},
		{Key: "h", Label: "hard", Commands: []Command{Notify{Text: "hard"}}},
	}
	snap := state.New().Snapshot()

	p := NewConfirmPopup(km, st, "Reset", "sure?", choices...)
	_, cmds := p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Pop{}, Notify{Text: "soft"}}, cmds)

	p = NewConfirmPopup(km, st, "Reset", "sure?", choices...)
	p.HandleKey(keyMsg("j"), snap)
	_, cmds = p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Pop{}, Notify{Text: "hard"}}, cmds)

	_, cmds = p.HandleKey(keyMsg("h"), snap)
	assert.Equal(t, []Command{Pop{}, Notify{Text: "hard"}}, cmds)

	_, cmds = p.HandleKey(keyMsg("esc"), snap)
	assert.Equal(t, []Command{Pop{}}, cmds)

	consumed, cmds := p.HandleKey(keyMsg("x"), snap)
	assert.True(t, consumed)
	assert.Empty(t, cmds)
	assert.Contains(t, ansi.Strip(p.View(snap, 80, 20)), "[h] hard")
}

func TestCommitPopup(t *testing.T) {
	km, st := testKeys(), testStyles()
	snap := state.New().Snapshot()
	submit := func(text string) []Command {
		return []Command{Notify{Text: "got " + text}}
	}

	p := NewCommitPopup(km, st, "Commit", "message", false, submit)
	_, cmds := p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Notify{Text: "Commit: text must not be empty"}}, cmds)

	for _, r := range "fix it " {
		p.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}, snap)
	}
	assert.Equal(t, "fix it ", p.Value())
	_, cmds = p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Pop{}, Notify{Text: "got fix it"}}, cmds)

	p = NewCommitPopup(km, st, "Stash", "message", true, submit)
	_, cmds = p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Pop{}, Notify{Text: "got "}}, cmds)
}

func TestStatusListStagedDiscardIsRefused(t *testing.T) {
	l := NewStatusList(testKeys(), testStyles())
	snap := state.New().Apply(state.ReplaceStatus{Status: git.Status{
		Head:  "main",
		Files: []git.FileEntry{{Path: "x.go", Staged: true, Kind: git.ChangeAdded}},
	}})

	_, cmds := l.HandleKey(keyMsg("D"), snap)
	assert.Equal(t, []Command{Notify{Text: "unstage x.go before discarding it"}}, cmds)
	_, cmds = l.HandleKey(keyMsg(" "), snap)
	assert.Equal(t, []Command{Submit{Request: git.UnstageFile{Path: "x.go"}}}, cmds)

	view := ansi.Strip(l.View(snap, 40, 5))
	assert.Contains(t, view, "On branch main")
	assert.Contains(t, view, "[x] A x.go")
}

func TestStatusListResetChoices(t *testing.T) {
	l := NewStatusList(testKeys(), testStyles())
	snap := state.New().Snapshot()

	_, cmds := l.HandleKey(keyMsg("X"), snap)
	popup := cmds[0].(PushPopup).Component.(*ConfirmPopup)
	_, cmds = popup.HandleKey(keyMsg("h"), snap)
	assert.Equal(t, []Command{Pop{}, Submit{Request: git.Reset{Mode: git.ResetHard}}}, cmds)
}

func TestStashListApplyAndDrop(t *testing.T) {
	l := NewStashList(testKeys(), testStyles())
	snap := state.New().Apply(state.ReplaceStashes{Stashes: []git.Stash{
		{Index: 0, Message: "On main: one"},
		{Index: 1, Message: "On main: two"},
	}})

	l.HandleKey(keyMsg("j"), snap)
	_, cmds := l.HandleKey(keyMsg("a"), snap)
	assert.Equal(t, []Command{Submit{Request: git.ApplyStash{Index: 1}}}, cmds)

	_, cmds = l.HandleKey(keyMsg("D"), snap)
	popup := cmds[0].(PushPopup).Component.(*ConfirmPopup)
	_, cmds = popup.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Pop{}, Submit{Request: git.DropStash{Index: 1}}}, cmds)

	assert.Contains(t, ansi.Strip(l.View(snap, 60, 5)), "stash@{1}")
}

func TestDiffPaneRender(t *testing.T) {
	p := NewDiffPane(testKeys(), testStyles(), nil)
	k := state.DiffKey{Path: "main.go"}
	store := state.New()
	snap := store.Apply(state.SetDiffLoading{Key: k, Loading: true})

	p.SetTarget(k)
	assert.Contains(t, ansi.Strip(p.View(snap, 60, 10)), "loading diff")

	snap = store.Apply(state.UpsertDiff{Key: k, Diff: git.Diff{Path: "main.go", Lines: []git.DiffLine{
		{Origin: git.OriginHunk, Content: "@@ -3,2 +3,2 @@"},
		{Origin: git.OriginRemove, Content: "old()", OldLine: 3},
		{Origin: git.OriginAdd, Content: "new()", NewLine: 3},
		{Origin: git.OriginContext, Content: "same()", OldLine: 4, NewLine: 4},
	}}})
	view := ansi.Strip(p.View(snap, 60, 10))
	assert.Contains(t, view, "main.go (unstaged)")
	assert.Contains(t, view, "@@ -3,2 +3,2 @@")
	assert.Contains(t, view, "   3      -old()")
	assert.Contains(t, view, "        3 +new()")
	assert.Contains(t, view, "   4    4  same()")

	snap = store.Apply(state.UpsertDiff{Key: k, Diff: git.Diff{Path: "main.go", Binary: true}})
	assert.Contains(t, ansi.Strip(p.View(snap, 60, 10)), "binary file")

	consumed, cmds := p.HandleKey(keyMsg("esc"), snap)
	assert.True(t, consumed)
	assert.Equal(t, []Command{Pop{}}, cmds)
}

func twoHunks(path string) git.Diff {
	return git.Diff{Path: path, Lines: []git.DiffLine{
		{Origin: git.OriginHeader, Content: "diff --git a/" + path + " b/" + path},
		{Origin: git.OriginHeader, Content: "--- a/" + path},
		{Origin: git.OriginHeader, Content: "+++ b/" + path},
		{Origin: git.OriginHunk, Content: "@@ -1 +1 @@"},
		{Origin: git.OriginRemove, Content: "one", OldLine: 1},
		{Origin: git.OriginAdd, Content: "ONE", NewLine: 1},
		{Origin: git.OriginHunk, Content: "@@ -9 +9 @@"},
		{Origin: git.OriginRemove, Content: "nine", OldLine: 9},
		{Origin: git.OriginAdd, Content: "NINE", NewLine: 9},
	}}
}

func TestDiffPaneHunks(t *testing.T) {
	p := NewDiffPane(testKeys(), testStyles(), nil)
	unstaged := state.DiffKey{Path: "a.txt"}
	staged := state.DiffKey{Path: "a.txt", Staged: true}
	d := twoHunks("a.txt")
	store := state.New()
	store.Apply(state.ReplaceStatus{Status: git.Status{Head: "main", Files: []git.FileEntry{
		{Path: "a.txt", Kind: git.ChangeModified, Staged: true},
		{Path: "a.txt", Kind: git.ChangeModified},
	}}})
	store.Apply(state.UpsertDiff{Key: unstaged, Diff: d})
	snap := store.Apply(state.UpsertDiff{Key: staged, Diff: d})

	p.SetTarget(unstaged)
	p.View(snap, 60, 10)
	p.HandleKey(keyMsg("]"), snap)
	assert.Equal(t, 1, p.Hunk())
	p.HandleKey(keyMsg("]"), snap)
	assert.Equal(t, 1, p.Hunk(), "stays on the last hunk")

	second, err := d.HunkPatch(1)
	require.NoError(t, err)
	consumed, cmds := p.HandleKey(keyMsg(" "), snap)
	assert.True(t, consumed)
	assert.Equal(t, []Command{Submit{Request: git.StageHunk{Path: "a.txt", Patch: second}}}, cmds)

	p.HandleKey(keyMsg("["), snap)
	assert.Equal(t, 0, p.Hunk())
	first, err := d.HunkPatch(0)
	require.NoError(t, err)
	assert.Contains(t, first, "-one\n+ONE\n")

	p.SetTarget(staged)
	assert.Equal(t, 0, p.Hunk(), "a new target starts at its first hunk")
	_, cmds = p.HandleKey(keyMsg("enter"), snap)
	assert.Equal(t, []Command{Submit{Request: git.UnstageHunk{Path: "a.txt", Patch: first}}}, cmds)
}

func TestDiffPaneRefusesUntrackedHunk(t *testing.T) {
	p := NewDiffPane(testKeys(), testStyles(), nil)
	k := state.DiffKey{Path: "new.txt"}
	store := state.New()
	store.Apply(state.ReplaceStatus{Status: git.Status{Files: []git.FileEntry{
		{Path: "new.txt", Kind: git.ChangeUntracked},
	}}})
	snap := store.Apply(state.UpsertDiff{Key: k, Diff: git.Diff{Path: "new.txt", Lines: []git.DiffLine{
		{Origin: git.OriginHunk, Content: "@@ -0,0 +1 @@"},
		{Origin: git.OriginAdd, Content: "hello", NewLine: 1},
	}}})
	p.SetTarget(k)

	_, cmds := p.HandleKey(keyMsg(" "), snap)
	require.Len(t, cmds, 1)
	assert.IsType(t, Notify{}, cmds[0])

	// nothing loaded yet: no command at all
	p.SetTarget(state.DiffKey{Path: "other.txt"})
	_, cmds = p.HandleKey(keyMsg(" "), snap)
	assert.Empty(t, cmds)
}

func TestHighlighterKeepsText(t *testing.T) {
	h := newHighlighter(darkPalette)
	out := h.render("main.go", "func main() {}", testStyles().diffAdd)
	assert.Equal(t, "func main() {}", ansi.Strip(out))

	var none *highlighter
	assert.Equal(t, "plain", ansi.Strip(none.render("x.go", "plain", testStyles().diffAdd)))
}

func TestPaletteForPreference(t *testing.T) {
	orig := detectDarkMode
	t.Cleanup(func() { detectDarkMode = orig })

	detectDarkMode = func() (bool, error) { return false, nil }
	assert.Equal(t, lightPalette, paletteForPreference(ThemeAuto))
	assert.Equal(t, darkPalette, paletteForPreference(ThemeDark))

	detectDarkMode = func() (bool, error) { return true, nil }
	assert.Equal(t, darkPalette, paletteForPreference(ThemeAuto))
	assert.Equal(t, lightPalette, paletteForPreference(ThemeLight))
}

func TestThemePreferenceFromString(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemePreferenceFromString("DARK"))
	assert.Equal(t, ThemeLight, ThemePreferenceFromString("light"))
	assert.Equal(t, ThemeAuto, ThemePreferenceFromString("whatever"))
	assert.Equal(t, "dark", ThemeDark.String())
}

func TestShouldIgnoreWatchPath(t *testing.T) {
	assert.True(t, shouldIgnoreWatchPath("/repo/.git/index.lock"))
	assert.True(t, shouldIgnoreWatchPath("/repo/.git/fsmonitor.IPC"))
	assert.False(t, shouldIgnoreWatchPath("/repo/.git/index"))
	assert.False(t, shouldIgnoreWatchPath("/repo/.git/HEAD"))
}

func TestWatchPaths(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, []string{root}, slices.Collect(watchPaths(root)))

	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755))
	got := slices.Sorted(watchPaths(root))
	assert.Equal(t, []string{gitDir, filepath.Join(gitDir, "refs"), filepath.Join(gitDir, "refs", "heads")}, got)

	assert.Empty(t, slices.Collect(watchPaths("")))
}

func TestWatcherReportsRefChanges(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755))

	w, err := startWatcher(root, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "index.lock"), nil, 0o644))
	select {
	case <-w.Events():
		t.Fatal("lock files must not trigger a reload")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "refs", "heads", "main"), []byte("abc\n"), 0o644))
	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("no event after a ref changed")
	}
}
