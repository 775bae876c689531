package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitui-go/internal/git"
	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
	"github.com/thiagokokada/gitui-go/internal/jobs"
)

// fakeRepo is an in-memory backend. Func fields override single calls; the
// gate hooks block a call until the test lets it go.
type fakeRepo struct {
	mu       sync.Mutex
	head     string
	files    []git.FileEntry
	commits  []git.Commit
	branches []string
	stashes  []git.Stash
	diffSeq  map[string]int

	diffGate     func(path string)
	mutateGate   func(op string)
	mutateErr    func(op, arg string) error
	listRefsErr  error
	mutations    []string
	commitHashes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		head: "main",
		files: []git.FileEntry{
			{Path: "a.txt", Kind: git.ChangeModified},
			{Path: "b.txt", Kind: git.ChangeModified},
		},
		commits:  makeCommits(3),
		branches: []string{"main", "feature"},
		stashes:  []git.Stash{{Index: 0, Message: "On main: wip"}},
		diffSeq:  map[string]int{},
	}
}

func makeCommits(n int) []git.Commit {
	commits := make([]git.Commit, n)
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range commits {
		commits[i] = git.Commit{
			Hash:    fmt.Sprintf("%040x", n-i),
			Author:  git.Signature{Name: "Dev", Email: "dev@example.com", When: when.Add(-time.Duration(i) * time.Hour)},
			Message: fmt.Sprintf("commit %d\n\nbody", n-i),
		}
	}
	return commits
}

func (f *fakeRepo) setFiles(files ...git.FileEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = files
}

func (f *fakeRepo) setHead(head string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.head = head
}

// holdOnce returns a gate that blocks the first call passing through it
// until release is closed. started receives that call's argument.
func holdOnce() (gate func(string), started <-chan string, release chan struct{}) {
	ch := make(chan string, 1)
	release = make(chan struct{})
	var once sync.Once
	gate = func(arg string) {
		first := false
		once.Do(func() { first = true })
		if !first {
			return
		}
		ch <- arg
		<-release
	}
	return gate, ch, release
}

// holdNextDiff blocks the next diff read until release is closed.
func (f *fakeRepo) holdNextDiff() (started <-chan string, release chan struct{}) {
	gate, started, release := holdOnce()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diffGate = gate
	return started, release
}

// holdNextMutation blocks the next repository write until release is
// closed.
func (f *fakeRepo) holdNextMutation() (started <-chan string, release chan struct{}) {
	gate, started, release := holdOnce()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutateGate = gate
	return started, release
}

func (f *fakeRepo) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.mutations)
}

func (f *fakeRepo) RepoPath() string { return "/repo" }

func (f *fakeRepo) HeadState(context.Context) (string, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.commits) == 0 {
		return "", "", false, nil
	}
	return f.commits[0].Hash, f.head, true, nil
}

func (f *fakeRepo) Status(context.Context) (git.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return git.Status{Head: f.head, Files: slices.Clone(f.files)}, nil
}

// Diff answers "<path> v<n>" where n counts the diffs served for that side
// of the path.
func (f *fakeRepo) Diff(_ context.Context, path string, staged, _ bool) (git.Diff, error) {
	f.mu.Lock()
	key := git.DiffResource(path, staged)
	f.diffSeq[key]++
	seq := f.diffSeq[key]
	gate := f.diffGate
	f.mu.Unlock()
	if gate != nil {
		gate(path)
	}
	return git.Diff{
		Path:   path,
		Staged: staged,
		Lines: []git.DiffLine{
			{Origin: git.OriginHunk, Content: "@@ -1 +1 @@"},
			{Origin: git.OriginAdd, Content: fmt.Sprintf("%s v%d", path, seq), NewLine: 1},
		},
	}, nil
}

func (f *fakeRepo) Log(_ context.Context, ref string, skip, limit int) ([]git.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ref != f.head {
		return nil, fmt.Errorf("unknown ref %q", ref)
	}
	if skip >= len(f.commits) {
		return nil, nil
	}
	end := min(skip+limit, len(f.commits))
	return slices.Clone(f.commits[skip:end]), nil
}

func (f *fakeRepo) ListRefs(context.Context) ([]gitbackend.Ref, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listRefsErr != nil {
		return nil, f.listRefsErr
	}
	refs := make([]gitbackend.Ref, 0, len(f.branches))
	for _, b := range f.branches {
		refs = append(refs, gitbackend.Ref{Hash: f.commits[0].Hash, Kind: gitbackend.RefKindBranch, Name: b})
	}
	return refs, nil
}

func (f *fakeRepo) Stashes(context.Context) ([]git.Stash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.stashes), nil
}

func (f *fakeRepo) mutate(op, arg string, apply func()) error {
	f.mu.Lock()
	gate := f.mutateGate
	f.mu.Unlock()
	if gate != nil {
		gate(op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations = append(f.mutations, strings.TrimSpace(op+" "+arg))
	if f.mutateErr != nil {
		if err := f.mutateErr(op, arg); err != nil {
			return err
		}
	}
	if apply != nil {
		apply()
	}
	return nil
}

func (f *fakeRepo) setStaged(path string, staged bool) {
	for i := range f.files {
		if f.files[i].Path == path {
			f.files[i].Staged = staged
		}
	}
}

func (f *fakeRepo) Stage(_ context.Context, path string) error {
	return f.mutate("stage", path, func() { f.setStaged(path, true) })
}

func (f *fakeRepo) Unstage(_ context.Context, path string) error {
	return f.mutate("unstage", path, func() { f.setStaged(path, false) })
}

// ApplyToIndex records "apply <path>" and leaves the path with both a
// staged and an unstaged entry, or only the unstaged one when reversed.
func (f *fakeRepo) ApplyToIndex(_ context.Context, patch string, reverse bool) error {
	var path string
	for _, line := range strings.Split(patch, "\n") {
		if p, ok := strings.CutPrefix(line, "+++ b/"); ok {
			path = p
			break
		}
	}
	op := "apply"
	if reverse {
		op = "apply -R"
	}
	return f.mutate(op, path, func() {
		f.files = slices.DeleteFunc(f.files, func(e git.FileEntry) bool { return e.Path == path && e.Staged })
		if !reverse {
			f.files = append(f.files, git.FileEntry{Path: path, Kind: git.ChangeModified, Staged: true})
		}
	})
}

func (f *fakeRepo) Discard(_ context.Context, path string, _ bool) error {
	return f.mutate("discard", path, func() {
		f.files = slices.DeleteFunc(f.files, func(e git.FileEntry) bool { return e.Path == path && !e.Staged })
	})
}

func (f *fakeRepo) Commit(_ context.Context, message string) (string, error) {
	var hash string
	err := f.mutate("commit", message, func() {
		f.commitHashes++
		hash = fmt.Sprintf("%040x", 1000+f.commitHashes)
		f.commits = append([]git.Commit{{Hash: hash, Message: message}}, f.commits...)
		f.files = slices.DeleteFunc(f.files, func(e git.FileEntry) bool { return e.Staged })
	})
	return hash, err
}

func (f *fakeRepo) CreateBranch(_ context.Context, name string) error {
	return f.mutate("branch", name, func() { f.branches = append(f.branches, name) })
}

func (f *fakeRepo) DeleteBranch(_ context.Context, name string) error {
	return f.mutate("branch -d", name, func() {
		f.branches = slices.DeleteFunc(f.branches, func(b string) bool { return b == name })
	})
}

func (f *fakeRepo) SwitchBranch(_ context.Context, name string) error {
	return f.mutate("switch", name, func() { f.head = name })
}

func (f *fakeRepo) SaveStash(_ context.Context, message string) error {
	return f.mutate("stash push", message, nil)
}

func (f *fakeRepo) ApplyStash(_ context.Context, index int) error {
	return f.mutate("stash apply", fmt.Sprint(index), nil)
}

func (f *fakeRepo) DropStash(_ context.Context, index int) error {
	return f.mutate("stash drop", fmt.Sprint(index), nil)
}

func (f *fakeRepo) Reset(_ context.Context, mode git.ResetMode) error {
	return f.mutate("reset", mode.String(), nil)
}

func (f *fakeRepo) Fetch(context.Context) error {
	return f.mutate("fetch", "", nil)
}

var errBoom = errors.New("boom")

func testOptions() Options {
	opts := DefaultOptions()
	opts.AutoReload = false
	opts.SyntaxHighlight = false
	opts.Theme = ThemeDark
	opts.TickInterval = time.Hour
	opts.DiffDebounce = 0
	opts.Clipboard = func(string) error { return nil }
	return opts
}

func newTestModel(t *testing.T, repo *fakeRepo) *Model {
	t.Helper()
	return newTestModelWith(t, repo, testOptions())
}

func newTestModelWith(t *testing.T, repo *fakeRepo, opts Options) *Model {
	t.Helper()
	m := New(git.NewWithBackend(repo), opts)
	t.Cleanup(func() { _ = m.Close() })
	m.refreshAll()
	settle(t, m)
	return m
}

// settle feeds job results into the model until no job is left.
func settle(t *testing.T, m *Model) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-m.queue.Results():
			m.Update(resultMsg{res})
		case <-time.After(50 * time.Millisecond):
			if m.queue.Len() == 0 {
				return
			}
		case <-deadline:
			require.FailNow(t, "model did not settle", "%d jobs outstanding", m.queue.Len())
		}
	}
}

// receiveOne feeds exactly one job result into the model.
func receiveOne(t *testing.T, m *Model) jobs.Result {
	t.Helper()
	select {
	case res := <-m.queue.Results():
		m.Update(resultMsg{res})
		return res
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for a job result")
	}
	return jobs.Result{}
}
