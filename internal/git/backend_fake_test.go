package git

import (
	"context"
	"errors"

	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
)

var errUnexpected = errors.New("unexpected call")

type fakeBackend struct {
	repoPath string

	headStateFunc func() (hash string, headName string, ok bool, err error)
	statusFunc    func(ctx context.Context) (Status, error)
	diffFunc      func(path string, staged, untracked bool) (Diff, error)
	logFunc       func(ref string, skip, limit int) ([]Commit, error)
	listRefsFunc  func() ([]gitbackend.Ref, error)
	stashesFunc   func() ([]Stash, error)
	mutateFunc    func(op string, arg string) error
	commitFunc    func(message string) (string, error)

	mutations []string
}

func (f *fakeBackend) RepoPath() string { return f.repoPath }

func (f *fakeBackend) HeadState(context.Context) (string, string, bool, error) {
	if f.headStateFunc != nil {
		return f.headStateFunc()
	}
	return "", "", false, errUnexpected
}

func (f *fakeBackend) Status(ctx context.Context) (Status, error) {
	if f.statusFunc != nil {
		return f.statusFunc(ctx)
	}
	return Status{}, errUnexpected
}

func (f *fakeBackend) Diff(_ context.Context, path string, staged bool, untracked bool) (Diff, error) {
	if f.diffFunc != nil {
		return f.diffFunc(path, staged, untracked)
	}
	return Diff{}, errUnexpected
}

func (f *fakeBackend) Log(_ context.Context, ref string, skip, limit int) ([]Commit, error) {
	if f.logFunc != nil {
		return f.logFunc(ref, skip, limit)
	}
	return nil, errUnexpected
}

func (f *fakeBackend) ListRefs(context.Context) ([]gitbackend.Ref, error) {
	if f.listRefsFunc != nil {
		return f.listRefsFunc()
	}
	return nil, errUnexpected
}

func (f *fakeBackend) Stashes(context.Context) ([]Stash, error) {
	if f.stashesFunc != nil {
		return f.stashesFunc()
	}
	return nil, errUnexpected
}

func (f *fakeBackend) mutate(op, arg string) error {
	f.mutations = append(f.mutations, op+" "+arg)
	if f.mutateFunc != nil {
		return f.mutateFunc(op, arg)
	}
	return nil
}

func (f *fakeBackend) Stage(_ context.Context, path string) error   { return f.mutate("stage", path) }
func (f *fakeBackend) Unstage(_ context.Context, path string) error { return f.mutate("unstage", path) }

func (f *fakeBackend) ApplyToIndex(_ context.Context, patch string, reverse bool) error {
	if reverse {
		return f.mutate("apply -R", patch)
	}
	return f.mutate("apply", patch)
}

func (f *fakeBackend) Discard(_ context.Context, path string, untracked bool) error {
	if untracked {
		return f.mutate("clean", path)
	}
	return f.mutate("discard", path)
}

func (f *fakeBackend) Commit(_ context.Context, message string) (string, error) {
	if f.commitFunc != nil {
		return f.commitFunc(message)
	}
	return "", errUnexpected
}

func (f *fakeBackend) CreateBranch(_ context.Context, name string) error {
	return f.mutate("branch", name)
}

func (f *fakeBackend) DeleteBranch(_ context.Context, name string) error {
	return f.mutate("branch -d", name)
}

func (f *fakeBackend) SwitchBranch(_ context.Context, name string) error {
	return f.mutate("switch", name)
}

func (f *fakeBackend) SaveStash(_ context.Context, message string) error {
	return f.mutate("stash push", message)
}

func (f *fakeBackend) ApplyStash(_ context.Context, index int) error {
	return f.mutate("stash apply", gitbackend.Stash{Index: index}.Ref())
}

func (f *fakeBackend) DropStash(_ context.Context, index int) error {
	return f.mutate("stash drop", gitbackend.Stash{Index: index}.Ref())
}

func (f *fakeBackend) Reset(_ context.Context, mode ResetMode) error {
	return f.mutate("reset", mode.String())
}

func (f *fakeBackend) Fetch(context.Context) error { return f.mutate("fetch", "") }
