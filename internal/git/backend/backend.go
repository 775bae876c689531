package backend

import "context"

// Backend abstracts access to repository data.
//
// The default implementation shells out to the git executable; the native
// implementation uses go-git and falls back to the executable for the
// operations go-git does not provide. Read methods are safe for concurrent
// use. Mutating methods must be serialized by the caller.
type Backend interface {
	RepoPath() string
	HeadState(ctx context.Context) (hash string, headName string, ok bool, err error)

	Status(ctx context.Context) (Status, error)
	Diff(ctx context.Context, path string, staged bool, untracked bool) (Diff, error)
	Log(ctx context.Context, ref string, skip, limit int) ([]Commit, error)
	ListRefs(ctx context.Context) ([]Ref, error)
	Stashes(ctx context.Context) ([]Stash, error)

	Stage(ctx context.Context, path string) error
	Unstage(ctx context.Context, path string) error
	Discard(ctx context.Context, path string, untracked bool) error
	// ApplyToIndex applies a unified diff patch to the index, in reverse
	// when reverse is set.
	ApplyToIndex(ctx context.Context, patch string, reverse bool) error
	Commit(ctx context.Context, message string) (string, error)
	CreateBranch(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string) error
	SwitchBranch(ctx context.Context, name string) error
	SaveStash(ctx context.Context, message string) error
	ApplyStash(ctx context.Context, index int) error
	DropStash(ctx context.Context, index int) error
	Reset(ctx context.Context, mode ResetMode) error
	Fetch(ctx context.Context) error
}
