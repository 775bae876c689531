package git

import (
	"context"
	"fmt"
	"strings"

	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
)

// Resource keys name the piece of UI state a request's result updates.
const (
	ResourceStatus   = "status"
	ResourceLog      = "log"
	ResourceBranches = "branches"
	ResourceStashes  = "stashes"
	ResourceMutation = "mutation"
)

// DiffResource is the resource key of the diff for one side of a path.
func DiffResource(path string, staged bool) string {
	if staged {
		return "diff:staged:" + path
	}
	return "diff:unstaged:" + path
}

// ParseDiffResource reverses DiffResource.
func ParseDiffResource(resource string) (path string, staged bool, ok bool) {
	if path, ok := strings.CutPrefix(resource, "diff:staged:"); ok && path != "" {
		return path, true, true
	}
	if path, ok := strings.CutPrefix(resource, "diff:unstaged:"); ok && path != "" {
		return path, false, true
	}
	return "", false, false
}

// Request is the closed set of operations the adapter understands.
type Request interface {
	Name() string
	Resource() string
	Mutating() bool
	// Invalidates lists the resources whose cached data is stale once the
	// request has completed.
	Invalidates() []string
	run(ctx context.Context, b gitbackend.Backend) (Response, error)
}

type readRequest struct{}

func (readRequest) Mutating() bool        { return false }
func (readRequest) Invalidates() []string { return nil }

type writeRequest struct{}

func (writeRequest) Mutating() bool   { return true }
func (writeRequest) Resource() string { return ResourceMutation }

type GetStatus struct{ readRequest }

func (GetStatus) Name() string     { return "GetStatus" }
func (GetStatus) Resource() string { return ResourceStatus }

func (GetStatus) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	st, err := b.Status(ctx)
	if err != nil {
		return nil, err
	}
	return StatusResponse{Status: st}, nil
}

type GetDiff struct {
	readRequest
	Path   string
	Staged bool
	// Untracked selects a diff against an empty file.
	Untracked bool
}

func (GetDiff) Name() string       { return "GetDiff" }
func (r GetDiff) Resource() string { return DiffResource(r.Path, r.Staged) }

func (r GetDiff) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	d, err := b.Diff(ctx, r.Path, r.Staged, r.Untracked)
	if err != nil {
		return nil, err
	}
	return DiffResponse{Diff: d}, nil
}

// GetLog reads Limit commits starting Offset commits below Ref. An empty Ref
// means the current HEAD.
type GetLog struct {
	readRequest
	Ref    string
	Offset int
	Limit  int
}

func (GetLog) Name() string     { return "GetLog" }
func (GetLog) Resource() string { return ResourceLog }

func (r GetLog) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	ref := strings.TrimSpace(r.Ref)
	if ref == "" {
		_, head, ok, err := b.HeadState(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return LogResponse{Ref: head, Offset: r.Offset}, nil
		}
		ref = head
	}
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLogPage
	}
	// one extra row tells us whether another page exists
	commits, err := b.Log(ctx, ref, r.Offset, limit+1)
	if err != nil {
		return nil, err
	}
	resp := LogResponse{Ref: ref, Offset: r.Offset}
	if len(commits) > limit {
		commits = commits[:limit]
		resp.HasMore = true
	}
	resp.Commits = commits
	if r.Offset == 0 {
		labels, err := refLabels(ctx, b)
		if err != nil {
			return nil, err
		}
		resp.Labels = labels
	}
	return resp, nil
}

type GetBranches struct{ readRequest }

func (GetBranches) Name() string     { return "GetBranches" }
func (GetBranches) Resource() string { return ResourceBranches }

func (GetBranches) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	branches, err := listBranches(ctx, b)
	if err != nil {
		return nil, err
	}
	return BranchesResponse{Branches: branches}, nil
}

type GetStashes struct{ readRequest }

func (GetStashes) Name() string     { return "GetStashes" }
func (GetStashes) Resource() string { return ResourceStashes }

func (GetStashes) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	stashes, err := b.Stashes(ctx)
	if err != nil {
		return nil, err
	}
	return StashesResponse{Stashes: stashes}, nil
}

func pathResources(path string) []string {
	return []string{ResourceStatus, DiffResource(path, false), DiffResource(path, true)}
}

type StageFile struct {
	writeRequest
	Path string
}

func (StageFile) Name() string            { return "StageFile" }
func (r StageFile) Invalidates() []string { return pathResources(r.Path) }

func (r StageFile) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.Stage(ctx, r.Path); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "staged " + r.Path}, nil
}

type UnstageFile struct {
	writeRequest
	Path string
}

func (UnstageFile) Name() string            { return "UnstageFile" }
func (r UnstageFile) Invalidates() []string { return pathResources(r.Path) }

func (r UnstageFile) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.Unstage(ctx, r.Path); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "unstaged " + r.Path}, nil
}

// StageHunk copies one hunk of the unstaged diff of Path into the index.
// Patch is the hunk with its file header, as rendered by Diff.HunkPatch.
type StageHunk struct {
	writeRequest
	Path  string
	Patch string
}

func (StageHunk) Name() string            { return "StageHunk" }
func (r StageHunk) Invalidates() []string { return pathResources(r.Path) }

func (r StageHunk) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.ApplyToIndex(ctx, r.Patch, false); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "staged hunk of " + r.Path}, nil
}

// UnstageHunk removes one hunk of the staged diff of Path from the index.
type UnstageHunk struct {
	writeRequest
	Path  string
	Patch string
}

func (UnstageHunk) Name() string            { return "UnstageHunk" }
func (r UnstageHunk) Invalidates() []string { return pathResources(r.Path) }

func (r UnstageHunk) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.ApplyToIndex(ctx, r.Patch, true); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "unstaged hunk of " + r.Path}, nil
}

// DiscardFile reverts worktree changes of Path; untracked files are removed.
type DiscardFile struct {
	writeRequest
	Path      string
	Untracked bool
}

func (DiscardFile) Name() string            { return "DiscardFile" }
func (r DiscardFile) Invalidates() []string { return pathResources(r.Path) }

func (r DiscardFile) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.Discard(ctx, r.Path, r.Untracked); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "discarded " + r.Path}, nil
}

// CreateCommit records the index as a new commit. Name reports "Commit".
type CreateCommit struct {
	writeRequest
	Message string
}

func (CreateCommit) Name() string { return "Commit" }

func (CreateCommit) Invalidates() []string {
	return []string{ResourceStatus, ResourceLog, ResourceBranches}
}

func (r CreateCommit) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	hash, err := b.Commit(ctx, r.Message)
	if err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "committed " + shortHash(hash), Hash: hash}, nil
}

type CreateBranch struct {
	writeRequest
	Branch string
}

func (CreateBranch) Name() string          { return "CreateBranch" }
func (CreateBranch) Invalidates() []string { return []string{ResourceBranches, ResourceLog} }

func (r CreateBranch) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.CreateBranch(ctx, r.Branch); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "created branch " + r.Branch}, nil
}

type DeleteBranch struct {
	writeRequest
	Branch string
}

func (DeleteBranch) Name() string          { return "DeleteBranch" }
func (DeleteBranch) Invalidates() []string { return []string{ResourceBranches, ResourceLog} }

func (r DeleteBranch) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.DeleteBranch(ctx, r.Branch); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "deleted branch " + r.Branch}, nil
}

type CheckoutBranch struct {
	writeRequest
	Branch string
}

func (CheckoutBranch) Name() string { return "CheckoutBranch" }

func (CheckoutBranch) Invalidates() []string {
	return []string{ResourceStatus, ResourceLog, ResourceBranches}
}

func (r CheckoutBranch) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.SwitchBranch(ctx, r.Branch); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "switched to " + r.Branch}, nil
}

// SaveStash stashes worktree, index and untracked files.
type SaveStash struct {
	writeRequest
	Message string
}

func (SaveStash) Name() string          { return "SaveStash" }
func (SaveStash) Invalidates() []string { return []string{ResourceStatus, ResourceStashes} }

func (r SaveStash) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.SaveStash(ctx, r.Message); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "stashed changes"}, nil
}

type ApplyStash struct {
	writeRequest
	Index int
}

func (ApplyStash) Name() string          { return "ApplyStash" }
func (ApplyStash) Invalidates() []string { return []string{ResourceStatus, ResourceStashes} }

func (r ApplyStash) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.ApplyStash(ctx, r.Index); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: fmt.Sprintf("applied stash@{%d}", r.Index)}, nil
}

type DropStash struct {
	writeRequest
	Index int
}

func (DropStash) Name() string          { return "DropStash" }
func (DropStash) Invalidates() []string { return []string{ResourceStashes} }

func (r DropStash) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.DropStash(ctx, r.Index); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: fmt.Sprintf("dropped stash@{%d}", r.Index)}, nil
}

// Reset moves the index (mixed), nothing (soft) or index and worktree (hard)
// back to HEAD.
type Reset struct {
	writeRequest
	Mode ResetMode
}

func (Reset) Name() string          { return "Reset" }
func (Reset) Invalidates() []string { return []string{ResourceStatus, ResourceLog} }

func (r Reset) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.Reset(ctx, r.Mode); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "reset --" + r.Mode.String()}, nil
}

type Fetch struct{ writeRequest }

func (Fetch) Name() string          { return "Fetch" }
func (Fetch) Invalidates() []string { return []string{ResourceBranches, ResourceLog} }

func (r Fetch) run(ctx context.Context, b gitbackend.Backend) (Response, error) {
	if err := b.Fetch(ctx); err != nil {
		return nil, err
	}
	return MutationResponse{Request: r.Name(), Summary: "fetched"}, nil
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
