package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// native reads and writes the repository through go-git. Stash handling,
// worktree restore and fetch are not provided by go-git and go through the
// git executable instead.
//
// go-git rewrites .git/index in place, so reads hold mu shared and anything
// that may touch the index or refs holds it exclusively.
type native struct {
	path string
	repo *gitlib.Repository
	cli  *gitCLI

	mu sync.RWMutex
}

func OpenNative(repoPath string) (Backend, error) {
	repo, err := gitlib.PlainOpenWithOptions(repoPath, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	return &native{path: root, repo: repo, cli: &gitCLI{path: root}}, nil
}

func (n *native) RepoPath() string {
	if n == nil {
		return ""
	}
	return n.path
}

func (n *native) HeadState(ctx context.Context) (string, string, bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return "", "", false, err
	}
	head, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	name := "HEAD"
	if head.Name().IsBranch() {
		name = head.Name().Short()
	}
	return head.Hash().String(), name, true, nil
}

func (n *native) Status(ctx context.Context) (Status, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	st := Status{Head: "HEAD"}
	if sym, err := n.repo.Storer.Reference(plumbing.HEAD); err == nil {
		if sym.Type() == plumbing.SymbolicReference && sym.Target().IsBranch() {
			st.Head = sym.Target().Short()
		} else {
			st.Detached = true
		}
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return Status{}, err
	}
	status, err := wt.Status()
	if err != nil {
		return Status{}, err
	}
	paths := make([]string, 0, len(status))
	for path := range status {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fs := status[path]
		if fs.Staging == gitlib.Untracked || fs.Worktree == gitlib.Untracked {
			st.Files = append(st.Files, FileEntry{Path: path, Kind: ChangeUntracked})
			continue
		}
		if fs.Staging == gitlib.UpdatedButUnmerged || fs.Worktree == gitlib.UpdatedButUnmerged {
			st.Files = append(st.Files, FileEntry{Path: path, Kind: ChangeConflicted})
			continue
		}
		if fs.Staging != gitlib.Unmodified {
			entry := FileEntry{Path: path, Kind: kindFromStatusCode(byte(fs.Staging)), Staged: true}
			if fs.Staging == gitlib.Renamed || fs.Staging == gitlib.Copied {
				entry.OrigPath = fs.Extra
			}
			st.Files = append(st.Files, entry)
		}
		if fs.Worktree != gitlib.Unmodified {
			st.Files = append(st.Files, FileEntry{Path: path, Kind: kindFromStatusCode(byte(fs.Worktree))})
		}
	}
	return st, nil
}

func (n *native) Log(ctx context.Context, ref string, skip, limit int) ([]Commit, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	start, ok, err := n.resolve(ref)
	if err != nil || !ok {
		return nil, err
	}
	iter, err := n.repo.Log(&gitlib.LogOptions{From: start})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var commits []Commit
	idx := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if idx < skip {
			idx++
			return nil
		}
		idx++
		commits = append(commits, commitFromObject(c))
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

func (n *native) resolve(ref string) (plumbing.Hash, bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "HEAD" {
		head, err := n.repo.Head()
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, false, nil
		}
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		return head.Hash(), true, nil
	}
	hash, err := n.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("resolve %s: %w", ref, err)
	}
	return *hash, true, nil
}

func commitFromObject(c *object.Commit) Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}
}

func (n *native) ListRefs(ctx context.Context) ([]Ref, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter, err := n.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		switch {
		case name.IsBranch():
			refs = append(refs, Ref{Hash: ref.Hash().String(), Kind: RefKindBranch, Name: name.Short()})
		case name.IsRemote():
			refs = append(refs, Ref{Hash: ref.Hash().String(), Kind: RefKindRemoteBranch, Name: name.Short()})
		case name.IsTag():
			hash := ref.Hash()
			if peeled, ok := n.peelTag(hash); ok {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash.String(), Kind: RefKindTag, Name: name.Short()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (n *native) peelTag(hash plumbing.Hash) (plumbing.Hash, bool) {
	if _, err := n.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func (n *native) Stashes(ctx context.Context) ([]Stash, error) {
	return n.cli.Stashes(ctx)
}

func (n *native) Stage(ctx context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	if _, err := wt.Add(path); err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	return nil
}

func (n *native) Unstage(ctx context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.repo.Head(); errors.Is(err, plumbing.ErrReferenceNotFound) {
		return n.cli.Unstage(ctx, path)
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	if err := wt.Restore(&gitlib.RestoreOptions{Staged: true, Files: []string{path}}); err != nil {
		return fmt.Errorf("unstage %s: %w", path, err)
	}
	return nil
}

func (n *native) Discard(ctx context.Context, path string, untracked bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cli.Discard(ctx, path, untracked)
}

func (n *native) ApplyToIndex(ctx context.Context, patch string, reverse bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cli.ApplyToIndex(ctx, patch, reverse)
}

func (n *native) Commit(ctx context.Context, message string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit message is empty")
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return "", err
	}
	hash, err := wt.Commit(message, &gitlib.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

func (n *native) CreateBranch(ctx context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	refName := plumbing.NewBranchReferenceName(strings.TrimSpace(name))
	if err := refName.Validate(); err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	if _, err := n.repo.Reference(refName, false); err == nil {
		return fmt.Errorf("create branch %q: %w", name, gitlib.ErrBranchExists)
	}
	head, err := n.repo.Head()
	if err != nil {
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return n.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash()))
}

func (n *native) DeleteBranch(ctx context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	refName := plumbing.NewBranchReferenceName(strings.TrimSpace(name))
	if _, err := n.repo.Reference(refName, false); err != nil {
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	if head, err := n.repo.Head(); err == nil && head.Name() == refName {
		return fmt.Errorf("delete branch %q: cannot delete the checked out branch", name)
	}
	return n.repo.Storer.RemoveReference(refName)
}

func (n *native) SwitchBranch(ctx context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.Checkout(&gitlib.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(strings.TrimSpace(name))})
	if err != nil {
		return fmt.Errorf("switch to %q: %w", name, err)
	}
	return nil
}

func (n *native) SaveStash(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cli.SaveStash(ctx, message)
}

func (n *native) ApplyStash(ctx context.Context, index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cli.ApplyStash(ctx, index)
}

func (n *native) DropStash(ctx context.Context, index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cli.DropStash(ctx, index)
}

func (n *native) Reset(ctx context.Context, mode ResetMode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	head, err := n.repo.Head()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	wt, err := n.repo.Worktree()
	if err != nil {
		return err
	}
	var m gitlib.ResetMode
	switch mode {
	case ResetSoft:
		m = gitlib.SoftReset
	case ResetHard:
		m = gitlib.HardReset
	default:
		m = gitlib.MixedReset
	}
	if err := wt.Reset(&gitlib.ResetOptions{Commit: head.Hash(), Mode: m}); err != nil {
		return fmt.Errorf("reset --%s: %w", mode, err)
	}
	return nil
}

func (n *native) Fetch(ctx context.Context) error {
	return n.cli.Fetch(ctx)
}
