package backend

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const logFormat = "%H%n%P%n%an%n%ae%n%aI%n%cn%n%ce%n%cI%n%B"

func (g *gitCLI) HeadState(ctx context.Context) (hash string, headName string, ok bool, err error) {
	if g == nil || g.path == "" {
		return "", "", false, fmt.Errorf("repository root not set")
	}
	out, err := g.runGitCommand(ctx, []string{"rev-parse", "-q", "--verify", "HEAD"}, true, "git rev-parse")
	if err != nil {
		return "", "", false, err
	}
	hash = strings.TrimSpace(out)
	if hash == "" {
		return "", "", false, nil
	}
	ref, err := g.runGitCommand(ctx, []string{"symbolic-ref", "-q", "--short", "HEAD"}, true, "git symbolic-ref")
	if err != nil {
		return "", "", false, err
	}
	headName = strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return hash, headName, true, nil
}

func (g *gitCLI) Status(ctx context.Context) (Status, error) {
	out, err := g.runGitCommand(ctx,
		[]string{"status", "--porcelain=v2", "--branch", "-z", "--untracked-files=all"},
		false,
		"git status",
	)
	if err != nil {
		return Status{}, err
	}
	st, err := parseStatusPorcelainV2(strings.NewReader(out))
	if err != nil {
		return Status{}, fmt.Errorf("parse git status: %w", err)
	}
	return st, nil
}

func (g *gitCLI) Diff(ctx context.Context, path string, staged bool, untracked bool) (Diff, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Diff{}, fmt.Errorf("path not specified")
	}
	var args []string
	switch {
	case untracked && !staged:
		args = []string{"diff", "--no-color", "--no-ext-diff", "--no-index", "--", "/dev/null", path}
	case staged:
		args = []string{"diff", "--no-color", "--no-ext-diff", "--cached", "--", path}
	default:
		args = []string{"diff", "--no-color", "--no-ext-diff", "--", path}
	}
	out, err := g.runGitCommand(ctx, args, true, "git diff")
	if err != nil {
		return Diff{}, err
	}
	return parseUnifiedDiff(path, staged, out), nil
}

func (g *gitCLI) Log(ctx context.Context, ref string, skip, limit int) ([]Commit, error) {
	_, head, ok, err := g.HeadState(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		// unborn branch: no commits yet
		return nil, nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = head
	}
	args := []string{"log", "-z", "--format=" + logFormat}
	if skip > 0 {
		args = append(args, "--skip="+strconv.Itoa(skip))
	}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	args = append(args, ref, "--")
	out, err := g.runGitCommand(ctx, args, false, "git log")
	if err != nil {
		return nil, err
	}
	var commits []Commit
	for _, rec := range bytes.Split([]byte(out), []byte{0}) {
		rec = bytes.TrimLeft(rec, "\n")
		if len(bytes.TrimSpace(rec)) == 0 {
			continue
		}
		commit, err := parseGitLogRecord(rec)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *commit)
	}
	return commits, nil
}

func parseGitLogRecord(rec []byte) (*Commit, error) {
	parts := bytes.SplitN(rec, []byte("\n"), 9)
	if len(parts) < 8 {
		return nil, fmt.Errorf("unexpected git log record: %q", rec)
	}
	authorWhen, err := time.Parse(time.RFC3339, string(parts[4]))
	if err != nil {
		return nil, fmt.Errorf("parse author date: %w", err)
	}
	committerWhen, err := time.Parse(time.RFC3339, string(parts[7]))
	if err != nil {
		return nil, fmt.Errorf("parse committer date: %w", err)
	}
	commit := &Commit{
		Hash:         string(parts[0]),
		ParentHashes: strings.Fields(string(parts[1])),
		Author:       Signature{Name: string(parts[2]), Email: string(parts[3]), When: authorWhen},
		Committer:    Signature{Name: string(parts[5]), Email: string(parts[6]), When: committerWhen},
	}
	if len(parts) == 9 {
		commit.Message = string(parts[8])
	}
	return commit, nil
}

func (g *gitCLI) ListRefs(ctx context.Context) ([]Ref, error) {
	if g == nil || g.path == "" {
		return nil, nil
	}
	out, err := g.runGitCommand(ctx,
		[]string{
			"--no-pager",
			"show-ref",
			"--dereference",
		},
		true,
		"git show-ref",
	)
	if err != nil {
		return nil, err
	}
	return parseRefsFromShowRef(out)
}

func (g *gitCLI) Stashes(ctx context.Context) ([]Stash, error) {
	out, err := g.runGitCommand(ctx, []string{"stash", "list", "-z", "--format=%gd%x09%gs"}, false, "git stash list")
	if err != nil {
		return nil, err
	}
	return parseStashList(out), nil
}

func parseStashList(out string) []Stash {
	var stashes []Stash
	for _, rec := range strings.Split(out, "\x00") {
		rec = strings.Trim(rec, "\n")
		if rec == "" {
			continue
		}
		selector, msg, _ := strings.Cut(rec, "\t")
		idx, ok := stashIndex(selector)
		if !ok {
			idx = len(stashes)
		}
		stashes = append(stashes, Stash{Index: idx, Message: msg})
	}
	return stashes
}

func stashIndex(selector string) (int, bool) {
	selector = strings.TrimSpace(selector)
	if !strings.HasPrefix(selector, "stash@{") || !strings.HasSuffix(selector, "}") {
		return 0, false
	}
	n, err := strconv.Atoi(selector[len("stash@{") : len(selector)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func stashRef(index int) string {
	return fmt.Sprintf("stash@{%d}", index)
}

func (g *gitCLI) Stage(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path not specified")
	}
	_, err := g.runGitCommand(ctx, []string{"add", "-A", "--", path}, false, "git add")
	return err
}

func (g *gitCLI) Unstage(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path not specified")
	}
	_, _, ok, err := g.HeadState(ctx)
	if err != nil {
		return err
	}
	if !ok {
		// nothing to restore from on an unborn branch
		_, err = g.runGitCommand(ctx, []string{"rm", "--cached", "-q", "--", path}, false, "git rm")
		return err
	}
	_, err = g.runGitCommand(ctx, []string{"restore", "--staged", "--", path}, false, "git restore")
	return err
}

func (g *gitCLI) Discard(ctx context.Context, path string, untracked bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path not specified")
	}
	if untracked {
		_, err := g.runGitCommand(ctx, []string{"clean", "-f", "-q", "--", path}, false, "git clean")
		return err
	}
	_, err := g.runGitCommand(ctx, []string{"restore", "--worktree", "--", path}, false, "git restore")
	return err
}

// ApplyToIndex applies patch to the index only, reversed when reverse is
// set. The worktree is left alone.
func (g *gitCLI) ApplyToIndex(ctx context.Context, patch string, reverse bool) error {
	if strings.TrimSpace(patch) == "" {
		return fmt.Errorf("patch is empty")
	}
	args := []string{"apply", "--cached", "--whitespace=nowarn"}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, "-")
	_, err := g.runGitCommandInput(ctx, args, strings.NewReader(patch), false, "git apply")
	return err
}

func (g *gitCLI) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit message is empty")
	}
	if _, err := g.runGitCommand(ctx, []string{"commit", "-q", "-m", message}, false, "git commit"); err != nil {
		return "", err
	}
	hash, _, _, err := g.HeadState(ctx)
	return hash, err
}

func (g *gitCLI) CreateBranch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("branch not specified")
	}
	_, err := g.runGitCommand(ctx, []string{"branch", "--", name}, false, "git branch")
	return err
}

func (g *gitCLI) DeleteBranch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("branch not specified")
	}
	_, err := g.runGitCommand(ctx, []string{"branch", "-d", "--", name}, false, "git branch -d")
	return err
}

func (g *gitCLI) SwitchBranch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("branch not specified")
	}
	_, err := g.runGitCommand(ctx, []string{"switch", "--", name}, false, "git switch")
	return err
}

func (g *gitCLI) SaveStash(ctx context.Context, message string) error {
	args := []string{"stash", "push", "--include-untracked"}
	if msg := strings.TrimSpace(message); msg != "" {
		args = append(args, "-m", msg)
	}
	_, err := g.runGitCommand(ctx, args, false, "git stash push")
	return err
}

func (g *gitCLI) ApplyStash(ctx context.Context, index int) error {
	_, err := g.runGitCommand(ctx, []string{"stash", "apply", stashRef(index)}, false, "git stash apply")
	return err
}

func (g *gitCLI) DropStash(ctx context.Context, index int) error {
	_, err := g.runGitCommand(ctx, []string{"stash", "drop", stashRef(index)}, false, "git stash drop")
	return err
}

func (g *gitCLI) Reset(ctx context.Context, mode ResetMode) error {
	_, err := g.runGitCommand(ctx, []string{"reset", "-q", "--" + mode.String(), "HEAD"}, false, "git reset")
	return err
}

func (g *gitCLI) Fetch(ctx context.Context) error {
	_, err := g.runGitCommand(ctx, []string{"fetch", "--all", "--prune", "--quiet"}, false, "git fetch")
	return err
}

func parseRefsFromShowRef(out string) ([]Ref, error) {
	type refEntry struct {
		hash string
		ref  string
	}

	peeledByTagRef := map[string]string{}
	var entries []refEntry

	for _, rawLine := range strings.Split(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		hash := strings.TrimSpace(parts[0])
		refName := strings.TrimSpace(parts[1])
		if hash == "" || refName == "" {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		if strings.HasSuffix(refName, "^{}") {
			base := strings.TrimSuffix(refName, "^{}")
			if base != "" {
				peeledByTagRef[base] = hash
			}
			continue
		}
		entries = append(entries, refEntry{hash: hash, ref: refName})
	}

	var refs []Ref
	for _, entry := range entries {
		refName := entry.ref
		switch {
		case strings.HasPrefix(refName, "refs/tags/"):
			short := strings.TrimPrefix(refName, "refs/tags/")
			if short == "" {
				continue
			}
			hash := entry.hash
			if peeled, ok := peeledByTagRef[refName]; ok && peeled != "" {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash, Kind: RefKindTag, Name: short})
		case strings.HasPrefix(refName, "refs/heads/"):
			short := strings.TrimPrefix(refName, "refs/heads/")
			if short == "" {
				continue
			}
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindBranch, Name: short})
		case strings.HasPrefix(refName, "refs/remotes/"):
			short := strings.TrimPrefix(refName, "refs/remotes/")
			if short == "" {
				continue
			}
			refs = append(refs, Ref{Hash: entry.hash, Kind: RefKindRemoteBranch, Name: short})
		default:
			continue
		}
	}
	return refs, nil
}
