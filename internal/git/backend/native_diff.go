package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// Diff compares HEAD against the index for staged changes and the index
// against the working tree otherwise. Untracked files diff against nothing.
func (n *native) Diff(ctx context.Context, path string, staged bool, untracked bool) (Diff, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return Diff{}, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Diff{}, fmt.Errorf("path not specified")
	}
	var from, to *object.File
	var err error
	switch {
	case untracked && !staged:
		to, err = fileFromDisk(n.path, path)
	case staged:
		var tree *object.Tree
		tree, err = n.headTree()
		if err == nil {
			from, err = fileFromTree(tree, path)
		}
		if err == nil {
			to, err = n.fileFromIndex(path)
		}
	default:
		from, err = n.fileFromIndex(path)
		if err == nil {
			to, err = fileFromDisk(n.path, path)
		}
	}
	if err != nil {
		return Diff{}, fmt.Errorf("diff %s: %w", path, err)
	}
	text, err := renderFileDiff(path, from, to)
	if err != nil {
		return Diff{}, fmt.Errorf("diff %s: %w", path, err)
	}
	return parseUnifiedDiff(path, staged, text), nil
}

func (n *native) headTree() (*object.Tree, error) {
	head, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := n.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func (n *native) fileFromIndex(path string) (*object.File, error) {
	idx, err := n.repo.Storer.Index()
	if err != nil {
		return nil, err
	}
	return fileFromIndex(idx, n.repo, path)
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fileFromIndex(idx *gitindex.Index, repo *gitlib.Repository, path string) (*object.File, error) {
	if idx == nil || repo == nil {
		return nil, nil
	}
	entry, err := idx.Entry(path)
	if errors.Is(err, gitindex.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := object.GetBlob(repo.Storer, entry.Hash)
	if err != nil {
		return nil, err
	}
	return object.NewFile(entry.Name, entry.Mode, blob), nil
}

func fileFromDisk(root, path string) (*object.File, error) {
	if root == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	file, err := os.Open(filepath.Join(root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode := filemode.Regular
	if info, err := file.Stat(); err == nil {
		if m, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
			mode = m
		}
	}
	return object.NewFile(path, mode, blob), nil
}

// renderFileDiff produces git-style unified diff text for one path.
func renderFileDiff(path string, from, to *object.File) (string, error) {
	if from == nil && to == nil {
		return "", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	for _, f := range []*object.File{from, to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return "", err
		}
		if bin {
			b.WriteString("(binary files differ)\n")
			return b.String(), nil
		}
	}
	fromLines, err := fileLines(from)
	if err != nil {
		return "", err
	}
	toLines, err := fileLines(to)
	if err != nil {
		return "", err
	}
	fromName, toName := "a/"+path, "b/"+path
	if from == nil {
		fromName = "/dev/null"
	}
	if to == nil {
		toName = "/dev/null"
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		// mode-only or identical content
		return "", nil
	}
	b.WriteString(text)
	return b.String(), nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}
