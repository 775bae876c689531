package git

import (
	"context"
	"fmt"
	"slices"
	"strings"

	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
)

const DefaultLogPage = 200

// refLabels maps commit hashes to the decorations shown next to them in the
// log: branch names, remote branches, "tag: x" and "HEAD -> main".
func refLabels(ctx context.Context, b gitbackend.Backend) (map[string][]string, error) {
	labels := map[string][]string{}
	refs, err := b.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Hash == "" || ref.Name == "" {
			continue
		}
		if ref.Kind == gitbackend.RefKindRemoteBranch && strings.HasSuffix(ref.Name, "/HEAD") {
			continue
		}
		label := ref.Name
		if ref.Kind == gitbackend.RefKindTag {
			label = fmt.Sprintf("tag: %s", ref.Name)
		}
		labels[ref.Hash] = append(labels[ref.Hash], label)
	}

	headHash, headName, ok, err := b.HeadState(ctx)
	if err != nil {
		return nil, err
	}
	if ok && headHash != "" {
		label := "HEAD"
		if headName != "" && headName != "HEAD" {
			label = fmt.Sprintf("HEAD -> %s", headName)
			labels[headHash] = slices.DeleteFunc(labels[headHash], func(l string) bool { return l == headName })
		}
		labels[headHash] = append([]string{label}, labels[headHash]...)
	}
	return labels, nil
}

// listBranches returns local branches sorted by name followed by remote
// branches sorted by name. Duplicates and remote HEAD aliases are dropped.
func listBranches(ctx context.Context, b gitbackend.Backend) ([]Branch, error) {
	refs, err := b.ListRefs(ctx)
	if err != nil {
		return nil, err
	}
	_, headName, ok, err := b.HeadState(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		headName = ""
	}

	seen := make(map[string]struct{}, len(refs))
	var local, remote []Branch
	for _, ref := range refs {
		if ref.Kind == gitbackend.RefKindTag {
			continue
		}
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			continue
		}
		isRemote := ref.Kind == gitbackend.RefKindRemoteBranch
		if isRemote && strings.HasSuffix(name, "/HEAD") {
			continue
		}
		key := name
		if isRemote {
			key = "remotes/" + name
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		br := Branch{Name: name, Hash: ref.Hash, Remote: isRemote}
		if isRemote {
			remote = append(remote, br)
			continue
		}
		br.Current = name == headName
		local = append(local, br)
	}
	byName := func(a, b Branch) int { return strings.Compare(a.Name, b.Name) }
	slices.SortFunc(local, byName)
	slices.SortFunc(remote, byName)
	return append(local, remote...), nil
}
