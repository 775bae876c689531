package state

import (
	"maps"
	"slices"

	"github.com/thiagokokada/gitui-go/internal/git"
)

// Mutation is the closed set of state changes. Applying the same mutation
// twice leaves the same state as applying it once.
type Mutation interface {
	apply(s *Snapshot)
}

// ReplaceStatus swaps the working tree status and evicts every diff whose
// (path, staged) pair no longer appears in it.
type ReplaceStatus struct {
	Status git.Status
}

func (m ReplaceStatus) apply(s *Snapshot) {
	s.status = m.Status
	s.loaded = true
	live := make(map[DiffKey]struct{}, len(m.Status.Files))
	for _, f := range m.Status.Files {
		live[DiffKey{Path: f.Path, Staged: f.Staged}] = struct{}{}
	}
	diffs := make(map[DiffKey]DiffEntry, len(s.diffs))
	for key, entry := range s.diffs {
		if _, ok := live[key]; ok {
			diffs[key] = entry
		}
	}
	s.diffs = diffs
	s.errors = without(s.errors, git.ResourceStatus)
}

type UpsertDiff struct {
	Key  DiffKey
	Diff git.Diff
}

func (m UpsertDiff) apply(s *Snapshot) {
	s.diffs = maps.Clone(s.diffs)
	s.diffs[m.Key] = DiffEntry{Diff: m.Diff, Loaded: true}
	s.errors = without(s.errors, m.Key.Resource())
}

type EvictDiff struct {
	Key DiffKey
}

func (m EvictDiff) apply(s *Snapshot) {
	if _, ok := s.diffs[m.Key]; !ok {
		return
	}
	s.diffs = maps.Clone(s.diffs)
	delete(s.diffs, m.Key)
}

// SetDiffLoading marks a diff as being (re)loaded. A loaded diff keeps its
// content until the new one arrives.
type SetDiffLoading struct {
	Key     DiffKey
	Loading bool
}

func (m SetDiffLoading) apply(s *Snapshot) {
	entry, ok := s.diffs[m.Key]
	if ok && entry.Loading == m.Loading || !ok && !m.Loading {
		return
	}
	entry.Loading = m.Loading
	s.diffs = maps.Clone(s.diffs)
	s.diffs[m.Key] = entry
}

// AppendLogPage extends the log with commits read at Offset. A page for a
// different ref replaces the log when it starts at offset zero and is
// ignored otherwise; a page whose offset does not line up with the loaded
// commits is ignored.
type AppendLogPage struct {
	Ref     string
	Offset  int
	Commits []git.Commit
	HasMore bool
	Labels  map[string][]string
}

func (m AppendLogPage) apply(s *Snapshot) {
	switch {
	case m.Offset == 0:
		s.log = Log{
			Ref:     m.Ref,
			Commits: slices.Clip(m.Commits),
			HasMore: m.HasMore,
			Loaded:  true,
			Labels:  m.Labels,
		}
	case m.Ref != s.log.Ref || m.Offset != len(s.log.Commits):
		return
	default:
		log := s.log
		log.Commits = append(slices.Clip(log.Commits), m.Commits...)
		log.HasMore = m.HasMore
		if m.Labels != nil {
			log.Labels = m.Labels
		}
		s.log = log
	}
	s.errors = without(s.errors, git.ResourceLog)
}

// ResetLog drops the loaded history, e.g. after HEAD moved to another ref.
type ResetLog struct{}

func (ResetLog) apply(s *Snapshot) {
	s.log = Log{}
}

type ReplaceBranches struct {
	Branches []git.Branch
}

func (m ReplaceBranches) apply(s *Snapshot) {
	s.branches = m.Branches
	s.errors = without(s.errors, git.ResourceBranches)
}

type ReplaceStashes struct {
	Stashes []git.Stash
}

func (m ReplaceStashes) apply(s *Snapshot) {
	s.stashes = m.Stashes
	s.errors = without(s.errors, git.ResourceStashes)
}

// SetFocus records the focus path, base component first.
type SetFocus struct {
	Path []string
}

func (m SetFocus) apply(s *Snapshot) {
	s.focus = slices.Clone(m.Path)
}

// SetError attaches an inline error to a resource. An empty message clears
// it.
type SetError struct {
	Resource string
	Message  string
}

func (m SetError) apply(s *Snapshot) {
	if m.Message == "" {
		s.errors = without(s.errors, m.Resource)
		return
	}
	s.errors = maps.Clone(s.errors)
	s.errors[m.Resource] = m.Message
	if path, staged, ok := git.ParseDiffResource(m.Resource); ok {
		diffKey := DiffKey{Path: path, Staged: staged}
		if entry, held := s.diffs[diffKey]; held && entry.Loading {
			entry.Loading = false
			s.diffs = maps.Clone(s.diffs)
			s.diffs[diffKey] = entry
		}
	}
}

func without(m map[string]string, key string) map[string]string {
	if _, ok := m[key]; !ok {
		return m
	}
	out := maps.Clone(m)
	delete(out, key)
	return out
}
