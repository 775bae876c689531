// Package state holds everything the terminal UI displays. A Store has a
// single writer; readers hold Snapshots, which never change after they are
// taken.
package state

import (
	"github.com/thiagokokada/gitui-go/internal/git"
)

type DiffKey struct {
	Path   string
	Staged bool
}

// Resource is the job key results for this diff are stamped with.
func (k DiffKey) Resource() string {
	return git.DiffResource(k.Path, k.Staged)
}

type DiffEntry struct {
	Diff    git.Diff
	Loaded  bool
	Loading bool
}

type Log struct {
	Ref     string
	Commits []git.Commit
	HasMore bool
	Loaded  bool
	Labels  map[string][]string
}

// NextOffset is the offset of the next page to request.
func (l Log) NextOffset() int { return len(l.Commits) }

// Snapshot is an immutable view of the application state. Slices and maps
// reachable from it are shared with later snapshots and must not be
// modified.
type Snapshot struct {
	version  uint64
	status   git.Status
	loaded   bool
	diffs    map[DiffKey]DiffEntry
	log      Log
	branches []git.Branch
	stashes  []git.Stash
	focus    []string
	errors   map[string]string
}

func (s *Snapshot) Version() uint64              { return s.version }
func (s *Snapshot) Status() git.Status           { return s.status }
func (s *Snapshot) StatusLoaded() bool           { return s.loaded }
func (s *Snapshot) Log() Log                     { return s.log }
func (s *Snapshot) Branches() []git.Branch       { return s.branches }
func (s *Snapshot) Stashes() []git.Stash         { return s.stashes }
func (s *Snapshot) Focus() []string              { return s.focus }
func (s *Snapshot) Error(resource string) string { return s.errors[resource] }

func (s *Snapshot) Diff(key DiffKey) (DiffEntry, bool) {
	entry, ok := s.diffs[key]
	return entry, ok
}

// DiffKeys lists the diffs currently held, in no particular order.
func (s *Snapshot) DiffKeys() []DiffKey {
	keys := make([]DiffKey, 0, len(s.diffs))
	for k := range s.diffs {
		keys = append(keys, k)
	}
	return keys
}

// Store applies mutations copy-on-write: each Apply publishes a new
// Snapshot and leaves earlier ones untouched.
type Store struct {
	cur *Snapshot
}

func New() *Store {
	return &Store{cur: &Snapshot{
		diffs:  map[DiffKey]DiffEntry{},
		errors: map[string]string{},
	}}
}

func (s *Store) Snapshot() *Snapshot { return s.cur }

func (s *Store) Apply(m Mutation) *Snapshot {
	next := *s.cur
	m.apply(&next)
	next.version++
	s.cur = &next
	return s.cur
}
