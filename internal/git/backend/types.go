package backend

import "time"

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

// Summary returns the first line of the commit message.
func (c Commit) Summary() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

type ChangeKind uint8

const (
	ChangeModified ChangeKind = iota
	ChangeAdded
	ChangeDeleted
	ChangeRenamed
	ChangeConflicted
	ChangeUntracked
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	case ChangeConflicted:
		return "conflicted"
	case ChangeUntracked:
		return "untracked"
	default:
		return "modified"
	}
}

// FileEntry is one side (index or worktree) of a changed path. A path with
// both staged and unstaged changes is reported twice.
type FileEntry struct {
	Path     string
	OrigPath string // rename source, empty otherwise
	Kind     ChangeKind
	Staged   bool
}

type Status struct {
	Head     string // branch name, or "HEAD" when detached
	Detached bool
	Files    []FileEntry
}

type LineOrigin uint8

const (
	OriginContext LineOrigin = iota
	OriginAdd
	OriginRemove
	OriginHeader
	OriginHunk
)

// DiffLine is a single rendered diff line. OldLine and NewLine are 1-based
// and zero when the line has no number on that side.
type DiffLine struct {
	Origin  LineOrigin
	Content string
	OldLine int
	NewLine int
}

type Diff struct {
	Path   string
	Staged bool
	Binary bool
	Lines  []DiffLine
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

type Ref struct {
	Hash string
	Kind RefKind
	Name string // short name: main, origin/main, v1
}

type Stash struct {
	Index   int
	Message string
}

// Ref returns the reflog selector git understands, e.g. stash@{0}.
func (s Stash) Ref() string {
	return stashRef(s.Index)
}

type ResetMode uint8

const (
	ResetMixed ResetMode = iota
	ResetSoft
	ResetHard
)

func (m ResetMode) String() string {
	switch m {
	case ResetSoft:
		return "soft"
	case ResetHard:
		return "hard"
	default:
		return "mixed"
	}
}
