package git

import gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"

type (
	Commit     = gitbackend.Commit
	Signature  = gitbackend.Signature
	FileEntry  = gitbackend.FileEntry
	ChangeKind = gitbackend.ChangeKind
	Status     = gitbackend.Status
	Diff       = gitbackend.Diff
	DiffLine   = gitbackend.DiffLine
	LineOrigin = gitbackend.LineOrigin
	Stash      = gitbackend.Stash
	ResetMode  = gitbackend.ResetMode
)

const (
	ChangeModified   = gitbackend.ChangeModified
	ChangeAdded      = gitbackend.ChangeAdded
	ChangeDeleted    = gitbackend.ChangeDeleted
	ChangeRenamed    = gitbackend.ChangeRenamed
	ChangeConflicted = gitbackend.ChangeConflicted
	ChangeUntracked  = gitbackend.ChangeUntracked

	OriginContext = gitbackend.OriginContext
	OriginAdd     = gitbackend.OriginAdd
	OriginRemove  = gitbackend.OriginRemove
	OriginHeader  = gitbackend.OriginHeader
	OriginHunk    = gitbackend.OriginHunk

	ResetMixed = gitbackend.ResetMixed
	ResetSoft  = gitbackend.ResetSoft
	ResetHard  = gitbackend.ResetHard
)

type Branch struct {
	Name    string
	Hash    string
	Current bool
	Remote  bool
}

// Response is implemented by every payload Execute can return.
type Response interface {
	response()
}

type StatusResponse struct {
	Status Status
}

type DiffResponse struct {
	Diff Diff
}

// LogResponse is one page of history. Ref is the resolved reference name the
// page was read from; a change in Ref means the cached log is obsolete.
type LogResponse struct {
	Ref     string
	Offset  int
	Commits []Commit
	HasMore bool
	Labels  map[string][]string
}

type BranchesResponse struct {
	Branches []Branch
}

type StashesResponse struct {
	Stashes []Stash
}

// MutationResponse reports a completed repository write. Summary is a short
// human readable description of what happened.
type MutationResponse struct {
	Request string
	Summary string
	Hash    string
}

func (StatusResponse) response()   {}
func (DiffResponse) response()     {}
func (LogResponse) response()      {}
func (BranchesResponse) response() {}
func (StashesResponse) response()  {}
func (MutationResponse) response() {}
