package tui

import (
	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/state"
)

// Command is what components ask the dispatcher to do.
type Command interface {
	command()
}

// Submit runs a request on the job queue.
type Submit struct {
	Request git.Request
}

// OpenDiff shows the diff of one side of a file and loads it.
type OpenDiff struct {
	Key       state.DiffKey
	Untracked bool
}

// LoadMoreLog requests the next log page unless one is on its way.
type LoadMoreLog struct{}

// PushPopup puts a component on top of the focus stack.
type PushPopup struct {
	Component Component
}

// Pop removes the top of the focus stack.
type Pop struct{}

// FocusDiff moves input to the diff pane of the status tab.
type FocusDiff struct{}

type SwitchTab struct {
	Tab int
}

// Notify shows a transient notice in the status line.
type Notify struct {
	Text string
}

// CopyText places text on the system clipboard.
type CopyText struct {
	Text string
}

type Refresh struct{}

type Quit struct{}

func (Submit) command()      {}
func (OpenDiff) command()    {}
func (LoadMoreLog) command() {}
func (PushPopup) command()   {}
func (Pop) command()         {}
func (FocusDiff) command()   {}
func (SwitchTab) command()   {}
func (Notify) command()      {}
func (CopyText) command()    {}
func (Refresh) command()     {}
func (Quit) command()        {}
