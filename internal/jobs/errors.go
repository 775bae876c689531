package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy rejects a mutating job while another one is in flight.
	ErrBusy   = errors.New("another repository operation is in progress")
	ErrClosed = errors.New("job queue closed")

	ErrCancelled  = errors.New("job cancelled")
	ErrSuperseded = errors.New("job superseded")
)

// Error is the error carried by a failed Result. It wraps either a
// cancellation sentinel or the error returned by the job itself.
type Error struct {
	Kind string
	Key  Key
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Silent reports whether err is an outcome that must never reach the user.
func Silent(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, ErrSuperseded)
}
