package git

import (
	"errors"
	"os"
	"strings"

	gitlib "github.com/go-git/go-git/v5"

	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
)

type ErrorKind uint8

const (
	OperationFailed ErrorKind = iota
	NotARepository
	PermissionDenied
	Conflict
	NetworkUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case NotARepository:
		return "not a repository"
	case PermissionDenied:
		return "permission denied"
	case Conflict:
		return "conflict"
	case NetworkUnavailable:
		return "network unavailable"
	default:
		return "operation failed"
	}
}

// BackendError is the only error type Execute returns besides context
// cancellation.
type BackendError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsKind reports whether err is a *BackendError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var berr *BackendError
	return errors.As(err, &berr) && berr.Kind == kind
}

var stderrKinds = []struct {
	kind    ErrorKind
	needles []string
}{
	{NotARepository, []string{"not a git repository"}},
	{PermissionDenied, []string{"permission denied", "operation not permitted"}},
	{Conflict, []string{
		"conflict",
		"would be overwritten",
		"needs merge",
		"you need to resolve",
		"unmerged",
		"not fully merged",
		"already exists",
		"please commit your changes or stash them",
	}},
	{NetworkUnavailable, []string{
		"could not resolve host",
		"unable to access",
		"could not read from remote repository",
		"connection refused",
		"connection timed out",
		"network is unreachable",
		"operation timed out",
	}},
}

func classify(op string, err error) *BackendError {
	var berr *BackendError
	if errors.As(err, &berr) {
		return berr
	}
	out := &BackendError{Kind: OperationFailed, Op: op, Message: err.Error(), Err: err}

	var cmdErr *gitbackend.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		out.Message = firstLine(cmdErr.Stderr)
		out.Kind = kindFromStderr(cmdErr.Stderr)
		return out
	}

	switch {
	case errors.Is(err, gitlib.ErrRepositoryNotExists):
		out.Kind = NotARepository
	case errors.Is(err, os.ErrPermission):
		out.Kind = PermissionDenied
	case errors.Is(err, gitlib.ErrUnstagedChanges),
		errors.Is(err, gitlib.ErrWorktreeNotClean),
		errors.Is(err, gitlib.ErrBranchExists):
		out.Kind = Conflict
	default:
		out.Kind = kindFromStderr(err.Error())
	}
	return out
}

func kindFromStderr(stderr string) ErrorKind {
	lower := strings.ToLower(stderr)
	for _, entry := range stderrKinds {
		for _, needle := range entry.needles {
			if strings.Contains(lower, needle) {
				return entry.kind
			}
		}
	}
	return OperationFailed
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
