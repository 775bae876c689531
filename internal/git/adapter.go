// Package git is the synchronous facade the job engine runs against. Every
// repository operation is described by a Request value and answered by a
// Response value or a *BackendError.
package git

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gitbackend "github.com/thiagokokada/gitui-go/internal/git/backend"
)

const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Adapter executes requests against one repository. Read requests may run
// concurrently; mutating requests must be serialized by the caller.
type Adapter struct {
	backend gitbackend.Backend
}

// Open resolves repoPath to its top level and selects the backend
// implementation by name.
func Open(repoPath, kind string) (*Adapter, error) {
	var (
		b   gitbackend.Backend
		err error
	)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendCLI:
		b, err = gitbackend.OpenCLI(repoPath)
	case BackendNative:
		b, err = gitbackend.OpenNative(repoPath)
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", kind, BackendCLI, BackendNative)
	}
	if err != nil {
		return nil, classify("open", err)
	}
	return NewWithBackend(b), nil
}

func NewWithBackend(b gitbackend.Backend) *Adapter {
	return &Adapter{backend: b}
}

func (a *Adapter) RepoPath() string {
	if a == nil || a.backend == nil {
		return ""
	}
	return a.backend.RepoPath()
}

// Execute runs req and blocks until the backend answers. Context errors are
// returned unwrapped so callers can tell cancellation from failure.
func (a *Adapter) Execute(ctx context.Context, req Request) (Response, error) {
	if a == nil || a.backend == nil || a.backend.RepoPath() == "" {
		return nil, &BackendError{Kind: NotARepository, Op: req.Name(), Message: "repository root not set"}
	}
	start := time.Now()
	resp, err := req.run(ctx, a.backend)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		berr := classify(req.Name(), err)
		slog.Debug("git request failed",
			slog.String("request", req.Name()),
			slog.String("resource", req.Resource()),
			slog.String("kind", berr.Kind.String()),
			slog.Any("error", err),
		)
		return nil, berr
	}
	slog.Debug("git request done",
		slog.String("request", req.Name()),
		slog.String("resource", req.Resource()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func GitVersion() (string, error) {
	return gitbackend.GitVersion()
}

func MinGitVersion() string {
	return gitbackend.MinGitVersion()
}
