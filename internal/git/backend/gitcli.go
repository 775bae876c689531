package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

type gitCLI struct {
	path string
}

// CommandError describes a failed git invocation. Stderr is kept separate so
// callers can classify the failure.
type CommandError struct {
	Context  string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Context, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func OpenCLI(repoPath string) (Backend, error) {
	return openCLI(repoPath)
}

func openCLI(repoPath string) (*gitCLI, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	tmp := &gitCLI{path: abs}
	root, err := tmp.runGitCommand(context.Background(), []string{"rev-parse", "--show-toplevel"}, false, "git rev-parse")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("open repository: git rev-parse returned empty root")
	}
	return &gitCLI{path: root}, nil
}

func (g *gitCLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *gitCLI) runGitCommand(ctx context.Context, args []string, allowExit1 bool, desc string) (string, error) {
	return g.runGitCommandInput(ctx, args, nil, allowExit1, desc)
}

// runGitCommandInput is runGitCommand with stdin connected to input.
func (g *gitCLI) runGitCommandInput(ctx context.Context, args []string, input io.Reader, allowExit1 bool, desc string) (string, error) {
	if g == nil || g.path == "" {
		return "", fmt.Errorf("repository root not set")
	}
	cmdArgs := append([]string{"-C", g.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	// Never block on an editor or credential prompt; the terminal belongs to the UI.
	// Reads must not rewrite the index, or the .git watcher would see them.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_EDITOR=true", "GIT_OPTIONAL_LOCKS=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdin = input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", desc, ctxErr)
		}
		var exitErr *exec.ExitError
		isExit := errors.As(err, &exitErr)
		if allowExit1 && isExit && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			// treat as success when git diff signals changes via exit code 1
		} else {
			cmdErr := &CommandError{
				Context: desc,
				Stderr:  strings.TrimSpace(stderr.String()),
				Err:     err,
			}
			if isExit {
				cmdErr.ExitCode = exitErr.ExitCode()
			}
			return "", cmdErr
		}
	}
	return stdout.String(), nil
}
