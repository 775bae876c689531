package backend

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

type gitVersion struct {
	major int
	minor int
	patch int
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

func (v gitVersion) less(other gitVersion) bool {
	if v.major != other.major {
		return v.major < other.major
	}
	if v.minor != other.minor {
		return v.minor < other.minor
	}
	return v.patch < other.patch
}

// gitFeature is a subcommand or flag the CLI backend runs and the release
// that introduced it.
type gitFeature struct {
	command string
	since   gitVersion
}

// gitFeatures must follow the invocations in gitcli_backend.go. Branch
// switching and restore of the index and worktree need 2.23.
var gitFeatures = []gitFeature{
	{command: "git status --porcelain=v2", since: gitVersion{2, 11, 0}},
	{command: "git stash push", since: gitVersion{2, 13, 0}},
	{command: "git switch", since: gitVersion{2, 23, 0}},
	{command: "git restore", since: gitVersion{2, 23, 0}},
}

// requiredGitVersion is the newest release any of features needs.
func requiredGitVersion(features []gitFeature) gitVersion {
	var req gitVersion
	for _, f := range features {
		if req.less(f.since) {
			req = f.since
		}
	}
	return req
}

func MinGitVersion() string {
	return requiredGitVersion(gitFeatures).String()
}

// missingGitFeature returns the first feature v predates.
func missingGitFeature(v gitVersion, features []gitFeature) (gitFeature, bool) {
	for _, f := range features {
		if v.less(f.since) {
			return f, true
		}
	}
	return gitFeature{}, false
}

// versionPattern matches the release in "git version 2.39.3 (Apple
// Git-146)" or "git version 2.45.1.windows.1".
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	s = strings.TrimSpace(strings.TrimPrefix(s, "git version"))
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return gitVersion{}, false
	}
	var v gitVersion
	var err error
	if v.major, err = strconv.Atoi(m[1]); err != nil {
		return gitVersion{}, false
	}
	if v.minor, err = strconv.Atoi(m[2]); err != nil {
		return gitVersion{}, false
	}
	if m[3] != "" {
		v.patch, _ = strconv.Atoi(m[3])
	}
	return v, true
}

// checkGitVersionOutput validates the output of git --version against
// features.
func checkGitVersionOutput(out string, features []gitFeature) error {
	v, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if f, missing := missingGitFeature(v, features); missing {
		return fmt.Errorf("git %s has no %s (added in %s); gitui-go requires git >= %s",
			v, f.command, f.since, requiredGitVersion(features))
	}
	return nil
}

type versionOutput struct {
	out string
	err error
}

// gitVersionOutput runs git --version once per process.
var gitVersionOutput = sync.OnceValue(func() versionOutput {
	outBytes, err := exec.Command("git", "--version").CombinedOutput()
	out := strings.TrimSpace(string(outBytes))
	switch {
	case err != nil && out != "":
		return versionOutput{out: out, err: fmt.Errorf("git --version: %v: %s", err, out)}
	case err != nil:
		return versionOutput{err: fmt.Errorf("git --version: %w", err)}
	}
	return versionOutput{out: out}
})

// GitVersion reports the output of git --version.
func GitVersion() (string, error) {
	p := gitVersionOutput()
	return p.out, p.err
}

func ensureMinGitVersion() error {
	p := gitVersionOutput()
	if p.err != nil {
		return p.err
	}
	return checkGitVersionOutput(p.out, gitFeatures)
}
