package backend

import (
	"errors"
	"strings"
	"testing"
)

func TestParseStatusPorcelainV2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       []string
		head     string
		detached bool
		want     []FileEntry
	}{
		{name: "empty", in: nil, head: "HEAD"},
		{
			name: "branch_header",
			in:   []string{"# branch.oid abcdef0", "# branch.head main"},
			head: "main",
		},
		{
			name:     "detached",
			in:       []string{"# branch.head (detached)"},
			head:     "HEAD",
			detached: true,
		},
		{
			name: "worktree_only",
			in:   []string{"1 .M N... 100644 100644 100644 abcdef0 abcdef0 path.txt"},
			head: "HEAD",
			want: []FileEntry{{Path: "path.txt", Kind: ChangeModified}},
		},
		{
			name: "staged_and_worktree",
			in:   []string{"1 AM N... 000000 100644 100644 0000000 abcdef0 dir/new file.txt"},
			head: "HEAD",
			want: []FileEntry{
				{Path: "dir/new file.txt", Kind: ChangeAdded, Staged: true},
				{Path: "dir/new file.txt", Kind: ChangeModified},
			},
		},
		{
			name: "rename",
			in:   []string{"2 R. N... 100644 100644 100644 abcdef0 abcdef0 R100 new.txt", "old.txt"},
			head: "HEAD",
			want: []FileEntry{{Path: "new.txt", OrigPath: "old.txt", Kind: ChangeRenamed, Staged: true}},
		},
		{
			name: "unmerged",
			in:   []string{"u UU N... 100644 100644 100644 100644 abcdef0 abcdef0 abcdef0 conflict.txt"},
			head: "HEAD",
			want: []FileEntry{{Path: "conflict.txt", Kind: ChangeConflicted}},
		},
		{
			name: "untracked_and_ignored",
			in:   []string{"? untracked.txt", "! ignored.txt"},
			head: "HEAD",
			want: []FileEntry{{Path: "untracked.txt", Kind: ChangeUntracked}},
		},
		{
			name: "short_lines_ignored",
			in:   []string{"1", "1 .M", "?"},
			head: "HEAD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := ""
			if len(tt.in) > 0 {
				in = strings.Join(tt.in, "\x00") + "\x00"
			}
			got, err := parseStatusPorcelainV2(strings.NewReader(in))
			if err != nil {
				t.Fatalf("parseStatusPorcelainV2() error = %v", err)
			}
			if got.Head != tt.head || got.Detached != tt.detached {
				t.Fatalf("head = %q detached = %v, want %q %v", got.Head, got.Detached, tt.head, tt.detached)
			}
			if len(got.Files) != len(tt.want) {
				t.Fatalf("files = %+v, want %+v", got.Files, tt.want)
			}
			for i := range tt.want {
				if got.Files[i] != tt.want[i] {
					t.Fatalf("files[%d] = %+v, want %+v", i, got.Files[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseStatusPorcelainV2_Error(t *testing.T) {
	t.Parallel()

	_, err := parseStatusPorcelainV2(failingReader{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseUnifiedDiff(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"diff --git a/a.txt b/a.txt",
		"index 1111111..2222222 100644",
		"--- a/a.txt",
		"+++ b/a.txt",
		"@@ -3,3 +3,3 @@ func x()",
		" keep",
		"-old",
		"+new",
		" tail",
		`\ No newline at end of file`,
		"",
	}, "\n")

	d := parseUnifiedDiff("a.txt", true, text)
	if d.Path != "a.txt" || !d.Staged || d.Binary {
		t.Fatalf("unexpected diff header: %+v", d)
	}
	want := []DiffLine{
		{Origin: OriginHeader, Content: "diff --git a/a.txt b/a.txt"},
		{Origin: OriginHeader, Content: "index 1111111..2222222 100644"},
		{Origin: OriginHeader, Content: "--- a/a.txt"},
		{Origin: OriginHeader, Content: "+++ b/a.txt"},
		{Origin: OriginHunk, Content: "@@ -3,3 +3,3 @@ func x()"},
		{Origin: OriginContext, Content: "keep", OldLine: 3, NewLine: 3},
		{Origin: OriginRemove, Content: "old", OldLine: 4},
		{Origin: OriginAdd, Content: "new", NewLine: 4},
		{Origin: OriginContext, Content: "tail", OldLine: 5, NewLine: 5},
		{Origin: OriginHeader, Content: `\ No newline at end of file`},
	}
	if len(d.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(d.Lines), len(want), d.Lines)
	}
	for i := range want {
		if d.Lines[i] != want[i] {
			t.Fatalf("line %d = %+v, want %+v", i, d.Lines[i], want[i])
		}
	}
}

func TestParseUnifiedDiff_BinaryAndEmpty(t *testing.T) {
	t.Parallel()

	d := parseUnifiedDiff("img.png", false, "diff --git a/img.png b/img.png\nBinary files a/img.png and b/img.png differ\n")
	if !d.Binary {
		t.Fatalf("expected binary diff, got %+v", d)
	}
	empty := parseUnifiedDiff("a.txt", false, "\n")
	if len(empty.Lines) != 0 || empty.Binary {
		t.Fatalf("expected empty diff, got %+v", empty)
	}
}

func TestParseGitLogRecord(t *testing.T) {
	t.Parallel()

	rec := []byte(strings.Join([]string{
		"abc123",
		"p1 p2",
		"Alice",
		"alice@example.com",
		"2024-01-02T03:04:05Z",
		"Bob",
		"bob@example.com",
		"2024-01-03T03:04:05+02:00",
		"subject line\n\nbody",
	}, "\n"))

	c, err := parseGitLogRecord(rec)
	if err != nil {
		t.Fatalf("parseGitLogRecord() error = %v", err)
	}
	if c.Hash != "abc123" || len(c.ParentHashes) != 2 || c.ParentHashes[1] != "p2" {
		t.Fatalf("unexpected commit: %+v", c)
	}
	if c.Author.Name != "Alice" || c.Committer.Email != "bob@example.com" {
		t.Fatalf("unexpected signatures: %+v", c)
	}
	if c.Author.When.Year() != 2024 || c.Committer.When.Day() != 3 {
		t.Fatalf("unexpected dates: %+v", c)
	}
	if c.Summary() != "subject line" {
		t.Fatalf("Summary() = %q", c.Summary())
	}
}

func TestParseGitLogRecord_Errors(t *testing.T) {
	t.Parallel()

	if _, err := parseGitLogRecord([]byte("abc\np\nname")); err == nil {
		t.Fatal("expected error for short record")
	}
	bad := []byte("abc\n\nA\na@x\nnot-a-date\nB\nb@x\n2024-01-02T03:04:05Z\nmsg")
	if _, err := parseGitLogRecord(bad); err == nil {
		t.Fatal("expected error for bad date")
	}
}

func TestParseStashList(t *testing.T) {
	t.Parallel()

	got := parseStashList("stash@{0}\tOn main: wip\x00stash@{1}\tWIP on main: abc msg\x00")
	if len(got) != 2 {
		t.Fatalf("got %d stashes, want 2", len(got))
	}
	if got[0].Index != 0 || got[0].Message != "On main: wip" {
		t.Fatalf("stash 0 = %+v", got[0])
	}
	if got[1].Index != 1 || got[1].Ref() != "stash@{1}" {
		t.Fatalf("stash 1 = %+v", got[1])
	}
}

func TestParseRefsFromShowRef(t *testing.T) {
	t.Parallel()

	const (
		commit1 = "1111111111111111111111111111111111111111"
		commit2 = "2222222222222222222222222222222222222222"
		tagObj  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	)

	in := strings.Join([]string{
		commit1 + " refs/heads/main",
		commit1 + " refs/remotes/origin/main",
		commit2 + " refs/tags/v1.0",
		tagObj + " refs/tags/v2.0",
		commit1 + " refs/tags/v2.0^{}",
		commit1 + " refs/stash",
		"",
	}, "\n")

	got, err := parseRefsFromShowRef(in)
	if err != nil {
		t.Fatalf("parseRefsFromShowRef() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("unexpected ref count: got %d want 4", len(got))
	}

	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindBranch, Name: "main"})
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindRemoteBranch, Name: "origin/main"})
	assertHasRef(t, got, Ref{Hash: commit2, Kind: RefKindTag, Name: "v1.0"})
	// annotated tags resolve to the peeled commit
	assertHasRef(t, got, Ref{Hash: commit1, Kind: RefKindTag, Name: "v2.0"})
}

func TestParseRefsFromShowRef_InvalidLine(t *testing.T) {
	t.Parallel()

	_, err := parseRefsFromShowRef("refs/heads/main\n")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 128")
	err := error(&CommandError{Context: "git switch", Stderr: "fatal: invalid reference: nope", Err: inner})
	if !errors.Is(err, inner) {
		t.Fatal("expected CommandError to unwrap")
	}
	if !strings.Contains(err.Error(), "invalid reference") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("boom")
}

func assertHasRef(t *testing.T, refs []Ref, want Ref) {
	t.Helper()
	for _, got := range refs {
		if got == want {
			return
		}
	}
	t.Fatalf("missing ref: %+v (got=%+v)", want, refs)
}
