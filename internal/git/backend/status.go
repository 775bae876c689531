package backend

import (
	"io"
	"strings"
)

// parseStatusPorcelainV2 parses `git status --porcelain=v2 --branch -z`.
func parseStatusPorcelainV2(r io.Reader) (Status, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Status{}, err
	}
	st := Status{Head: "HEAD"}
	records := strings.Split(string(data), "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 2 {
			continue
		}
		switch rec[0] {
		case '#':
			parseBranchHeader(&st, rec)
		case '1':
			fields := strings.SplitN(rec, " ", 9)
			if len(fields) < 9 {
				continue
			}
			st.Files = appendChanges(st.Files, fields[1], fields[8], "")
		case '2':
			fields := strings.SplitN(rec, " ", 10)
			if len(fields) < 10 {
				continue
			}
			// The rename source follows as its own NUL-terminated record.
			orig := ""
			if i+1 < len(records) {
				i++
				orig = records[i]
			}
			st.Files = appendChanges(st.Files, fields[1], fields[9], orig)
		case 'u':
			fields := strings.SplitN(rec, " ", 11)
			if len(fields) < 11 {
				continue
			}
			st.Files = append(st.Files, FileEntry{Path: fields[10], Kind: ChangeConflicted})
		case '?':
			st.Files = append(st.Files, FileEntry{Path: rec[2:], Kind: ChangeUntracked})
		default:
			// '!' ignored
		}
	}
	return st, nil
}

func parseBranchHeader(st *Status, rec string) {
	const headPrefix = "# branch.head "
	if !strings.HasPrefix(rec, headPrefix) {
		return
	}
	head := strings.TrimSpace(strings.TrimPrefix(rec, headPrefix))
	if head == "" || head == "(detached)" {
		st.Head = "HEAD"
		st.Detached = true
		return
	}
	st.Head = head
}

func appendChanges(files []FileEntry, xy, path, orig string) []FileEntry {
	if len(xy) != 2 || path == "" {
		return files
	}
	if x := xy[0]; x != '.' {
		entry := FileEntry{Path: path, Kind: kindFromStatusCode(x), Staged: true}
		if x == 'R' || x == 'C' {
			entry.OrigPath = orig
		}
		files = append(files, entry)
	}
	if y := xy[1]; y != '.' {
		files = append(files, FileEntry{Path: path, Kind: kindFromStatusCode(y)})
	}
	return files
}

func kindFromStatusCode(c byte) ChangeKind {
	switch c {
	case 'A', 'C':
		return ChangeAdded
	case 'D':
		return ChangeDeleted
	case 'R':
		return ChangeRenamed
	case 'U':
		return ChangeConflicted
	case '?':
		return ChangeUntracked
	default:
		return ChangeModified
	}
}
