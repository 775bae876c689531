package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// parseUnifiedDiff splits unified diff text into numbered lines. Lines
// before the first hunk header are reported as OriginHeader.
func parseUnifiedDiff(path string, staged bool, text string) Diff {
	d := Diff{Path: path, Staged: staged}
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return d
	}
	var oldNo, newNo int
	inHunk := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "diff --git "):
			inHunk = false
			d.Lines = append(d.Lines, DiffLine{Origin: OriginHeader, Content: line})
		case strings.HasPrefix(line, "@@"):
			oldNo, newNo = parseHunkHeader(line)
			inHunk = true
			d.Lines = append(d.Lines, DiffLine{Origin: OriginHunk, Content: line})
		case !inHunk:
			if strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "(binary files differ)") {
				d.Binary = true
			}
			d.Lines = append(d.Lines, DiffLine{Origin: OriginHeader, Content: line})
		case strings.HasPrefix(line, "+"):
			d.Lines = append(d.Lines, DiffLine{Origin: OriginAdd, Content: line[1:], NewLine: newNo})
			newNo++
		case strings.HasPrefix(line, "-"):
			d.Lines = append(d.Lines, DiffLine{Origin: OriginRemove, Content: line[1:], OldLine: oldNo})
			oldNo++
		case strings.HasPrefix(line, `\`):
			d.Lines = append(d.Lines, DiffLine{Origin: OriginHeader, Content: line})
		default:
			content := line
			if content != "" && content[0] == ' ' {
				content = content[1:]
			}
			d.Lines = append(d.Lines, DiffLine{Origin: OriginContext, Content: content, OldLine: oldNo, NewLine: newNo})
			oldNo++
			newNo++
		}
	}
	return d
}

// parseHunkHeader returns the starting old and new line numbers of
// "@@ -a,b +c,d @@".
func parseHunkHeader(line string) (int, int) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, 0
	}
	return hunkStart(fields[1], '-'), hunkStart(fields[2], '+')
}

func hunkStart(field string, sign byte) int {
	if field == "" || field[0] != sign {
		return 0
	}
	field = field[1:]
	if idx := strings.IndexByte(field, ','); idx >= 0 {
		field = field[:idx]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return n
}

// HunkStarts returns the index in Lines of every hunk header.
func (d Diff) HunkStarts() []int {
	var starts []int
	for i, l := range d.Lines {
		if l.Origin == OriginHunk {
			starts = append(starts, i)
		}
	}
	return starts
}

// HunkPatch renders the file header and the hunk-th hunk of d as a patch
// that git apply accepts.
func (d Diff) HunkPatch(hunk int) (string, error) {
	if d.Binary {
		return "", fmt.Errorf("%s: binary files have no hunks", d.Path)
	}
	starts := d.HunkStarts()
	if hunk < 0 || hunk >= len(starts) {
		return "", fmt.Errorf("%s: no hunk %d", d.Path, hunk)
	}
	var b strings.Builder
	header := d.Lines[:starts[0]]
	if !hasFileHeader(header) {
		fmt.Fprintf(&b, "--- a/%s\n+++ b/%s\n", d.Path, d.Path)
	}
	for _, l := range header {
		b.WriteString(l.Content)
		b.WriteByte('\n')
	}
	end := len(d.Lines)
	if hunk+1 < len(starts) {
		end = starts[hunk+1]
	}
	for _, l := range d.Lines[starts[hunk]:end] {
		switch l.Origin {
		case OriginAdd:
			b.WriteByte('+')
		case OriginRemove:
			b.WriteByte('-')
		case OriginContext:
			b.WriteByte(' ')
		}
		b.WriteString(l.Content)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func hasFileHeader(lines []DiffLine) bool {
	for _, l := range lines {
		if strings.HasPrefix(l.Content, "+++ ") {
			return true
		}
	}
	return false
}
