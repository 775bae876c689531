package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record written without verbose: %q", buf.String())
	}
	New(&buf, true).Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("verbose logger dropped debug record: %q", buf.String())
	}
}
