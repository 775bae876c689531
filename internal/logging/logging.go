// Package logging routes slog output to a file, since the terminal belongs
// to the bubbletea program while it runs.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Setup opens path for appending through tea.LogToFile and installs a text
// slog handler on it as the default logger. Debug records are kept only
// when verbose is set. The returned closer flushes and closes the file.
func Setup(path string, verbose bool) (io.Closer, error) {
	f, err := tea.LogToFile(path, "gitui-go")
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	slog.SetDefault(New(f, verbose))
	return f, nil
}

// New builds the logger used by Setup on an arbitrary writer.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
