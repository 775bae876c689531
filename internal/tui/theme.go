package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	darkmode "github.com/thiagokokada/dark-mode-go"
)

type ThemePreference int

const (
	ThemeAuto ThemePreference = iota
	ThemeLight
	ThemeDark
)

func (p ThemePreference) String() string {
	switch p {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return "auto"
	}
}

func ThemePreferenceFromString(raw string) ThemePreference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ThemeDark.String():
		return ThemeDark
	case ThemeLight.String():
		return ThemeLight
	default:
		return ThemeAuto
	}
}

type colorPalette struct {
	Dark       bool
	Text       lipgloss.Color
	Subtle     lipgloss.Color
	Accent     lipgloss.Color
	Error      lipgloss.Color
	Selected   lipgloss.Color
	Border     lipgloss.Color
	DiffAdd    lipgloss.Color
	DiffDel    lipgloss.Color
	DiffHeader lipgloss.Color
	DiffHunk   lipgloss.Color
	Staged     lipgloss.Color
	Unstaged   lipgloss.Color
}

var (
	lightPalette = colorPalette{
		Text:       "#24292f",
		Subtle:     "#8c959f",
		Accent:     "#0969da",
		Error:      "#cf222e",
		Selected:   "#ddf4ff",
		Border:     "#d0d7de",
		DiffAdd:    "#dff5de",
		DiffDel:    "#f9d6d5",
		DiffHeader: "#e4e4e4",
		DiffHunk:   "#8250df",
		Staged:     "#1a7f37",
		Unstaged:   "#cf222e",
	}
	darkPalette = colorPalette{
		Dark:       true,
		Text:       "#e6edf3",
		Subtle:     "#7d8590",
		Accent:     "#58a6ff",
		Error:      "#ff7b72",
		Selected:   "#1f3a5f",
		Border:     "#30363d",
		DiffAdd:    "#1f3d2b",
		DiffDel:    "#3d1f29",
		DiffHeader: "#2f2f2f",
		DiffHunk:   "#d2a8ff",
		Staged:     "#3fb950",
		Unstaged:   "#f85149",
	}
	detectDarkMode = darkmode.IsDarkMode
)

func paletteForPreference(pref ThemePreference) colorPalette {
	switch pref {
	case ThemeDark:
		return darkPalette
	case ThemeLight:
		return lightPalette
	default:
		if detectDarkMode != nil {
			dark, err := detectDarkMode()
			if err == nil {
				if dark {
					return darkPalette
				}
				return lightPalette
			}
			slog.Debug("detect dark-mode", slog.Any("error", err))
		}
		// the desktop setting is unknown; ask the terminal instead
		if lipgloss.HasDarkBackground() {
			return darkPalette
		}
		return lightPalette
	}
}

// styles are the lipgloss styles derived from a palette.
type styles struct {
	palette colorPalette

	tab       lipgloss.Style
	activeTab lipgloss.Style
	title     lipgloss.Style
	subtle    lipgloss.Style
	errorText lipgloss.Style
	selected  lipgloss.Style
	staged    lipgloss.Style
	unstaged  lipgloss.Style
	label     lipgloss.Style
	hash      lipgloss.Style
	notice    lipgloss.Style
	busy      lipgloss.Style
	popup     lipgloss.Style
	pane      lipgloss.Style
	diffAdd   lipgloss.Style
	diffDel   lipgloss.Style
	diffHead  lipgloss.Style
	diffHunk  lipgloss.Style
	gutter    lipgloss.Style
	keyOn     lipgloss.Style
	keyOff    lipgloss.Style
}

func newStyles(p colorPalette) styles {
	return styles{
		palette:   p,
		tab:       lipgloss.NewStyle().Padding(0, 1).Foreground(p.Subtle),
		activeTab: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(p.Accent).Underline(true),
		title:     lipgloss.NewStyle().Bold(true).Foreground(p.Text),
		subtle:    lipgloss.NewStyle().Foreground(p.Subtle),
		errorText: lipgloss.NewStyle().Foreground(p.Error),
		selected:  lipgloss.NewStyle().Background(p.Selected).Foreground(p.Text),
		staged:    lipgloss.NewStyle().Foreground(p.Staged),
		unstaged:  lipgloss.NewStyle().Foreground(p.Unstaged),
		label:     lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		hash:      lipgloss.NewStyle().Foreground(p.DiffHunk),
		notice:    lipgloss.NewStyle().Foreground(p.Accent),
		busy:      lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 1),
		pane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(p.Border),
		diffAdd:  lipgloss.NewStyle().Background(p.DiffAdd),
		diffDel:  lipgloss.NewStyle().Background(p.DiffDel),
		diffHead: lipgloss.NewStyle().Background(p.DiffHeader).Bold(true),
		diffHunk: lipgloss.NewStyle().Foreground(p.DiffHunk),
		gutter:   lipgloss.NewStyle().Foreground(p.Subtle),
		keyOn:    lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		keyOff:   lipgloss.NewStyle().Foreground(p.Subtle).Faint(true),
	}
}
