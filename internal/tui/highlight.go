//go:build !nosyntaxhighlight

package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// highlighter colours diff content one line at a time. Lexers are cached by
// path.
type highlighter struct {
	style  *chroma.Style
	lexers map[string]chroma.Lexer
}

func newHighlighter(p colorPalette) *highlighter {
	return &highlighter{
		style:  styleForPalette(p),
		lexers: map[string]chroma.Lexer{},
	}
}

// render returns code styled with base plus the syntax colours of the
// language guessed from path.
func (h *highlighter) render(path, code string, base lipgloss.Style) string {
	if h == nil || h.style == nil || code == "" || path == "" {
		return base.Render(code)
	}
	iterator, err := h.lexerForPath(path).Tokenise(nil, code)
	if err != nil {
		return base.Render(code)
	}
	var b strings.Builder
	for _, token := range iterator.Tokens() {
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}
		st := base
		if color := colorFromEntry(h.style.Get(token.Type)); color != "" {
			st = st.Foreground(lipgloss.Color(color))
		}
		b.WriteString(st.Render(value))
	}
	return b.String()
}

func (h *highlighter) lexerForPath(path string) chroma.Lexer {
	if lexer, ok := h.lexers[path]; ok {
		return lexer
	}
	lexer := lexerForPath(path)
	h.lexers[path] = lexer
	return lexer
}

func styleForPalette(p colorPalette) *chroma.Style {
	name := "github"
	if p.Dark {
		name = "github-dark"
	}
	if st := chromastyles.Get(name); st != nil {
		return st
	}
	return chromastyles.Fallback
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if entry.Colour.IsSet() {
		col := entry.Colour.String()
		col = strings.TrimPrefix(strings.ToLower(col), "#")
		return "#" + col
	}
	return ""
}

func lexerForPath(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
