package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

const popupMaxWidth = 72

func popupWidth(width int) int {
	return max(min(width-4, popupMaxWidth), 20)
}

// CommitPopup asks for one line of text: a commit message, a branch name or
// a stash message.
type CommitPopup struct {
	keys       *keys.KeyMap
	st         *styles
	title      string
	input      textinput.Model
	allowEmpty bool
	submit     func(text string) []Command
}

func NewCommitPopup(km *keys.KeyMap, st *styles, title, placeholder string, allowEmpty bool, submit func(string) []Command) *CommitPopup {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = "> "
	input.CharLimit = 500
	_ = input.Cursor.SetMode(cursor.CursorStatic)
	_ = input.Focus()
	return &CommitPopup{
		keys:       km,
		st:         st,
		title:      title,
		input:      input,
		allowEmpty: allowEmpty,
		submit:     submit,
	}
}

func (p *CommitPopup) ID() string  { return "input" }
func (p *CommitPopup) Modal() bool { return true }

// Value is the text typed so far.
func (p *CommitPopup) Value() string { return p.input.Value() }

func (p *CommitPopup) HandleKey(msg tea.KeyMsg, _ *state.Snapshot) (bool, []Command) {
	switch {
	case key.Matches(msg, p.keys.Cancel):
		return true, []Command{Pop{}}
	case key.Matches(msg, p.keys.Confirm):
		text := strings.TrimSpace(p.input.Value())
		if text == "" && !p.allowEmpty {
			return true, []Command{Notify{Text: p.title + ": text must not be empty"}}
		}
		return true, append([]Command{Pop{}}, p.submit(text)...)
	}
	p.input, _ = p.input.Update(msg)
	return true, nil
}

func (p *CommitPopup) View(_ *state.Snapshot, width, _ int) string {
	w := popupWidth(width)
	p.input.Width = w - 6
	body := p.st.title.Render(p.title) + "\n\n" + p.input.View()
	return p.st.popup.Width(w).Render(body)
}

func (p *CommitPopup) Bindings(*state.Snapshot) []key.Binding {
	return []key.Binding{p.keys.Confirm, p.keys.Cancel}
}

// Choice is one answer of a ConfirmPopup. Key selects it directly.
type Choice struct {
	Key      string
	Label    string
	Commands []Command
}

// ConfirmPopup guards destructive actions. Confirm picks the highlighted
// choice, Cancel closes without running anything.
type ConfirmPopup struct {
	keys    *keys.KeyMap
	st      *styles
	title   string
	message string
	choices []Choice
	cursor  int
}

func NewConfirmPopup(km *keys.KeyMap, st *styles, title, message string, choices ...Choice) *ConfirmPopup {
	return &ConfirmPopup{keys: km, st: st, title: title, message: message, choices: choices}
}

func (p *ConfirmPopup) ID() string  { return "confirm" }
func (p *ConfirmPopup) Modal() bool { return true }

func (p *ConfirmPopup) HandleKey(msg tea.KeyMsg, _ *state.Snapshot) (bool, []Command) {
	switch {
	case key.Matches(msg, p.keys.Cancel):
		return true, []Command{Pop{}}
	case key.Matches(msg, p.keys.Confirm):
		return true, p.choose(p.cursor)
	case key.Matches(msg, p.keys.Up), msg.Type == tea.KeyLeft:
		p.cursor = clamp(p.cursor-1, len(p.choices))
		return true, nil
	case key.Matches(msg, p.keys.Down), msg.Type == tea.KeyRight:
		p.cursor = clamp(p.cursor+1, len(p.choices))
		return true, nil
	}
	for i, c := range p.choices {
		if c.Key != "" && msg.String() == c.Key {
			return true, p.choose(i)
		}
	}
	return true, nil
}

func (p *ConfirmPopup) choose(i int) []Command {
	if i < 0 || i >= len(p.choices) {
		return []Command{Pop{}}
	}
	return append([]Command{Pop{}}, p.choices[i].Commands...)
}

func (p *ConfirmPopup) View(_ *state.Snapshot, width, _ int) string {
	var b strings.Builder
	b.WriteString(p.st.title.Render(p.title))
	b.WriteString("\n\n")
	b.WriteString(p.message)
	b.WriteString("\n\n")
	for i, c := range p.choices {
		label := fmt.Sprintf(" [%s] %s ", c.Key, c.Label)
		if i == p.cursor {
			label = p.st.selected.Render(label)
		}
		b.WriteString(label)
	}
	return p.st.popup.Width(popupWidth(width)).Render(b.String())
}

func (p *ConfirmPopup) Bindings(*state.Snapshot) []key.Binding {
	return []key.Binding{p.keys.Confirm, p.keys.Cancel}
}

// MessagePopup shows a failure that has to be acknowledged.
type MessagePopup struct {
	keys    *keys.KeyMap
	st      *styles
	title   string
	message string
}

func NewMessagePopup(km *keys.KeyMap, st *styles, title, message string) *MessagePopup {
	return &MessagePopup{keys: km, st: st, title: title, message: message}
}

func (p *MessagePopup) ID() string  { return "message" }
func (p *MessagePopup) Modal() bool { return true }

func (p *MessagePopup) HandleKey(msg tea.KeyMsg, _ *state.Snapshot) (bool, []Command) {
	if key.Matches(msg, p.keys.Confirm) || key.Matches(msg, p.keys.Cancel) {
		return true, []Command{Pop{}}
	}
	return true, nil
}

func (p *MessagePopup) View(_ *state.Snapshot, width, _ int) string {
	w := popupWidth(width)
	body := p.st.errorText.Bold(true).Render(p.title) + "\n\n" +
		lipgloss.NewStyle().Width(w-4).Render(p.message)
	return p.st.popup.BorderForeground(p.st.palette.Error).Width(w).Render(body)
}

func (p *MessagePopup) Bindings(*state.Snapshot) []key.Binding {
	return []key.Binding{enabled(p.keys.Confirm, true)}
}

// HelpGroup is the set of bindings one component answers to.
type HelpGroup struct {
	Title    string
	Bindings []key.Binding
}

// HelpOverlay lists every binding grouped by component.
type HelpOverlay struct {
	keys   *keys.KeyMap
	st     *styles
	groups []HelpGroup
	help   help.Model
}

func NewHelpOverlay(km *keys.KeyMap, st *styles, groups []HelpGroup) *HelpOverlay {
	h := help.New()
	h.Styles.FullKey = st.keyOn
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(st.palette.Text)
	h.Styles.FullSeparator = st.subtle
	return &HelpOverlay{keys: km, st: st, groups: groups, help: h}
}

func (o *HelpOverlay) ID() string  { return "help" }
func (o *HelpOverlay) Modal() bool { return true }

func (o *HelpOverlay) HandleKey(msg tea.KeyMsg, _ *state.Snapshot) (bool, []Command) {
	if key.Matches(msg, o.keys.Help) || key.Matches(msg, o.keys.Cancel) || key.Matches(msg, o.keys.Quit) {
		return true, []Command{Pop{}}
	}
	return true, nil
}

func (o *HelpOverlay) View(_ *state.Snapshot, width, _ int) string {
	w := max(width-4, 20)
	o.help.Width = w - 4
	sections := make([]string, 0, len(o.groups))
	for _, g := range o.groups {
		sections = append(sections, o.st.title.Render(g.Title)+"\n"+o.help.FullHelpView(helpColumns(g.Bindings, 4)))
	}
	return o.st.popup.Width(w).Render(strings.Join(sections, "\n\n"))
}

func (o *HelpOverlay) Bindings(*state.Snapshot) []key.Binding {
	return []key.Binding{o.keys.Help, o.keys.Cancel}
}

// helpColumns splits bindings into columns of at most rows entries.
func helpColumns(bindings []key.Binding, rows int) [][]key.Binding {
	var cols [][]key.Binding
	for len(bindings) > 0 {
		n := min(rows, len(bindings))
		cols = append(cols, bindings[:n])
		bindings = bindings[n:]
	}
	return cols
}
