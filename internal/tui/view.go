package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func (m *Model) View() string {
	snap := m.store.Snapshot()
	width, height := max(m.width, 20), max(m.height, 5)
	bodyHeight := height - 3

	var body string
	top := m.stack[len(m.stack)-1]
	if top.Modal() {
		body = lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, top.View(snap, width, bodyHeight))
	} else {
		body = m.tabView(width, bodyHeight)
	}
	body = lipgloss.NewStyle().
		Width(width).MaxWidth(width).
		Height(bodyHeight).MaxHeight(bodyHeight).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabBar(width),
		body,
		m.statusLine(width),
		m.commandBar(top, width),
	)
}

func (m *Model) tabView(width, height int) string {
	snap := m.store.Snapshot()
	if m.tab != tabStatus {
		return m.base(m.tab).View(snap, width, height)
	}
	left := max(width*2/5, 20)
	right := max(width-left-1, 1)
	list := lipgloss.NewStyle().Width(left).MaxWidth(left).Height(height).MaxHeight(height).
		Render(m.statusList.View(snap, left, height))
	diff := m.st.pane.Width(right).MaxWidth(right + 1).Height(height).MaxHeight(height).
		Render(m.diffPane.View(snap, right, height))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, diff)
}

func (m *Model) tabBar(width int) string {
	parts := make([]string, 0, len(tabNames)+1)
	for i, name := range tabNames {
		label := "[" + string(rune('1'+i)) + "] " + name
		if i == m.tab {
			parts = append(parts, m.st.activeTab.Render(label))
		} else {
			parts = append(parts, m.st.tab.Render(label))
		}
	}
	bar := strings.Join(parts, "")
	if head := m.store.Snapshot().Status().Head; head != "" {
		bar += m.st.subtle.Render("  " + head)
	}
	return ansi.Truncate(bar, width, "")
}

func (m *Model) statusLine(width int) string {
	var parts []string
	if m.mutation != nil {
		parts = append(parts, m.st.busy.Render("running "+m.mutation.Name()+"…"))
	}
	if n := m.queue.Len(); n > 0 && m.mutation == nil {
		parts = append(parts, m.st.subtle.Render(fmt.Sprintf("loading (%d)…", n)))
	}
	if m.notice != "" && m.now().Sub(m.noticeAt) < noticeTTL {
		parts = append(parts, m.st.notice.Render(m.notice))
	}
	return ansi.Truncate(strings.Join(parts, "  "), width, "…")
}

// commandBar lists the bindings of the focused component followed by the
// global ones. Disabled bindings stay visible, dimmed.
func (m *Model) commandBar(top Component, width int) string {
	snap := m.store.Snapshot()
	bindings := top.Bindings(snap)
	if !top.Modal() {
		bindings = append(bindings, m.globalBindings()...)
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, m.renderBinding(b))
	}
	return ansi.Truncate(strings.Join(parts, m.st.subtle.Render(" • ")), width, "…")
}

func (m *Model) renderBinding(b key.Binding) string {
	h := b.Help()
	if b.Enabled() {
		return m.st.keyOn.Render(h.Key) + " " + h.Desc
	}
	return m.st.keyOff.Render(h.Key + " " + h.Desc)
}
