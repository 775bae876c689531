package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitui-go/internal/debounce"
	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/jobs"
	"github.com/thiagokokada/gitui-go/internal/state"
)

// handleKey offers msg to the focus stack from the top down. A modal
// component ends the walk whether or not it consumed the key; global keys
// are tried last.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	snap := m.store.Snapshot()
	for i := len(m.stack) - 1; i >= 0; i-- {
		c := m.stack[i]
		consumed, cmds := c.HandleKey(msg, snap)
		if consumed {
			return m.run(cmds)
		}
		if c.Modal() {
			return nil
		}
	}
	return m.run(m.globalKey(msg))
}

func (m *Model) globalKey(msg tea.KeyMsg) []Command {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return []Command{Quit{}}
	case key.Matches(msg, m.keys.Help):
		return []Command{PushPopup{Component: NewHelpOverlay(m.keys, m.st, m.helpGroups())}}
	case key.Matches(msg, m.keys.NextTab):
		return []Command{SwitchTab{Tab: m.tab + 1}}
	case key.Matches(msg, m.keys.PrevTab):
		return []Command{SwitchTab{Tab: m.tab - 1}}
	case key.Matches(msg, m.keys.Tab1):
		return []Command{SwitchTab{Tab: tabStatus}}
	case key.Matches(msg, m.keys.Tab2):
		return []Command{SwitchTab{Tab: tabLog}}
	case key.Matches(msg, m.keys.Tab3):
		return []Command{SwitchTab{Tab: tabBranches}}
	case key.Matches(msg, m.keys.Tab4):
		return []Command{SwitchTab{Tab: tabStashes}}
	case key.Matches(msg, m.keys.Refresh):
		return []Command{Refresh{}}
	case key.Matches(msg, m.keys.Fetch):
		return []Command{Submit{Request: git.Fetch{}}}
	}
	return nil
}

func (m *Model) globalBindings() []key.Binding {
	return []key.Binding{
		m.keys.NextTab,
		m.keys.Refresh,
		enabled(m.keys.Fetch, m.mutation == nil),
		m.keys.Help,
		m.keys.Quit,
	}
}

func (m *Model) helpGroups() []HelpGroup {
	snap := m.store.Snapshot()
	return []HelpGroup{
		{Title: "Global", Bindings: []key.Binding{
			m.keys.Quit, m.keys.Help, m.keys.NextTab, m.keys.PrevTab,
			m.keys.Tab1, m.keys.Tab2, m.keys.Tab3, m.keys.Tab4,
			m.keys.Refresh, m.keys.Fetch,
		}},
		{Title: "Navigation", Bindings: []key.Binding{
			m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown, m.keys.Home, m.keys.End,
		}},
		{Title: "Status", Bindings: m.statusList.Bindings(snap)},
		{Title: "Diff", Bindings: m.diffPane.Bindings(snap)},
		{Title: "Log", Bindings: m.logPane.Bindings(snap)},
		{Title: "Branches", Bindings: []key.Binding{
			m.keys.Checkout, m.keys.NewBranch, m.keys.DeleteBranch, m.keys.Filter,
		}},
		{Title: "Stashes", Bindings: m.stashList.Bindings(snap)},
		{Title: "Popups", Bindings: []key.Binding{m.keys.Confirm, m.keys.Cancel}},
	}
}

// run executes commands in order and returns the bubbletea commands they
// need.
func (m *Model) run(cmds []Command) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	var out []tea.Cmd
	for _, c := range cmds {
		switch c := c.(type) {
		case Submit:
			m.submit(c.Request)
		case OpenDiff:
			m.scheduleDiff(c)
		case LoadMoreLog:
			m.loadLog(m.store.Snapshot().Log().NextOffset())
		case PushPopup:
			m.stack = append(m.stack, c.Component)
		case Pop:
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		case FocusDiff:
			if m.tab == tabStatus && m.stack[len(m.stack)-1] == m.statusList {
				m.stack = append(m.stack, m.diffPane)
			}
		case SwitchTab:
			m.switchTab(c.Tab)
		case Notify:
			m.notify(c.Text)
		case CopyText:
			out = append(out, m.copyCmd(c.Text))
		case Refresh:
			m.refreshAll()
		case Quit:
			out = append(out, tea.Quit)
		}
	}
	m.syncFocus()
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return tea.Batch(out...)
}

func (m *Model) copyCmd(text string) tea.Cmd {
	write := m.opts.Clipboard
	return func() tea.Msg {
		return clipboardMsg{text: text, err: write(text)}
	}
}

// submit hands req to the job queue. While a repository write is waiting to
// be applied every further write is refused with a busy notice.
func (m *Model) submit(req git.Request) bool {
	if req.Mutating() && m.mutation != nil {
		m.notify("busy: " + m.mutation.Name() + " is still running")
		return false
	}
	invalidates := make([]jobs.Key, 0, len(req.Invalidates()))
	for _, r := range req.Invalidates() {
		invalidates = append(invalidates, jobs.Key(r))
	}
	adapter := m.adapter
	_, err := m.queue.Submit(jobs.Job{
		Kind:        req.Name(),
		Key:         jobs.Key(req.Resource()),
		Mutating:    req.Mutating(),
		Invalidates: invalidates,
		Run: func(ctx context.Context) (any, error) {
			return adapter.Execute(ctx, req)
		},
	})
	switch {
	case errors.Is(err, jobs.ErrBusy):
		m.notify("busy: another repository operation is running")
		return false
	case err != nil:
		slog.Error("submit job", slog.String("request", req.Name()), slog.Any("error", err))
		return false
	}
	if req.Mutating() {
		m.mutation = req
	}
	return true
}

// openDiff points the diff pane at k and loads it. The loaded content, if
// any, stays visible until the new one arrives.
func (m *Model) openDiff(k state.DiffKey, untracked bool) {
	m.diffPane.SetTarget(k)
	m.store.Apply(state.SetDiffLoading{Key: k, Loading: true})
	if !m.submit(git.GetDiff{Path: k.Path, Staged: k.Staged, Untracked: untracked}) {
		m.store.Apply(state.SetDiffLoading{Key: k, Loading: false})
	}
}

// scheduleDiff shows the target of c right away and loads it once the
// cursor has rested for DiffDebounce, so scrolling through the file list
// reads only the diff it stops on.
func (m *Model) scheduleDiff(c OpenDiff) {
	if m.opts.DiffDebounce <= 0 {
		m.openDiff(c.Key, c.Untracked)
		return
	}
	m.diffPane.SetTarget(c.Key)
	m.pendingDiff = &c
	due := m.diffDue
	debounce.Ensure(&m.diffDebounce, m.opts.DiffDebounce, func() {
		select {
		case due <- struct{}{}:
		default:
		}
	}).Trigger()
}

func (m *Model) flushPendingDiff() {
	c := m.pendingDiff
	m.pendingDiff = nil
	if c == nil {
		return
	}
	m.openDiff(c.Key, c.Untracked)
}

// refreshSelectedDiff reloads the diff under the status cursor unless a
// read for it is already running and will still be current. A read made
// stale by a mutation is replaced.
func (m *Model) refreshSelectedDiff() {
	entry, ok := m.statusList.Selected(m.store.Snapshot())
	if !ok {
		return
	}
	k := state.DiffKey{Path: entry.Path, Staged: entry.Staged}
	if m.pendingDiff != nil && m.pendingDiff.Key == k {
		return
	}
	if m.queue.OutstandingCurrent(jobs.Key(k.Resource())) {
		m.diffPane.SetTarget(k)
		return
	}
	m.openDiff(k, entry.Kind == git.ChangeUntracked)
}

// loadLog requests the log page at offset. Offset zero reloads from the
// current HEAD; later pages continue the loaded ref and are skipped while
// another log read is running.
func (m *Model) loadLog(offset int) {
	if offset == 0 {
		m.submit(git.GetLog{Limit: m.opts.LogPageSize})
		return
	}
	log := m.store.Snapshot().Log()
	if !log.HasMore || m.queue.Outstanding(jobs.Key(git.ResourceLog)) {
		return
	}
	m.submit(git.GetLog{Ref: log.Ref, Offset: offset, Limit: m.opts.LogPageSize})
}

// handleResult applies a finished job. Results whose generation is no
// longer current for their key are dropped without a trace.
func (m *Model) handleResult(res jobs.Result) {
	if res.Mutating {
		m.handleMutationResult(res)
		return
	}
	if !m.queue.Tracker().IsCurrent(res.Key, res.Generation) {
		slog.Debug("stale result dropped",
			slog.String("key", string(res.Key)),
			slog.String("generation", res.Generation.String()),
		)
		return
	}
	if res.Err != nil {
		if jobs.Silent(res.Err) {
			return
		}
		m.store.Apply(state.SetError{Resource: string(res.Key), Message: errorMessage(res.Err)})
		return
	}

	switch p := res.Payload.(type) {
	case git.StatusResponse:
		m.applyStatus(p.Status)
	case git.DiffResponse:
		path, staged, ok := git.ParseDiffResource(string(res.Key))
		if !ok {
			return
		}
		m.store.Apply(state.UpsertDiff{Key: state.DiffKey{Path: path, Staged: staged}, Diff: p.Diff})
	case git.LogResponse:
		m.store.Apply(state.AppendLogPage{
			Ref:     p.Ref,
			Offset:  p.Offset,
			Commits: p.Commits,
			HasMore: p.HasMore,
			Labels:  p.Labels,
		})
	case git.BranchesResponse:
		m.store.Apply(state.ReplaceBranches{Branches: p.Branches})
	case git.StashesResponse:
		m.store.Apply(state.ReplaceStashes{Stashes: p.Stashes})
	default:
		slog.Warn("unexpected job payload", slog.String("kind", res.Kind))
	}
}

func (m *Model) applyStatus(st git.Status) {
	m.store.Apply(state.ReplaceStatus{Status: st})
	if log := m.store.Snapshot().Log(); log.Loaded && log.Ref != "" && st.Head != log.Ref {
		slog.Debug("HEAD moved, reloading log", slog.String("from", log.Ref), slog.String("to", st.Head))
		m.store.Apply(state.ResetLog{})
		m.loadLog(0)
	}
	m.refreshSelectedDiff()
}

func (m *Model) handleMutationResult(res jobs.Result) {
	req := m.mutation
	m.mutation = nil
	if req == nil {
		slog.Warn("mutation result without a pending request", slog.String("kind", res.Kind))
		return
	}
	switch {
	case res.Err == nil:
		if resp, ok := res.Payload.(git.MutationResponse); ok {
			m.notify(resp.Summary)
		}
	case jobs.Silent(res.Err):
	default:
		m.stack = append(m.stack, NewMessagePopup(m.keys, m.st, req.Name()+" failed", errorMessage(res.Err)))
		m.syncFocus()
	}
	// a failed write may still have changed something
	m.reloadInvalidated(req.Invalidates())
}

func (m *Model) reloadInvalidated(resources []string) {
	for _, r := range resources {
		switch r {
		case git.ResourceStatus:
			m.submit(git.GetStatus{})
		case git.ResourceLog:
			m.loadLog(0)
		case git.ResourceBranches:
			m.submit(git.GetBranches{})
		case git.ResourceStashes:
			m.submit(git.GetStashes{})
		default:
			if path, staged, ok := git.ParseDiffResource(r); ok {
				m.store.Apply(state.EvictDiff{Key: state.DiffKey{Path: path, Staged: staged}})
			}
		}
	}
}

// errorMessage is the text shown for a failed job.
func errorMessage(err error) string {
	var berr *git.BackendError
	if errors.As(err, &berr) {
		msg := berr.Message
		if msg == "" && berr.Err != nil {
			msg = berr.Err.Error()
		}
		if berr.Kind != git.OperationFailed {
			return berr.Kind.String() + ": " + msg
		}
		return msg
	}
	var jerr *jobs.Error
	if errors.As(err, &jerr) {
		return jerr.Err.Error()
	}
	return err.Error()
}
