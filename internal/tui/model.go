// Package tui is the terminal front end. Model is the bubbletea model and
// the only writer of the state store: key presses, job results, ticks and
// watcher events all arrive as messages on the program's goroutine.
package tui

import (
	"log/slog"
	"slices"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitui-go/internal/config"
	"github.com/thiagokokada/gitui-go/internal/debounce"
	"github.com/thiagokokada/gitui-go/internal/git"
	"github.com/thiagokokada/gitui-go/internal/jobs"
	"github.com/thiagokokada/gitui-go/internal/keys"
	"github.com/thiagokokada/gitui-go/internal/state"
)

const (
	tabStatus = iota
	tabLog
	tabBranches
	tabStashes
)

var tabNames = []string{"Status", "Log", "Branches", "Stashes"}

const noticeTTL = 4 * time.Second

type Options struct {
	Workers            int
	LogPageSize        int
	TickInterval       time.Duration
	AutoReload         bool
	AutoReloadDebounce time.Duration
	// DiffDebounce delays diff loads while the status cursor moves; zero
	// loads on every move.
	DiffDebounce    time.Duration
	GenerationLimit uint64
	SyntaxHighlight bool
	Theme           ThemePreference
	Keys            keys.KeyMap
	// Clipboard receives copied text; nil means the system clipboard.
	Clipboard func(string) error
}

func DefaultOptions() Options {
	opts, _ := OptionsFromConfig(config.Defaults())
	return opts
}

// OptionsFromConfig maps the user configuration onto Options, applying key
// overrides.
func OptionsFromConfig(cfg config.Config) (Options, error) {
	km, err := keys.DefaultKeyMap().WithOverrides(cfg.Keys)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Workers:            cfg.Workers,
		LogPageSize:        cfg.LogPageSize,
		TickInterval:       cfg.TickInterval,
		AutoReload:         cfg.AutoReload,
		AutoReloadDebounce: cfg.AutoReloadDebounce,
		DiffDebounce:       cfg.DiffDebounce,
		GenerationLimit:    cfg.GenerationLimit,
		SyntaxHighlight:    cfg.SyntaxHighlight,
		Theme:              ThemePreferenceFromString(cfg.Theme),
		Keys:               km,
	}, nil
}

type Model struct {
	opts    Options
	keys    *keys.KeyMap
	st      *styles
	adapter *git.Adapter
	queue   *jobs.Queue
	store   *state.Store
	watcher *repoWatcher

	// diff loads waiting for the cursor to rest; pendingDiff is only
	// touched by Update
	diffDebounce *debounce.Debouncer
	diffDue      chan struct{}
	pendingDiff  *OpenDiff

	statusList *StatusList
	diffPane   *DiffPane
	logPane    *LogPane
	branchList *BranchList
	stashList  *StashList

	tab int
	// stack is the focus stack: the active tab's base component first,
	// popups above it.
	stack []Component

	width, height int

	// mutation is the repository write whose result has not been applied
	// yet; nil when the mutation lane is free.
	mutation git.Request

	notice   string
	noticeAt time.Time
	now      func() time.Time
}

func New(adapter *git.Adapter, opts Options) *Model {
	if opts.LogPageSize <= 0 {
		opts.LogPageSize = git.DefaultLogPage
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = config.Defaults().TickInterval
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	st := newStyles(paletteForPreference(opts.Theme))
	var hl *highlighter
	if opts.SyntaxHighlight {
		hl = newHighlighter(st.palette)
	}
	m := &Model{
		opts:    opts,
		st:      &st,
		adapter: adapter,
		queue:   jobs.New(opts.Workers, jobs.NewTracker(opts.GenerationLimit)),
		store:   state.New(),
		width:   80,
		height:  24,
		now:     time.Now,
		diffDue: make(chan struct{}, 1),
	}
	m.keys = &m.opts.Keys
	m.statusList = NewStatusList(m.keys, m.st)
	m.diffPane = NewDiffPane(m.keys, m.st, hl)
	m.logPane = NewLogPane(m.keys, m.st)
	m.branchList = NewBranchList(m.keys, m.st)
	m.stashList = NewStashList(m.keys, m.st)
	m.stack = []Component{m.statusList}
	m.syncFocus()
	return m
}

// Snapshot is the state the next View will draw.
func (m *Model) Snapshot() *state.Snapshot { return m.store.Snapshot() }

// FocusPath lists the IDs on the focus stack, bottom first.
func (m *Model) FocusPath() []string {
	ids := make([]string, len(m.stack))
	for i, c := range m.stack {
		ids[i] = c.ID()
	}
	return ids
}

// Close stops the watcher and the job queue. Outstanding jobs are
// cancelled.
func (m *Model) Close() error {
	var err error
	if m.watcher != nil {
		err = m.watcher.Close()
	}
	if m.diffDebounce != nil {
		m.diffDebounce.Stop()
	}
	m.queue.Close()
	return err
}

type resultMsg struct {
	jobs.Result
}

type tickMsg time.Time

type repoChangedMsg struct{}

// diffDueMsg means the status cursor rested long enough to load its diff.
type diffDueMsg struct{}

type clipboardMsg struct {
	text string
	err  error
}

func listenResults(ch <-chan jobs.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return resultMsg{res}
	}
}

func listenDiffDue(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return diffDueMsg{}
	}
}

func listenWatcher(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return repoChangedMsg{}
	}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	m.refreshAll()
	cmds := []tea.Cmd{listenResults(m.queue.Results()), listenDiffDue(m.diffDue), m.tickCmd()}
	if m.opts.AutoReload {
		w, err := startWatcher(m.adapter.RepoPath(), m.opts.AutoReloadDebounce)
		if err != nil {
			slog.Error("auto reload disabled", slog.Any("error", err))
		} else {
			m.watcher = w
			cmds = append(cmds, listenWatcher(w.Events()))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case resultMsg:
		m.handleResult(msg.Result)
		return m, listenResults(m.queue.Results())
	case diffDueMsg:
		m.flushPendingDiff()
		return m, listenDiffDue(m.diffDue)
	case tickMsg:
		m.onTick()
		return m, m.tickCmd()
	case repoChangedMsg:
		slog.Debug("repository changed on disk")
		m.refreshAll()
		if m.watcher == nil {
			return m, nil
		}
		return m, listenWatcher(m.watcher.Events())
	case clipboardMsg:
		if msg.err != nil {
			slog.Error("copy to clipboard", slog.Any("error", msg.err))
			m.notify("clipboard unavailable: " + msg.err.Error())
		} else {
			m.notify("copied " + shortHash(msg.text))
		}
		return m, nil
	}
	return m, nil
}

// onTick refreshes the status unless a status read is already on its way.
func (m *Model) onTick() {
	if m.queue.Outstanding(jobs.Key(git.ResourceStatus)) {
		return
	}
	m.submit(git.GetStatus{})
}

func (m *Model) refreshAll() {
	m.submit(git.GetStatus{})
	m.submit(git.GetBranches{})
	m.submit(git.GetStashes{})
	m.loadLog(0)
}

func (m *Model) notify(text string) {
	m.notice = text
	m.noticeAt = m.now()
}

func (m *Model) syncFocus() {
	path := m.FocusPath()
	if slices.Equal(path, m.store.Snapshot().Focus()) {
		return
	}
	m.store.Apply(state.SetFocus{Path: path})
}

func (m *Model) base(tab int) Component {
	switch tab {
	case tabLog:
		return m.logPane
	case tabBranches:
		return m.branchList
	case tabStashes:
		return m.stashList
	default:
		return m.statusList
	}
}

func (m *Model) switchTab(tab int) {
	tab = (tab + len(tabNames)) % len(tabNames)
	m.tab = tab
	m.stack = []Component{m.base(tab)}
}
