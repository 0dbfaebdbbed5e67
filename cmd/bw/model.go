package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
	"github.com/bmuenzenmeyer/buildwatch/internal/client"
	"github.com/bmuenzenmeyer/buildwatch/internal/config"
	"github.com/bmuenzenmeyer/buildwatch/internal/history"
)

// --- Messages ---

type pollTickMsg struct{}

type clockTickMsg struct{}

type buildsReadyMsg struct {
	builds []build.Build
	err    error
}

type buildReadyMsg struct {
	number       int
	plainRefresh bool
	build        *build.Build
	err          error
}

type logsReadyMsg struct {
	number int
	texts  map[int]string
	err    error
}

type historySavedMsg struct {
	err error
}

type configChangedMsg struct{}

// --- Views ---

type viewID int

const (
	viewBuilds viewID = iota
	viewBuild
)

func (v viewID) String() string {
	switch v {
	case viewBuilds:
		return "Builds"
	case viewBuild:
		return "Build"
	}
	return "?"
}

// chromeHeight is the number of lines around the step viewport: title
// bar, three-line build header, separator and status bar.
const chromeHeight = 6

// --- Model ---

// stepLayout records where each step landed in the rendered step list,
// so cursor movement and follow mode can scroll the viewport to it.
type stepLayout struct {
	header map[int]int // step number -> header line index
	logEnd map[int]int // step number -> last log line index
}

type uiModel struct {
	api     *client.Client
	logger  *slog.Logger
	hist    *history.History
	watcher *config.Watcher

	owner string
	name  string

	activeView viewID
	width      int
	height     int

	// Build list state.
	builds      []build.Build
	buildCursor int

	// Build view state. steps carries the per-step view flags merged
	// across refreshes; nil means the build has not loaded yet.
	buildNumber     int
	bld             *build.Build
	steps           build.Steps
	logs            *build.LogStore
	cursor          int
	followingStep   int  // step whose log tail stays in view; 0 = none
	autoExpandSteps bool // open steps as they start, while the build runs
	pendingFocus    build.FocusHint
	location        string // last opened step fragment, like a URL hash
	recorded        bool   // build already written to watch history

	viewport viewport.Model
	layout   stepLayout

	refreshInterval time.Duration

	help     help.Model
	showHelp bool

	lastRefresh time.Time
	lastErr     error
}

func newModel(api *client.Client, logger *slog.Logger, hist *history.History, owner, name string, cfg *config.Config) uiModel {
	return uiModel{
		api:             api,
		logger:          logger,
		hist:            hist,
		owner:           owner,
		name:            name,
		logs:            build.NewLogStore(),
		autoExpandSteps: cfg.Follow.AutoExpand,
		refreshInterval: cfg.Refresh,
		viewport:        viewport.New(0, 0),
		help:            help.New(),
		lastRefresh:     time.Now(),
	}
}

func (m uiModel) Init() tea.Cmd {
	return tea.Batch(
		tickEvery(),
		pollAfter(m.refreshInterval),
		m.refreshCmd(false),
	)
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{}
	})
}

func pollAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// refreshCmd fetches whatever the active view shows. plainRefresh marks
// timer and manual refreshes, which never apply a pending focus hint. A
// build view that has never loaded refetches as a navigation, so a hint
// survives a failed first load and lands with the first response.
func (m uiModel) refreshCmd(plainRefresh bool) tea.Cmd {
	if m.activeView == viewBuild {
		return m.fetchBuild(plainRefresh && m.bld != nil)
	}
	return m.fetchBuilds()
}

func (m uiModel) fetchBuilds() tea.Cmd {
	api, owner, name := m.api, m.owner, m.name
	return func() tea.Msg {
		builds, err := api.BuildList(context.Background(), owner, name)
		if err != nil {
			err = fmt.Errorf("load builds: %w", err)
		}
		return buildsReadyMsg{builds: builds, err: err}
	}
}

func (m uiModel) fetchBuild(plainRefresh bool) tea.Cmd {
	api, owner, name, number := m.api, m.owner, m.name, m.buildNumber
	return func() tea.Msg {
		b, err := api.BuildInfo(context.Background(), owner, name, number)
		if err != nil {
			err = fmt.Errorf("load build: %w", err)
		}
		return buildReadyMsg{number: number, plainRefresh: plainRefresh, build: b, err: err}
	}
}

func (m uiModel) fetchLogs(steps []int) tea.Cmd {
	api, owner, name, number := m.api, m.owner, m.name, m.buildNumber
	return func() tea.Msg {
		texts, err := api.BuildLogsBatch(context.Background(), owner, name, number, steps)
		if err != nil {
			err = fmt.Errorf("load step logs: %w", err)
		}
		return logsReadyMsg{number: number, texts: texts, err: err}
	}
}

// recordWatch writes a finished build to the watch history.
func (m uiModel) recordWatch(b *build.Build) tea.Cmd {
	hist := m.hist
	if hist == nil {
		return nil
	}
	rec := &history.Record{
		Repo:     m.owner + "/" + m.name,
		Number:   b.Number,
		Status:   b.Status,
		Branch:   b.Branch,
		Message:  firstLine(b.Message),
		Duration: buildDuration(b, time.Now()),
	}
	return func() tea.Msg {
		return historySavedMsg{err: hist.Record(context.Background(), rec)}
	}
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = m.contentHeight()
		m.syncViewport()
		return m, nil

	case pollTickMsg:
		return m, tea.Batch(m.refreshCmd(true), pollAfter(m.refreshInterval))

	case clockTickMsg:
		// Re-render running step durations between polls.
		if m.activeView == viewBuild && m.bld != nil && m.bld.Status == build.StatusRunning {
			m.resyncContent()
		}
		return m, tickEvery()

	case buildsReadyMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		m.builds = msg.builds
		m.lastRefresh = time.Now()
		// Clamp the cursor after the list changes between refreshes.
		if len(m.builds) == 0 {
			m.buildCursor = 0
		} else if m.buildCursor >= len(m.builds) {
			m.buildCursor = len(m.builds) - 1
		}
		return m, nil

	case buildReadyMsg:
		return m.applyBuild(msg)

	case logsReadyMsg:
		if m.activeView != viewBuild || msg.number != m.buildNumber {
			return m, nil // response for a build no longer shown
		}
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		m.lastErr = nil
		for number, text := range msg.texts {
			m.logs.Replace(number, text)
		}
		m.syncViewport()
		return m, nil

	case historySavedMsg:
		if msg.err != nil {
			m.logger.Warn("history save failed", "error", msg.err)
		}
		return m, nil

	case configChangedMsg:
		cfg, err := config.Load()
		if err != nil {
			m.logger.Warn("config reload failed", "error", err)
			return m, nil
		}
		m.refreshInterval = cfg.Refresh
		m.logger.Info("config reloaded", "refresh", cfg.Refresh.String())
		return m, nil
	}

	return m, nil
}

// applyBuild folds a fetched build into the model. The incoming snapshot
// decides step membership and order; view flags carry over by step
// number.
func (m uiModel) applyBuild(msg buildReadyMsg) (tea.Model, tea.Cmd) {
	if m.activeView != viewBuild || msg.number != m.buildNumber {
		return m, nil // response for a build no longer shown
	}
	if msg.err != nil {
		m.lastErr = msg.err
		return m, nil
	}
	m.lastErr = nil
	m.bld = msg.build
	m.lastRefresh = time.Now()

	autoExpand := m.autoExpandSteps && msg.build.Status == build.StatusRunning
	m.steps = build.MergeSteps(m.pendingFocus, msg.plainRefresh, autoExpand, m.steps, msg.build.Steps)
	if !msg.plainRefresh {
		if !m.pendingFocus.IsZero() && m.steps.Find(m.pendingFocus.Step) >= 0 {
			m.location = m.pendingFocus.Fragment()
		}
		m.pendingFocus = build.FocusHint{} // a hint applies to one load only
	}

	if len(m.steps) == 0 {
		m.cursor = 0
	} else if m.cursor >= len(m.steps) {
		m.cursor = len(m.steps) - 1
	}
	m.syncViewport()

	var cmds []tea.Cmd
	if set := build.FetchSet(m.steps, m.logs); len(set) > 0 {
		cmds = append(cmds, m.fetchLogs(set))
	}
	if msg.build.Status.Finished() && !m.recorded {
		m.recorded = true
		if cmd := m.recordWatch(msg.build); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m uiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		if m.watcher != nil {
			m.watcher.Close()
		}
		if m.hist != nil {
			m.hist.Close()
		}
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.viewport.Height = m.contentHeight()
		m.syncViewport()
		return m, nil

	case key.Matches(msg, keys.Refresh):
		return m, m.refreshCmd(true)

	case key.Matches(msg, keys.Back):
		if m.activeView == viewBuild {
			m = m.leaveBuild()
			return m, m.fetchBuilds()
		}
		return m, nil

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, keys.Toggle):
		return m.toggleSelected()

	case key.Matches(msg, keys.Follow):
		return m.followSelected()

	case key.Matches(msg, keys.AutoExpand):
		m.autoExpandSteps = !m.autoExpandSteps
		if m.autoExpandSteps && m.activeView == viewBuild && m.bld != nil && m.bld.Status == build.StatusRunning {
			m.steps = build.ExpandActiveSteps(m.steps)
			m.syncViewport()
			if set := build.FetchSet(m.steps, m.logs); len(set) > 0 {
				return m, m.fetchLogs(set)
			}
		}
		return m, nil

	case key.Matches(msg, keys.ExpandAll):
		if m.activeView == viewBuild {
			m.steps = build.SetAllStepViews(true, m.steps)
			m.syncViewport()
			if set := build.FetchSet(m.steps, m.logs); len(set) > 0 {
				return m, m.fetchLogs(set)
			}
		}
		return m, nil

	case key.Matches(msg, keys.CollapseAll):
		if m.activeView == viewBuild {
			m.steps = build.SetAllStepViews(false, m.steps)
			m.followingStep = 0
			m.syncViewport()
		}
		return m, nil

	case key.Matches(msg, keys.HalfUp):
		if m.activeView == viewBuild {
			m.followingStep = 0 // scrolling away stops following
			m.viewport.HalfViewUp()
		}
		return m, nil

	case key.Matches(msg, keys.HalfDown):
		if m.activeView == viewBuild {
			m.viewport.HalfViewDown()
		}
		return m, nil

	case key.Matches(msg, keys.PageUp):
		if m.activeView == viewBuild {
			m.followingStep = 0
			m.viewport.ViewUp()
		}
		return m, nil

	case key.Matches(msg, keys.PageDown):
		if m.activeView == viewBuild {
			m.viewport.ViewDown()
		}
		return m, nil
	}

	return m, nil
}

// toggleSelected opens a build from the list, or flips the selected
// step's log view.
func (m uiModel) toggleSelected() (tea.Model, tea.Cmd) {
	switch m.activeView {
	case viewBuilds:
		if len(m.builds) == 0 {
			return m, nil
		}
		return m.openBuild(m.builds[m.buildCursor].Number)

	case viewBuild:
		if len(m.steps) == 0 {
			return m, nil
		}
		number := m.steps[m.cursor].Number
		steps, fetch := build.ToggleStep(m.steps, number)
		m.steps = steps
		if !fetch {
			return m, nil
		}
		if i := m.steps.Find(number); i >= 0 {
			if m.steps[i].Viewing {
				m.location = build.FocusHint{Step: number}.Fragment() // opening pushes a location
			} else if m.followingStep == number {
				m.followingStep = 0 // closing a followed step stops following it
			}
		}
		m.syncViewport()
		if set := build.FetchSet(m.steps, m.logs); len(set) > 0 {
			return m, m.fetchLogs(set)
		}
		return m, nil
	}
	return m, nil
}

// followSelected pins the selected step's log tail to the viewport,
// opening the step if it has started. Pressing it again unfollows.
func (m uiModel) followSelected() (tea.Model, tea.Cmd) {
	if m.activeView != viewBuild || len(m.steps) == 0 {
		return m, nil
	}
	number := m.steps[m.cursor].Number
	if m.followingStep == number {
		m.followingStep = 0
		return m, nil
	}
	m.followingStep = number
	m.steps = build.ExpandActiveStep(m.steps, number)
	m.syncViewport()
	if set := build.FetchSet(m.steps, m.logs); len(set) > 0 {
		return m, m.fetchLogs(set)
	}
	return m, nil
}

// openBuild switches to the build view and loads the build as a fresh
// navigation, so no view state carries over from a previously shown one.
func (m uiModel) openBuild(number int) (tea.Model, tea.Cmd) {
	m.activeView = viewBuild
	m.buildNumber = number
	m.bld = nil
	m.steps = nil
	m.logs.Reset()
	m.cursor = 0
	m.followingStep = 0
	m.location = ""
	m.pendingFocus = build.FocusHint{} // an unconsumed hint does not cross builds
	m.recorded = false
	m.lastErr = nil
	m.viewport.SetYOffset(0)
	m.syncViewport()
	return m, m.fetchBuild(false)
}

func (m uiModel) leaveBuild() uiModel {
	m.activeView = viewBuilds
	m.buildNumber = 0
	m.bld = nil
	m.steps = nil
	m.logs.Reset()
	m.cursor = 0
	m.followingStep = 0
	m.location = ""
	m.pendingFocus = build.FocusHint{}
	m.lastErr = nil
	return m
}

// moveCursor moves the selection in the active list and keeps it in
// view.
func (m *uiModel) moveCursor(delta int) {
	switch m.activeView {
	case viewBuilds:
		m.buildCursor += delta
		if m.buildCursor < 0 {
			m.buildCursor = 0
		}
		if m.buildCursor > len(m.builds)-1 {
			m.buildCursor = max(0, len(m.builds)-1)
		}

	case viewBuild:
		m.cursor += delta
		if m.cursor < 0 {
			m.cursor = 0
		}
		if m.cursor > len(m.steps)-1 {
			m.cursor = max(0, len(m.steps)-1)
		}
		m.resyncContent()
		m.scrollToCursor()
	}
}

// contentHeight is the viewport height left under the current chrome.
func (m uiModel) contentHeight() int {
	h := m.height - chromeHeight
	if m.showHelp {
		h -= 2 // the full help block replaces the one-line status bar
	}
	return max(1, h)
}

// resyncContent re-renders the step list into the viewport.
func (m *uiModel) resyncContent() {
	if m.activeView != viewBuild {
		return
	}
	content, layout := m.renderSteps()
	m.layout = layout
	m.viewport.SetContent(content)
}

// syncViewport re-renders the step list and, when a step is being
// followed, keeps its log tail in view.
func (m *uiModel) syncViewport() {
	m.resyncContent()
	if m.activeView != viewBuild || m.followingStep == 0 {
		return
	}
	line, ok := m.layout.logEnd[m.followingStep]
	if !ok {
		line, ok = m.layout.header[m.followingStep]
	}
	if ok {
		m.viewport.SetYOffset(max(0, line-m.viewport.Height+1))
	}
}

// scrollToCursor nudges the viewport just enough to keep the selected
// step header visible.
func (m *uiModel) scrollToCursor() {
	if m.activeView != viewBuild || len(m.steps) == 0 {
		return
	}
	line, ok := m.layout.header[m.steps[m.cursor].Number]
	if !ok {
		return
	}
	if line < m.viewport.YOffset {
		m.viewport.SetYOffset(line)
	} else if line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}
