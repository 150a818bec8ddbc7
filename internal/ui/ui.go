package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/playback"
	"github.com/podlens/podlens/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	HistoryListView
	MatchPromptView
	ProgressView
	ResultView
)

// matchPrompt carries a reconciliation match to the UI and the channel the
// engine blocks on until the user decides.
type matchPrompt struct {
	entry models.HistoryEntry
	reply chan tasks.Decision
}

// runOutcome is written by the submission goroutine before it closes the
// progress channel, and read only after the close is observed.
type runOutcome struct {
	run *tasks.RunResult
	err error
}

// Messages from an analysis run carry the token of the run that produced
// them. Update drops messages whose token is no longer current, so a
// dismissed run cannot surface its completion later.
type progressUpdateMsg struct {
	token  int
	update tasks.ProgressUpdate
}

type matchPromptMsg struct {
	token  int
	prompt matchPrompt
}

type analysisCompleteMsg struct {
	token int
	run   *tasks.RunResult
	err   error
}

type historyFetchedMsg struct {
	entries []models.HistoryEntry
	err     error
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.AnalysisEngine
	syncer *playback.Synchronizer
	player playback.Player

	width  int
	height int

	input         textinput.Model
	historyList   list.Model
	timestampList list.Model

	progressChan chan tasks.ProgressUpdate
	promptChan   chan matchPrompt
	prompt       *matchPrompt
	progress     tasks.ProgressUpdate
	outcome      *runOutcome
	runToken     int

	run *tasks.RunResult
	err error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies. The
// synchronizer and player may be nil when no audio backend is available;
// timestamps then render without being seekable.
func NewModel(ctx context.Context, engine *tasks.AnalysisEngine, syncer *playback.Synchronizer, player playback.Player) *Model {
	input := textinput.New()
	input.Placeholder = "Episode URL..."
	input.Focus()

	return &Model{
		ctx:    ctx,
		view:   InputView,
		engine: engine,
		syncer: syncer,
		player: player,
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.timestampList.Width() == 0 {
			m.timestampList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case HistoryListView:
			return m.handleHistoryKeys(msg)
		case MatchPromptView:
			return m.handlePromptKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		if msg.token != m.runToken {
			return m, nil
		}
		m.progress = msg.update
		return m, m.waitForEvent()

	case matchPromptMsg:
		if msg.token != m.runToken {
			// The engine goroutine is blocked on this reply; answer
			// with the stored entry so it can wind down without a
			// fresh submission.
			msg.prompt.reply <- tasks.OpenExisting
			return m, nil
		}
		prompt := msg.prompt
		m.prompt = &prompt
		m.view = MatchPromptView
		return m, nil

	case analysisCompleteMsg:
		if msg.token != m.runToken {
			return m, nil
		}
		m.run = msg.run
		m.err = msg.err
		m.finishRun()
		return m, nil

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = InputView
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = historyItem{entry: entry}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Analysis History"
		m.historyList.SetSize(m.width-4, m.height-8)
		m.view = HistoryListView
		return m, nil
	}

	return m.updateActive(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InputView:
		return m.renderInput()
	case HistoryListView:
		return m.renderHistory()
	case MatchPromptView:
		return m.renderPrompt()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+h":
		return m, m.fetchHistory()
	case "enter":
		url := m.input.Value()
		if url == "" {
			return m, nil
		}
		m.err = nil
		m.view = ProgressView
		return m, m.startAnalysis(url)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = InputView
		return m, nil
	case "enter":
		selected := m.historyList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(historyItem); ok {
				entry := item.entry
				m.run = &tasks.RunResult{
					Result:      &entry.Result,
					AudioSource: entry.PlaybackSource(),
					Decision:    tasks.OpenExisting,
					Entry:       entry,
				}
				m.err = nil
				m.finishRun()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt == nil {
		m.view = ProgressView
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "y":
		m.resolvePrompt(tasks.RegenerateSummary)
		return m, m.waitForEvent()
	case "n", "enter":
		m.resolvePrompt(tasks.OpenExisting)
		return m, m.waitForEvent()
	}

	return m, nil
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.engine.Abandon()
		return m, tea.Quit
	case "esc":
		m.engine.Abandon()
		m.runToken++
		m.progressChan = nil
		m.promptChan = nil
		m.view = InputView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = InputView
		m.run = nil
		m.err = nil
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		selected := m.timestampList.SelectedItem()
		if selected != nil && m.syncer != nil {
			if item, ok := selected.(timestampItem); ok {
				m.syncer.Seek(float64(item.seconds))
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.timestampList, cmd = m.timestampList.Update(msg)
	return m, cmd
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.input, cmd = m.input.Update(msg)
	case HistoryListView:
		m.historyList, cmd = m.historyList.Update(msg)
	case ResultView:
		m.timestampList, cmd = m.timestampList.Update(msg)
	}
	return m, cmd
}

// startAnalysis runs the engine in a goroutine. Progress updates and match
// prompts arrive over channels; waitForEvent turns them into messages.
func (m *Model) startAnalysis(url string) tea.Cmd {
	m.runToken++
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.promptChan = make(chan matchPrompt, 1)
	m.outcome = &runOutcome{}

	progressChan := m.progressChan
	promptChan := m.promptChan
	outcome := m.outcome

	confirm := func(entry models.HistoryEntry) tasks.Decision {
		reply := make(chan tasks.Decision)
		promptChan <- matchPrompt{entry: entry, reply: reply}
		return <-reply
	}

	go func() {
		run, err := m.engine.SubmitURL(m.ctx, url, progressChan, confirm)
		outcome.run = run
		outcome.err = err
		close(progressChan)
	}()

	return m.waitForEvent()
}

// waitForEvent blocks on the engine's channels and converts whichever fires
// first into a bubbletea message tagged with the current run token.
func (m *Model) waitForEvent() tea.Cmd {
	token := m.runToken
	progressChan := m.progressChan
	promptChan := m.promptChan
	outcome := m.outcome

	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		select {
		case prompt := <-promptChan:
			return matchPromptMsg{token: token, prompt: prompt}
		case update, ok := <-progressChan:
			if !ok {
				return analysisCompleteMsg{token: token, run: outcome.run, err: outcome.err}
			}
			return progressUpdateMsg{token: token, update: update}
		}
	}
}

// resolvePrompt answers the engine's pending reconciliation question and
// returns to the progress view.
func (m *Model) resolvePrompt(decision tasks.Decision) {
	if m.prompt != nil {
		m.prompt.reply <- decision
		m.prompt = nil
	}
	m.view = ProgressView
}

// finishRun installs a terminal run into the result view and points the
// playback synchronizer at the run's audio source.
func (m *Model) finishRun() {
	m.progressChan = nil
	m.promptChan = nil
	m.outcome = nil

	if m.err != nil {
		m.view = ResultView
		return
	}

	if m.run != nil && m.syncer != nil && m.run.AudioSource != "" {
		m.syncer.SetSource(m.run.AudioSource, m.player)
	}

	var result *models.AnalysisResult
	if m.run != nil {
		result = m.run.Result
	}

	items := seekableItems(result)
	m.timestampList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.timestampList.Title = "Timestamps"
	m.timestampList.SetSize(m.width-4, m.height-10)
	m.view = ResultView
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.engine.History(m.ctx)
		return historyFetchedMsg{entries: entries, err: err}
	}
}

func (m *Model) renderInput() string {
	title := styles.title.Render("PodLens")

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.history, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.input.View(), errLine, helpView)
}

func (m *Model) renderHistory() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

func (m *Model) renderPrompt() string {
	if m.prompt == nil {
		return ""
	}

	title := styles.title.Render("Already analyzed")
	info := fmt.Sprintf("\n%s\n\nRegenerate the summary, or open the stored result?\n", m.prompt.entry.Title)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render("Analyzing")

	stage := m.progress.Stage
	if stage == "" {
		stage = "Submitting..."
	}

	var percent string
	if m.progress.Percent > 0 {
		percent = fmt.Sprintf(" (%.0f%%)", m.progress.Percent)
	}

	return fmt.Sprintf("%s\n\n%s%s\n%s", title, stage, percent, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Analysis failed: %v\n\nPress r to start over, q to quit", m.err))
	}

	if m.run == nil || m.run.Result == nil {
		return styles.err.Render("No result available\n\nPress r to start over, q to quit")
	}

	result := m.run.Result

	title := styles.ok.Render(fmt.Sprintf("✓ %s", result.Title))

	var overview string
	if result.Overview.Summary != "" {
		overview = "\n" + result.Overview.Summary + "\n"
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, overview, m.timestampList.View(), helpView)
}
