package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/drivemig/internal/models"
	"github.com/desertthunder/drivemig/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlanView ViewState = iota
	ConfirmView
	ApplyView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.Engine
	opts         tasks.PlanOpts
	width        int
	height       int
	taskList     list.Model
	planResult   *tasks.PlanResult
	progressChan chan tasks.ProgressUpdate
	applyDone    chan applyCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.ApplyResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *tasks.Engine, opts tasks.PlanOpts) *Model {
	return &Model{
		ctx:    ctx,
		view:   PlanView,
		engine: engine,
		opts:   opts,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Err reports a plan or apply failure surfaced while the program ran.
func (m *Model) Err() error { return m.err }

// Result returns the final run result, nil until apply finishes.
func (m *Model) Result() *tasks.ApplyResult { return m.result }

// Init initializes the TUI by building the migration plan.
func (m *Model) Init() tea.Cmd {
	return m.buildPlan()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.taskList.Width() == 0 {
			m.taskList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlanView:
			return m.handlePlanKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case planBuiltMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.planResult = msg.result
		items := make([]list.Item, len(msg.result.Plan.Tasks))
		for i, task := range msg.result.Plan.Tasks {
			items[i] = taskItem{task: task}
		}
		m.taskList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.taskList.Title = "Migration Plan"
		m.taskList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case applyCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		if m.progressChan != nil {
			m.progressChan = nil
		}
		return m, nil
	}

	if m.view == PlanView {
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlanView:
		return m.renderPlan()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlanKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.planResult != nil {
			m.view = ConfirmView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = PlanView
		return m, nil
	case "y":
		m.view = ApplyView
		return m, m.startApply()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) buildPlan() tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.BuildPlan(m.ctx, nil, m.opts)
		return planBuiltMsg{result: result, err: err}
	}
}

func (m *Model) startApply() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	applyDone := make(chan applyCompleteMsg, 1)
	go func() {
		result, err := m.engine.Apply(m.ctx, progressChan, m.planResult)
		applyDone <- applyCompleteMsg{result: result, err: err}
		close(progressChan)
	}()
	m.applyDone = applyDone

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	applyDone := m.applyDone
	return func() tea.Msg {
		if progressChan == nil {
			return <-applyDone
		}

		update, ok := <-progressChan
		if !ok {
			return <-applyDone
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlan() string {
	if m.planResult == nil {
		return styles.help.Render("Building plan...")
	}

	counts := m.planResult.Plan.Counts
	summary := fmt.Sprintf("copy %d • relink %d • skip %d • review %d • delete %d",
		counts[models.ActionCopy], counts[models.ActionRelink], counts[models.ActionSkip],
		counts[models.ActionReview], counts[models.ActionDelete])

	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.taskList.View(), styles.help.Render(summary), helpView)
}

func (m *Model) renderConfirm() string {
	counts := m.planResult.Plan.Counts
	title := styles.title.Render("Apply this migration plan?")
	info := fmt.Sprintf("\nTasks: %d\nCopies: %d\nRelinks: %d\n",
		len(m.planResult.Plan.Tasks), counts[models.ActionCopy], counts[models.ActionRelink])

	var warning string
	if counts[models.ActionDelete] > 0 {
		warning = styles.warn.Render(fmt.Sprintf("%d originals will be deleted after migration\n", counts[models.ActionDelete]))
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n%s", title, info, warning, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Applying Migration")

	var phase string
	switch m.progress.Phase {
	case tasks.Execute:
		phase = fmt.Sprintf("Migrating entries (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Delete:
		phase = fmt.Sprintf("Deleting originals (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	run := m.result.Run
	var title string
	if run.Status == models.StatusCompleted {
		title = styles.ok.Render("✓ Migration Complete!")
	} else {
		title = styles.err.Render("✗ Migration finished with failures")
	}

	info := fmt.Sprintf("\nRun: %s\nTasks: %d done, %d failed of %d\nSource: %s\nTarget: %s",
		run.RunID, run.TasksDone, run.TasksFailed, run.TasksTotal,
		run.SourceAccount, run.TargetAccount)

	var failed string
	if run.TasksFailed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render("Failed tasks:"))
		for _, out := range m.result.Outcomes {
			if out.Status == models.StatusFailed {
				failed += fmt.Sprintf("\n  • %s '%s': %v", out.Action, out.Name, out.Err)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
