package live

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the Bubble Tea model for a followed test session.
type Model struct {
	state        State
	table        table.Model
	bar          progress.Model
	events       <-chan Event
	tickInterval time.Duration
	now          time.Time
	noColor      bool
	quitting     bool
}

// Options tunes rendering of the live session view.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
}

// NewModel builds a model fed by events.
func NewModel(events <-chan Event, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = 200 * time.Millisecond
	}
	t := table.New(
		table.WithColumns(defaultColumns()),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	barOpts := []progress.Option{progress.WithWidth(40), progress.WithoutPercentage()}
	if opts.NoColor {
		barOpts = append(barOpts, progress.WithSolidFill("#ffffff"))
	} else {
		barOpts = append(barOpts, progress.WithDefaultGradient())
	}
	return Model{
		table:        t,
		bar:          progress.New(barOpts...),
		events:       events,
		tickInterval: tickInterval,
		now:          time.Now(),
		noColor:      opts.NoColor,
	}
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Init starts the elapsed-time ticker and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick(m.tickInterval))
}

// Update consumes UI events, key presses and timer ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-6, 1))
		m.table.SetColumns(columnsForWidth(typed.Width))
		m.bar.Width = max(min(typed.Width-20, 60), 10)
		return m, nil
	case EventMsg:
		m = applyEvent(m, typed.Event)
		return m, waitForEvent(m.events)
	case tickMsg:
		m.now = time.Time(typed)
		return m, tick(m.tickInterval)
	}
	return m, nil
}

// View draws header, results table, summary and footer.
func (m Model) View() string {
	header := renderHeader(m.state, m.now, m.noColor)
	bar := renderProgress(m.state, m.bar)
	summary := renderSummary(m.state, m.noColor)
	tableView := m.table.View()
	footer := renderFooter(m.state, m.noColor)
	return lipgloss.JoinVertical(lipgloss.Left, header, bar, summary, tableView, footer)
}

// EventMsg delivers one session event to the program.
type EventMsg struct {
	Event Event
}

// tickMsg refreshes elapsed time in the header.
type tickMsg time.Time

// waitForEvent pumps the next event, quitting once the channel closes.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		event, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: event}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// applyEvent updates model state from a UI event.
func applyEvent(model Model, event Event) Model {
	switch event.Kind {
	case EventStart:
		model.state.Model = event.Model
		model.state.Requested = event.Count
	case EventView:
		model.state = Reduce(model.state, event.View, time.Now())
	case EventEnd:
		return model
	}
	model.table.SetRows(rowsForState(model.state, model.noColor))
	return model
}
