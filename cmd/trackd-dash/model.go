package main

import (
	"strings"
	"time"

	"trackd/pkg/activity"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg is sent on every tick interval to trigger a data refresh.
type tickMsg time.Time

// snapshotMsg carries freshly loaded tracker state. nil means the load
// failed; the dashboard keeps showing the previous snapshot.
type snapshotMsg *Snapshot

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshotCmd returns a tea.Cmd that reloads tracker state.
func fetchSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		snap, _ := fetchSnapshot()
		return snapshotMsg(snap)
	}
}

// Model is the Bubble Tea model for the trackd dashboard.
type Model struct {
	snapshot *Snapshot
	filtered []activity.Activity

	searching   bool
	searchInput textinput.Model

	offset int
	width  int
	height int

	theme  Theme
	styles Styles
}

// newModel creates a new Model with no data loaded yet.
func newModel() Model {
	si := textinput.New()
	si.Placeholder = "filter by agent, type, or text..."
	si.CharLimit = 100

	theme := DefaultTheme()
	return Model{
		searchInput: si,
		width:       120,
		height:      30,
		theme:       theme,
		styles:      NewStyles(theme),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchSnapshotCmd(), watchTracker(), tickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(), tickCmd())

	case fsChangeMsg:
		return m, tea.Batch(fetchSnapshotCmd(), watchTracker())

	case snapshotMsg:
		if msg != nil {
			m.snapshot = msg
			m.applyFilter()
		}
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			m.searchInput.Blur()
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.applyFilter()
			return m, cmd
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.offset > 0 {
			m.offset--
		}
	case "down", "j":
		if m.offset < len(m.filtered)-1 {
			m.offset++
		}
	case "g":
		m.offset = 0
	case "r":
		return m, fetchSnapshotCmd()
	}
	return m, nil
}

// applyFilter recomputes the visible rows, newest first, honoring the
// search query.
func (m *Model) applyFilter() {
	m.filtered = nil
	m.offset = 0
	if m.snapshot == nil {
		return
	}

	query := strings.ToLower(m.searchInput.Value())
	entries := m.snapshot.Activities
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if query != "" && !matchesQuery(e, query) {
			continue
		}
		m.filtered = append(m.filtered, e)
	}
}

// matchesQuery reports whether an activity matches a lowercase query.
func matchesQuery(e activity.Activity, query string) bool {
	for _, field := range []string{e.Agent, e.Type, e.Project, e.Description} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
