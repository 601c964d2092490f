package main

import (
	"fmt"
	"strings"
	"time"
)

// column widths for the activity table.
var colWidths = []int{16, 8, 18, 16} // time, agent, type, project; description gets the rest

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	if m.searching || m.searchInput.Value() != "" {
		sb.WriteString(m.searchInput.View())
		sb.WriteString("\n")
	}

	sb.WriteString(m.renderTable())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("q quit  / filter  j/k scroll  r refresh"))
	return sb.String()
}

// renderHeader shows the tracker location and store counters.
func (m Model) renderHeader() string {
	if m.snapshot == nil {
		return m.styles.Muted.Render("loading tracker state...")
	}
	title := fmt.Sprintf("trackd  %s  %d activities", m.snapshot.Tracker, m.snapshot.Total)
	if m.snapshot.CacheBust != "" {
		title += "  " + m.snapshot.CacheBust
	}
	return m.styles.Header.Render(title)
}

// renderTable renders the visible slice of the activity list.
func (m Model) renderTable() string {
	if len(m.filtered) == 0 {
		return m.styles.Muted.Render("no activities")
	}

	var sb strings.Builder
	headers := []string{"Time", "Agent", "Type", "Project"}
	parts := make([]string, 0, len(headers)+1)
	for i, h := range headers {
		parts = append(parts, m.styles.Header.Render(pad(h, colWidths[i])))
	}
	parts = append(parts, m.styles.Header.Render("Description"))
	sb.WriteString(strings.Join(parts, " "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", min(m.width, 100)))
	sb.WriteString("\n")

	rows := m.height - 6
	if rows < 1 {
		rows = 1
	}
	end := m.offset + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for _, e := range m.filtered[m.offset:end] {
		ts := time.UnixMilli(e.TimestampMS).Local().Format("01-02 15:04:05")
		desc := e.Description
		if remaining := m.width - 62; remaining > 0 && len(desc) > remaining {
			desc = desc[:remaining]
		}
		cells := []string{
			m.styles.Col.Render(pad(ts, colWidths[0])),
			m.styles.Col.Render(pad(e.Agent, colWidths[1])),
			m.styles.Col.Render(pad(e.Type, colWidths[2])),
			m.styles.Col.Render(pad(e.Project, colWidths[3])),
			m.styles.Col.Render(desc),
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}
