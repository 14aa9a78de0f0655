// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds session statistics for display.
type Stats struct {
	Queries       int64
	Errors        int64
	LastFirstByte time.Duration
	LastDuration  time.Duration
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("SESSION") + "\n" +
		fmt.Sprintf("Queries: %s  │  Errors: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Queries)),
			errorsDisplay,
		) +
		fmt.Sprintf("First fragment: %s  │  Last answer: %s",
			valueStyle.Render(fmt.Sprintf("%dms", s.stats.LastFirstByte.Milliseconds())),
			valueStyle.Render(s.stats.LastDuration.Round(time.Millisecond).String()),
		)
}
