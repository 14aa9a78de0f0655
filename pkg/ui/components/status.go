// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// ConnectionStatus represents a backend's status.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Detail     string
	LastUpdate time.Time
}

// StatusComponent renders backend status.
type StatusComponent struct {
	connections []ConnectionStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{
		connections: make([]ConnectionStatus, 0),
	}
}

// Update updates a connection's status.
func (s *StatusComponent) Update(status ConnectionStatus) {
	for i, conn := range s.connections {
		if conn.Name == status.Name {
			s.connections[i] = status
			return
		}
	}
	s.connections = append(s.connections, status)
}

// View renders the status component on one line.
func (s *StatusComponent) View() string {
	if len(s.connections) == 0 {
		return ""
	}

	parts := make([]string, 0, len(s.connections))
	for _, conn := range s.connections {
		icon := "●"
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
		if !conn.Connected {
			icon = "○"
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
		}

		label := conn.Name
		if conn.Detail != "" {
			label = fmt.Sprintf("%s (%s)", conn.Name, conn.Detail)
		}
		parts = append(parts, style.Render(icon+" "+label))
	}

	return strings.Join(parts, "  │  ")
}
