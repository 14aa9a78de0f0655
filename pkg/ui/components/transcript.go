// Package components provides reusable TUI components.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Turn is one query and its streamed answer.
type Turn struct {
	Query  string
	Answer string
	Failed bool
	Done   bool
}

// TranscriptComponent keeps the most recent turns.
type TranscriptComponent struct {
	turns    []Turn
	maxTurns int
}

// NewTranscriptComponent creates a transcript holding up to maxTurns turns.
func NewTranscriptComponent(maxTurns int) *TranscriptComponent {
	return &TranscriptComponent{
		turns:    make([]Turn, 0),
		maxTurns: maxTurns,
	}
}

// Start opens a new turn for query.
func (t *TranscriptComponent) Start(query string) {
	t.turns = append(t.turns, Turn{Query: query})
	if len(t.turns) > t.maxTurns {
		t.turns = t.turns[len(t.turns)-t.maxTurns:]
	}
}

// Append adds streamed text to the open turn.
func (t *TranscriptComponent) Append(content string, failed bool) {
	if len(t.turns) == 0 {
		return
	}
	last := &t.turns[len(t.turns)-1]
	last.Answer += content
	last.Failed = last.Failed || failed
}

// Finish closes the open turn.
func (t *TranscriptComponent) Finish() {
	if len(t.turns) == 0 {
		return
	}
	t.turns[len(t.turns)-1].Done = true
}

// Turns returns the stored turns, oldest first.
func (t *TranscriptComponent) Turns() []Turn {
	return t.turns
}

// Clear removes all turns.
func (t *TranscriptComponent) Clear() {
	t.turns = t.turns[:0]
}

// View renders the transcript wrapped to width.
func (t *TranscriptComponent) View(width int) string {
	youStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60A5FA"))
	genieStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	body := lipgloss.NewStyle()
	if width > 4 {
		body = body.Width(width - 2)
	}

	if len(t.turns) == 0 {
		return dimStyle.Render("Ask about gas prices, or anything else. Enter sends, Esc stops.")
	}

	var b strings.Builder
	for i, turn := range t.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(youStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(body.Render(turn.Query))
		b.WriteString("\n")
		b.WriteString(genieStyle.Render("Genie"))
		b.WriteString("\n")

		answer := turn.Answer
		if answer == "" && !turn.Done {
			answer = "…"
		}
		if turn.Failed {
			b.WriteString(errStyle.Width(body.GetWidth()).Render(answer))
		} else {
			b.WriteString(body.Render(answer))
		}
		b.WriteString("\n")
	}

	return b.String()
}
