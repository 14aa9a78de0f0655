// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/gas-genie/business/gas/domain"
)

// GasComponent renders the latest gas recommendation.
type GasComponent struct {
	rec    *domain.Recommendation
	source string
	err    string
}

// NewGasComponent creates a new gas component.
func NewGasComponent(source string) *GasComponent {
	return &GasComponent{source: source}
}

// Update replaces the shown recommendation.
func (g *GasComponent) Update(rec *domain.Recommendation) {
	g.rec = rec
	g.err = ""
}

// SetError keeps the last recommendation and shows why the refresh failed.
func (g *GasComponent) SetError(err error) {
	g.err = err.Error()
}

// Recommendation returns the shown recommendation, if any.
func (g *GasComponent) Recommendation() *domain.Recommendation {
	return g.rec
}

// View renders the gas component.
func (g *GasComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("GAS (%s)", g.source)))
	b.WriteString("\n\n")

	if g.rec == nil {
		if g.err != "" {
			b.WriteString(errStyle.Render("  " + g.err))
			return b.String()
		}
		b.WriteString(dimStyle.Render("  Waiting for gas data..."))
		return b.String()
	}

	r := g.rec
	p := r.CurrentPrices
	b.WriteString(fmt.Sprintf("  %-8s %8s %8s %8s\n", "", "Safe", "Propose", "Fast"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 36)) + "\n")
	b.WriteString(fmt.Sprintf("  %-8s %8.2f %8.2f %8.2f\n\n", "Gwei", p.Safe, p.Propose, p.Fast))

	b.WriteString(fmt.Sprintf("  Recommended: %s\n", suggestionStyle(r.Suggestion).Render(fmt.Sprintf("%.2f Gwei", r.RecommendedPrice))))
	b.WriteString(fmt.Sprintf("  Action:      %s\n", suggestionStyle(r.Suggestion).Render(string(r.Suggestion))))
	b.WriteString(fmt.Sprintf("  Confidence:  %.0f%%\n", r.Confidence*100))
	b.WriteString(fmt.Sprintf("  Trend:       %s\n", trendLabel(r.PriceTrend)))
	b.WriteString(fmt.Sprintf("  Congestion:  %s %s\n",
		congestionStyle(r.NetworkMetrics.CongestionLevel).Render(string(r.NetworkMetrics.CongestionLevel)),
		dimStyle.Render(fmt.Sprintf("(%.0f%% used)", r.NetworkMetrics.GasUsedRatio*100)),
	))
	b.WriteString(fmt.Sprintf("  Base fee:    %.2f Gwei\n", r.NetworkMetrics.BaseFee))

	if g.err != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("  refresh failed: " + g.err))
	}

	return b.String()
}

func trendLabel(t domain.TrendResult) string {
	if t.Undefined() {
		return string(t.Trend)
	}
	return fmt.Sprintf("%s (%+.1f%%)", t.Trend, t.ChangePercentage)
}

func suggestionStyle(s domain.Suggestion) lipgloss.Style {
	switch s {
	case domain.SuggestionSend:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	case domain.SuggestionWait:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	}
}

func congestionStyle(c domain.CongestionLevel) lipgloss.Style {
	switch c {
	case domain.CongestionLow:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	case domain.CongestionHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	}
}
