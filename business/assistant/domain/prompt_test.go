package domain

import (
	"strings"
	"testing"

	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
)

func float(v float64) *float64 { return &v }

func TestGasPrompt(t *testing.T) {
	rec := gasdomain.Recommendation{
		RecommendedPrice: 121,
		Confidence:       0.72,
		Suggestion:       gasdomain.SuggestionMonitor,
		CurrentPrices: gasdomain.Observation{
			Safe: 99, Propose: 110, Fast: 130, SuggestedBaseFee: 98.5,
			GasUsedRatio: []float64{0.6},
		},
		PriceTrend: gasdomain.TrendResult{
			Trend:            gasdomain.TrendIncreasing,
			ChangePercentage: 10,
			CurrentPrice:     float(110),
			PreviousPrice:    float(100),
		},
		NetworkMetrics: gasdomain.NetworkMetrics{
			BaseFee: 98.5, GasUsedRatio: 0.6, CongestionLevel: gasdomain.CongestionLow,
		},
	}

	got := GasPrompt("Should I send now?", rec)

	for _, want := range []string{
		"Current gas prices and network conditions:\n- Safe: 99.0 Gwei\n- Propose: 110.0 Gwei\n- Fast: 130.0 Gwei\n- Base Fee: 98.5 Gwei\n",
		"- Gas Used Ratio: 0.6\n- Congestion Level: low\n",
		"- Trend: increasing\n- Change: 10.00%\n- Current Price: 110.0 Gwei\n- Previous Price: 100.0 Gwei\n",
		"- Suggested Action: monitor\n- Recommended Price: 121.0 Gwei\n- Confidence: 72.0%\n",
		"\nUser query: Should I send now?\n\n",
		"5. Any risks or considerations to be aware of",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n--- prompt ---\n%s", want, got)
		}
	}
}

func TestGasPrompt_MissingTrendPrices(t *testing.T) {
	rec := gasdomain.Recommendation{PriceTrend: gasdomain.TrendResult{Trend: gasdomain.TrendStable}}

	got := GasPrompt("gas?", rec)
	if !strings.Contains(got, "- Current Price: N/A Gwei\n- Previous Price: N/A Gwei") {
		t.Errorf("expected N/A prices:\n%s", got)
	}
	if !strings.Contains(got, "- Change: 0.00%") {
		t.Errorf("expected zero change:\n%s", got)
	}
}

func TestGeneralPrompt(t *testing.T) {
	want := "User query: Explain rollups\n\nPlease provide a helpful and friendly response. Keep it concise and natural."
	if got := GeneralPrompt("Explain rollups"); got != want {
		t.Errorf("got %q", got)
	}
}

func TestPricesPrompt(t *testing.T) {
	got := PricesPrompt("cheap?", gasdomain.Observation{Safe: 1.25, Propose: 2, Fast: 3, SuggestedBaseFee: 0.75})
	want := "Current gas prices:\n- Safe: 1.25 Gwei\n- Propose: 2.0 Gwei\n- Fast: 3.0 Gwei\n- Base Fee: 0.75 Gwei\n\nUser query: cheap?"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
