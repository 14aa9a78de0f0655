package domain

// Trend is the direction of the proposed gas price.
type Trend string

const (
	TrendUnknown    Trend = "unknown"
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// trendThresholdPct is the change, in percent, beyond which a move counts.
const trendThresholdPct = 5.0

// TrendResult is the outcome of analysing the last two observations.
// CurrentPrice and PreviousPrice are set only when two observations exist.
type TrendResult struct {
	Trend            Trend    `json:"trend"`
	ChangePercentage float64  `json:"change_percentage"`
	CurrentPrice     *float64 `json:"current_price,omitempty"`
	PreviousPrice    *float64 `json:"previous_price,omitempty"`
}

// AnalyzeTrend compares the proposed price of the two most recent
// observations in h.
//
// A zero previous price leaves the percentage undefined; the result is then
// reported as unknown with both prices attached.
func AnalyzeTrend(h *PriceHistory) TrendResult {
	n, latest, previous := h.lastTwo()

	switch n {
	case 0:
		return TrendResult{Trend: TrendUnknown}
	case 1:
		return TrendResult{Trend: TrendStable}
	}

	current := latest.Propose
	prev := previous.Propose

	result := TrendResult{
		CurrentPrice:  &current,
		PreviousPrice: &prev,
	}

	if prev == 0 {
		result.Trend = TrendUnknown
		return result
	}

	change := (current - prev) / prev * 100
	result.ChangePercentage = change

	switch {
	case change > trendThresholdPct:
		result.Trend = TrendIncreasing
	case change < -trendThresholdPct:
		result.Trend = TrendDecreasing
	default:
		result.Trend = TrendStable
	}

	return result
}

// Undefined reports whether the trend could not be computed from two points.
func (r TrendResult) Undefined() bool {
	return r.Trend == TrendUnknown && r.PreviousPrice != nil
}
