package domain

import "math"

// Suggestion is the action recommended to the user.
type Suggestion string

const (
	SuggestionSend    Suggestion = "send"
	SuggestionWait    Suggestion = "wait"
	SuggestionMonitor Suggestion = "monitor"
)

// CongestionLevel labels how busy the network is.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
)

// Heuristic thresholds. Price selection uses a two-way split on the
// congestion ratio while the congestion label uses a three-way split; the two
// are intentionally independent.
const (
	highCongestionRatio   = 0.9
	lowCongestionRatio    = 0.5
	mediumCongestionLabel = 0.7

	baseConfidence = 0.8
	highConfidence = 0.9
	lowConfidence  = 0.7

	trendPriceStep       = 0.1
	trendConfidenceScale = 0.9

	waitAboveFastFactor    = 1.1
	sendBelowProposeFactor = 0.9
)

// NetworkMetrics summarises network state for a recommendation.
type NetworkMetrics struct {
	BaseFee         float64         `json:"base_fee"`
	GasUsedRatio    float64         `json:"gas_used_ratio"`
	CongestionLevel CongestionLevel `json:"congestion_level"`
}

// Recommendation is the price advice derived from one observation and the
// current trend.
type Recommendation struct {
	RecommendedPrice float64        `json:"recommended_price"`
	Confidence       float64        `json:"confidence"`
	Suggestion       Suggestion     `json:"suggestion"`
	CurrentPrices    Observation    `json:"current_prices"`
	PriceTrend       TrendResult    `json:"price_trend"`
	NetworkMetrics   NetworkMetrics `json:"network_metrics"`
}

// Recommend applies the gas heuristics to obs and trend. The steps run in a
// fixed order: congestion selects the base price, the trend nudges it within
// [safe, fast], and the result is compared against the tiers.
func Recommend(obs Observation, trend TrendResult) Recommendation {
	congestion := obs.CurrentRatio()

	price := obs.Propose
	confidence := baseConfidence

	switch {
	case congestion > highCongestionRatio:
		price = obs.Fast
		confidence = highConfidence
	case congestion < lowCongestionRatio:
		price = obs.Safe
		confidence = lowConfidence
	}

	switch trend.Trend {
	case TrendIncreasing:
		price = math.Min(price*(1+trendPriceStep), obs.Fast)
		confidence *= trendConfidenceScale
	case TrendDecreasing:
		price = math.Max(price*(1-trendPriceStep), obs.Safe)
		confidence *= trendConfidenceScale
	}

	return Recommendation{
		RecommendedPrice: price,
		Confidence:       clamp01(confidence),
		Suggestion:       Suggest(price, obs),
		CurrentPrices:    obs,
		PriceTrend:       trend,
		NetworkMetrics: NetworkMetrics{
			BaseFee:         obs.SuggestedBaseFee,
			GasUsedRatio:    congestion,
			CongestionLevel: ClassifyCongestion(congestion),
		},
	}
}

// Suggest maps a recommended price to an action. Both bounds are strict.
func Suggest(price float64, obs Observation) Suggestion {
	switch {
	case price > obs.Fast*waitAboveFastFactor:
		return SuggestionWait
	case price < obs.Propose*sendBelowProposeFactor:
		return SuggestionSend
	default:
		return SuggestionMonitor
	}
}

// ClassifyCongestion labels a gas used ratio.
func ClassifyCongestion(ratio float64) CongestionLevel {
	switch {
	case ratio > highCongestionRatio:
		return CongestionHigh
	case ratio > mediumCongestionLabel:
		return CongestionMedium
	default:
		return CongestionLow
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
