package domain

import (
	"math"
	"testing"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestRecommend_CongestionSelectsBasePrice(t *testing.T) {
	base := Observation{Safe: 20, Propose: 30, Fast: 50, SuggestedBaseFee: 18}

	tests := []struct {
		name           string
		ratio          []float64
		wantPrice      float64
		wantConfidence float64
	}{
		{name: "high_congestion_uses_fast", ratio: []float64{0.95}, wantPrice: 50, wantConfidence: 0.9},
		{name: "exactly_0.9_is_not_high", ratio: []float64{0.9}, wantPrice: 30, wantConfidence: 0.8},
		{name: "mid_congestion_uses_propose", ratio: []float64{0.7}, wantPrice: 30, wantConfidence: 0.8},
		{name: "exactly_0.5_is_not_low", ratio: []float64{0.5}, wantPrice: 30, wantConfidence: 0.8},
		{name: "low_congestion_uses_safe", ratio: []float64{0.3}, wantPrice: 20, wantConfidence: 0.7},
		{name: "empty_ratios_treated_as_zero", ratio: nil, wantPrice: 20, wantConfidence: 0.7},
		{name: "only_first_ratio_counts", ratio: []float64{0.95, 0.1, 0.1}, wantPrice: 50, wantConfidence: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := base
			obs.GasUsedRatio = tt.ratio

			got := Recommend(obs, TrendResult{Trend: TrendStable})

			if !approx(got.RecommendedPrice, tt.wantPrice) {
				t.Errorf("RecommendedPrice = %v, want %v", got.RecommendedPrice, tt.wantPrice)
			}
			if !approx(got.Confidence, tt.wantConfidence) {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestRecommend_TrendAdjustmentIsClamped(t *testing.T) {
	tests := []struct {
		name           string
		obs            Observation
		trend          Trend
		wantPrice      float64
		wantConfidence float64
	}{
		{
			name:           "increasing_capped_at_fast",
			obs:            Observation{Safe: 20, Propose: 30, Fast: 50, GasUsedRatio: []float64{0.95}},
			trend:          TrendIncreasing,
			wantPrice:      50, // min(55, 50)
			wantConfidence: 0.81,
		},
		{
			name:           "increasing_below_fast",
			obs:            Observation{Safe: 20, Propose: 30, Fast: 50, GasUsedRatio: []float64{0.6}},
			trend:          TrendIncreasing,
			wantPrice:      33,
			wantConfidence: 0.72,
		},
		{
			name:           "decreasing_floored_at_safe",
			obs:            Observation{Safe: 20, Propose: 30, Fast: 50, GasUsedRatio: []float64{0.1}},
			trend:          TrendDecreasing,
			wantPrice:      20, // max(18, 20)
			wantConfidence: 0.63,
		},
		{
			name:           "decreasing_above_safe",
			obs:            Observation{Safe: 20, Propose: 30, Fast: 50, GasUsedRatio: []float64{0.6}},
			trend:          TrendDecreasing,
			wantPrice:      27,
			wantConfidence: 0.72,
		},
		{
			name:           "unknown_trend_no_adjustment",
			obs:            Observation{Safe: 20, Propose: 30, Fast: 50, GasUsedRatio: []float64{0.6}},
			trend:          TrendUnknown,
			wantPrice:      30,
			wantConfidence: 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommend(tt.obs, TrendResult{Trend: tt.trend})

			if !approx(got.RecommendedPrice, tt.wantPrice) {
				t.Errorf("RecommendedPrice = %v, want %v", got.RecommendedPrice, tt.wantPrice)
			}
			if !approx(got.Confidence, tt.wantConfidence) {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.RecommendedPrice > tt.obs.Fast && tt.trend == TrendIncreasing {
				t.Errorf("increasing trend pushed price above fast: %v", got.RecommendedPrice)
			}
			if got.RecommendedPrice < tt.obs.Safe && tt.trend == TrendDecreasing {
				t.Errorf("decreasing trend pushed price below safe: %v", got.RecommendedPrice)
			}
		})
	}
}

func TestSuggest_StrictBoundaries(t *testing.T) {
	obs := Observation{Safe: 80, Propose: 100, Fast: 110}

	tests := []struct {
		price float64
		want  Suggestion
	}{
		{price: 121, want: SuggestionMonitor}, // 121 > 110*1.1 is false
		{price: 121.5, want: SuggestionWait},
		{price: 90, want: SuggestionMonitor}, // 90 < 100*0.9 is false
		{price: 89, want: SuggestionSend},
		{price: 100, want: SuggestionMonitor},
	}

	for _, tt := range tests {
		if got := Suggest(tt.price, obs); got != tt.want {
			t.Errorf("Suggest(%v) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestClassifyCongestion(t *testing.T) {
	tests := []struct {
		ratio float64
		want  CongestionLevel
	}{
		{0.95, CongestionHigh},
		{0.9, CongestionMedium},
		{0.8, CongestionMedium},
		{0.7, CongestionLow},
		{0.4, CongestionLow},
		{0, CongestionLow},
	}

	for _, tt := range tests {
		if got := ClassifyCongestion(tt.ratio); got != tt.want {
			t.Errorf("ClassifyCongestion(%v) = %s, want %s", tt.ratio, got, tt.want)
		}
	}
}

// The price rule splits at 0.5/0.9 and the label at 0.7/0.9; a ratio of 0.6
// keeps the proposed price yet is labelled low, and 0.8 is medium.
func TestRecommend_LabelThresholdsIndependentOfPriceThresholds(t *testing.T) {
	obs := Observation{Safe: 20, Propose: 30, Fast: 50}

	obs.GasUsedRatio = []float64{0.6}
	got := Recommend(obs, TrendResult{Trend: TrendStable})
	if got.RecommendedPrice != 30 || got.NetworkMetrics.CongestionLevel != CongestionLow {
		t.Errorf("ratio 0.6: price %v level %s, want 30/low", got.RecommendedPrice, got.NetworkMetrics.CongestionLevel)
	}

	obs.GasUsedRatio = []float64{0.8}
	got = Recommend(obs, TrendResult{Trend: TrendStable})
	if got.RecommendedPrice != 30 || got.NetworkMetrics.CongestionLevel != CongestionMedium {
		t.Errorf("ratio 0.8: price %v level %s, want 30/medium", got.RecommendedPrice, got.NetworkMetrics.CongestionLevel)
	}
}

func TestRecommend_SingleObservationScenario(t *testing.T) {
	h := NewPriceHistory(DefaultHistoryCapacity)
	obs := Observation{Safe: 20, Propose: 30, Fast: 50, SuggestedBaseFee: 19.5, GasUsedRatio: []float64{0.95}}
	h.Append(obs)

	got := Recommend(obs, AnalyzeTrend(h))

	if got.RecommendedPrice != 50 {
		t.Errorf("RecommendedPrice = %v, want 50", got.RecommendedPrice)
	}
	if !approx(got.Confidence, 0.9) {
		t.Errorf("Confidence = %v, want 0.9", got.Confidence)
	}
	if got.PriceTrend.Trend != TrendStable {
		t.Errorf("Trend = %s, want stable for a single point", got.PriceTrend.Trend)
	}
	if got.NetworkMetrics.CongestionLevel != CongestionHigh {
		t.Errorf("CongestionLevel = %s, want high", got.NetworkMetrics.CongestionLevel)
	}
	if got.Suggestion != SuggestionMonitor {
		t.Errorf("Suggestion = %s, want monitor", got.Suggestion)
	}
	if got.NetworkMetrics.BaseFee != 19.5 || got.NetworkMetrics.GasUsedRatio != 0.95 {
		t.Errorf("NetworkMetrics = %+v", got.NetworkMetrics)
	}
}

func TestRecommend_ConfidenceStaysInUnitRange(t *testing.T) {
	ratios := []float64{0, 0.3, 0.5, 0.7, 0.9, 0.95, 1}
	trends := []Trend{TrendUnknown, TrendStable, TrendIncreasing, TrendDecreasing}

	for _, r := range ratios {
		for _, tr := range trends {
			obs := Observation{Safe: 1, Propose: 2, Fast: 3, GasUsedRatio: []float64{r}}
			got := Recommend(obs, TrendResult{Trend: tr})
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("ratio %v trend %s: confidence %v out of range", r, tr, got.Confidence)
			}
		}
	}
}
