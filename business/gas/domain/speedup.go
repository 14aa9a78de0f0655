package domain

// SpeedUpOption is one way to replace a pending transaction with a higher fee.
type SpeedUpOption struct {
	Price         float64 `json:"price"`
	EstimatedTime string  `json:"estimated_time"`
	Confidence    float64 `json:"confidence"`
	PriceIncrease float64 `json:"price_increase"`
}

// SpeedUpReport lists speed-up options for a pending transaction priced at
// CurrentPrice Gwei.
type SpeedUpReport struct {
	CurrentPrice   float64         `json:"current_price"`
	Options        []SpeedUpOption `json:"speed_up_options"`
	PriceTrend     TrendResult     `json:"price_trend"`
	NetworkMetrics NetworkMetrics  `json:"network_metrics"`
}

// BuildSpeedUpReport derives speed-up options from a fresh observation.
// currentPrice must be positive; the caller validates it.
func BuildSpeedUpReport(currentPrice float64, obs Observation, trend TrendResult) SpeedUpReport {
	fast := obs.Fast
	fastest := obs.Fast * 1.1
	ratio := obs.CurrentRatio()

	return SpeedUpReport{
		CurrentPrice: currentPrice,
		Options: []SpeedUpOption{
			{
				Price:         fast,
				EstimatedTime: "1-2 minutes",
				Confidence:    0.9,
				PriceIncrease: (fast - currentPrice) / currentPrice * 100,
			},
			{
				Price:         fastest,
				EstimatedTime: "< 1 minute",
				Confidence:    0.95,
				PriceIncrease: (fastest - currentPrice) / currentPrice * 100,
			},
		},
		PriceTrend: trend,
		NetworkMetrics: NetworkMetrics{
			BaseFee:         obs.SuggestedBaseFee,
			GasUsedRatio:    ratio,
			CongestionLevel: ClassifyCongestion(ratio),
		},
	}
}
