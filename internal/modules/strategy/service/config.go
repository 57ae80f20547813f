package service

import "mtf_bot/internal/models"

// Config holds every tunable of the trend vote and signal rules.
type Config struct {
	TrendTimeframes   []models.Timeframe // long, medium, short
	TrendQuorum       int
	SignalTimeframes  []models.Timeframe
	DecisionTimeframe models.Timeframe
	MinLookback       int

	RSIPeriod    int
	EMAFast      int
	EMASlow      int
	ATRPeriod    int
	ADXPeriod    int
	BBPeriod     int
	BBK          float64
	VolumePeriod int
	FibWindow    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int

	RSIOverbought          float64
	RSIOversold            float64
	VolatilityFactor       float64
	OversoldMargin         float64
	VolumeMultiplier       float64
	BuyADXFloor            float64
	SellADXFloor           float64
	FibSupportTolerance    float64
	FibResistanceTolerance float64
	BBTolerance            float64
}

func DefaultConfig() Config {
	return Config{
		TrendTimeframes:   []models.Timeframe{models.TF1h, models.TF30m, models.TF5m},
		TrendQuorum:       2,
		SignalTimeframes:  []models.Timeframe{models.TF5m, models.TF15m},
		DecisionTimeframe: models.TF15m,
		MinLookback:       250,

		RSIPeriod:    14,
		EMAFast:      50,
		EMASlow:      200,
		ATRPeriod:    14,
		ADXPeriod:    14,
		BBPeriod:     20,
		BBK:          2,
		VolumePeriod: 20,
		FibWindow:    30,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,

		RSIOverbought:          70,
		RSIOversold:            30,
		VolatilityFactor:       10,
		OversoldMargin:         10,
		VolumeMultiplier:       1.2,
		BuyADXFloor:            20,
		SellADXFloor:           25,
		FibSupportTolerance:    0.02,
		FibResistanceTolerance: 0.01,
		BBTolerance:            0.01,
	}
}

// RequiredTimeframes is the de-duplicated union of trend, signal and decision timeframes.
func (c Config) RequiredTimeframes() []models.Timeframe {
	seen := make(map[models.Timeframe]bool)
	var out []models.Timeframe
	add := func(tfs ...models.Timeframe) {
		for _, tf := range tfs {
			if !seen[tf] {
				seen[tf] = true
				out = append(out, tf)
			}
		}
	}
	add(c.TrendTimeframes...)
	add(c.SignalTimeframes...)
	add(c.DecisionTimeframe)
	return out
}
