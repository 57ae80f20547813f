package strategy

import (
	"fmt"

	"go.uber.org/fx"

	"mtf_bot/internal/models"
	"mtf_bot/internal/modules/config"
	"mtf_bot/internal/modules/strategy/service"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			NewEngineConfig,
			service.NewEngine,
		),
	)
}

// NewEngineConfig maps the strategy section of the app config onto the engine.
func NewEngineConfig(cfg *config.Config) (service.Config, error) {
	sc := cfg.Strategy
	parse := func(raw []string) ([]models.Timeframe, error) {
		out := make([]models.Timeframe, 0, len(raw))
		for _, r := range raw {
			tf, err := models.ParseTimeframe(r)
			if err != nil {
				return nil, err
			}
			out = append(out, tf)
		}
		return out, nil
	}

	trendTFs, err := parse(sc.TrendTimeframes)
	if err != nil {
		return service.Config{}, fmt.Errorf("trend_timeframes: %w", err)
	}
	signalTFs, err := parse(sc.SignalTimeframes)
	if err != nil {
		return service.Config{}, fmt.Errorf("signal_timeframes: %w", err)
	}
	decisionTF, err := models.ParseTimeframe(sc.DecisionTimeframe)
	if err != nil {
		return service.Config{}, fmt.Errorf("decision_timeframe: %w", err)
	}

	return service.Config{
		TrendTimeframes:   trendTFs,
		TrendQuorum:       sc.TrendQuorum,
		SignalTimeframes:  signalTFs,
		DecisionTimeframe: decisionTF,
		MinLookback:       sc.MinLookback,

		RSIPeriod:    sc.RSIPeriod,
		EMAFast:      sc.EMAFast,
		EMASlow:      sc.EMASlow,
		ATRPeriod:    sc.ATRPeriod,
		ADXPeriod:    sc.ADXPeriod,
		BBPeriod:     sc.BBPeriod,
		BBK:          sc.BBK,
		VolumePeriod: sc.VolumePeriod,
		FibWindow:    sc.FibWindow,
		MACDFast:     sc.MACDFast,
		MACDSlow:     sc.MACDSlow,
		MACDSignal:   sc.MACDSignal,

		RSIOverbought:          sc.RSIOverbought,
		RSIOversold:            sc.RSIOversold,
		VolatilityFactor:       sc.VolatilityFactor,
		OversoldMargin:         sc.OversoldMargin,
		VolumeMultiplier:       sc.VolumeMultiplier,
		BuyADXFloor:            sc.BuyADXFloor,
		SellADXFloor:           sc.SellADXFloor,
		FibSupportTolerance:    sc.FibSupportTolerance,
		FibResistanceTolerance: sc.FibResistanceTolerance,
		BBTolerance:            sc.BBTolerance,
	}, nil
}
