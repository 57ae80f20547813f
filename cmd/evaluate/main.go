// Command evaluate prints the current decision for the given symbols without trading.
//
//	go run ./cmd/evaluate BTCUSDT ETHUSDT
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"mtf_bot/internal/helper"
	"mtf_bot/internal/models"
	"mtf_bot/internal/modules/binance_client"
	"mtf_bot/internal/modules/config"
	"mtf_bot/internal/modules/market"
	market_service "mtf_bot/internal/modules/market/service"
	"mtf_bot/internal/modules/metrics"
	"mtf_bot/internal/modules/strategy"
	strategy_service "mtf_bot/internal/modules/strategy/service"

	"go.uber.org/fx"
)

func main() {
	symbols := os.Args[1:]

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		metrics.Module(),
		binance_client.Module(),
		market.Module(),
		strategy.Module(),
		fx.Invoke(func(cfg *config.Config, cache *market_service.Cache, engine *strategy_service.Engine) {
			if len(symbols) == 0 {
				for _, s := range cfg.Trading.Symbols {
					symbols = append(symbols, s.Symbol)
				}
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			evaluate(ctx, os.Stdout, cache, engine, symbols)
		}),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func evaluate(ctx context.Context, out io.Writer, cache *market_service.Cache, engine *strategy_service.Engine, symbols []string) {
	tfs := engine.Config().RequiredTimeframes()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPRICE\tTREND\tTIMEFRAMES\tSIGNAL\tTP%\tERROR")
	for _, raw := range symbols {
		sym := helper.NormSymbol(raw)
		series, err := cache.Series(ctx, sym, tfs)
		if err != nil {
			fmt.Fprintf(w, "%s\t\t\t\t\t\t%v\n", sym, err)
			continue
		}
		ev, err := engine.Evaluate(series)
		errText := ""
		if err != nil {
			errText = err.Error()
		}
		side := string(ev.Signal.Side())
		if side == "" {
			side = "-"
		}
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\t%.2f\t%s\n",
			sym, ev.Price, ev.Trend, formatTrends(ev.Trends), side, ev.Signal.TakeProfitPct, errText)
	}
	_ = w.Flush()
}

func formatTrends(trends map[models.Timeframe]models.Trend) string {
	parts := make([]string, 0, len(trends))
	for tf, t := range trends {
		parts = append(parts, fmt.Sprintf("%s=%s", tf, t))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
