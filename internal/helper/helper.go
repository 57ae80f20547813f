package helper

import (
	"strings"

	"mtf_bot/internal/models"
)

// NormSymbol turns "btc/usdt", "BTC-USDT" or " btcusdt " into "BTCUSDT".
func NormSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", "/", "", "_", "").Replace(s)
	return s
}

// CacheKey is the market cache key for one candle series.
func CacheKey(symbol string, tf models.Timeframe) string { return symbol + ":" + string(tf) }

func SplitCacheKey(key string) (symbol string, tf models.Timeframe, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 || i >= len(key)-1 {
		return "", "", false
	}
	parsed, err := models.ParseTimeframe(key[i+1:])
	if err != nil {
		return "", "", false
	}
	return key[:i], parsed, true
}

// ProfitPct is the unrealized profit of a long position in percent.
func ProfitPct(entry, current float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (current - entry) / entry * 100
}
