package service

import (
	"time"

	"mtf_bot/internal/models"
)

var ttls = map[models.Timeframe]time.Duration{
	models.TF1m:  10 * time.Second,
	models.TF3m:  30 * time.Second,
	models.TF5m:  time.Minute,
	models.TF15m: 3 * time.Minute,
	models.TF30m: 5 * time.Minute,
	models.TF1h:  10 * time.Minute,
}

// TTLFor is how long a candle list of the timeframe stays fresh.
func TTLFor(tf models.Timeframe) time.Duration {
	if d, ok := ttls[tf]; ok {
		return d
	}
	return 10 * time.Second
}
