package service

import (
	"fmt"

	"mtf_bot/internal/models"
)

// ClassifyTrend places the close against the Ichimoku cloud and the slow EMA and checks
// OBV momentum. An undefined cloud bound means the trend cannot be told, never sideways.
func ClassifyTrend(s Snapshot) (models.Trend, error) {
	if !s.SenkouA.OK || !s.SenkouB.OK {
		return "", fmt.Errorf("%w: %s cloud undefined", models.ErrIndeterminateTrend, s.Timeframe)
	}
	if !s.EMASlow.OK || !s.OBV.OK || !s.PrevOBV.OK {
		return "", fmt.Errorf("%w: %s ema/obv undefined", models.ErrIndeterminateTrend, s.Timeframe)
	}

	c := s.Close
	switch {
	case c > s.SenkouA.V && c > s.SenkouB.V && c > s.EMASlow.V && s.OBV.V > s.PrevOBV.V:
		return models.TrendUp, nil
	case c < s.SenkouA.V && c < s.SenkouB.V && c < s.EMASlow.V && s.OBV.V < s.PrevOBV.V:
		return models.TrendDown, nil
	}
	return models.TrendSideways, nil
}

// AggregateTrend returns the direction at least quorum timeframes agree on, else sideways.
func AggregateTrend(trends []models.Trend, quorum int) models.Trend {
	var up, down int
	for _, t := range trends {
		switch t {
		case models.TrendUp:
			up++
		case models.TrendDown:
			down++
		}
	}
	switch {
	case up >= quorum && up > down:
		return models.TrendUp
	case down >= quorum && down > up:
		return models.TrendDown
	}
	return models.TrendSideways
}
