package models

// Trend is the three-state market direction for one timeframe or for the aggregate vote.
type Trend string

const (
	TrendUp       Trend = "uptrend"
	TrendDown     Trend = "downtrend"
	TrendSideways Trend = "sideways"
)

type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeSignal is produced once per instrument per cycle. Buy and Sell are never both true.
type TradeSignal struct {
	Buy           bool
	Sell          bool
	TakeProfitPct float64
}

func (s TradeSignal) Side() Side {
	switch {
	case s.Buy && !s.Sell:
		return SideBuy
	case s.Sell && !s.Buy:
		return SideSell
	}
	return SideNone
}
