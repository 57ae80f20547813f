package service

import (
	"fmt"
	"sort"
	"strings"

	"mtf_bot/internal/models"
)

func formatStatus(views []models.PositionView) string {
	if len(views) == 0 {
		return "📭 No positions tracked yet"
	}
	var b strings.Builder
	b.WriteString("📊 Positions:\n")
	for _, v := range views {
		if v.HasOpenPosition {
			fmt.Fprintf(&b, "- %s %s qty %s @ %s\n", v.Symbol, v.State, v.Quantity, f2(v.EntryPrice))
			continue
		}
		fmt.Fprintf(&b, "- %s %s\n", v.Symbol, v.State)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDecision(d models.Decision) string {
	side := string(d.Side)
	if side == "" {
		side = "-"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s\n", d.Symbol, d.At.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Trend: %s\n", d.Trend)
	if len(d.Trends) > 0 {
		tfs := make([]string, 0, len(d.Trends))
		for tf := range d.Trends {
			tfs = append(tfs, string(tf))
		}
		sort.Strings(tfs)
		for _, tf := range tfs {
			fmt.Fprintf(&b, "  %s: %s\n", tf, d.Trends[models.Timeframe(tf)])
		}
	}
	fmt.Fprintf(&b, "Signal: %s, TP %s%%\n", side, f2(d.TakeProfitPct))
	fmt.Fprintf(&b, "Action: %s", d.Action)
	if d.Detail != "" {
		fmt.Fprintf(&b, " (%s)", d.Detail)
	}
	return b.String()
}
