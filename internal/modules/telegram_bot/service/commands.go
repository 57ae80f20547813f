package service

import (
	"context"
	"fmt"
	"strings"

	"mtf_bot/internal/helper"
	"mtf_bot/pkg/logger"
)

const helpText = "Commands:\n" +
	"/join - receive trade notifications\n" +
	"/leave - stop notifications\n" +
	"/add SYMBOL [SPEND] - trade a symbol\n" +
	"/remove SYMBOL - stop trading a symbol\n" +
	"/list - traded symbols\n" +
	"/status - position states\n" +
	"/last SYMBOL - last decision"

// execute runs one command and returns the reply text.
func (t *Telegram) execute(ctx context.Context, chatID int64, cmd, args string) string {
	args = strings.TrimSpace(args)
	switch cmd {
	case "start", "help":
		return helpText
	case "join":
		if !t.subscribe(chatID) {
			return "Already subscribed"
		}
		return "✅ Subscribed to notifications"
	case "leave":
		if !t.unsubscribe(chatID) {
			return "Not subscribed"
		}
		return "👋 Unsubscribed"
	case "add":
		if args == "" {
			t.setAwait(chatID, cmd)
			return "Send SYMBOL [SPEND]"
		}
		return t.add(args)
	case "remove":
		if args == "" {
			t.setAwait(chatID, cmd)
			return "Send SYMBOL to remove"
		}
		return t.remove(args)
	case "list":
		return t.formatList()
	case "status":
		return formatStatus(t.positions.Snapshot())
	case "last":
		if args == "" {
			t.setAwait(chatID, cmd)
			return "Send SYMBOL"
		}
		return t.last(ctx, args)
	}
	return "Unknown command, see /help"
}

func (t *Telegram) add(args string) string {
	fields := strings.Fields(args)
	symbol := helper.NormSymbol(fields[0])
	if symbol == "" {
		return "❗️ Empty symbol"
	}

	var spend float64
	if len(fields) > 1 {
		v, err := parseFloat(fields[1])
		if err != nil || v <= 0 {
			return fmt.Sprintf("❗️ Bad spend %q", fields[1])
		}
		spend = v
	}

	ins, isNew := t.instruments.Add(symbol, spend)
	logger.Info("[TG] add %s spend=%v new=%v", ins.Symbol, ins.Spend, isNew)
	if !isNew {
		return fmt.Sprintf("🔁 %s updated, spend %s", ins.Symbol, f2(t.spendOf(ins.Spend)))
	}
	return fmt.Sprintf("➕ %s added, spend %s", ins.Symbol, f2(t.spendOf(ins.Spend)))
}

func (t *Telegram) remove(raw string) string {
	symbol := helper.NormSymbol(raw)
	if !t.instruments.Remove(symbol) {
		return fmt.Sprintf("%s is not traded", symbol)
	}
	logger.Info("[TG] remove %s", symbol)

	if t.positions.State(symbol).HasOpenPosition {
		return fmt.Sprintf("➖ %s removed, the open position keeps its bracket on the exchange", symbol)
	}
	return fmt.Sprintf("➖ %s removed", symbol)
}

func (t *Telegram) last(ctx context.Context, raw string) string {
	symbol := helper.NormSymbol(raw)
	if d, ok := t.positions.LastDecision(symbol); ok {
		return formatDecision(d)
	}
	if t.history != nil {
		recent, err := t.history.Recent(ctx, symbol, 1)
		if err != nil {
			logger.Warn("[TG] history of %s: %v", symbol, err)
		}
		if len(recent) > 0 {
			return formatDecision(recent[0])
		}
	}
	return fmt.Sprintf("No decisions for %s yet", symbol)
}

func (t *Telegram) spendOf(spend float64) float64 {
	if spend > 0 {
		return spend
	}
	return t.cfg.DefaultSpend
}

func (t *Telegram) formatList() string {
	list := t.instruments.List()
	if len(list) == 0 {
		return "📭 No symbols"
	}
	var b strings.Builder
	b.WriteString("📋 Symbols:\n")
	for _, ins := range list {
		fmt.Fprintf(&b, "- %s spend %s\n", ins.Symbol, f2(t.spendOf(ins.Spend)))
	}
	return strings.TrimRight(b.String(), "\n")
}
