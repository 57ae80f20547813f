package service

import (
	"context"
	"strings"

	"mtf_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	if msg := update.Message; msg != nil {
		chatID := msg.Chat.ID
		if !t.isAllowed(chatID) {
			logger.Warn("[TG] message from chat %d ignored", chatID)
			return
		}

		var cmd, args string
		switch {
		case msg.IsCommand():
			t.clearAwait(chatID)
			cmd, args = msg.Command(), msg.CommandArguments()
		default:
			// plain text answers a command that asked for its argument
			cmd, args = t.popAwait(chatID), msg.Text
			if cmd == "" {
				return
			}
		}

		out := tgbot.NewMessage(chatID, t.execute(ctx, chatID, cmd, args))
		if cmd == "list" {
			if kb, ok := t.listKeyboard(); ok {
				out.ReplyMarkup = kb
			}
		}
		if _, err := t.bot.Send(out); err != nil {
			logger.Error("[TG] reply to %d: %v", chatID, err)
		}
		return
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		t.handleCallback(cb)
	}
}

// handleCallback serves the remove buttons under /list.
func (t *Telegram) handleCallback(cb *tgbot.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	if !t.isAllowed(chatID) || !strings.HasPrefix(cb.Data, removePrefix) {
		return
	}

	text := t.remove(strings.TrimPrefix(cb.Data, removePrefix))
	if _, err := t.bot.Request(tgbot.NewCallback(cb.ID, text)); err != nil {
		logger.Warn("[TG] answer callback: %v", err)
	}

	edit := tgbot.NewEditMessageText(chatID, cb.Message.MessageID, t.formatList())
	if kb, ok := t.listKeyboard(); ok {
		edit.ReplyMarkup = &kb
	}
	if _, err := t.bot.Request(edit); err != nil {
		logger.Warn("[TG] edit list: %v", err)
	}
}

func (t *Telegram) listKeyboard() (tgbot.InlineKeyboardMarkup, bool) {
	list := t.instruments.List()
	if len(list) == 0 {
		return tgbot.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbot.InlineKeyboardButton, 0, len(list))
	for _, ins := range list {
		rows = append(rows, tgbot.NewInlineKeyboardRow(
			tgbot.NewInlineKeyboardButtonData("❌ "+ins.Symbol, removePrefix+ins.Symbol),
		))
	}
	return tgbot.NewInlineKeyboardMarkup(rows...), true
}
