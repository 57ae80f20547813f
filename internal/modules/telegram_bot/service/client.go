package service

import (
	"context"
	"fmt"
	"sync"

	"mtf_bot/internal/models"
	"mtf_bot/internal/runner"
	"mtf_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the part of *tgbot.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

type Instruments interface {
	Add(symbol string, spend float64) (runner.Instrument, bool)
	Remove(symbol string) bool
	List() []runner.Instrument
}

type Positions interface {
	Snapshot() []models.PositionView
	State(symbol string) models.PositionView
	LastDecision(symbol string) (models.Decision, bool)
}

// History reads persisted decisions.
type History interface {
	Recent(ctx context.Context, symbol string, limit int) ([]models.Decision, error)
}

type Config struct {
	DefaultSpend float64
	ChatIDs      []int64
	// empty allows every chat
	AllowedChatIDs []int64
}

// Telegram broadcasts notifications to subscribed chats and serves operator commands.
type Telegram struct {
	bot         botAPI
	cfg         Config
	instruments Instruments
	positions   Positions
	history     History

	allowed map[int64]struct{}
	await   *awaitStore

	mu    sync.RWMutex
	chats map[int64]struct{}
}

func NewTelegram(token string, cfg Config, instruments Instruments, positions Positions, history History) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newTelegram(b, cfg, instruments, positions, history), nil
}

func newTelegram(bot botAPI, cfg Config, instruments Instruments, positions Positions, history History) *Telegram {
	t := &Telegram{
		bot:         bot,
		cfg:         cfg,
		instruments: instruments,
		positions:   positions,
		history:     history,
		allowed:     make(map[int64]struct{}, len(cfg.AllowedChatIDs)),
		await:       newAwaitStore(),
		chats:       make(map[int64]struct{}, len(cfg.ChatIDs)),
	}
	for _, id := range cfg.AllowedChatIDs {
		t.allowed[id] = struct{}{}
	}
	for _, id := range cfg.ChatIDs {
		t.chats[id] = struct{}{}
	}
	return t
}

// Send broadcasts msg to every subscribed chat.
func (t *Telegram) Send(msg string) {
	for _, chatID := range t.Chats() {
		if _, err := t.sendTo(chatID, msg); err != nil {
			logger.Warn("[TG] send to %d: %v", chatID, err)
		}
	}
}

func (t *Telegram) Sendf(format string, args ...any) {
	t.Send(fmt.Sprintf(format, args...))
}

func (t *Telegram) sendTo(chatID int64, text string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, text))
}

func (t *Telegram) subscribe(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.chats[chatID]; ok {
		return false
	}
	t.chats[chatID] = struct{}{}
	return true
}

func (t *Telegram) unsubscribe(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.chats[chatID]; !ok {
		return false
	}
	delete(t.chats, chatID)
	return true
}

func (t *Telegram) Chats() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]int64, 0, len(t.chats))
	for id := range t.chats {
		out = append(out, id)
	}
	return out
}

func (t *Telegram) isAllowed(chatID int64) bool {
	if len(t.allowed) == 0 {
		return true
	}
	_, ok := t.allowed[chatID]
	return ok
}

// Start consumes updates until ctx is cancelled or Stop is called.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
