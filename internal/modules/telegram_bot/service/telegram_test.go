package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"mtf_bot/internal/models"
	"mtf_bot/internal/runner"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent     []tgbot.Chattable
	requests []tgbot.Chattable
}

func (f *fakeBot) Send(c tgbot.Chattable) (tgbot.Message, error) {
	f.sent = append(f.sent, c)
	return tgbot.Message{}, nil
}

func (f *fakeBot) Request(c tgbot.Chattable) (*tgbot.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbot.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbot.UpdateConfig) tgbot.UpdatesChannel { return nil }
func (f *fakeBot) StopReceivingUpdates()                                  {}

func (f *fakeBot) texts() map[int64]string {
	out := make(map[int64]string)
	for _, c := range f.sent {
		if m, ok := c.(tgbot.MessageConfig); ok {
			out[m.ChatID] = m.Text
		}
	}
	return out
}

type fakePositions struct {
	views     map[string]models.PositionView
	decisions map[string]models.Decision
}

func (f *fakePositions) Snapshot() []models.PositionView {
	out := make([]models.PositionView, 0, len(f.views))
	for _, v := range f.views {
		out = append(out, v)
	}
	return out
}

func (f *fakePositions) State(symbol string) models.PositionView { return f.views[symbol] }

func (f *fakePositions) LastDecision(symbol string) (models.Decision, bool) {
	d, ok := f.decisions[symbol]
	return d, ok
}

type fakeHistory struct {
	out []models.Decision
	err error
}

func (f *fakeHistory) Recent(context.Context, string, int) ([]models.Decision, error) {
	return f.out, f.err
}

func newTestBot(t *testing.T) (*Telegram, *fakeBot, *runner.Registry, *fakePositions, *fakeHistory) {
	t.Helper()
	bot := &fakeBot{}
	reg := runner.NewRegistry()
	pos := &fakePositions{views: map[string]models.PositionView{}, decisions: map[string]models.Decision{}}
	hist := &fakeHistory{}
	tg := newTelegram(bot, Config{DefaultSpend: 10}, reg, pos, hist)
	return tg, bot, reg, pos, hist
}

func command(chatID int64, text string) tgbot.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbot.Update{Message: &tgbot.Message{
		Chat:     &tgbot.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbot.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func TestJoinLeaveBroadcast(t *testing.T) {
	tg, bot, _, _, _ := newTestBot(t)
	ctx := context.Background()

	assert.Contains(t, tg.execute(ctx, 1, "join", ""), "Subscribed")
	assert.Equal(t, "Already subscribed", tg.execute(ctx, 1, "join", ""))
	tg.execute(ctx, 2, "join", "")

	tg.Sendf("hello %d", 7)
	texts := bot.texts()
	assert.Equal(t, "hello 7", texts[1])
	assert.Equal(t, "hello 7", texts[2])

	assert.Contains(t, tg.execute(ctx, 2, "leave", ""), "Unsubscribed")
	assert.Equal(t, "Not subscribed", tg.execute(ctx, 2, "leave", ""))
	assert.ElementsMatch(t, []int64{1}, tg.Chats())
}

func TestConfiguredChatsReceiveNotifications(t *testing.T) {
	bot := &fakeBot{}
	tg := newTelegram(bot, Config{ChatIDs: []int64{5, 6}}, runner.NewRegistry(), &fakePositions{}, nil)

	tg.Send("x")
	assert.Len(t, bot.sent, 2)
}

func TestAddAndList(t *testing.T) {
	tg, _, reg, _, _ := newTestBot(t)
	ctx := context.Background()

	assert.Equal(t, "➕ BTCUSDT added, spend 10.00", tg.execute(ctx, 1, "add", "btc/usdt"))
	assert.Equal(t, "➕ ETHUSDT added, spend 25.50", tg.execute(ctx, 1, "add", "ETHUSDT 25,5"))
	assert.Equal(t, "🔁 BTCUSDT updated, spend 12.00", tg.execute(ctx, 1, "add", "BTCUSDT 12"))
	assert.Contains(t, tg.execute(ctx, 1, "add", "SOLUSDT -1"), "Bad spend")
	assert.Equal(t, 2, reg.Len())

	assert.Equal(t, "📋 Symbols:\n- BTCUSDT spend 12.00\n- ETHUSDT spend 25.50", tg.execute(ctx, 1, "list", ""))
}

func TestAddAwaitsArgument(t *testing.T) {
	tg, bot, reg, _, _ := newTestBot(t)
	ctx := context.Background()

	tg.handleUpdate(ctx, command(3, "/add"))
	assert.Equal(t, "Send SYMBOL [SPEND]", bot.texts()[3])

	tg.handleUpdate(ctx, tgbot.Update{Message: &tgbot.Message{Chat: &tgbot.Chat{ID: 3}, Text: "xrpusdt"}})
	_, ok := reg.Get("XRPUSDT")
	assert.True(t, ok)

	// a second plain message is not a command argument
	sent := len(bot.sent)
	tg.handleUpdate(ctx, tgbot.Update{Message: &tgbot.Message{Chat: &tgbot.Chat{ID: 3}, Text: "hi"}})
	assert.Len(t, bot.sent, sent)
}

func TestRemove(t *testing.T) {
	tg, _, reg, pos, _ := newTestBot(t)
	ctx := context.Background()
	reg.Add("BTCUSDT", 0)
	reg.Add("ETHUSDT", 0)
	pos.views["ETHUSDT"] = models.PositionView{Symbol: "ETHUSDT", State: models.StateOpen, HasOpenPosition: true}

	assert.Equal(t, "➖ BTCUSDT removed", tg.execute(ctx, 1, "remove", "BTCUSDT"))
	assert.Contains(t, tg.execute(ctx, 1, "remove", "ETHUSDT"), "keeps its bracket")
	assert.Equal(t, "DOGEUSDT is not traded", tg.execute(ctx, 1, "remove", "DOGEUSDT"))
	assert.Equal(t, 0, reg.Len())
}

func TestRemoveButton(t *testing.T) {
	tg, bot, reg, _, _ := newTestBot(t)
	reg.Add("BTCUSDT", 0)
	reg.Add("ETHUSDT", 0)

	tg.handleUpdate(context.Background(), tgbot.Update{CallbackQuery: &tgbot.CallbackQuery{
		ID:      "cb1",
		Data:    removePrefix + "BTCUSDT",
		Message: &tgbot.Message{MessageID: 9, Chat: &tgbot.Chat{ID: 1}},
	}})

	_, ok := reg.Get("BTCUSDT")
	assert.False(t, ok)
	require.Len(t, bot.requests, 2)
	edit, ok := bot.requests[1].(tgbot.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, "📋 Symbols:\n- ETHUSDT spend 10.00", edit.Text)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, edit.ReplyMarkup.InlineKeyboard, 1)
}

func TestListKeyboard(t *testing.T) {
	tg, bot, reg, _, _ := newTestBot(t)
	reg.Add("BTCUSDT", 0)

	tg.handleUpdate(context.Background(), command(1, "/list"))
	require.Len(t, bot.sent, 1)
	msg := bot.sent[0].(tgbot.MessageConfig)
	kb, ok := msg.ReplyMarkup.(tgbot.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, removePrefix+"BTCUSDT", *kb.InlineKeyboard[0][0].CallbackData)
}

func TestStatus(t *testing.T) {
	tg, _, _, pos, _ := newTestBot(t)
	ctx := context.Background()

	assert.Equal(t, "📭 No positions tracked yet", tg.execute(ctx, 1, "status", ""))

	pos.views["BTCUSDT"] = models.PositionView{Symbol: "BTCUSDT", State: models.StateOpen, HasOpenPosition: true, Quantity: "0.1", EntryPrice: 100}
	assert.Equal(t, "📊 Positions:\n- BTCUSDT Open qty 0.1 @ 100.00", tg.execute(ctx, 1, "status", ""))
}

func TestLastDecision(t *testing.T) {
	tg, _, _, pos, hist := newTestBot(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	pos.decisions["BTCUSDT"] = models.Decision{
		Symbol: "BTCUSDT", At: at, Side: models.SideBuy, Trend: models.TrendUp,
		Trends:        map[models.Timeframe]models.Trend{"5m": models.TrendUp, "1h": models.TrendUp},
		TakeProfitPct: 3.25, Action: models.ActionEntered,
	}
	assert.Equal(t,
		"BTCUSDT at 2024-05-01 10:00:00\nTrend: uptrend\n  1h: uptrend\n  5m: uptrend\nSignal: BUY, TP 3.25%\nAction: entered",
		tg.execute(ctx, 1, "last", "btcusdt"))

	hist.out = []models.Decision{{Symbol: "ETHUSDT", At: at, Trend: models.TrendSideways, Action: models.ActionNone, Detail: "flat"}}
	assert.Equal(t,
		"ETHUSDT at 2024-05-01 10:00:00\nTrend: sideways\nSignal: -, TP 0.00%\nAction: none (flat)",
		tg.execute(ctx, 1, "last", "ETHUSDT"))

	hist.out, hist.err = nil, errors.New("db down")
	assert.Equal(t, "No decisions for SOLUSDT yet", tg.execute(ctx, 1, "last", "SOLUSDT"))
}

func TestAllowedChats(t *testing.T) {
	bot := &fakeBot{}
	tg := newTelegram(bot, Config{AllowedChatIDs: []int64{1}}, runner.NewRegistry(), &fakePositions{}, nil)

	tg.handleUpdate(context.Background(), command(2, "/join"))
	assert.Empty(t, bot.sent)
	assert.Empty(t, tg.Chats())

	tg.handleUpdate(context.Background(), command(1, "/join"))
	assert.Equal(t, []int64{1}, tg.Chats())
}

func TestUnknownCommand(t *testing.T) {
	tg, _, _, _, _ := newTestBot(t)
	assert.Equal(t, "Unknown command, see /help", tg.execute(context.Background(), 1, "foo", ""))
	assert.Equal(t, helpText, tg.execute(context.Background(), 1, "start", ""))
}
