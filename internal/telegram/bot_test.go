package telegram

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/fooddetails"
	"github.com/lucasncamargo/gorestaurant/pkg/money"
)

const (
	testChatID    int64 = 500
	testUserID    int64 = 77
	testMessageID       = 10
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func menuFoods() []domain.Food {
	return []domain.Food{
		{
			ID: 1, Name: "Ao molho", Description: "Macarrão ao molho branco",
			Price: decimal.RequireFromString("10.00"), ImageURL: "https://img/1.png", Available: true,
			Extras: []domain.Extra{{ID: 1, Name: "Bacon", Value: decimal.RequireFromString("1.50")}},
		},
		{ID: 2, Name: "Veggie", Price: decimal.RequireFromString("21.90"), Available: true},
	}
}

type harness struct {
	bot   *Bot
	api   *fakeAPI
	gw    *fakeGateway
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		api:   newFakeAPI(),
		gw:    newFakeGateway(menuFoods()...),
		clock: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	h.bot = New(h.api, h.gw, money.Default(), Config{PollTimeout: 1, VisitTTL: 10 * time.Minute}, testLogger())
	h.bot.now = func() time.Time { return h.clock }
	return h
}

func (h *harness) press(data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-" + data,
			From: &tgbotapi.User{ID: testUserID},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: testMessageID,
				Chat:      &tgbotapi.Chat{ID: testChatID},
			},
		},
	})
}

func commandUpdate(text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: testUserID},
			Chat:      &tgbotapi.Chat{ID: testChatID},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func buttonData(kb *tgbotapi.InlineKeyboardMarkup) []string {
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

func visitCount(b *Bot) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.visits)
}

func TestMenuCommand_SendsFoodButtons(t *testing.T) {
	h := newHarness(t)

	h.bot.HandleUpdate(context.Background(), commandUpdate("/menu"))

	require.Len(t, h.api.sent, 1)
	msg, ok := h.api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, testChatID, msg.ChatID)
	assert.Contains(t, msg.Text, textMenuTitle)

	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, []string{"food:1", "food:2"}, buttonData(&kb))
	assert.Equal(t, "Ao molho · R$ 10,00", kb.InlineKeyboard[0][0].Text)
}

func TestMenuCommand_PassesNameFilter(t *testing.T) {
	h := newHarness(t)

	h.bot.HandleUpdate(context.Background(), commandUpdate("/menu veg"))

	assert.Equal(t, "veg", h.gw.nameLike)
}

func TestMenu_Unavailable(t *testing.T) {
	h := newHarness(t)
	h.gw.listErr = errors.New("connection refused")

	h.bot.HandleUpdate(context.Background(), commandUpdate("/start"))

	msg := h.api.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, msg.Text, textMenuUnavailable)
	kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.Equal(t, []string{cbMenu}, buttonData(&kb))
}

func TestOpenFood_RendersCard(t *testing.T) {
	h := newHarness(t)

	h.press("food:1")

	edit := h.api.lastEdit()
	assert.Equal(t, testMessageID, edit.MessageID)
	assert.Contains(t, edit.Text, "Ao molho")
	assert.Contains(t, edit.Text, "Total do pedido: R$ 10,00")
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t,
		[]string{"xdec:1", cbNoop, "xinc:1", cbQtyDec, cbNoop, cbQtyInc, cbFavorite, cbConfirm, cbMenu},
		buttonData(edit.ReplyMarkup),
	)
	assert.Equal(t, "cb-food:1", h.api.lastCallback().CallbackQueryID)
	assert.Equal(t, 1, visitCount(h.bot))
}

func TestOpenFood_ActsAsTelegramUser(t *testing.T) {
	h := newHarness(t)

	h.press("food:1")

	require.NotEmpty(t, h.gw.users)
	for _, u := range h.gw.users {
		assert.Equal(t, "tg-77", u)
	}
}

func TestOpenFood_UnknownFood(t *testing.T) {
	h := newHarness(t)

	h.press("food:99")

	edit := h.api.lastEdit()
	assert.Equal(t, textFoodUnavailable, edit.Text)
	assert.Equal(t, []string{"food:99", cbMenu}, buttonData(edit.ReplyMarkup))
}

func TestCardButtons_UpdateTotal(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	h.press("xinc:1")
	h.press("xinc:1")
	h.press("xinc:1")
	h.press("qinc")

	edit := h.api.lastEdit()
	assert.Contains(t, edit.Text, "Total do pedido: R$ 29,00")
	assert.Equal(t, "Bacon × 3", edit.ReplyMarkup.InlineKeyboard[0][1].Text)
	assert.Equal(t, "2", edit.ReplyMarkup.InlineKeyboard[1][1].Text)

	h.press("qdec")
	h.press("qdec")
	h.press("xdec:1")
	assert.Equal(t, "1", h.api.lastEdit().ReplyMarkup.InlineKeyboard[1][1].Text)
	assert.Equal(t, "Bacon × 2", h.api.lastEdit().ReplyMarkup.InlineKeyboard[0][1].Text)
}

func TestFavoriteButton_Toggles(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	h.press(cbFavorite)
	assert.Contains(t, h.gw.favorites, int64(1))
	assert.True(t, strings.HasPrefix(h.api.lastEdit().Text, "❤️"))

	h.press(cbFavorite)
	assert.NotContains(t, h.gw.favorites, int64(1))
	assert.True(t, strings.HasPrefix(h.api.lastEdit().Text, "🤍"))
}

func TestConfirm_PlacesOrderAndShowsMenu(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")
	h.press("xinc:1")
	h.press("qinc")

	h.press(cbConfirm)

	require.Len(t, h.gw.orders, 1)
	order := h.gw.orders[0]
	assert.Equal(t, int64(1), order.ProductID)
	assert.Equal(t, 2, order.Quantity)
	require.Len(t, order.Extras, 1)
	assert.Equal(t, 1, order.Extras[0].Quantity)
	assert.Equal(t, "https://img/1.png", order.ThumbnailURL)

	edit := h.api.lastEdit()
	assert.True(t, strings.HasPrefix(edit.Text, textOrderConfirmed))
	assert.Equal(t, []string{"food:1", "food:2"}, buttonData(edit.ReplyMarkup))
	assert.Equal(t, textOrderConfirmed, h.api.lastCallback().Text)
	assert.Zero(t, visitCount(h.bot))
}

func TestConfirm_FailureKeepsCard(t *testing.T) {
	h := newHarness(t)
	h.gw.orderErr = errors.New("unprocessable")
	h.press("food:1")

	h.press(cbConfirm)

	assert.Contains(t, h.api.lastEdit().Text, "Total do pedido")
	assert.Empty(t, h.api.lastCallback().Text)
	assert.Equal(t, 1, visitCount(h.bot))
}

func TestConfirm_MenuEditFailsAfterOrder(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")
	h.api.sendErr = errors.New("Bad Request: message to edit not found")
	before := h.api.sentCount()

	h.press(cbConfirm)

	require.Len(t, h.gw.orders, 1)
	assert.Equal(t, textOrderConfirmed, h.api.lastCallback().Text)
	assert.Zero(t, visitCount(h.bot))
	// Only the menu edit was attempted; the closed card is not re-rendered.
	require.Equal(t, before+1, h.api.sentCount())
	assert.True(t, strings.HasPrefix(h.api.lastEdit().Text, textOrderConfirmed))
}

func TestMenuButton_EndsVisit(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	h.press(cbMenu)

	assert.Zero(t, visitCount(h.bot))
	assert.Contains(t, h.api.lastEdit().Text, textMenuTitle)
}

func TestExpiredVisit_ShowsMenu(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	h.clock = h.clock.Add(11 * time.Minute)
	h.press(cbQtyInc)

	edit := h.api.lastEdit()
	assert.True(t, strings.HasPrefix(edit.Text, textVisitExpired))
	assert.Zero(t, visitCount(h.bot))
}

func TestStaleCard_Ignored(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "old",
			From:    &tgbotapi.User{ID: testUserID},
			Data:    cbQtyInc,
			Message: &tgbotapi.Message{MessageID: testMessageID - 1, Chat: &tgbotapi.Chat{ID: testChatID}},
		},
	})

	assert.True(t, strings.HasPrefix(h.api.lastEdit().Text, textVisitExpired))
	assert.Equal(t, 1, visitCount(h.bot))
}

func TestEvictExpired(t *testing.T) {
	h := newHarness(t)
	h.press("food:1")

	assert.Zero(t, h.bot.evictExpired())

	h.clock = h.clock.Add(11 * time.Minute)
	assert.Equal(t, 1, h.bot.evictExpired())
	assert.Zero(t, visitCount(h.bot))
}

func TestRun_HandlesUpdatesUntilClosed(t *testing.T) {
	h := newHarness(t)
	h.api.updates <- commandUpdate("/menu")
	close(h.api.updates)

	require.NoError(t, h.bot.Run(context.Background()))

	var sentMenu bool
	for _, c := range h.api.sent {
		if _, ok := c.(tgbotapi.MessageConfig); ok {
			sentMenu = true
		}
	}
	assert.True(t, sentMenu)

	_, ok := h.api.requests[0].(tgbotapi.SetMyCommandsConfig)
	assert.True(t, ok)
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.bot.Run(ctx))
	assert.True(t, h.api.stopped)
}

func TestRenderCard_NotLoaded(t *testing.T) {
	text, kb := renderCard(fooddetails.View{FoodID: 4})

	assert.Equal(t, textFoodUnavailable, text)
	assert.Equal(t, []string{"food:4", cbMenu}, buttonData(&kb))
}
