// Package telegram renders the menu and food details screens as Telegram
// messages with inline keyboards.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lucasncamargo/gorestaurant/internal/domain"
	"github.com/lucasncamargo/gorestaurant/internal/fooddetails"
	"github.com/lucasncamargo/gorestaurant/pkg/logger"
	"github.com/lucasncamargo/gorestaurant/pkg/tracing"
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Gateway is the remote data behind the menu and the details screen.
type Gateway interface {
	fooddetails.Gateway
	ListFoods(ctx context.Context, nameLike string) ([]domain.Food, error)
}

type Config struct {
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int
	// VisitTTL drops details screens idle for longer than this.
	VisitTTL time.Duration
}

// visit is one open details screen, shown in messageID.
type visit struct {
	screen    *fooddetails.Screen
	messageID int
	lastSeen  time.Time
}

// Bot dispatches updates to per-chat details screens.
type Bot struct {
	api     API
	gateway Gateway
	format  fooddetails.Formatter
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	visits map[int64]*visit
}

func New(api API, gateway Gateway, format fooddetails.Formatter, cfg Config, logger *slog.Logger) *Bot {
	if cfg.VisitTTL <= 0 {
		cfg.VisitTTL = 30 * time.Minute
	}
	return &Bot{
		api:     api,
		gateway: gateway,
		format:  format,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		visits:  make(map[int64]*visit),
	}
}

// Run polls for updates until ctx is cancelled. Updates are handled one at
// a time in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.SetMyCommandsConfig{
		Commands: []tgbotapi.BotCommand{
			{Command: "start", Description: "Início"},
			{Command: "menu", Description: "Cardápio"},
		},
	}); err != nil {
		b.logger.WarnContext(ctx, "set bot commands failed", slog.String("error", err.Error()))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	b.logger.InfoContext(ctx, "telegram bot polling", slog.Int("poll_timeout", b.cfg.PollTimeout))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case <-sweep.C:
			if n := b.evictExpired(); n > 0 {
				b.logger.DebugContext(ctx, "evicted idle visits", slog.Int("count", n))
			}
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one command message or button press.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx = logger.WithCorrelationID(ctx, uuid.NewString())

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	ctx = chatContext(ctx, chatID, msg.From)

	ctx, span := b.startSpan(ctx, "telegram.command", attribute.String("command", msg.Command()))
	defer span.End()

	switch msg.Command() {
	case "start", "menu":
		b.endVisit(chatID)
		b.sendMenu(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		b.answer(ctx, cq.ID, "")
		return
	}
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID
	ctx = chatContext(ctx, chatID, cq.From)

	ctx, span := b.startSpan(ctx, "telegram.callback", attribute.String("callback.data", cq.Data))
	defer span.End()

	toast := b.dispatch(ctx, chatID, messageID, cq.Data)
	b.answer(ctx, cq.ID, toast)
}

// dispatch applies one button press and returns the toast text, if any.
func (b *Bot) dispatch(ctx context.Context, chatID int64, messageID int, data string) string {
	cmd, arg, _ := strings.Cut(data, ":")

	switch cmd {
	case cbNoop:
		return ""
	case cbMenu:
		b.endVisit(chatID)
		b.editMenu(ctx, chatID, messageID, "")
		return ""
	case cbFood:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return ""
		}
		b.openVisit(ctx, chatID, messageID, id)
		return ""
	}

	v := b.touchVisit(chatID, messageID)
	if v == nil {
		b.editMenu(ctx, chatID, messageID, textVisitExpired)
		return ""
	}
	s := v.screen

	switch cmd {
	case cbExtraInc, cbExtraDec:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return ""
		}
		if cmd == cbExtraInc {
			s.IncrementExtra(id)
		} else {
			s.DecrementExtra(id)
		}
	case cbQtyInc:
		s.IncrementFood()
	case cbQtyDec:
		s.DecrementFood()
	case cbFavorite:
		_ = s.ToggleFavorite(ctx)
	case cbConfirm:
		err := s.FinishOrder(ctx)
		if err == nil || errors.Is(err, fooddetails.ErrGoBack) {
			// The order was accepted; the visit is already closed.
			return textOrderConfirmed
		}
	default:
		return ""
	}

	b.editCard(ctx, chatID, messageID, s.View())
	return ""
}

func (b *Bot) openVisit(ctx context.Context, chatID int64, messageID int, foodID int64) {
	nav := &chatNavigator{bot: b, chatID: chatID, messageID: messageID}
	log := b.logger.With(
		slog.Int64("chat_id", chatID),
		slog.String("user_id", logger.UserIDFromContext(ctx)),
	)
	screen := fooddetails.New(foodID, b.gateway, nav, b.format, log)

	// Failures are logged by the screen; the card renders what is known.
	_ = screen.Mount(ctx)

	b.mu.Lock()
	b.visits[chatID] = &visit{screen: screen, messageID: messageID, lastSeen: b.now()}
	b.mu.Unlock()

	b.editCard(ctx, chatID, messageID, screen.View())
}

// touchVisit returns the chat's visit shown in messageID and refreshes its
// idle timer. Expired visits and presses on stale cards return nil.
func (b *Bot) touchVisit(chatID int64, messageID int) *visit {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.visits[chatID]
	if !ok || v.messageID != messageID {
		return nil
	}
	now := b.now()
	if now.Sub(v.lastSeen) > b.cfg.VisitTTL {
		delete(b.visits, chatID)
		return nil
	}
	v.lastSeen = now
	return v
}

func (b *Bot) endVisit(chatID int64) {
	b.mu.Lock()
	delete(b.visits, chatID)
	b.mu.Unlock()
}

func (b *Bot) evictExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	n := 0
	for chatID, v := range b.visits {
		if now.Sub(v.lastSeen) > b.cfg.VisitTTL {
			delete(b.visits, chatID)
			n++
		}
	}
	return n
}

func (b *Bot) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if chatID, ok := logger.ChatIDFromContext(ctx); ok {
		attrs = append(attrs, attribute.Int64("telegram.chat_id", chatID))
	}
	return tracing.Tracer("gorestaurant/telegram").Start(ctx, name, trace.WithAttributes(attrs...))
}

// chatContext tags ctx with the chat and the acting user. Telegram users
// map onto API users as "tg-<id>".
func chatContext(ctx context.Context, chatID int64, from *tgbotapi.User) context.Context {
	ctx = logger.WithChatID(ctx, chatID)
	userID := chatID
	if from != nil {
		userID = from.ID
	}
	return logger.WithUserID(ctx, "tg-"+strconv.FormatInt(userID, 10))
}

// chatNavigator leaves a details screen by turning its card back into the
// menu.
type chatNavigator struct {
	bot       *Bot
	chatID    int64
	messageID int
}

func (n *chatNavigator) GoBack(ctx context.Context) error {
	n.bot.endVisit(n.chatID)
	return n.bot.editMenu(ctx, n.chatID, n.messageID, textOrderConfirmed)
}
