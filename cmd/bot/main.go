package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lucasncamargo/gorestaurant/internal/config"
	"github.com/lucasncamargo/gorestaurant/internal/gateway"
	"github.com/lucasncamargo/gorestaurant/internal/telegram"
	"github.com/lucasncamargo/gorestaurant/pkg/auth"
	pkgconfig "github.com/lucasncamargo/gorestaurant/pkg/config"
	"github.com/lucasncamargo/gorestaurant/pkg/logger"
	"github.com/lucasncamargo/gorestaurant/pkg/money"
	"github.com/lucasncamargo/gorestaurant/pkg/tracing"
)

const serviceName = "gorestaurant-bot"

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.LoadBot()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.LogLevel)
	log.Info("starting gorestaurant bot",
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	// Cancelled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bot error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("gorestaurant bot stopped")
}

func run(ctx context.Context, cfg *config.BotConfig, log *slog.Logger) error {
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}()

	gwCfg := gateway.DefaultConfig(cfg.APIBaseURL)
	gwCfg.HTTP.Timeout = cfg.APITimeout
	gwCfg.HTTP.MaxRetries = cfg.APIMaxRetries
	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
		if err != nil {
			return fmt.Errorf("init token manager: %w", err)
		}
		gwCfg.Tokens = tokens
	}

	api, err := gateway.New(gwCfg, log)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	format, err := money.New(cfg.Locale, cfg.CurrencySymbol)
	if err != nil {
		return fmt.Errorf("invalid CURRENCY_LOCALE %q: %w", cfg.Locale, err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	botAPI.Debug = cfg.TelegramDebug
	log.Info("authorized on telegram", slog.String("username", botAPI.Self.UserName))

	bot := telegram.New(botAPI, api, format, telegram.Config{
		PollTimeout: cfg.TelegramPollTimeout,
		VisitTTL:    cfg.VisitTTL,
	}, log)

	return bot.Run(ctx)
}
