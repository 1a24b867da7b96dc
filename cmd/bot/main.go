package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"daily-spark/internal/clock"
	"daily-spark/internal/config"
	"daily-spark/internal/coordinator"
	"daily-spark/internal/delivery"
	"daily-spark/internal/generator"
	"daily-spark/internal/history"
	"daily-spark/internal/llm"
	"daily-spark/internal/logging"
	"daily-spark/internal/metrics"
	"daily-spark/internal/report"
	"daily-spark/internal/scheduler"
	"daily-spark/internal/telegram"
)

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.New()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	if envErr != nil {
		log.Warn().Err(envErr).Msg(".env file not found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location()

	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create llm client")
	}
	gen := generator.New(client, logging.Component(log, "generator"),
		generator.WithSystemPrompt(readSystemPrompt(cfg.SystemPromptPath, log)),
		generator.WithTimeout(cfg.GenerationTimeout),
	)

	hist := history.Connect(ctx, cfg.StoreDSN, loc, cfg.StoreTimeout, logging.Component(log, "history"))
	defer func() {
		if err := hist.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close history store")
		}
	}()

	bot, err := telegram.New(cfg.TelegramBotToken, cfg.DeliveryTimeout, logging.Component(log, "telegram"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, log); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	sched, err := scheduler.New(cfg.SendHour, cfg.SendMinute, loc, logging.Component(log, "scheduler"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	coord := coordinator.New(coordinator.Deps{
		Generator:    gen,
		History:      hist,
		Renderer:     report.New(cfg.ReportDir),
		Channel:      bot,
		Clock:        clock.New(loc),
		Metrics:      m,
		Log:          logging.Component(log, "coordinator"),
		Broadcast:    delivery.Target{ChatID: cfg.ChatID},
		HistoryLimit: config.HistoryLimit,
	})

	log.Info().
		Str("provider", string(cfg.LLMProvider)).
		Bool("persistence", hist.Available()).
		Int64("chat_id", cfg.ChatID).
		Msg("🚀 bot started")
	if err := coord.Run(ctx, sched.Ticks(), bot.Listen(ctx)); err != nil {
		log.Error().Err(err).Msg("coordinator stopped with error")
	}
	log.Info().Msg("👋 bot stopped")
}

// readSystemPrompt returns the prompt file contents, or "" to keep the
// built-in prompt.
func readSystemPrompt(path string, log zerolog.Logger) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("system prompt file not found or unreadable")
		return ""
	}
	return strings.TrimSpace(string(data))
}
