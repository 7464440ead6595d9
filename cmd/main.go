package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ytsummarizer/internal/bot"
	"ytsummarizer/internal/config"
	"ytsummarizer/internal/database"
	"ytsummarizer/internal/pipeline"
	"ytsummarizer/internal/scheduler"
	"ytsummarizer/internal/summarizer"
	"ytsummarizer/internal/web"
	"ytsummarizer/internal/youtube"
)

func main() {
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config",
			"error", err)

		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model, err := initModel(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize model",
			"error", err,
			"backend", cfg.ModelBackend)

		return
	}

	generator := summarizer.NewGenerator(model, cfg.MaxConcurrentGenerations, log)
	log.InfoContext(ctx, "Summary generator is initialized",
		"backend", cfg.ModelBackend,
		"checkpoint", generator.Checkpoint(),
		"maxConcurrentGenerations", cfg.MaxConcurrentGenerations)

	client := youtube.NewClient(youtube.ClientConfig{
		Languages:         cfg.TranscriptLanguages,
		RequestsPerSecond: cfg.YouTubeRequestsPerSecond,
	}, log)
	extractor := youtube.NewExtractor(client, log)

	var (
		recorder pipeline.HistoryRecorder
		lister   web.HistoryLister
		db       *database.Database
	)

	if cfg.HistoryEnabled() {
		db, err = database.New(ctx, cfg.DBPath, log)
		if err != nil {
			log.ErrorContext(ctx, "Failed to initialize db",
				"error", err,
				"dbPath", cfg.DBPath)

			return
		}
		defer func() {
			if err = db.Close(); err != nil {
				log.ErrorContext(ctx, "Failed to close db",
					"error", err,
					"dbPath", cfg.DBPath)
			}
		}()
		log.InfoContext(ctx, "DB is initialized",
			"dbPath", cfg.DBPath)

		recorder = db
		lister = db
	} else {
		log.InfoContext(ctx, "History is disabled")
	}

	runner := pipeline.New(extractor, generator, recorder, log)

	server, err := web.NewServer(runner, lister, cfg.HistoryLimit, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize web server",
			"error", err)

		return
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(ctx, cfg.HTTPAddr)
	}()
	log.InfoContext(ctx, "Web server is started",
		"addr", cfg.HTTPAddr)

	if db != nil {
		sched := scheduler.New(ctx, db, cfg.HistoryRetention, log)

		if err = sched.Start(); err != nil {
			log.ErrorContext(ctx, "Failed to start scheduler",
				"error", err,
				"spec", scheduler.HourlyPruneSpec,
				"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

			return
		}
		defer sched.Stop()
		log.InfoContext(ctx, "Scheduler is started",
			"spec", scheduler.HourlyPruneSpec,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String(),
			"retention", cfg.HistoryRetention.String())
	}

	botInst, err := initBot(ctx, cfg, runner, lister, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	if botInst != nil {
		go botInst.Start(ctx)
		defer botInst.Stop()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
		cancel()

		if err = <-serverErr; err != nil {
			log.ErrorContext(ctx, "Failed to shut down web server",
				"error", err,
				"addr", cfg.HTTPAddr)
		}
	case err = <-serverErr:
		log.ErrorContext(ctx, "Web server is stopped unexpectedly",
			"error", err,
			"addr", cfg.HTTPAddr)
	}
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func initModel(ctx context.Context, cfg config.Config, log *slog.Logger) (summarizer.Model, error) {
	switch cfg.ModelBackend {
	case config.BackendOpenAI:
		m, err := summarizer.NewOpenAIModel(summarizer.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("create OpenAI model: %w", err)
		}

		log.InfoContext(ctx, "OpenAI model is initialized",
			"model", m.Checkpoint())

		return m, nil
	default:
		m, err := summarizer.NewHuggingFaceModel(summarizer.HuggingFaceConfig{
			BaseURL:    cfg.HFAPIURL,
			Checkpoint: cfg.ModelCheckpoint,
			Token:      cfg.HFAPIToken,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("create Hugging Face model: %w", err)
		}

		if cfg.HFAPIToken == "" {
			log.WarnContext(ctx, "HF_API_TOKEN is missing so requests are anonymous",
				"envVar", "HF_API_TOKEN")
		}

		log.InfoContext(ctx, "Hugging Face model is initialized",
			"checkpoint", m.Checkpoint())

		return m, nil
	}
}

func initBot(
	ctx context.Context,
	cfg config.Config,
	runner bot.Summarizer,
	history web.HistoryLister,
	log *slog.Logger,
) (*bot.Bot, error) {
	if !cfg.BotEnabled() {
		log.InfoContext(ctx, "TOKEN is missing so Telegram bot is disabled",
			"envVar", "TOKEN")

		return nil, nil
	}

	b, err := bot.New(cfg.Token, runner, history, cfg.HistoryLimit, cfg.AllowedUsers, log)
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	return b, nil
}
