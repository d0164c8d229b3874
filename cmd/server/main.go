package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"echoloop/internal/api"
	"echoloop/internal/config"
	"echoloop/internal/hub"
	"echoloop/internal/publisher"
	"echoloop/internal/scheduler"
	"echoloop/internal/service"
	"echoloop/internal/source/gmail"
	"echoloop/internal/source/mockmail"
	"echoloop/internal/storage/sqldb"
	"echoloop/internal/summarizer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sqldb.Open(cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	messageStore := sqldb.NewMessageStore(db)
	summaryStore := sqldb.NewSummaryStore(db)

	// Absent or broken Gmail credentials select mock mode; startup
	// never fails on a missing provider.
	mockSource := mockmail.New(logger)
	var source service.MailSource = mockSource
	gmailSource, err := gmail.New(ctx, gmail.Config{
		CredentialsFile: cfg.Gmail.CredentialsFile,
		TokenFile:       cfg.Gmail.TokenFile,
	}, logger)
	if err != nil {
		logger.Warn("gmail unavailable, running in mock mode", "error", err)
	} else {
		source = gmailSource
	}

	backend := summarizer.New(summarizer.Config{
		APIKey:         cfg.OpenAI.APIKey,
		Model:          cfg.OpenAI.Model,
		MaxPromptChars: cfg.Summary.MaxPromptChars,
	}, logger)

	notificationHub := hub.New(logger)
	notifiers := []service.Notifier{notificationHub}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		notifiers = append(notifiers, rabbitMQ)
	}

	ingestService := service.NewIngestService(
		source,
		mockSource,
		backend,
		messageStore,
		summaryStore,
		notifiers,
		logger,
		service.IngestConfig{
			FetchDays:       cfg.Fetch.Days,
			FetchLimit:      cfg.Fetch.Limit,
			SummaryMaxWords: cfg.Summary.MaxWords,
		},
	)

	if cfg.Fetch.Interval > 0 {
		sched := scheduler.New(ingestService, cfg.Fetch.Interval, logger)
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	handler := api.NewHandler(ingestService, summaryStore, logger)
	router := api.NewRouter(handler, notificationHub, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"source", source.Name(),
		"summarizer", backend.Name(),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
