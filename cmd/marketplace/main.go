package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/app/chat"
	appnotify "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/app/notify"
	domainchat "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/chat"
	domainuser "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/domain/user"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/broker/kafka"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/config"
	mongodb "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/db/mongo"
	ginserver "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/http/gin"
	infranotify "github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/notify"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/obs"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/realtime"
	"github.com/rasbelikeSOON/cu-marketplace-spark-sub000/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env, getenv("LOG_LEVEL", "info"))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	var (
		messages domainchat.MessageRepository
		profiles domainuser.ProfileRepository
		prefs    domainuser.PreferencesRepository
		ready    = func() error { return nil }
		cleanup  []func()
	)
	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("mongo connect failed", "error", err)
			os.Exit(1)
		}
		messageRepo := mongodb.NewMessageRepository(client.DB)
		if err := messageRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("mongo index creation failed", "error", err)
		}
		messages = messageRepo
		profiles = mongodb.NewProfileRepository(client.DB)
		prefs = mongodb.NewPreferencesRepository(client.DB)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		cleanup = append(cleanup, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		})
		logger.Info("storage: mongo", "db", cfg.MongoDB)
	default:
		messages = memory.NewMessageRepository()
		profiles = memory.NewProfileRepository()
		prefs = memory.NewPreferencesRepository()
		logger.Warn("storage: in-memory, data is not durable")
	}

	hub := realtime.NewHub(cfg.WSSendBuffer, logger)

	var channel appnotify.Channel
	if cfg.TelegramToken != "" {
		channel = &infranotify.TelegramClient{
			Client:  &http.Client{Timeout: cfg.TelegramTimeout},
			BaseURL: cfg.TelegramAPIBase,
			Token:   cfg.TelegramToken,
		}
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN not set, notifications will be skipped")
	}
	dispatcher := &appnotify.Dispatcher{
		Profiles:    profiles,
		Preferences: prefs,
		Channel:     channel,
		Logger:      logger,
	}

	service := &appchat.Service{
		Messages: messages,
		Realtime: hub,
		Logger:   logger,
	}
	// With a broker configured, dispatch rides the chat.events topic
	// through a consumer group; otherwise it runs in-process. Never
	// both, or receivers would be notified twice.
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaChatTopic, nil)
		if err != nil {
			logger.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka producer close failed", "error", err)
			}
		})
		service.Events = publisher

		consumer, err := kafka.NewNotifyConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaChatTopic, nil, dispatcher, logger)
		if err != nil {
			logger.Error("kafka consumer init failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("notify consumer stopped", "error", err)
			}
		}()
		cleanup = append(cleanup, func() {
			if err := consumer.Close(); err != nil {
				logger.Error("kafka consumer close failed", "error", err)
			}
		})
		logger.Info("notification dispatch via kafka", "topic", cfg.KafkaChatTopic, "group", cfg.KafkaGroupID)
	} else {
		service.Notify = dispatcher
		logger.Info("notification dispatch in-process")
	}

	aggregator := &appchat.Aggregator{
		Messages: messages,
		Profiles: profiles,
		Logger:   logger,
	}

	handlers := ginserver.Handlers{
		Chat: ginserver.ChatHandler{
			Service:    service,
			Aggregator: aggregator,
			Logger:     logger,
		},
		Preferences: ginserver.PreferencesHandler{
			Preferences: prefs,
			Logger:      logger,
		},
		ChatWS: ginserver.WSHandler{
			Hub:            hub,
			AllowedOrigins: cfg.WSAllowedOrigins,
			Logger:         logger,
		}.Handle,
		AuthMiddleware: ginserver.AuthMiddleware{
			Secret: []byte(cfg.JWTSecret),
			Logger: logger,
		}.Handle,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Storage: cfg.StorageMode, Ready: ready}, handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	runCleanup(cleanup, logger)
	logger.Info("HTTP server stopped")
}

func runCleanup(steps []func(), logger *slog.Logger) {
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
	logger.Debug("cleanup finished")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
