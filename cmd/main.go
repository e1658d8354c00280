package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notification-service/internal/config"
	"notification-service/internal/dispatcher"
	"notification-service/internal/event"
	"notification-service/internal/google"
	"notification-service/internal/handlers"
	"notification-service/internal/history"
	"notification-service/internal/logger"
	"notification-service/internal/metrics"
	"notification-service/internal/push"
	"notification-service/internal/store"
)

func main() {
	logger.Setup()
	metrics.Init()
	cfg := config.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	firebaseService, err := google.NewFirebaseService(&google.FirebaseConfig{
		CredentialsPath: cfg.FirebaseCfg.CredentialsPath,
		ProjectID:       cfg.FirebaseCfg.ProjectID,
		DatabaseURL:     cfg.FirebaseCfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	recordStore, err := store.NewFirebaseStore(ctx, firebaseService.App())
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}

	broadcaster, err := push.NewBroadcaster(ctx, push.BroadcasterConfig{
		CredentialsPath: cfg.FirebaseCfg.CredentialsPath,
		ProjectID:       cfg.FirebaseCfg.ProjectID,
		Endpoint:        cfg.BroadcastCfg.Endpoint,
	})
	if err != nil {
		log.Fatalf("Failed to initialize broadcaster: %v", err)
	}

	var mailer dispatcher.AlertMailer
	if cfg.AlertMailCfg.To != "" {
		emailService := google.NewEmailService(cfg.AlertMailCfg.Username, cfg.AlertMailCfg.Password)
		mailer = google.NewComplaintAlertMailer(emailService, cfg.AlertMailCfg.To)
	}

	recorder := history.NewRecorder(recordStore)
	disp := dispatcher.New(recordStore, firebaseService, broadcaster, recorder, mailer)

	consumerConfig := &event.ConsumerConfig{
		RabbitMQURL: fmt.Sprintf("amqp://%s:%s@%s:%s/",
			cfg.RabbitMQCfg.Username,
			cfg.RabbitMQCfg.Password,
			cfg.RabbitMQCfg.Host,
			cfg.RabbitMQCfg.Port),
		QueueName:       cfg.RabbitMQCfg.QueueName,
		DeadLetterQueue: cfg.RabbitMQCfg.DeadLetterQueue,
		PrefetchCount:   cfg.RabbitMQCfg.PrefetchCount,
	}

	consumer, err := event.NewQueueConsumer(consumerConfig, disp)
	if err != nil {
		log.Fatalf("Failed to setup queue consumer: %v", err)
	}
	defer consumer.Close()

	go func() {
		if err := consumer.StartConsuming(ctx); err != nil {
			slog.Error("consumer stopped", "error", err.Error())
		}
	}()

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Notification service is healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	pushHandler := handlers.NewPushHandler(firebaseService)
	pushHandler.Register(app)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "port", cfg.Port)
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%s", cfg.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	<-shutdownChan
	slog.Info("shutting down server")
	cancel()
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err.Error())
	}
}
