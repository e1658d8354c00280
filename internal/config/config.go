package config

import (
	"os"

	"github.com/joho/godotenv"
)

type NotificationService struct {
	Port         string
	RabbitMQCfg  RabbitMQConfig
	FirebaseCfg  FirebaseConfig
	BroadcastCfg BroadcastConfig
	AlertMailCfg AlertMailConfig
}

type RabbitMQConfig struct {
	Username        string
	Password        string
	Host            string
	Port            string
	QueueName       string
	DeadLetterQueue string
	PrefetchCount   int
}

type FirebaseConfig struct {
	CredentialsPath string
	ProjectID       string
	DatabaseURL     string
}

// BroadcastConfig tunes the per-recipient HTTP send used for admin broadcasts.
type BroadcastConfig struct {
	Endpoint string
}

type AlertMailConfig struct {
	Username string
	Password string
	To       string
}

func New() *NotificationService {
	// A missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	return &NotificationService{
		Port: getEnvOrDefault("NOTIFICATION_SERVICE_PORT", "8088"),
		RabbitMQCfg: RabbitMQConfig{
			Username:        getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password:        getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:            getEnvOrDefault("RABBITMQ_HOST", "rabbitmq"),
			Port:            getEnvOrDefault("RABBITMQ_PORT", "5672"),
			QueueName:       getEnvOrDefault("COMPLAINT_EVENT_QUEUE", "complaint_events"),
			DeadLetterQueue: getEnvOrDefault("COMPLAINT_EVENT_DLQ", "complaint_events.dlq"),
			PrefetchCount:   10,
		},
		FirebaseCfg: FirebaseConfig{
			CredentialsPath: getEnvOrDefault("FIREBASE_SERVICE_ACCOUNT_KEY", ""),
			ProjectID:       getEnvOrDefault("FIREBASE_PROJECT_ID", ""),
			DatabaseURL:     getEnvOrDefault("FIREBASE_DATABASE_URL", ""),
		},
		BroadcastCfg: BroadcastConfig{
			Endpoint: getEnvOrDefault("FCM_ENDPOINT", "https://fcm.googleapis.com"),
		},
		AlertMailCfg: AlertMailConfig{
			Username: getEnvOrDefault("GOOGLE_USERNAME", ""),
			Password: getEnvOrDefault("GOOGLE_PASSWORD", ""),
			To:       getEnvOrDefault("ADMIN_ALERT_EMAIL", ""),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
