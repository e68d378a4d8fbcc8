package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Storage
	DBPath      string
	ArtifactDir string
	PublicBase  string // base URL artifact links are rooted at

	// Detection model
	ModelPath       string
	ModelLabelsPath string
	ModelInputSize  int
	MinScore        float64 // raw detector floor, below this anchors are discarded

	// Dispatch policy
	ConfidenceThreshold float64
	AlertCooldown       time.Duration
	AlertWorkers        int

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SenderEmail  string
	SenderPasswd string

	// NATS (for the alert event feed)
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	AlertsSubject      string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Storage
		DBPath:      getEnv("DB_PATH", "citywatch.db"),
		ArtifactDir: getEnv("ARTIFACT_DIR", "artifacts"),
		PublicBase:  getEnv("PUBLIC_BASE_URL", "http://localhost:8000"),

		// Detection model
		ModelPath:       getEnv("MODEL_PATH", "models/citywatch.onnx"),
		ModelLabelsPath: getEnv("MODEL_LABELS_PATH", "models/labels.yaml"),
		ModelInputSize:  getEnvInt("MODEL_INPUT_SIZE", 640),
		MinScore:        getEnvFloat("MIN_SCORE", 25.0),

		// Dispatch policy
		ConfidenceThreshold: getEnvFloat("CONFIDENCE_THRESHOLD", 65.0),
		AlertCooldown:       getEnvDuration("ALERT_COOLDOWN", 3*time.Hour),
		AlertWorkers:        getEnvInt("ALERT_WORKERS", 4),

		// SMTP
		SMTPHost:     getEnv("SMTP_SERVER", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SenderEmail:  getEnv("SENDER_EMAIL", ""),
		SenderPasswd: getEnv("SENDER_PASSWORD", ""),

		// NATS
		NatsEnabled:        getEnvBool("NATS_ENABLED", true),
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		AlertsSubject:      getEnv("ALERTS_SUBJECT", "alerts"),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
