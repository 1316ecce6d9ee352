package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Assistant AssistantConfig
	Store     StoreConfig
	DevServer DevServerConfig
}

type AppConfig struct {
	Environment      string
	LogFilePath      string
	TransportLogPath string
}

// BackendConfig describes the duplex connection to the generation backend.
type BackendConfig struct {
	WebSocketURL     string
	Token            string
	ReconnectBackoff time.Duration
	WriteWait        time.Duration
}

type AssistantConfig struct {
	ThreadID          string
	MinContextChars   int
	SentenceTarget    int
	ParagraphTarget   int
	HighlightDuration time.Duration
	HighlightColor    string
}

type StoreConfig struct {
	RatingStore string // "memory" or "redis"
	RatingTTL   time.Duration
	RedisURL    string
	NatsURL     string // empty disables usage events
}

type DevServerConfig struct {
	Port          string
	JWTSecret     string // empty accepts unauthenticated connections
	FragmentDelay time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment:      getEnv("GO_ENV", "development"),
			LogFilePath:      getEnv("LOG_FILE_PATH", "logs/assistant.log"),
			TransportLogPath: getEnv("TRANSPORT_LOG_FILE_PATH", "logs/transport.log"),
		},
		Backend: BackendConfig{
			WebSocketURL:     getEnv("BACKEND_WS_URL", "ws://localhost:8080/ws"),
			Token:            getEnv("BACKEND_TOKEN", ""),
			ReconnectBackoff: getEnvAsDuration("BACKEND_RECONNECT_BACKOFF", time.Second),
			WriteWait:        getEnvAsDuration("BACKEND_WRITE_WAIT", 10*time.Second),
		},
		Assistant: AssistantConfig{
			ThreadID:          getEnv("ASSISTANT_THREAD_ID", ""),
			MinContextChars:   getEnvAsInt("ASSISTANT_MIN_CONTEXT_CHARS", 5),
			SentenceTarget:    getEnvAsInt("ASSISTANT_SENTENCE_TARGET", 1),
			ParagraphTarget:   getEnvAsInt("ASSISTANT_PARAGRAPH_TARGET", 3),
			HighlightDuration: getEnvAsDuration("ASSISTANT_HIGHLIGHT_DURATION", 2000*time.Millisecond),
			HighlightColor:    getEnv("ASSISTANT_HIGHLIGHT_COLOR", "#fff59d"),
		},
		Store: StoreConfig{
			RatingStore: getEnv("RATING_STORE", "memory"),
			RatingTTL:   getEnvAsDuration("RATING_TTL", 24*time.Hour),
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			NatsURL:     getEnv("NATS_URL", ""),
		},
		DevServer: DevServerConfig{
			Port:          getEnv("DEV_SERVER_PORT", "8080"),
			JWTSecret:     getEnv("JWT_SECRET", ""),
			FragmentDelay: getEnvAsDuration("DEV_SERVER_FRAGMENT_DELAY", 40*time.Millisecond),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("2s") or a bare number of milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
