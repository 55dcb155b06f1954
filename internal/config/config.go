package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env           string
	Port          string
	AllowedOrigin string
	LogLevel      string

	// Assistant API (chat + intent extraction). The base URL is picked by Env
	// unless AssistantURL overrides it.
	AssistantURL     string
	AssistantURLDev  string
	AssistantURLProd string
	ChatTimeout      time.Duration

	// LLM backend used by the server.
	LLMProvider   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string // OpenAI-compatible endpoint; empty means api.openai.com
	GeminiAPIKey  string
	GeminiModel   string
	PromptsFile   string

	// Flight search provider
	FlightAPIURL          string
	FlightAPIToken        string
	FlightAPIClientID     string
	FlightAPIClientSecret string
	FlightAPITokenURL     string
	FlightAPITimeout      time.Duration

	RevealDelay       time.Duration
	SessionMaxHistory int
	SessionIdleTTL    time.Duration

	// Recent prompts of the terminal client.
	HistoryFile string

	// History persistence; memory when both are empty.
	DatabaseURL string
	RedisAddr   string
	RedisTTL    time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                   strings.ToLower(getEnvDefault("APP_ENV", EnvDevelopment)),
		Port:                  getEnvDefault("PORT", "8000"),
		AllowedOrigin:         getEnvDefault("ALLOWED_ORIGIN", "*"),
		LogLevel:              getEnvDefault("LOG_LEVEL", "info"),
		AssistantURL:          os.Getenv("ASSISTANT_API_URL"),
		AssistantURLDev:       getEnvDefault("ASSISTANT_API_URL_DEV", "http://localhost:8000"),
		AssistantURLProd:      os.Getenv("ASSISTANT_API_URL_PROD"),
		ChatTimeout:           getEnvDurationDefault("CHAT_TIMEOUT", 60*time.Second),
		LLMProvider:           strings.ToLower(getEnvDefault("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           getEnvDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:         os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnvDefault("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		PromptsFile:           os.Getenv("PROMPTS_FILE"),
		FlightAPIURL:          os.Getenv("FLIGHT_API_URL"),
		FlightAPIToken:        os.Getenv("FLIGHT_API_TOKEN"),
		FlightAPIClientID:     os.Getenv("FLIGHT_API_CLIENT_ID"),
		FlightAPIClientSecret: os.Getenv("FLIGHT_API_CLIENT_SECRET"),
		FlightAPITokenURL:     os.Getenv("FLIGHT_API_TOKEN_URL"),
		FlightAPITimeout:      getEnvDurationDefault("FLIGHT_API_TIMEOUT", 20*time.Second),
		RevealDelay:           getEnvDurationDefault("REVEAL_DELAY", 75*time.Millisecond),
		SessionMaxHistory:     getEnvIntDefault("SESSION_MAX_HISTORY", 50),
		SessionIdleTTL:        getEnvDurationDefault("SESSION_IDLE_TTL", 30*time.Minute),
		HistoryFile:           os.Getenv("OTA_CHAT_HISTORY_FILE"),
		DatabaseURL:           os.Getenv("DB_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisTTL:              getEnvDurationDefault("REDIS_HISTORY_TTL", 7*24*time.Hour),
	}
	if cfg.LLMProvider == "openai" && cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; chat calls will fail until provided")
	}
	if cfg.LLMProvider == "gemini" && cfg.GeminiAPIKey == "" {
		log.Println("warning: GEMINI_API_KEY is not set; chat calls will fail until provided")
	}
	if cfg.FlightAPIURL == "" {
		log.Println("warning: FLIGHT_API_URL is not set; flight searches will fail")
	}
	return cfg
}

func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// AssistantBaseURL returns the chat/intent API base URL for the current
// environment, without a trailing slash.
func (c Config) AssistantBaseURL() string {
	u := c.AssistantURL
	if u == "" {
		if c.IsProduction() {
			u = c.AssistantURLProd
		} else {
			u = c.AssistantURLDev
		}
	}
	return strings.TrimRight(u, "/")
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// getEnvDurationDefault accepts Go durations ("75ms") or bare milliseconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
