package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	DealerAPIURL       string
	DealerAPIRPS       int
	GatewayMaxAttempts int
	GatewayTimeout     time.Duration

	SentimentBackend  string // http|openai
	SentimentURL      string
	SentimentWorkers  int
	SentimentTimeout  time.Duration
	SentimentCacheTTL time.Duration
	OpenAIBaseURL     string
	OpenAIKey         string
	OpenAIModel       string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	OTLPEndpoint string
	SeedFile     string
	WarmWorkers  int
}

func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/dealership?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    secs("CACHE_TTL_SECONDS", 60),

		DealerAPIURL:       strings.TrimRight(env("DEALER_API_URL", "http://localhost:3030"), "/"),
		DealerAPIRPS:       atoi("DEALER_API_RPS", 20),
		GatewayMaxAttempts: atoi("GATEWAY_MAX_ATTEMPTS", 1),
		GatewayTimeout:     secs("GATEWAY_TIMEOUT_SECONDS", 10),

		SentimentBackend:  strings.ToLower(env("SENTIMENT_BACKEND", "http")),
		SentimentURL:      strings.TrimRight(env("SENTIMENT_URL", "http://localhost:5050"), "/"),
		SentimentWorkers:  atoi("SENTIMENT_WORKERS", 8),
		SentimentTimeout:  secs("SENTIMENT_TIMEOUT_SECONDS", 5),
		SentimentCacheTTL: secs("SENTIMENT_CACHE_TTL_SECONDS", 86400),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIKey:         env("OPENAI_API_KEY", ""),
		OpenAIModel:       env("OPENAI_MODEL", "gpt-4o-mini"),

		SessionSecret: env("SESSION_SECRET", ""),
		SessionTTL:    secs("SESSION_TTL_SECONDS", 14*24*3600),
		CookieSecure:  env("COOKIE_SECURE", "false") == "true",

		OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SeedFile:     env("SEED_FILE", ""),
		WarmWorkers:  atoi("WARM_WORKERS", 4),
	}
	if c.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is empty; using an insecure development secret")
		c.SessionSecret = "dev-insecure-session-secret"
	}
	if c.SentimentBackend == "openai" && c.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
