package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	TelegramBotToken      string
	TelegramMode          string
	TelegramWebhookURL    string
	TelegramWebhookListen string

	MarketProvider    string
	MarketAPIKey      string
	MarketBaseURL     string
	MarketTimeoutSecs int
	MarketBarCount    int

	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	AutoRefreshSpec    string
	AutoRefreshPauseMS int

	Port           string
	ThresholdsFile string
	CORSOrigins    []string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:    strings.TrimSpace(os.Getenv("TELEGRAM_WEBHOOK_URL")),
		TelegramWebhookListen: strings.TrimSpace(os.Getenv("TELEGRAM_WEBHOOK_LISTEN")),
		MarketAPIKey:          os.Getenv("MARKET_API_KEY"),
		MarketBaseURL:         strings.TrimSpace(os.Getenv("MARKET_BASE_URL")),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SQLitePath:            strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		RedisURL:              strings.TrimSpace(os.Getenv("REDIS_URL")),
		ThresholdsFile:        strings.TrimSpace(os.Getenv("THRESHOLDS_FILE")),
		MCPAuthToken:          os.Getenv("MCP_AUTH_TOKEN"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.TelegramMode = strings.ToLower(strings.TrimSpace(os.Getenv("TELEGRAM_MODE")))
	if cfg.TelegramMode == "" {
		cfg.TelegramMode = "polling"
	}
	if cfg.TelegramMode != "polling" && cfg.TelegramMode != "webhook" {
		log.Printf("Warning: unsupported TELEGRAM_MODE=%q, defaulting to polling", cfg.TelegramMode)
		cfg.TelegramMode = "polling"
	}
	if cfg.TelegramMode == "webhook" && cfg.TelegramWebhookURL == "" {
		log.Println("Warning: TELEGRAM_WEBHOOK_URL not set, falling back to polling")
		cfg.TelegramMode = "polling"
	}

	cfg.MarketProvider = strings.ToLower(strings.TrimSpace(os.Getenv("MARKET_PROVIDER")))
	if cfg.MarketProvider == "" {
		cfg.MarketProvider = "twelvedata"
	}
	if cfg.MarketProvider != "twelvedata" && cfg.MarketProvider != "alphavantage" {
		log.Printf("Warning: unsupported MARKET_PROVIDER=%q, defaulting to twelvedata", cfg.MarketProvider)
		cfg.MarketProvider = "twelvedata"
	}
	if cfg.MarketAPIKey == "" {
		log.Println("Warning: MARKET_API_KEY not set, provider requests will be rejected")
	}

	cfg.MarketTimeoutSecs = positiveInt("MARKET_TIMEOUT_SECS", 10)

	cfg.MarketBarCount = 50
	if v := strings.TrimSpace(os.Getenv("MARKET_BAR_COUNT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 30 && n <= 50 {
			cfg.MarketBarCount = n
		} else {
			log.Printf("Warning: MARKET_BAR_COUNT=%q outside 30..50, using 50", v)
		}
	}

	if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
		log.Println("Warning: neither DATABASE_URL nor SQLITE_PATH set, signal log disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, sessions kept in memory")
	}

	cfg.AutoRefreshSpec = strings.TrimSpace(os.Getenv("AUTO_REFRESH_SPEC"))
	if cfg.AutoRefreshSpec == "" {
		cfg.AutoRefreshSpec = "@every 5m"
	}

	cfg.AutoRefreshPauseMS = 1500
	if v := strings.TrimSpace(os.Getenv("AUTO_REFRESH_PAUSE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AutoRefreshPauseMS = n
		}
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 15)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)

	return cfg
}

func positiveInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
