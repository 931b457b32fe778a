package config

import (
	"os"
	"time"
)

// Server captures process-level configuration pulled from the environment.
type Server struct {
	Addr        string
	DatabaseURL string // empty means in-memory store
	RulesPath   string // empty means built-in defaults
	Redis       Redis
	Advisory    Advisory
}

// Redis holds connection settings for the optional advisory cache.
type Redis struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// Advisory configures the clause-advisory client.
type Advisory struct {
	Mode    string // "mock" or "live"
	APIKey  string
	Model   string
	BaseURL string
}

const defaultAdvisoryModel = "claude-sonnet-4-20250514"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("DEALDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	mode := os.Getenv("ADVISORY_MODE")
	if mode == "" {
		mode = "mock"
	}
	model := os.Getenv("ADVISORY_MODEL")
	if model == "" {
		model = defaultAdvisoryModel
	}
	baseURL := os.Getenv("ADVISORY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RulesPath:   os.Getenv("DEALDESK_RULES_PATH"),
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			CacheTTL:     24 * time.Hour,
		},
		Advisory: Advisory{
			Mode:    mode,
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			Model:   model,
			BaseURL: baseURL,
		},
	}
}
