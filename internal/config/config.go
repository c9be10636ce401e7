package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every runtime setting for the service.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Store    StoreConfig
	Auth     AuthConfig
	Limits   LimitsConfig
	LogMode  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	providers, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	auth, err := loadAuthConfig()
	if err != nil {
		return nil, err
	}

	limits, err := loadLimitsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Provider: providers,
		Store:    store,
		Auth:     auth,
		Limits:   limits,
		LogMode:  getEnvOrDefault("LOG_MODE", "dev"),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, ":") {
		// Allow ":3000" or "127.0.0.1:3000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ProviderConfig holds credentials and tuning for both text providers.
type ProviderConfig struct {
	// GeminiKeys is the ordered credential list for the primary provider.
	GeminiKeys    []string
	GeminiModel   string
	GeminiBaseURL string

	// GroqKey is the single credential for the fallback provider.
	GroqKey     string
	GroqModel   string
	GroqBaseURL string

	// Timeout bounds each individual outbound attempt.
	Timeout time.Duration
}

// PrimaryEnabled reports whether at least one primary credential is set.
func (c ProviderConfig) PrimaryEnabled() bool {
	return len(c.GeminiKeys) > 0
}

func loadProviderConfig() (ProviderConfig, error) {
	keys := splitCommaList(os.Getenv("GEMINI_KEYS"))

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("PROVIDER_TIMEOUT"); err != nil {
		return ProviderConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ProviderConfig{}, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return ProviderConfig{
		GeminiKeys:    keys,
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GroqKey:       strings.TrimSpace(os.Getenv("GROQ_KEY")),
		GroqModel:     getEnvOrDefault("GROQ_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		GroqBaseURL:   getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Timeout:       time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// StoreConfig describes the external row store.
type StoreConfig struct {
	URL            string
	ServiceRoleKey string
}

func loadStoreConfig() (StoreConfig, error) {
	url := strings.TrimSpace(os.Getenv("SUPABASE_URL"))
	key := strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY"))

	if url == "" {
		return StoreConfig{}, fmt.Errorf("SUPABASE_URL is required")
	}
	if key == "" {
		return StoreConfig{}, fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	return StoreConfig{
		URL:            strings.TrimRight(url, "/"),
		ServiceRoleKey: key,
	}, nil
}

// AuthConfig holds the shared secret used to verify inbound bearer tokens.
type AuthConfig struct {
	JWTSecret string
}

func loadAuthConfig() (AuthConfig, error) {
	secret := strings.TrimSpace(os.Getenv("SUPABASE_JWT_SECRET"))
	if secret == "" {
		return AuthConfig{}, fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return AuthConfig{JWTSecret: secret}, nil
}

// LimitsConfig bounds how much history each lookup pulls.
type LimitsConfig struct {
	HistoryLimit     int
	MoodHistoryLimit int
}

func loadLimitsConfig() (LimitsConfig, error) {
	history := 10
	if override, err := parseOptionalIntEnv("HISTORY_LIMIT"); err != nil {
		return LimitsConfig{}, err
	} else if override != nil {
		if *override < 1 {
			history = 1
		} else {
			history = *override
		}
	}

	mood := 100
	if override, err := parseOptionalIntEnv("MOOD_HISTORY_LIMIT"); err != nil {
		return LimitsConfig{}, err
	} else if override != nil {
		if *override < 1 {
			mood = 1
		} else {
			mood = *override
		}
	}

	return LimitsConfig{HistoryLimit: history, MoodHistoryLimit: mood}, nil
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
