// Package config loads process configuration from the environment (with
// optional .env support for local runs) and an optional config.yaml for
// search and promotion tuning.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultModel        = "gpt-4o-mini"
	defaultTimeoutSecs  = 30
	defaultOrdersFile   = "data/orders.json"
	defaultProductsFile = "data/products.json"
)

// SearchSettings tunes semantic product search.
type SearchSettings struct {
	EmbeddingModel string  `yaml:"embedding_model"`
	Threshold      float64 `yaml:"threshold"`
}

// PromoSettings tunes the Early Risers promotion window.
type PromoSettings struct {
	Timezone  string `yaml:"timezone"`
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	Percent   int    `yaml:"percent"`
}

// fileSettings is the shape of the optional config.yaml.
type fileSettings struct {
	Search SearchSettings `yaml:"search"`
	Promo  PromoSettings  `yaml:"promo"`
}

// Settings holds all configuration the agent consumes.
type Settings struct {
	Provider     string // "openai" (default) or "gemini"
	OpenAIKey    string
	GeminiKey    string
	Model        string
	Timeout      time.Duration
	RedisAddr    string
	OrdersFile   string
	ProductsFile string
	Search       SearchSettings
	Promo        PromoSettings
}

// Load reads configuration from .env (when present), the environment, and an
// optional config.yaml. The API key for the selected provider is required;
// its absence is the one configuration failure that aborts startup.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment variables")
	}

	s := &Settings{
		Provider:     getEnv("LLM_PROVIDER", "openai"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		Model:        getEnv("OPENAI_MODEL", defaultModel),
		Timeout:      time.Duration(getEnvInt("OPENAI_TIMEOUT", defaultTimeoutSecs)) * time.Second,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OrdersFile:   getEnv("ORDERS_FILE", defaultOrdersFile),
		ProductsFile: getEnv("PRODUCTS_FILE", defaultProductsFile),
	}

	switch s.Provider {
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	case "gemini":
		if s.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		if os.Getenv("OPENAI_MODEL") == "" {
			s.Model = "gemini-1.5-flash"
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (want openai or gemini)", s.Provider)
	}

	if err := s.loadFile(getEnv("CONFIG_FILE", "config.yaml")); err != nil {
		return nil, err
	}
	return s, nil
}

// loadFile merges the optional yaml file. A missing file is fine; a present
// but unparsable one is a configuration failure.
func (s *Settings) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var fs fileSettings
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	s.Search = fs.Search
	s.Promo = fs.Promo
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("ignoring invalid %s=%q", key, v)
	}
	return fallback
}
