package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CriteriaPath string
	OutputDir    string

	ChromeBin      string
	Headless       bool
	PageTimeoutSec int

	MinDelayMs int
	MaxDelayMs int
	MaxRetries int

	PostgresDSN string
	Debug       bool

	Criteria *Criteria
}

// Load reads the .env file, then the criteria file it points at, and returns
// a populated Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		CriteriaPath: getEnv("CRITERIA_PATH", "./criteria.json"),
		OutputDir:    getEnv("OUTPUT_DIR", "."),

		ChromeBin:      getEnv("CHROME_BIN", ""),
		Headless:       getEnvBool("HEADLESS", true),
		PageTimeoutSec: getEnvInt("PAGE_TIMEOUT_SEC", 60),

		MinDelayMs: getEnvInt("MIN_DELAY_MS", 2000),
		MaxDelayMs: getEnvInt("MAX_DELAY_MS", 4000),
		MaxRetries: getEnvInt("MAX_RETRIES", 3),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		Debug:       getEnvBool("DEBUG", false),
	}

	criteria, err := LoadCriteria(cfg.CriteriaPath)
	if err != nil {
		return nil, err
	}
	cfg.Criteria = criteria

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.MinDelayMs < 0 || c.MaxDelayMs < c.MinDelayMs {
		return &ValidationError{Field: "MIN_DELAY_MS/MAX_DELAY_MS",
			Msg: "delay interval must satisfy 0 <= min <= max"}
	}
	if c.PageTimeoutSec <= 0 {
		return &ValidationError{Field: "PAGE_TIMEOUT_SEC", Msg: "must be positive"}
	}
	if c.Criteria == nil {
		return &ValidationError{Field: "criteria", Msg: "not loaded"}
	}
	return c.Criteria.Validate()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
