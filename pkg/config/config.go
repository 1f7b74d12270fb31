package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else; components receive
// the values they need through this object instead of touching the process
// environment themselves.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// External sources
	MOT    MOTConfig
	Meteo  MeteoConfig
	MyHora MyHoraConfig

	// Pipeline
	Pipeline PipelineConfig

	// Scheduler
	CronSpec string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MOTConfig holds configuration for the Thai Ministry of Transport open-data
// API that publishes daily ridership per rail line.
type MOTConfig struct {
	BaseURL    string
	ResourceID string
	PageLimit  int
}

// MeteoConfig holds configuration for the Open-Meteo rainfall API.
type MeteoConfig struct {
	BaseURL  string
	Timezone string
}

// MyHoraConfig holds configuration for the myhora.com Thai holiday calendar.
type MyHoraConfig struct {
	BaseURL string
}

// PipelineConfig holds tunables for the feature pipeline itself.
type PipelineConfig struct {
	// BackfillStart is where transit collection begins when the features
	// table is empty.
	BackfillStart time.Time

	// QualityWindowDays is the trailing window evaluated after each stage.
	QualityWindowDays int

	// FailThreshold is the quality score below which a stage aborts the run.
	FailThreshold float64

	// RainWorkers bounds the concurrent Open-Meteo sampling-point fetches.
	RainWorkers int

	// RequestsPerSecond caps outbound calls to the public APIs.
	RequestsPerSecond float64
}

// Load reads configuration from environment variables, optionally seeded from
// a .env file. This function is the only caller of os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		MOT: MOTConfig{
			BaseURL:    getEnv("MOT_BASE_URL", "https://datagov.mot.go.th/api/action"),
			ResourceID: getEnv("MOT_RESOURCE_ID", "a139ab23-602f-4c0d-8789-4d230bcdf33d"),
			PageLimit:  getEnvAsInt("MOT_PAGE_LIMIT", 10000),
		},

		Meteo: MeteoConfig{
			BaseURL:  getEnv("METEO_BASE_URL", "https://api.open-meteo.com/v1"),
			Timezone: getEnv("METEO_TIMEZONE", "Asia/Bangkok"),
		},

		MyHora: MyHoraConfig{
			BaseURL: getEnv("MYHORA_BASE_URL", "https://www.myhora.com/calendar/ical"),
		},

		Pipeline: PipelineConfig{
			BackfillStart:     getEnvAsDate("BACKFILL_START", "2025-01-01"),
			QualityWindowDays: getEnvAsInt("QUALITY_WINDOW_DAYS", 7),
			FailThreshold:     getEnvAsFloat("QUALITY_FAIL_THRESHOLD", 0.8),
			RainWorkers:       getEnvAsInt("RAIN_WORKERS", 8),
			RequestsPerSecond: getEnvAsFloat("REQUESTS_PER_SECOND", 4),
		},

		CronSpec: getEnv("CRON_SPEC", "0 30 2 * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.FailThreshold < 0 || c.Pipeline.FailThreshold > 1 {
		return fmt.Errorf("QUALITY_FAIL_THRESHOLD must be within [0,1]")
	}

	if c.Pipeline.QualityWindowDays < 1 {
		return fmt.Errorf("QUALITY_WINDOW_DAYS must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsDate(key string, defaultValue string) time.Time {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	t, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		t, _ = time.Parse("2006-01-02", defaultValue)
	}

	return t
}
