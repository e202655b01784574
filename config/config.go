package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	CatalogPath string
	OutputDir   string
	Selection   string

	StartDate string
	EndDate   string

	Guests   int
	Currency string
	Locale   string

	CacheHours   float64
	FreezeBefore string

	MaxConcurrency    int
	MaxRetries        int
	QuoteDelaySeconds float64
	RequestsPerSecond float64
	RateBurst         int

	MirrorToPostgres bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		CatalogPath: getEnv("CATALOG_PATH", "./data/listados.csv"),
		OutputDir:   getEnv("OUTPUT_DIR", "./output"),
		Selection:   getEnv("SELECTION", "all"),

		StartDate: getEnv("START_DATE", ""),
		EndDate:   getEnv("END_DATE", ""),

		Guests:   getEnvInt("GUESTS", 2),
		Currency: getEnv("CURRENCY", "USD"),
		Locale:   getEnv("LOCALE", "en"),

		CacheHours:   getEnvFloat("CACHE_HOURS", 24),
		FreezeBefore: getEnv("FREEZE_BEFORE", ""),

		MaxConcurrency:    getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		QuoteDelaySeconds: getEnvFloat("QUOTE_DELAY_S", 1.0),
		RequestsPerSecond: getEnvFloat("REQUESTS_PER_SECOND", 1.0),
		RateBurst:         getEnvInt("RATE_BURST", 2),

		MirrorToPostgres: getEnvBool("MIRROR_TO_POSTGRES", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "price_monitor"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
