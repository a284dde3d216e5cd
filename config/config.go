package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default search pages: one-room flats and studios near the same metro stop.
var defaultTargetURLs = []string{
	"https://realty.yandex.ru/moskva_i_moskovskaya_oblast/snyat/kvartira/odnokomnatnaya/metro-kommunarka/",
	"https://realty.yandex.ru/moskva_i_moskovskaya_oblast/snyat/kvartira/studiya/metro-kommunarka/",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	TargetURLs []string

	DataDir          string
	ArtifactBasename string
	HistoryFile      string
	LatestFile       string

	SettleMin    time.Duration
	SettleJitter time.Duration
	PageTimeout  time.Duration

	MaxConcurrency int
	RateLimitMs    int

	StepAttempts int
	StepDelay    time.Duration
	RunAttempts  int
	RunDelay     time.Duration

	Schedule string

	PostgresMirror   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		TargetURLs: getEnvList("TARGET_URLS", defaultTargetURLs),

		DataDir:          getEnv("DATA_DIR", "./data"),
		ArtifactBasename: getEnv("ARTIFACT_BASENAME", "real_estate_kommunarka"),
		HistoryFile:      getEnv("HISTORY_FILE", "real_estate_kommunarka_history.csv"),
		LatestFile:       getEnv("LATEST_FILE", "real_estate_kommunarka_latest.csv"),

		SettleMin:    getEnvSeconds("SETTLE_MIN_SEC", 5),
		SettleJitter: getEnvSeconds("SETTLE_JITTER_SEC", 3),
		PageTimeout:  getEnvSeconds("PAGE_TIMEOUT_SEC", 90),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),

		StepAttempts: getEnvInt("STEP_ATTEMPTS", 3),
		StepDelay:    getEnvSeconds("STEP_DELAY_SEC", 30),
		RunAttempts:  getEnvInt("RUN_ATTEMPTS", 3),
		RunDelay:     getEnvSeconds("RUN_DELAY_SEC", 60),

		Schedule: getEnv("SCRAPE_SCHEDULE", ""),

		PostgresMirror:   getEnvBool("POSTGRES_MIRROR", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "realty_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string for the history mirror.
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

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var urls []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			urls = append(urls, part)
		}
	}
	if len(urls) == 0 {
		return fallback
	}
	return urls
}
