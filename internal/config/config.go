package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                      string
	AppEnv                    string
	LogLevel                  string
	LogFormat                 string
	AllowedOrigin             string
	DatabaseURL               string
	MigrateOnStart            bool
	RedisAddr                 string
	RedisPassword             string
	RedisDB                   int
	SnapshotTTLSeconds        int
	POSBaseURL                string
	InventoryBaseURL          string
	UpstreamTimeoutSeconds    int
	ReportIntervalSeconds     int
	ReportScheduleOffsetHours int
	ReportRunOnStart          bool
	AuthSecret                string
}

// Load reads the environment. A .env file in the working directory is loaded
// first when present; real environment variables win over it.
func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	snapshotTTL := positiveInt("SNAPSHOT_TTL_SECONDS", 86400)
	upstreamTimeout := positiveInt("UPSTREAM_TIMEOUT_SECONDS", 5)
	interval, err := strconv.Atoi(getEnv("REPORT_INTERVAL_SECONDS", "0"))
	if err != nil || interval < 0 {
		interval = 0
	}
	scheduleOffset, _ := strconv.Atoi(getEnv("REPORT_SCHEDULE_OFFSET_HOURS", "0"))

	cfg := Config{
		Port:                      getEnv("PORT", "8080"),
		AppEnv:                    getEnv("APP_ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		LogFormat:                 os.Getenv("LOG_FORMAT"),
		AllowedOrigin:             getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:               os.Getenv("DATABASE_URL"),
		MigrateOnStart:            getBool("MIGRATE_ON_START", true),
		RedisAddr:                 os.Getenv("REDIS_ADDR"),
		RedisPassword:             os.Getenv("REDIS_PASSWORD"),
		RedisDB:                   redisDB,
		SnapshotTTLSeconds:        snapshotTTL,
		POSBaseURL:                getEnv("POS_BASE_URL", "http://127.0.0.1:8081"),
		InventoryBaseURL:          getEnv("INVENTORY_BASE_URL", "http://127.0.0.1:8082"),
		UpstreamTimeoutSeconds:    upstreamTimeout,
		ReportIntervalSeconds:     interval,
		ReportScheduleOffsetHours: scheduleOffset,
		ReportRunOnStart:          getBool("REPORT_RUN_ON_START", false),
		AuthSecret:                strings.TrimSpace(os.Getenv("AUTH_SECRET")),
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

func (c Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalSeconds) * time.Second
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getBool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return val
}

func positiveInt(key string, fallback int) int {
	val, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil || val < 1 {
		return fallback
	}
	return val
}
