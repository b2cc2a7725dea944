package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"verification-gateway/middleware/throttle/domain"
)

type config struct {
	listenAddr string

	store         string // "memory" | "redis"
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string

	throttle domain.Config

	ipGuardEnabled bool
	ipGuard        domain.Config
	ipKeyHeader    string
	trustXFF       bool
	addHeaders     bool

	concurrencyMax     int
	concurrencyTimeout time.Duration

	dispatcher    string // "log" | "http"
	providerURL   string
	providerToken string
	providerRPS   float64
	providerBurst int

	statsEnabled         bool
	statsTTL             time.Duration
	statsTrackIdentities bool

	logEnv    string
	logLevel  string
	logFormat string
}

// loadConfig lê um .env opcional e depois o ambiente.
func loadConfig() (config, error) {
	_ = godotenv.Load()
	return readConfig()
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")

	cfg.store = strings.ToLower(getenvDefault("STORE", "memory"))
	cfg.redisAddr = os.Getenv("REDIS_ADDR")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)
	cfg.redisPrefix = getenvDefault("REDIS_PREFIX", "verify")

	cfg.throttle = domain.Config{
		Cooldown:   getenvDurationDefault("COOLDOWN", domain.DefaultCooldown),
		DailyLimit: getenvIntDefault("DAILY_LIMIT", domain.DefaultDailyLimit),
	}

	cfg.ipGuardEnabled = getenvBoolDefault("IP_GUARD_ENABLED", true)
	cfg.ipGuard = domain.Config{
		Cooldown:   getenvDurationDefault("IP_COOLDOWN", 2*time.Second),
		DailyLimit: getenvIntDefault("IP_DAILY_LIMIT", 100),
	}
	cfg.ipKeyHeader = os.Getenv("IP_KEY_HEADER")
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_THROTTLE_HEADERS", false)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 50)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 2*time.Second)

	cfg.dispatcher = strings.ToLower(getenvDefault("DISPATCHER", "log"))
	cfg.providerURL = os.Getenv("SMS_PROVIDER_URL")
	cfg.providerToken = os.Getenv("SMS_PROVIDER_TOKEN")
	cfg.providerRPS = getenvFloatDefault("SMS_PROVIDER_RPS", 10)
	cfg.providerBurst = getenvIntDefault("SMS_PROVIDER_BURST", 20)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsTrackIdentities = getenvBoolDefault("STATS_TRACK_IDENTITIES", false)

	cfg.logEnv = getenvDefault("LOG_ENV", "development")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = getenvDefault("LOG_FORMAT", "console")

	switch cfg.store {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.redisAddr) == "" {
			return config{}, errors.New("REDIS_ADDR is required when STORE=redis")
		}
	default:
		return config{}, fmt.Errorf("STORE must be memory or redis, got %q", cfg.store)
	}

	switch cfg.dispatcher {
	case "log":
	case "http":
		if strings.TrimSpace(cfg.providerURL) == "" {
			return config{}, errors.New("SMS_PROVIDER_URL is required when DISPATCHER=http")
		}
	default:
		return config{}, fmt.Errorf("DISPATCHER must be log or http, got %q", cfg.dispatcher)
	}

	if err := cfg.throttle.Validate(); err != nil {
		return config{}, fmt.Errorf("COOLDOWN/DAILY_LIMIT: %w", err)
	}
	if err := cfg.ipGuard.Validate(); err != nil {
		return config{}, fmt.Errorf("IP_COOLDOWN/IP_DAILY_LIMIT: %w", err)
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
