package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config is the full runtime configuration, read from the environment
// (and an optional .env file).
type Config struct {
	Port       string
	CORSOrigin string

	JWTSecret string
	JWTTTL    time.Duration

	StorageDriver string
	DataFile      string
	Database      DatabaseConfig

	PersistBestEffort    bool
	PersistRetries       int
	PersistRetryInterval time.Duration

	EnforceUniqueVotes bool
	VoteRatePerMinute  int

	// TrustedProxies lists the proxy addresses/CIDRs whose forwarding
	// headers are believed. Empty means the peer address is the client.
	TrustedProxies []string

	LogFile  string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found – relying on env vars")
	}

	return &Config{
		Port:       getEnv("PORT", "5000"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTTL:    getDuration("JWT_TTL", time.Hour),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageFile)),
		DataFile:      getEnv("DATA_FILE", "./data.json"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "civic_trust"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},

		PersistBestEffort:    getBool("PERSIST_BEST_EFFORT", false),
		PersistRetries:       getInt("PERSIST_RETRIES", 3),
		PersistRetryInterval: getDuration("PERSIST_RETRY_INTERVAL", 200*time.Millisecond),

		EnforceUniqueVotes: getBool("ENFORCE_UNIQUE_VOTES", false),
		VoteRatePerMinute:  getInt("VOTE_RATE_PER_MINUTE", 30),
		TrustedProxies:     getList("TRUSTED_PROXIES"),

		LogFile:  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := lookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using %d", v, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid boolean %q, using %t", v, defaultValue)
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := lookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using %s", v, defaultValue)
		return defaultValue
	}
	return d
}

// getList splits a comma separated variable, dropping blank entries.
func getList(key string) []string {
	v, ok := lookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
