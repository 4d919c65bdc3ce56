package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	Host string
	Port string

	DatabaseDriver  string
	DatabasePath    string
	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	SQLLogStatement bool

	RateLimitEnabled bool
	RateLimitConfigs map[string]RateLimitConfig
	RedisURL         string

	EnforceHTTPS bool

	MetricsPort  string
	OTLPEndpoint string
	LokiURL      string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultRateLimitKey is the rule applied to routes without their own entry.
const DefaultRateLimitKey = "default"

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		ServiceName:    "todolist",
		ServiceVersion: "1.0.0",
		Environment:    "development",

		Host: "0.0.0.0",
		Port: "8080",

		DatabaseDriver: DriverSQLite,
		DatabasePath:   "todo.db",
		DBMaxOpenConns: 10,
		DBMaxIdleConns: 5,

		RateLimitEnabled: false,
		RateLimitConfigs: map[string]RateLimitConfig{
			"POST /add": {
				Requests: 30,
				Window:   time.Minute,
			},
			"POST /delete": {
				Requests: 30,
				Window:   time.Minute,
			},
			DefaultRateLimitKey: {
				Requests: 120,
				Window:   time.Minute,
			},
		},

		EnforceHTTPS: false,

		MetricsPort: "9091",
	}
}

// Load reads an optional .env file and overlays environment variables on
// GetDefaultConfig. Variables already set in the process win over .env.
func Load(envFiles ...string) (*AppConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	return FromEnv()
}

func FromEnv() (*AppConfig, error) {
	config := GetDefaultConfig()

	config.Environment = getEnv("ENVIRONMENT", config.Environment)
	config.Host = getEnv("HOST", config.Host)
	config.Port = getEnv("PORT", config.Port)

	config.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", config.DatabaseDriver))
	config.DatabasePath = getEnv("DATABASE_PATH", config.DatabasePath)
	config.DatabaseURL = getEnv("DATABASE_URL", config.DatabaseURL)
	config.RedisURL = getEnv("REDIS_URL", config.RedisURL)
	config.MetricsPort = getEnv("METRICS_PORT", config.MetricsPort)
	config.OTLPEndpoint = getEnv("OTLP_ENDPOINT", config.OTLPEndpoint)
	config.LokiURL = getEnv("LOKI_URL", config.LokiURL)

	var err error

	if config.DBMaxOpenConns, err = getEnvInt("DB_MAX_OPEN_CONNS", config.DBMaxOpenConns); err != nil {
		return nil, err
	}

	if config.DBMaxIdleConns, err = getEnvInt("DB_MAX_IDLE_CONNS", config.DBMaxIdleConns); err != nil {
		return nil, err
	}

	if config.SQLLogStatement, err = getEnvBool("SQL_LOG", config.SQLLogStatement); err != nil {
		return nil, err
	}

	if config.RateLimitEnabled, err = getEnvBool("RATE_LIMIT_ENABLED", config.RateLimitEnabled); err != nil {
		return nil, err
	}

	if config.EnforceHTTPS, err = getEnvBool("ENFORCE_HTTPS", config.Environment == "production"); err != nil {
		return nil, err
	}

	fallback := config.RateLimitConfigs[DefaultRateLimitKey]

	if fallback.Requests, err = getEnvInt("RATE_LIMIT_REQUESTS", fallback.Requests); err != nil {
		return nil, err
	}

	if fallback.Window, err = getEnvDuration("RATE_LIMIT_WINDOW", fallback.Window); err != nil {
		return nil, err
	}

	config.RateLimitConfigs[DefaultRateLimitKey] = fallback

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *AppConfig) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1, got %d", c.DBMaxOpenConns)
	}

	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}

	for key, rule := range c.RateLimitConfigs {
		if rule.Requests < 1 || rule.Window <= 0 {
			return fmt.Errorf("invalid rate limit for %s", key)
		}
	}

	return nil
}

func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return parsed, nil
}
