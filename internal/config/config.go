package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by the API server.
const (
	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Analysis AnalysisConfig
	Storage  StorageConfig
	DynamoDB DynamoDBConfig
	Postgres PostgresConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// AnalysisConfig locates the classification service.
type AnalysisConfig struct {
	ServiceURL     string
	Path           string
	TimeoutSeconds int
}

// StorageConfig selects the ticket store.
type StorageConfig struct {
	Driver string
}

// DynamoDBConfig holds table coordinates.
type DynamoDBConfig struct {
	Region        string
	Table         string
	PriorityIndex string
	Endpoint      string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// SQLiteConfig holds the database file location.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	EventsKey string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from .env, the optional YAML file named by
// CONFIG_PATH and environment variables, in increasing precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	file, err := loadFile(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	redisDB, err := strconv.Atoi(src.get("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  src.get("APP_NAME", "maintenance-api"),
			Env:                   src.get("APP_ENV", "development"),
			Host:                  src.get("APP_HOST", "0.0.0.0"),
			Port:                  src.get("PORT", src.get("APP_PORT", "3000")),
			Version:               src.get("APP_VERSION", "dev"),
			RequestTimeoutSeconds: src.getInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Analysis: AnalysisConfig{
			ServiceURL:     strings.TrimRight(src.get("ANALYSIS_SERVICE_URL", ""), "/"),
			Path:           src.get("ANALYSIS_PATH", "/requests"),
			TimeoutSeconds: src.getInt("ANALYSIS_TIMEOUT_SECONDS", 10),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(src.get("STORAGE_DRIVER", StorageDynamoDB)),
		},
		DynamoDB: DynamoDBConfig{
			Region:        src.get("AWS_REGION", "us-east-1"),
			Table:         src.get("DYNAMODB_TABLE_NAME", "MaintenanceRequests"),
			PriorityIndex: src.get("DYNAMODB_PRIORITY_INDEX", "PriorityIndex"),
			Endpoint:      src.get("AWS_ENDPOINT_URL", ""),
		},
		Postgres: PostgresConfig{
			DSN:            src.get("POSTGRES_DSN", ""),
			MaxConns:       int32(src.getInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(src.getInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  src.getBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(src.getInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(src.getInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		SQLite: SQLiteConfig{
			Path: src.get("SQLITE_PATH", "maintenance.db"),
		},
		Redis: RedisConfig{
			Addr:      src.get("REDIS_ADDR", ""),
			Password:  src.get("REDIS_PASSWORD", ""),
			DB:        redisDB,
			EventsKey: src.get("REDIS_EVENTS_KEY", "maintenance:events"),
		},
		Logger: LoggerConfig{
			Level: src.get("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks settings the API server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.ServiceURL == "" {
		errs = append(errs, errors.New("ANALYSIS_SERVICE_URL is required"))
	}
	switch c.Storage.Driver {
	case StorageDynamoDB:
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE_NAME is required for the dynamodb driver"))
		}
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case StorageSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Endpoint returns the full classification URL.
func (a AnalysisConfig) Endpoint() string {
	path := a.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return a.ServiceURL + path
}

// Timeout returns the per-call classification timeout.
func (a AnalysisConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val := s.file[key]; val != "" {
		return val
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	val := s.get(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getBool(key string, fallback bool) bool {
	val := s.get(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
