package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML file. Values may reference
// environment variables as ${VAR}.
type fileConfig struct {
	App struct {
		Name                  string `yaml:"name"`
		Env                   string `yaml:"env"`
		Host                  string `yaml:"host"`
		Port                  string `yaml:"port"`
		Version               string `yaml:"version"`
		RequestTimeoutSeconds string `yaml:"request_timeout_seconds"`
	} `yaml:"app"`
	Analysis struct {
		ServiceURL     string `yaml:"service_url"`
		Path           string `yaml:"path"`
		TimeoutSeconds string `yaml:"timeout_seconds"`
	} `yaml:"analysis"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	DynamoDB struct {
		Region        string `yaml:"region"`
		Table         string `yaml:"table"`
		PriorityIndex string `yaml:"priority_index"`
		Endpoint      string `yaml:"endpoint"`
	} `yaml:"dynamodb"`
	Postgres struct {
		DSN           string `yaml:"dsn"`
		MaxConns      string `yaml:"max_conns"`
		MinConns      string `yaml:"min_conns"`
		RunMigrations string `yaml:"run_migrations"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        string `yaml:"db"`
		EventsKey string `yaml:"events_key"`
	} `yaml:"redis"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// loadFile reads path and flattens it to environment variable names.
// An empty path yields no overrides.
func loadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	return map[string]string{
		"APP_NAME":                     raw.App.Name,
		"APP_ENV":                      raw.App.Env,
		"APP_HOST":                     raw.App.Host,
		"APP_PORT":                     raw.App.Port,
		"APP_VERSION":                  raw.App.Version,
		"HTTP_REQUEST_TIMEOUT_SECONDS": raw.App.RequestTimeoutSeconds,
		"ANALYSIS_SERVICE_URL":         raw.Analysis.ServiceURL,
		"ANALYSIS_PATH":                raw.Analysis.Path,
		"ANALYSIS_TIMEOUT_SECONDS":     raw.Analysis.TimeoutSeconds,
		"STORAGE_DRIVER":               raw.Storage.Driver,
		"AWS_REGION":                   raw.DynamoDB.Region,
		"DYNAMODB_TABLE_NAME":          raw.DynamoDB.Table,
		"DYNAMODB_PRIORITY_INDEX":      raw.DynamoDB.PriorityIndex,
		"AWS_ENDPOINT_URL":             raw.DynamoDB.Endpoint,
		"POSTGRES_DSN":                 raw.Postgres.DSN,
		"POSTGRES_MAX_CONNS":           raw.Postgres.MaxConns,
		"POSTGRES_MIN_CONNS":           raw.Postgres.MinConns,
		"POSTGRES_RUN_MIGRATIONS":      raw.Postgres.RunMigrations,
		"SQLITE_PATH":                  raw.SQLite.Path,
		"REDIS_ADDR":                   raw.Redis.Addr,
		"REDIS_PASSWORD":               raw.Redis.Password,
		"REDIS_DB":                     raw.Redis.DB,
		"REDIS_EVENTS_KEY":             raw.Redis.EventsKey,
		"LOG_LEVEL":                    raw.Log.Level,
	}, nil
}
