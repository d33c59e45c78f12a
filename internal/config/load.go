package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"server.port":               "PORT",
	"server.gin_mode":           "GIN_MODE",
	"server.default_task_limit": "DEFAULT_TASK_LIMIT",
	"server.rate_limit_rps":     "RATE_LIMIT_RPS",
	"server.rate_limit_burst":   "RATE_LIMIT_BURST",
	"server.tracing_enabled":    "TRACING_ENABLED",

	"store.driver":           "STORE_DRIVER",
	"store.dsn":              "DATABASE_DSN",
	"store.sqlite_path":      "SQLITE_PATH",
	"store.db_host":          "DB_HOST",
	"store.db_port":          "DB_PORT",
	"store.db_user":          "DB_USER",
	"store.db_password":      "DB_PASSWORD",
	"store.db_name":          "DB_NAME",
	"store.mongodb_uri":      "MONGODB_URI",
	"store.mongodb_database": "MONGODB_DATABASE",
	"store.mongodb_timeout":  "MONGODB_TIMEOUT",

	"log.level":  "LOG_LEVEL",
	"log.format": "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.default_task_limit", 100)
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.tracing_enabled", false)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.sqlite_path", "tasks.db")
	v.SetDefault("store.db_host", "localhost")
	v.SetDefault("store.db_port", "3306")
	v.SetDefault("store.db_user", "taskuser")
	v.SetDefault("store.db_password", "taskpassword")
	v.SetDefault("store.db_name", "task_management")
	v.SetDefault("store.mongodb_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongodb_database", "task_api")
	v.SetDefault("store.mongodb_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from defaults, the optional file at path and the
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
