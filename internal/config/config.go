// Package config loads process configuration from the environment and an
// optional config file.
package config

import (
	"fmt"
	"time"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Store  StoreConfig  `mapstructure:"store" validate:"required"`
	Log    LogConfig    `mapstructure:"log" validate:"required"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port             int     `mapstructure:"port" validate:"gt=0,lt=65536"`
	GinMode          string  `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	DefaultTaskLimit int64   `mapstructure:"default_task_limit" validate:"gt=0"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst" validate:"gte=1"`
	TracingEnabled   bool    `mapstructure:"tracing_enabled"`
}

// StoreConfig selects and addresses the entity store.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite mysql postgres mongo"`
	// DSN overrides the one built from the DB_* settings.
	DSN        string `mapstructure:"dsn"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`

	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	MongoURI      string        `mapstructure:"mongodb_uri" validate:"required_if=Driver mongo"`
	MongoDatabase string        `mapstructure:"mongodb_database" validate:"required_if=Driver mongo"`
	MongoTimeout  time.Duration `mapstructure:"mongodb_timeout" validate:"gt=0"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Addr is the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// MySQLDSN returns the configured DSN or one built from the DB_* settings.
func (s StoreConfig) MySQLDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.DBUser,
		s.DBPassword,
		s.DBHost,
		s.DBPort,
		s.DBName,
	)
}

// PostgresDSN returns the configured DSN or one built from the DB_* settings.
func (s StoreConfig) PostgresDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		s.DBHost,
		s.DBPort,
		s.DBUser,
		s.DBPassword,
		s.DBName,
	)
}

// SQLiteDSN returns the configured DSN or the sqlite file path.
func (s StoreConfig) SQLiteDSN() string {
	if s.DSN != "" {
		return s.DSN
	}
	return s.SQLitePath
}
