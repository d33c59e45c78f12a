// Package database opens the configured entity store.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-user-api/internal/config"
	"github.com/yukikurage/task-user-api/internal/logger"
	"github.com/yukikurage/task-user-api/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store bundles the repositories of one backend with its close function.
type Store struct {
	Tasks repository.TaskRepository
	Users repository.UserRepository
	close func(context.Context) error
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend selected by cfg.Store.Driver and prepares its
// schema.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Store, error) {
	if cfg.Store.Driver == config.DriverMongo {
		return OpenMongo(ctx, cfg.Store)
	}

	dialector, err := Dialector(cfg.Store)
	if err != nil {
		return nil, err
	}

	db, err := Connect(dialector, &gorm.Config{
		Logger:         logger.Gorm(log, cfg.Log),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		_ = closeSQL(db)
		return nil, err
	}

	log.Info("database connection established", "driver", cfg.Store.Driver)
	return NewSQLStore(db), nil
}

// Dialector picks the gorm dialector for a SQL driver.
func Dialector(cfg config.StoreConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysql.Open(cfg.MySQLDSN()), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.PostgresDSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLiteDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// Connect opens a gorm handle. sqlite gets a single connection so every
// caller sees the same database, in-memory ones included.
func Connect(dialector gorm.Dialector, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewSQLStore wraps an open, migrated gorm handle.
func NewSQLStore(db *gorm.DB) *Store {
	return &Store{
		Tasks: repository.NewTaskRepository(db),
		Users: repository.NewUserRepository(db),
		close: func(context.Context) error {
			return closeSQL(db)
		},
	}
}

func closeSQL(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
