package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-user-api/internal/models"
	"gorm.io/gorm"
)

// secondaryIndexes cover the filters and sorts clients issue most. Single
// column indexes on foreign keys come from the model tags.
var secondaryIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"tasks", "idx_tasks_completed_deadline", "completed, deadline"},
	{"tasks", "idx_tasks_date_created", "date_created"},
	{"tasks", "idx_tasks_assigned_user_name", "assigned_user_name"},
	{"users", "idx_users_name", "name"},
	{"users", "idx_users_date_created", "date_created"},
}

// Migrate creates or updates the SQL schema and its secondary indexes.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Task{},
		&models.User{},
		&models.UserPendingTask{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}

// AddIndexes creates any missing secondary index.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		slog.Debug("created index", "table", idx.table, "index", idx.name, "columns", idx.columns)
	}
	return nil
}
