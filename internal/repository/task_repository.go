package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Find retrieves tasks matching the spec's filter, sort, projection and window
func (r *GormTaskRepository) Find(ctx context.Context, spec *query.Spec) ([]models.Task, error) {
	db, err := applySpec(r.db.WithContext(ctx).Model(&models.Task{}), spec, query.Tasks)
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := db.Find(&tasks).Error; err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}

// Count counts tasks matching the filter
func (r *GormTaskRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Task{})
	if filter != nil {
		cond, err := BuildCondition(filter)
		if err != nil {
			return 0, err
		}
		db = db.Where(cond)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return 0, MapError(err)
	}
	return total, nil
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, MapError(err)
	}
	return &task, nil
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = models.NewID()
	}
	if task.DateCreated.IsZero() {
		task.DateCreated = time.Now().UTC()
	}
	return MapError(r.db.WithContext(ctx).Create(task).Error)
}

// Save updates every column of an existing task. A missing task is
// ErrNotFound, never re-inserted.
func (r *GormTaskRepository) Save(ctx context.Context, task *models.Task) error {
	return MapError(updateRow(r.db.WithContext(ctx), task, task.ID))
}

// Delete hard deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return MapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAssignments rewrites the assignment columns of every listed task
func (r *GormTaskRepository) UpdateAssignments(ctx context.Context, ids []string, update AssignmentUpdate) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var assignedUser any
	if update.UserID != nil {
		assignedUser = *update.UserID
	}

	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"assigned_user":      assignedUser,
			"assigned_user_name": update.UserName,
		})
	if result.Error != nil {
		return 0, MapError(result.Error)
	}
	return result.RowsAffected, nil
}
