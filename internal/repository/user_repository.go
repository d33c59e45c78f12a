package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrWriteUser is returned when writing the user row fails inside a transaction.
	ErrWriteUser = errors.New("user repository: write user failed")
	// ErrWritePendingTasks is returned when rewriting the pending task rows fails inside a transaction.
	ErrWritePendingTasks = errors.New("user repository: write pending tasks failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Find retrieves users matching the spec. Pending task sets are only loaded
// when the projection keeps them.
func (r *GormUserRepository) Find(ctx context.Context, spec *query.Spec) ([]models.User, error) {
	db, err := applySpec(r.db.WithContext(ctx).Model(&models.User{}), spec, query.Users)
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := db.Find(&users).Error; err != nil {
		return nil, MapError(err)
	}

	if spec == nil || spec.Projection.Includes("pendingTasks") {
		if err := r.loadPendingTasks(ctx, users); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Count counts users matching the filter
func (r *GormUserRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	db := r.db.WithContext(ctx).Model(&models.User{})
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

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormUserRepository) findOne(ctx context.Context, cond string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&user).Error; err != nil {
		return nil, MapError(err)
	}

	users := []models.User{user}
	if err := r.loadPendingTasks(ctx, users); err != nil {
		return nil, err
	}
	return &users[0], nil
}

// Create creates a new user together with its pending task rows
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.DateCreated.IsZero() {
		user.DateCreated = time.Now().UTC()
	}
	user.PendingTasks = models.UniqueIDs(user.PendingTasks)

	return MapError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrWriteUser, err)
		}
		return insertPendingTasks(tx, user)
	}))
}

// Save updates every column of a user and replaces its pending task rows
func (r *GormUserRepository) Save(ctx context.Context, user *models.User) error {
	user.PendingTasks = models.UniqueIDs(user.PendingTasks)

	return MapError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateRow(tx, user, user.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrWriteUser, err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserPendingTask{}).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrWritePendingTasks, err)
		}
		return insertPendingTasks(tx, user)
	}))
}

// Delete hard deletes a user and its pending task rows
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.UserPendingTask{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.User{})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPendingTask inserts a set member, ignoring one that already exists
func (r *GormUserRepository) AddPendingTask(ctx context.Context, userID, taskID string) error {
	row := models.UserPendingTask{UserID: userID, TaskID: taskID}
	return MapError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error)
}

// RemovePendingTask deletes a set member
func (r *GormUserRepository) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	return MapError(r.db.WithContext(ctx).
		Where("user_id = ? AND task_id = ?", userID, taskID).
		Delete(&models.UserPendingTask{}).Error)
}

func insertPendingTasks(tx *gorm.DB, user *models.User) error {
	if len(user.PendingTasks) == 0 {
		return nil
	}

	rows := make([]models.UserPendingTask, len(user.PendingTasks))
	for i, taskID := range user.PendingTasks {
		rows[i] = models.UserPendingTask{UserID: user.ID, TaskID: taskID}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("%w: %w", ErrWritePendingTasks, err)
	}
	return nil
}

func (r *GormUserRepository) loadPendingTasks(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}

	ids := make([]string, len(users))
	for i := range users {
		ids[i] = users[i].ID
		users[i].PendingTasks = []string{}
	}

	var rows []models.UserPendingTask
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("created_at, task_id").
		Find(&rows).Error; err != nil {
		return MapError(err)
	}

	index := make(map[string]int, len(users))
	for i := range users {
		index[users[i].ID] = i
	}
	for _, row := range rows {
		if i, ok := index[row.UserID]; ok {
			users[i].PendingTasks = append(users[i].PendingTasks, row.TaskID)
		}
	}
	return nil
}
