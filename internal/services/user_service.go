package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yukikurage/task-user-api/internal/assignment"
	apierrors "github.com/yukikurage/task-user-api/internal/errors"
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/repository"
)

// Validation messages
const (
	msgUserIdentityRequired = "User must have name or email"
	msgUserNameRequired     = "User name is required"
	msgUserEmailRequired    = "User email is required"
	msgEmailExists          = "Email already exists"
	msgUserNotFound         = "User not found"
)

// UserService handles user business logic
type UserService struct {
	userRepo repository.UserRepository
	sync     *assignment.Synchronizer
	logger   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, sync *assignment.Synchronizer, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		userRepo: userRepo,
		sync:     sync,
		logger:   logger.With("service", "users"),
	}
}

// UserInput is the full set of writable user fields
type UserInput struct {
	Name         string
	Email        string
	PendingTasks []string
}

// ListUsers lists users matching the query parameters. Users have no default limit.
func (s *UserService) ListUsers(ctx context.Context, params map[string]string) (*ListResult[models.User], error) {
	spec, err := translate(query.Users, params)
	if err != nil {
		return nil, err
	}

	if spec.Count {
		total, err := s.userRepo.Count(ctx, spec.Filter)
		if err != nil {
			return nil, apierrors.StoreFailure("failed to count users", err)
		}
		return &ListResult[models.User]{Count: total, Counted: true}, nil
	}

	users, err := s.userRepo.Find(ctx, spec)
	if err != nil {
		return nil, apierrors.StoreFailure("failed to list users", err)
	}
	return &ListResult[models.User]{Items: users, Projection: spec.Projection}, nil
}

// GetUser retrieves a user by ID along with the projection requested by `select`
func (s *UserService) GetUser(ctx context.Context, id string, params map[string]string) (*models.User, *query.Projection, error) {
	projection, err := query.TranslateProjection(query.Users, params)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return user, projection, nil
}

// CreateUser creates a user and claims its initial pending tasks
func (s *UserService) CreateUser(ctx context.Context, input UserInput) (*models.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, input.Email); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PendingTasks: input.PendingTasks,
	}
	if err := s.sync.LinkOnUserCreate(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "pending_tasks", len(user.PendingTasks))
	return user, nil
}

// ReplaceUser overwrites a user's name, email and pending task set
func (s *UserService) ReplaceUser(ctx context.Context, id string, input UserInput) (*models.User, error) {
	if err := validateUserInput(input); err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != user.Email {
		if err := s.ensureEmailAvailable(ctx, input.Email); err != nil {
			return nil, err
		}
	}

	user.Name = input.Name
	user.Email = input.Email
	if err := s.sync.ReconcileOnUserReplace(ctx, user, input.PendingTasks); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user replaced", "user_id", user.ID, "pending_tasks", len(user.PendingTasks))
	return user, nil
}

// DeleteUser releases a user's tasks and deletes it
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}

	if err := s.sync.UnlinkOnUserDelete(ctx, user); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierrors.NotFound(msgUserNotFound)
		}
		return apierrors.StoreFailure("failed to delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", user.ID)
	return nil
}

func (s *UserService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierrors.NotFound(msgUserNotFound)
		}
		return nil, apierrors.StoreFailure("failed to load user", err)
	}
	return user, nil
}

func (s *UserService) ensureEmailAvailable(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return apierrors.Conflict(msgEmailExists)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return apierrors.StoreFailure("failed to check email", err)
	}
}

func validateUserInput(input UserInput) error {
	switch {
	case input.Name == "" && input.Email == "":
		return apierrors.ValidationFailed(msgUserIdentityRequired)
	case input.Name == "":
		return apierrors.ValidationFailed(msgUserNameRequired)
	case input.Email == "":
		return apierrors.ValidationFailed(msgUserEmailRequired)
	}
	return nil
}
