package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-user-api/internal/assignment"
	apierrors "github.com/yukikurage/task-user-api/internal/errors"
	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ServiceTestSuite covers TaskService and UserService over SQLite
type ServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	tasks    *TaskService
	users    *UserService
	deadline time.Time
}

// SetupTest runs before each test
func (suite *ServiceTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	suite.Require().NoError(err)

	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	suite.Require().NoError(suite.db.AutoMigrate(&models.Task{}, &models.User{}, &models.UserPendingTask{}))

	taskRepo := repository.NewTaskRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	sync := assignment.NewSynchronizer(taskRepo, userRepo, nil)

	suite.ctx = context.Background()
	suite.tasks = NewTaskService(taskRepo, sync, 2, nil)
	suite.users = NewUserService(userRepo, sync, nil)
	suite.deadline = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

// TearDownTest runs after each test
func (suite *ServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ServiceTestSuite) createTask(name string, assignee *string) *models.Task {
	task, err := suite.tasks.CreateTask(suite.ctx, TaskInput{Name: name, Deadline: &suite.deadline, AssignedUser: assignee})
	suite.Require().NoError(err)
	return task
}

func (suite *ServiceTestSuite) createUser(name, email string, pending ...string) *models.User {
	user, err := suite.users.CreateUser(suite.ctx, UserInput{Name: name, Email: email, PendingTasks: pending})
	suite.Require().NoError(err)
	return user
}

func (suite *ServiceTestSuite) TestCreateTaskValidation() {
	_, err := suite.tasks.CreateTask(suite.ctx, TaskInput{Deadline: &suite.deadline})
	suite.ErrorIs(err, apierrors.ErrValidationFailed)
	suite.EqualError(err, "Task name is required")

	_, err = suite.tasks.CreateTask(suite.ctx, TaskInput{Name: "T1"})
	suite.ErrorIs(err, apierrors.ErrValidationFailed)
	suite.EqualError(err, "Deadline is required")
}

func (suite *ServiceTestSuite) TestCreateTaskDefaults() {
	task := suite.createTask("T1", nil)

	suite.NotEmpty(task.ID)
	suite.Empty(task.Description)
	suite.False(task.Completed)
	suite.Nil(task.AssignedUser)
	suite.Equal(models.UnassignedUserName, task.AssignedUserName)
	suite.False(task.DateCreated.IsZero())
}

func (suite *ServiceTestSuite) TestListTasksAppliesDefaultLimit() {
	suite.createTask("a", nil)
	suite.createTask("b", nil)
	suite.createTask("c", nil)

	result, err := suite.tasks.ListTasks(suite.ctx, map[string]string{})
	suite.Require().NoError(err)
	suite.Len(result.Items, 2)

	result, err = suite.tasks.ListTasks(suite.ctx, map[string]string{"limit": "0"})
	suite.Require().NoError(err)
	suite.Len(result.Items, 3)

	result, err = suite.tasks.ListTasks(suite.ctx, map[string]string{"count": "TRUE", "limit": "1"})
	suite.Require().NoError(err)
	suite.True(result.Counted)
	suite.Equal(int64(3), result.Count)
}

func (suite *ServiceTestSuite) TestListUsersHasNoDefaultLimit() {
	suite.createUser("a", "a@x.com")
	suite.createUser("b", "b@x.com")
	suite.createUser("c", "c@x.com")

	result, err := suite.users.ListUsers(suite.ctx, map[string]string{"sort": `{"name": -1}`})
	suite.Require().NoError(err)
	suite.Require().Len(result.Items, 3)
	suite.Equal("c", result.Items[0].Name)
}

func (suite *ServiceTestSuite) TestListRejectsMalformedParams() {
	_, err := suite.tasks.ListTasks(suite.ctx, map[string]string{"where": "{bad json"})
	suite.ErrorIs(err, apierrors.InvalidParameter("where"))
	suite.EqualError(err, "Invalid JSON for 'where'.")

	_, err = suite.users.ListUsers(suite.ctx, map[string]string{"skip": "-1"})
	suite.ErrorIs(err, apierrors.InvalidParameter("skip"))
}

func (suite *ServiceTestSuite) TestGetTaskNotFound() {
	_, _, err := suite.tasks.GetTask(suite.ctx, "missing", nil)
	suite.ErrorIs(err, apierrors.ErrNotFound)
	suite.EqualError(err, "Task not found")
}

func (suite *ServiceTestSuite) TestGetTaskWithSelect() {
	task := suite.createTask("T1", nil)

	found, projection, err := suite.tasks.GetTask(suite.ctx, task.ID, map[string]string{"select": `{"name": 1}`})
	suite.Require().NoError(err)
	suite.Equal(task.ID, found.ID)
	suite.Require().NotNil(projection)
	suite.True(projection.Includes("name"))
	suite.False(projection.Includes("deadline"))
}

func (suite *ServiceTestSuite) TestReplaceTaskResetsOmittedFields() {
	alice := suite.createUser("Alice", "a@x.com")
	task, err := suite.tasks.CreateTask(suite.ctx, TaskInput{
		Name:         "T1",
		Description:  "details",
		Deadline:     &suite.deadline,
		Completed:    true,
		AssignedUser: &alice.ID,
	})
	suite.Require().NoError(err)

	later := suite.deadline.Add(24 * time.Hour)
	replaced, err := suite.tasks.ReplaceTask(suite.ctx, task.ID, TaskInput{Name: "T1 v2", Deadline: &later})
	suite.Require().NoError(err)

	suite.Equal("T1 v2", replaced.Name)
	suite.Empty(replaced.Description)
	suite.False(replaced.Completed)
	suite.Nil(replaced.AssignedUser)
	suite.Equal(models.UnassignedUserName, replaced.AssignedUserName)
	suite.True(replaced.DateCreated.Equal(task.DateCreated))

	user, _, err := suite.users.GetUser(suite.ctx, alice.ID, nil)
	suite.Require().NoError(err)
	suite.Empty(user.PendingTasks)
}

func (suite *ServiceTestSuite) TestReplaceTaskNotFound() {
	_, err := suite.tasks.ReplaceTask(suite.ctx, "missing", TaskInput{Name: "T1", Deadline: &suite.deadline})
	suite.ErrorIs(err, apierrors.ErrNotFound)
}

func (suite *ServiceTestSuite) TestDeleteTaskUnlinksUser() {
	alice := suite.createUser("Alice", "a@x.com")
	task := suite.createTask("T1", &alice.ID)

	suite.Require().NoError(suite.tasks.DeleteTask(suite.ctx, task.ID))

	user, _, err := suite.users.GetUser(suite.ctx, alice.ID, nil)
	suite.Require().NoError(err)
	suite.Empty(user.PendingTasks)

	suite.ErrorIs(suite.tasks.DeleteTask(suite.ctx, task.ID), apierrors.ErrNotFound)
}

func (suite *ServiceTestSuite) TestCreateUserValidation() {
	tests := []struct {
		input   UserInput
		message string
	}{
		{UserInput{}, "User must have name or email"},
		{UserInput{Email: "a@x.com"}, "User name is required"},
		{UserInput{Name: "Alice"}, "User email is required"},
	}

	for _, tt := range tests {
		_, err := suite.users.CreateUser(suite.ctx, tt.input)
		suite.ErrorIs(err, apierrors.ErrValidationFailed)
		suite.EqualError(err, tt.message)
	}
}

func (suite *ServiceTestSuite) TestCreateUserDuplicateEmail() {
	suite.createUser("Alice", "a@x.com")

	_, err := suite.users.CreateUser(suite.ctx, UserInput{Name: "Other", Email: "a@x.com"})
	suite.ErrorIs(err, apierrors.ErrConflict)
	suite.EqualError(err, "Email already exists")
	suite.Equal(400, apierrors.StatusCode(err))
}

func (suite *ServiceTestSuite) TestReplaceUserEmailRules() {
	alice := suite.createUser("Alice", "a@x.com")
	suite.createUser("Bob", "b@x.com")

	// keeping the same email is allowed
	replaced, err := suite.users.ReplaceUser(suite.ctx, alice.ID, UserInput{Name: "Alicia", Email: "a@x.com"})
	suite.Require().NoError(err)
	suite.Equal("Alicia", replaced.Name)
	suite.NotNil(replaced.PendingTasks)

	_, err = suite.users.ReplaceUser(suite.ctx, alice.ID, UserInput{Name: "Alicia", Email: "b@x.com"})
	suite.ErrorIs(err, apierrors.ErrConflict)

	_, err = suite.users.ReplaceUser(suite.ctx, "missing", UserInput{Name: "X", Email: "x@x.com"})
	suite.ErrorIs(err, apierrors.ErrNotFound)
	suite.EqualError(err, "User not found")
}

func (suite *ServiceTestSuite) TestReplaceUserReassignsTasks() {
	alice := suite.createUser("Alice", "a@x.com")
	task := suite.createTask("T1", &alice.ID)

	_, err := suite.users.ReplaceUser(suite.ctx, alice.ID, UserInput{Name: "Alice", Email: "a@x.com"})
	suite.Require().NoError(err)

	found, _, err := suite.tasks.GetTask(suite.ctx, task.ID, nil)
	suite.Require().NoError(err)
	suite.Nil(found.AssignedUser)
	suite.Equal(models.UnassignedUserName, found.AssignedUserName)
}

func (suite *ServiceTestSuite) TestDeleteUserReleasesTasks() {
	alice := suite.createUser("Alice", "a@x.com")
	t1 := suite.createTask("T1", &alice.ID)
	t2 := suite.createTask("T2", &alice.ID)

	suite.Require().NoError(suite.users.DeleteUser(suite.ctx, alice.ID))

	for _, id := range []string{t1.ID, t2.ID} {
		found, _, err := suite.tasks.GetTask(suite.ctx, id, nil)
		suite.Require().NoError(err)
		suite.Nil(found.AssignedUser)
		suite.Equal(models.UnassignedUserName, found.AssignedUserName)
	}

	suite.ErrorIs(suite.users.DeleteUser(suite.ctx, alice.ID), apierrors.ErrNotFound)
}

// TestServiceTestSuite runs the test suite
func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
