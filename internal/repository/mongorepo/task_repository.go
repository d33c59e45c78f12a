package mongorepo

import (
	"context"
	"time"

	"github.com/yukikurage/task-user-api/internal/models"
	"github.com/yukikurage/task-user-api/internal/query"
	"github.com/yukikurage/task-user-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskRepository stores tasks in the "tasks" collection
type TaskRepository struct {
	coll *mongo.Collection
}

// NewTaskRepository creates a MongoDB-backed repository.TaskRepository
func NewTaskRepository(db *mongo.Database) repository.TaskRepository {
	return &TaskRepository{coll: db.Collection(tasksCollection)}
}

// Find retrieves tasks matching spec
func (r *TaskRepository) Find(ctx context.Context, spec *query.Spec) ([]models.Task, error) {
	filter, err := specFilter(spec)
	if err != nil {
		return nil, err
	}

	cursor, err := r.coll.Find(ctx, filter, findOptions(spec))
	if err != nil {
		return nil, mapError(err)
	}

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

// Count counts tasks matching filter
func (r *TaskRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	doc, err := BuildFilter(filter)
	if err != nil {
		return 0, err
	}

	total, err := r.coll.CountDocuments(ctx, doc)
	return total, mapError(err)
}

// FindByID finds a task by ID
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&task); err != nil {
		return nil, mapError(err)
	}
	return &task, nil
}

// Create inserts a task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = models.NewID()
	}
	if task.DateCreated.IsZero() {
		task.DateCreated = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, task)
	return mapError(err)
}

// Save replaces a stored task
func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	result, err := r.coll.ReplaceOne(ctx, byID(task.ID), task)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateAssignments sets the assignment fields of every listed task
func (r *TaskRepository) UpdateAssignments(ctx context.Context, ids []string, update repository.AssignmentUpdate) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	set := bson.D{{Key: "$set", Value: bson.D{
		{Key: "assignedUser", Value: update.UserID},
		{Key: "assignedUserName", Value: update.UserName},
	}}}

	result, err := r.coll.UpdateMany(ctx, filter, set)
	if err != nil {
		return 0, mapError(err)
	}
	return result.MatchedCount, nil
}
