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

// UserRepository stores users in the "users" collection with pendingTasks
// kept as an array field
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a MongoDB-backed repository.UserRepository
func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// Find retrieves users matching spec
func (r *UserRepository) Find(ctx context.Context, spec *query.Spec) ([]models.User, error) {
	filter, err := specFilter(spec)
	if err != nil {
		return nil, err
	}

	cursor, err := r.coll.Find(ctx, filter, findOptions(spec))
	if err != nil {
		return nil, mapError(err)
	}

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, mapError(err)
	}

	if spec == nil || spec.Projection.Includes("pendingTasks") {
		for i := range users {
			normalizePendingTasks(&users[i])
		}
	}
	return users, nil
}

// Count counts users matching filter
func (r *UserRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	doc, err := BuildFilter(filter)
	if err != nil {
		return 0, err
	}

	total, err := r.coll.CountDocuments(ctx, doc)
	return total, mapError(err)
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, byID(id))
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	normalizePendingTasks(&user)
	return &user, nil
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = models.NewID()
	}
	if user.DateCreated.IsZero() {
		user.DateCreated = time.Now().UTC()
	}
	user.PendingTasks = models.UniqueIDs(user.PendingTasks)

	_, err := r.coll.InsertOne(ctx, user)
	return mapError(err)
}

// Save replaces a stored user
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	user.PendingTasks = models.UniqueIDs(user.PendingTasks)

	result, err := r.coll.ReplaceOne(ctx, byID(user.ID), user)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddPendingTask adds taskID to the user's pendingTasks with $addToSet
func (r *UserRepository) AddPendingTask(ctx context.Context, userID, taskID string) error {
	update := bson.D{{Key: "$addToSet", Value: bson.D{{Key: "pendingTasks", Value: taskID}}}}
	_, err := r.coll.UpdateOne(ctx, byID(userID), update)
	return mapError(err)
}

// RemovePendingTask removes taskID from the user's pendingTasks with $pull
func (r *UserRepository) RemovePendingTask(ctx context.Context, userID, taskID string) error {
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "pendingTasks", Value: taskID}}}}
	_, err := r.coll.UpdateOne(ctx, byID(userID), update)
	return mapError(err)
}

func normalizePendingTasks(user *models.User) {
	if user.PendingTasks == nil {
		user.PendingTasks = []string{}
	}
}
