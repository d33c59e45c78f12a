package mongorepo

import (
	"context"

	"github.com/yukikurage/task-user-api/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tasksCollection = "tasks"
	usersCollection = "users"
)

// findOptions translates the sort, projection and window of spec.
func findOptions(spec *query.Spec) *options.FindOptions {
	opts := options.Find()
	if spec == nil {
		return opts
	}

	if sort := BuildSort(spec.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if projection := BuildProjection(spec.Projection); projection != nil {
		opts.SetProjection(projection)
	}
	if spec.Skip != nil {
		opts.SetSkip(*spec.Skip)
	}
	if spec.Limit != nil {
		opts.SetLimit(*spec.Limit)
	}
	return opts
}

func specFilter(spec *query.Spec) (bson.D, error) {
	if spec == nil {
		return bson.D{}, nil
	}
	return BuildFilter(spec.Filter)
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// EnsureIndexes creates the indexes both collections rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedUser", Value: 1}}},
		{Keys: bson.D{{Key: "deadline", Value: 1}}},
	})
	return err
}
