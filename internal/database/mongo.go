package database

import (
	"context"
	"fmt"

	"github.com/yukikurage/task-user-api/internal/config"
	"github.com/yukikurage/task-user-api/internal/repository/mongorepo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpenMongo connects to MongoDB, verifies the connection and ensures the
// collection indexes.
func OpenMongo(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetTimeout(cfg.MongoTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return &Store{
		Tasks: mongorepo.NewTaskRepository(db),
		Users: mongorepo.NewUserRepository(db),
		close: client.Disconnect,
	}, nil
}
