package mongorepo

import (
	"errors"
	"fmt"

	"github.com/yukikurage/task-user-api/internal/repository"
	"go.mongodb.org/mongo-driver/mongo"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", repository.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	return err
}
