package repositories

import (
	"errors"
	"fmt"

	"github.com/thelittlethings/backend/pkg/challenge"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver level "no rows" errors onto challenge.ErrNotFound and
// unique violations onto challenge.ErrConflict
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return challenge.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", challenge.ErrConflict, err)
	}
	return err
}
