package repository

import (
	"context"

	"car-inventory-api/internal/models"

	"github.com/google/uuid"
)

// MaxIDAttempts bounds id regeneration when a freshly generated id collides
// with an existing record.
const MaxIDAttempts = 8

// CarStore is the record store contract shared by every backend.
//
// Errors are *errors.AppError values: validation failures match
// errors.ErrValidation, unknown ids match errors.ErrNotFound and backend
// failures match errors.ErrStore.
type CarStore interface {
	List(ctx context.Context) ([]models.Car, error)
	Get(ctx context.Context, id string) (*models.Car, error)
	Create(ctx context.Context, input models.CarInput) (*models.Car, error)
	Update(ctx context.Context, id string, patch models.CarPatch) (*models.Car, error)
	Delete(ctx context.Context, id string) error
}

// Option configures a repository.
type Option func(*options)

type options struct {
	newID func() string
}

// WithIDGenerator overrides the id source (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
