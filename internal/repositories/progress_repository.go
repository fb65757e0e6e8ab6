package repositories

import (
	"context"
	"errors"
)

var ErrProgressNotFound = errors.New("progress record not found")

// ProgressRepository stores serialized progress records by storage key.
// Implementations return ErrProgressNotFound from Get when nothing is stored under the key.
type ProgressRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

// IsNotFoundError checks if err reports a missing progress record
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProgressNotFound)
}
