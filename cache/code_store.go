package cache

import (
	"context"
	"errors"

	"github.com/cellardoor/indieauth/domain"
)

// ErrCodeNotFound is returned by Get when a code was never issued, has
// expired, or was evicted. Callers must not distinguish between those cases.
var ErrCodeNotFound = errors.New("authorization code not found")

// CodeStore holds pending authorization grants keyed by their opaque code
// value, bounded in both count and age. Get never consumes a record;
// invalidating an exchanged code is the caller's decision.
type CodeStore interface {
	Put(ctx context.Context, code *domain.AuthCode) error
	Get(ctx context.Context, code string) (*domain.AuthCode, error)
	Delete(ctx context.Context, code string) error
	Count(ctx context.Context) int
	Close() error
}
