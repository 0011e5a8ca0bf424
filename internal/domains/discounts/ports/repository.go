package ports

import (
	"context"
	"errors"

	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
)

var ErrCodeNotFound = errors.New("discount code not found")

// Repository persists discount codes and their usage counters.
type Repository interface {
	// GetByCode resolves a code case-insensitively.
	GetByCode(ctx context.Context, code string) (*domain.Code, error)

	// IncrementUsage bumps the usage counter atomically, refusing the
	// increment when the global cap is already reached. Returns false when
	// the cap prevented the increment.
	IncrementUsage(ctx context.Context, id string) (bool, error)
}
