package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
	"github.com/guantera/checkout-api/internal/domains/discounts/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory discount-code adapter.
type Repository struct {
	mu    sync.Mutex
	codes map[string]*domain.Code
}

func NewRepository() *Repository {
	return &Repository{codes: map[string]*domain.Code{}}
}

// Seed registers a code for tests and DSN-less runs.
func (r *Repository) Seed(code domain.Code) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := code
	r.codes[code.ID] = &clone
}

func (r *Repository) GetByCode(_ context.Context, code string) (*domain.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	needle := strings.TrimSpace(code)
	for _, candidate := range r.codes {
		if strings.EqualFold(candidate.Code, needle) {
			clone := *candidate
			return &clone, nil
		}
	}
	return nil, ports.ErrCodeNotFound
}

func (r *Repository) IncrementUsage(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[id]
	if !ok {
		return false, ports.ErrCodeNotFound
	}
	if code.MaxUses != nil && code.CurrentUses >= *code.MaxUses {
		return false, nil
	}
	code.CurrentUses++
	return true, nil
}
