package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guantera/checkout-api/internal/domains/discounts/adapters/memory"
	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(codes ...domain.Code) (*Service, *memory.Repository) {
	repo := memory.NewRepository()
	for _, c := range codes {
		repo.Seed(c)
	}
	svc := NewService(repo).WithClock(func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	})
	return svc, repo
}

func TestValidate_PreviewsWithoutConsumingUsage(t *testing.T) {
	svc, _ := newTestService(domain.Code{
		ID: "dc-1", Code: "KEEPER10", Type: domain.TypePercentage, Value: d("10"), Active: true,
	})

	v, err := svc.Validate(context.Background(), "KEEPER10", d("80.00"))
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.True(t, v.DiscountAmount.Equal(d("8.00")))

	// Previewing twice must not burn uses.
	amount, err := svc.Apply(context.Background(), "KEEPER10", d("80.00"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("8.00")))
}

func TestValidate_UnknownCodeIsInvalidNotError(t *testing.T) {
	svc, _ := newTestService()

	v, err := svc.Validate(context.Background(), "NOPE", d("80.00"))
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, "invalid discount code", v.Reason)
}

func TestApply_CaseInsensitiveLookup(t *testing.T) {
	svc, _ := newTestService(domain.Code{
		ID: "dc-1", Code: "KEEPER10", Type: domain.TypeFixed, Value: d("5.00"), Active: true,
	})

	amount, err := svc.Apply(context.Background(), "keeper10", d("80.00"))
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("5.00")))
}

func TestApply_SoftRejections(t *testing.T) {
	maxUses := 1
	svc, _ := newTestService(
		domain.Code{ID: "dc-1", Code: "INACTIVE", Type: domain.TypeFixed, Value: d("5.00")},
		domain.Code{ID: "dc-2", Code: "MINIMUM", Type: domain.TypeFixed, Value: d("5.00"), Active: true, MinOrderAmount: d("50.00")},
		domain.Code{ID: "dc-3", Code: "SPENT", Type: domain.TypeFixed, Value: d("5.00"), Active: true, MaxUses: &maxUses, CurrentUses: 1},
	)

	for _, code := range []string{"UNKNOWN", "INACTIVE", "MINIMUM", "SPENT"} {
		amount, err := svc.Apply(context.Background(), code, d("20.00"))
		assert.ErrorIs(t, err, ErrCodeRejected, "code %s", code)
		assert.True(t, amount.IsZero(), "code %s", code)
	}
}

func TestApply_ConsumesUsageUntilExhausted(t *testing.T) {
	maxUses := 2
	svc, _ := newTestService(domain.Code{
		ID: "dc-1", Code: "TWICE", Type: domain.TypeFixed, Value: d("5.00"), Active: true, MaxUses: &maxUses,
	})

	for i := 0; i < 2; i++ {
		_, err := svc.Apply(context.Background(), "TWICE", d("80.00"))
		require.NoError(t, err)
	}

	_, err := svc.Apply(context.Background(), "TWICE", d("80.00"))
	assert.ErrorIs(t, err, ErrCodeRejected)
	assert.ErrorIs(t, err, domain.ErrExhausted)
}
