//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
	"github.com/guantera/checkout-api/internal/domains/discounts/ports"
	"github.com/guantera/checkout-api/internal/platform/migrations"
)

func setupDiscountsPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("checkout_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seedCode(t *testing.T, db *gorm.DB, maxUses *int) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, db.Create(&discountCodeRecord{
		ID:            id,
		Code:          "KEEPER10",
		DiscountType:  string(domain.TypePercentage),
		DiscountValue: decimal.RequireFromString("10"),
		Active:        true,
		MaxUses:       maxUses,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}).Error)
	return id
}

func TestRepository_GetByCode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupDiscountsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedCode(t, db, nil)

	code, err := repo.GetByCode(ctx, "keeper10")
	require.NoError(t, err)
	assert.Equal(t, "KEEPER10", code.Code)
	assert.Equal(t, domain.TypePercentage, code.Type)

	code, err = repo.GetByCode(ctx, "  KEEPER10  ")
	require.NoError(t, err)
	assert.Equal(t, "KEEPER10", code.Code)

	_, err = repo.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, ports.ErrCodeNotFound)
}

func TestRepository_IncrementUsage_RespectsCap(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupDiscountsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	maxUses := 2
	id := seedCode(t, db, &maxUses)

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.IncrementUsage(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "cap reached")

	code, err := repo.GetByCode(ctx, "KEEPER10")
	require.NoError(t, err)
	assert.Equal(t, 2, code.CurrentUses)
}

func TestRepository_IncrementUsage_ConcurrentNeverOvershoots(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupDiscountsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	maxUses := 5
	id := seedCode(t, db, &maxUses)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementUsage(ctx, id)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	code, err := repo.GetByCode(ctx, "KEEPER10")
	require.NoError(t, err)
	assert.Equal(t, 5, code.CurrentUses)
}
