package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/discounts/domain"
	"github.com/guantera/checkout-api/internal/domains/discounts/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists discount codes in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type discountCodeRecord struct {
	ID                 string           `gorm:"primaryKey;column:id"`
	Code               string           `gorm:"column:code;type:varchar(50);uniqueIndex"`
	Description        string           `gorm:"column:description;type:varchar(200)"`
	DiscountType       string           `gorm:"column:discount_type;type:varchar(20)"`
	DiscountValue      decimal.Decimal  `gorm:"column:discount_value;type:decimal(10,2)"`
	MinOrderAmount     decimal.Decimal  `gorm:"column:min_order_amount;type:decimal(10,2)"`
	MaxDiscountAmount  *decimal.Decimal `gorm:"column:max_discount_amount;type:decimal(10,2)"`
	Active             bool             `gorm:"column:is_active"`
	StartsAt           *time.Time       `gorm:"column:start_date"`
	EndsAt             *time.Time       `gorm:"column:end_date"`
	MaxUses            *int             `gorm:"column:max_uses"`
	MaxUsesPerCustomer int              `gorm:"column:max_uses_per_customer"`
	CurrentUses        int              `gorm:"column:current_uses"`
	CreatedAt          time.Time        `gorm:"column:created_at"`
	UpdatedAt          time.Time        `gorm:"column:updated_at"`
}

func (discountCodeRecord) TableName() string { return "discount_codes" }

func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.Code, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record discountCodeRecord
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = LOWER(?)", strings.TrimSpace(code)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrCodeNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// IncrementUsage is a single conditional update: concurrent applications of
// the same code serialize on the row and the cap can never be overshot.
func (r *Repository) IncrementUsage(ctx context.Context, id string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&discountCodeRecord{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", id).
		Updates(map[string]any{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres discount repository not configured")
	}
	return nil
}

func (record discountCodeRecord) toDomain() *domain.Code {
	return &domain.Code{
		ID:                 record.ID,
		Code:               record.Code,
		Description:        record.Description,
		Type:               domain.Type(record.DiscountType),
		Value:              record.DiscountValue,
		MinOrderAmount:     record.MinOrderAmount,
		MaxDiscountAmount:  record.MaxDiscountAmount,
		Active:             record.Active,
		StartsAt:           record.StartsAt,
		EndsAt:             record.EndsAt,
		MaxUses:            record.MaxUses,
		MaxUsesPerCustomer: record.MaxUsesPerCustomer,
		CurrentUses:        record.CurrentUses,
	}
}
