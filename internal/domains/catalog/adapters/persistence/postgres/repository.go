package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/catalog/domain"
	"github.com/guantera/checkout-api/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository reads products and mutates stock in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed catalog adapter. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// productRecord maps the catalog entry to a relational table.
type productRecord struct {
	ID               string           `gorm:"primaryKey;column:id"`
	Name             string           `gorm:"column:name;type:varchar(255);index"`
	Price            decimal.Decimal  `gorm:"column:price;type:decimal(10,2)"`
	SalePrice        *decimal.Decimal `gorm:"column:sale_price;type:decimal(10,2)"`
	ShortDescription string           `gorm:"column:short_description;type:varchar(255)"`
	ImageURLs        pq.StringArray   `gorm:"column:image_urls;type:text[]"`
	Tags             pq.StringArray   `gorm:"column:tags;type:text[]"`
	Active           bool             `gorm:"column:is_active"`
	CreatedAt        time.Time        `gorm:"column:created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// productSizeRecord tracks per-size stock for a product.
type productSizeRecord struct {
	ID            int64     `gorm:"primaryKey;column:id"`
	ProductID     string    `gorm:"column:product_id;uniqueIndex:idx_product_sizes_product_size"`
	Size          string    `gorm:"column:size;type:varchar(10);uniqueIndex:idx_product_sizes_product_size"`
	StockQuantity int       `gorm:"column:stock_quantity"`
	Available     bool      `gorm:"column:is_available"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (productSizeRecord) TableName() string { return "product_sizes" }

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrProductNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// DecrementStock runs a single conditional update so concurrent payment
// confirmations for the same (product, size) can never drive stock negative.
func (r *Repository) DecrementStock(ctx context.Context, productID, size string, quantity int) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	if quantity <= 0 {
		return false, errors.New("quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&productSizeRecord{}).
		Where("product_id = ? AND size = ? AND stock_quantity >= ?", productID, size, quantity).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"is_available":   gorm.Expr("stock_quantity - ? > 0", quantity),
			"updated_at":     gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func (record productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:               record.ID,
		Name:             record.Name,
		Price:            record.Price,
		SalePrice:        record.SalePrice,
		ShortDescription: record.ShortDescription,
		ImageURLs:        record.ImageURLs,
		Tags:             record.Tags,
		Active:           record.Active,
	}
}
