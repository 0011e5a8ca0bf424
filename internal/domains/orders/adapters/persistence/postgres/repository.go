package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/orders/domain"
	"github.com/guantera/checkout-api/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to its table.
type orderRecord struct {
	ID     string  `gorm:"primaryKey;column:id;type:uuid"`
	UserID *string `gorm:"column:user_id;type:uuid;index"`
	Number string  `gorm:"column:order_number;type:varchar(20);uniqueIndex"`

	Status        string `gorm:"column:status;type:varchar(32);index"`
	PaymentStatus string `gorm:"column:payment_status;type:varchar(32);index"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2)"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:decimal(10,2)"`
	ShippingAmount decimal.Decimal `gorm:"column:shipping_amount;type:decimal(10,2)"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:decimal(10,2)"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:decimal(10,2)"`

	PaymentMethod    string `gorm:"column:payment_method;type:varchar(32)"`
	PaymentReference string `gorm:"column:payment_reference;type:varchar(64)"`

	CustomerEmail     string `gorm:"column:customer_email;type:varchar(255);index"`
	CustomerFirstName string `gorm:"column:customer_first_name;type:varchar(100)"`
	CustomerLastName  string `gorm:"column:customer_last_name;type:varchar(100)"`
	CustomerPhone     string `gorm:"column:customer_phone;type:varchar(32)"`

	ShippingAddressLine1 string `gorm:"column:shipping_address_line1;type:varchar(255)"`
	ShippingAddressLine2 string `gorm:"column:shipping_address_line2;type:varchar(255)"`
	ShippingCity         string `gorm:"column:shipping_city;type:varchar(100)"`
	ShippingState        string `gorm:"column:shipping_state;type:varchar(100)"`
	ShippingPostalCode   string `gorm:"column:shipping_postal_code;type:varchar(20)"`
	ShippingCountry      string `gorm:"column:shipping_country;type:varchar(2)"`

	Items []orderItemRecord `gorm:"foreignKey:OrderID;references:ID"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// orderItemRecord maps one line item. Rows are frozen price snapshots.
type orderItemRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement;column:id"`
	OrderID     string          `gorm:"column:order_id;type:uuid;index"`
	ProductID   string          `gorm:"column:product_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;type:varchar(255)"`
	Size        string          `gorm:"column:size;type:varchar(16)"`
	Quantity    int             `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:decimal(10,2)"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:decimal(10,2)"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Create inserts the order and its items in one transaction.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return err
	}
	for i, item := range record.Items {
		order.Items[i].ID = item.ID
	}
	return nil
}

// GetByID fetches an order and its items.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).Preload("Items").First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrOrderNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByNumber fetches an order by its human-readable number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).Preload("Items").First(&record, "order_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrOrderNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	items := make([]orderItemRecord, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemRecord{
			ID:          item.ID,
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return orderRecord{
		ID:                   order.ID,
		UserID:               order.UserID,
		Number:               order.Number,
		Status:               string(order.Status),
		PaymentStatus:        string(order.PaymentStatus),
		Subtotal:             order.Subtotal,
		TaxAmount:            order.TaxAmount,
		ShippingAmount:       order.ShippingAmount,
		DiscountAmount:       order.DiscountAmount,
		TotalAmount:          order.TotalAmount,
		PaymentMethod:        order.PaymentMethod,
		PaymentReference:     order.PaymentReference,
		CustomerEmail:        order.Customer.Email,
		CustomerFirstName:    order.Customer.FirstName,
		CustomerLastName:     order.Customer.LastName,
		CustomerPhone:        order.Customer.Phone,
		ShippingAddressLine1: order.Shipping.AddressLine1,
		ShippingAddressLine2: order.Shipping.AddressLine2,
		ShippingCity:         order.Shipping.City,
		ShippingState:        order.Shipping.State,
		ShippingPostalCode:   order.Shipping.PostalCode,
		ShippingCountry:      order.Shipping.Country,
		Items:                items,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.OrderItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return &domain.Order{
		ID:               r.ID,
		UserID:           r.UserID,
		Number:           r.Number,
		Status:           domain.Status(r.Status),
		PaymentStatus:    domain.PaymentStatus(r.PaymentStatus),
		Subtotal:         r.Subtotal,
		TaxAmount:        r.TaxAmount,
		ShippingAmount:   r.ShippingAmount,
		DiscountAmount:   r.DiscountAmount,
		TotalAmount:      r.TotalAmount,
		PaymentMethod:    r.PaymentMethod,
		PaymentReference: r.PaymentReference,
		Customer: domain.Customer{
			Email:     r.CustomerEmail,
			FirstName: r.CustomerFirstName,
			LastName:  r.CustomerLastName,
			Phone:     r.CustomerPhone,
		},
		Shipping: domain.ShippingAddress{
			AddressLine1: r.ShippingAddressLine1,
			AddressLine2: r.ShippingAddressLine2,
			City:         r.ShippingCity,
			State:        r.ShippingState,
			PostalCode:   r.ShippingPostalCode,
			Country:      r.ShippingCountry,
		},
		Items:     items,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
