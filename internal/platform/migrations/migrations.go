package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&productSizeRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&paymentRecord{},
		&redsysTransactionRecord{},
		&discountCodeRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
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

// Order schema mirrors the orders Postgres adapter.
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

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

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

// Payment schema mirrors the payments Postgres adapter.
type paymentRecord struct {
	ID      string `gorm:"primaryKey;column:id;type:uuid"`
	OrderID string `gorm:"column:order_id;type:uuid;index"`

	Amount   decimal.Decimal `gorm:"column:amount;type:decimal(10,2)"`
	Currency string          `gorm:"column:currency;type:varchar(3)"`

	Status string `gorm:"column:status;type:varchar(32);index"`
	Method string `gorm:"column:payment_method;type:varchar(32)"`

	GatewayTransactionID string `gorm:"column:gateway_transaction_id;type:varchar(64)"`
	GatewayResponseCode  string `gorm:"column:gateway_response_code;type:varchar(8)"`
	GatewayResponseDesc  string `gorm:"column:gateway_response_desc;type:varchar(255)"`

	AuthorizedAt *time.Time `gorm:"column:authorized_at"`
	CapturedAt   *time.Time `gorm:"column:captured_at"`
	FailedAt     *time.Time `gorm:"column:failed_at"`
	ExpiresAt    time.Time  `gorm:"column:expires_at;index"`

	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (paymentRecord) TableName() string { return "payments" }

type redsysTransactionRecord struct {
	ID        string `gorm:"primaryKey;column:id;type:uuid"`
	PaymentID string `gorm:"column:payment_id;type:uuid;index"`

	DsOrder           string `gorm:"column:ds_order;type:varchar(12);uniqueIndex"`
	DsAmount          int64  `gorm:"column:ds_amount"`
	DsCurrency        string `gorm:"column:ds_currency;type:varchar(3)"`
	DsMerchantCode    string `gorm:"column:ds_merchant_code;type:varchar(16)"`
	DsTerminal        string `gorm:"column:ds_terminal;type:varchar(4)"`
	DsTransactionType string `gorm:"column:ds_transaction_type;type:varchar(2)"`

	RequestParams    string     `gorm:"column:request_params;type:text"`
	RequestSignature string     `gorm:"column:request_signature;type:varchar(64)"`
	RequestSentAt    *time.Time `gorm:"column:request_sent_at"`

	ResponseDsOrder         string     `gorm:"column:response_ds_order;type:varchar(12)"`
	ResponseDsCode          string     `gorm:"column:response_ds_code;type:varchar(8)"`
	ResponseDsAuthCode      string     `gorm:"column:response_ds_auth_code;type:varchar(16)"`
	ResponseDsTransactionID string     `gorm:"column:response_ds_transaction_id;type:varchar(64)"`
	ResponseDsCardNumber    string     `gorm:"column:response_ds_card_number;type:varchar(24)"`
	ResponseDsCardBrand     string     `gorm:"column:response_ds_card_brand;type:varchar(4)"`
	ResponseDsCardType      string     `gorm:"column:response_ds_card_type;type:varchar(2)"`
	ResponseDsCardCountry   string     `gorm:"column:response_ds_card_country;type:varchar(4)"`
	ResponseParams          string     `gorm:"column:response_params;type:text"`
	ResponseSignature       string     `gorm:"column:response_signature;type:varchar(64)"`
	ResponseReceivedAt      *time.Time `gorm:"column:response_received_at"`
	ResponseSignatureValid  *bool      `gorm:"column:response_signature_valid"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

func (redsysTransactionRecord) TableName() string { return "redsys_transactions" }

// Discount schema mirrors the discounts Postgres adapter.
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
