package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/guantera/checkout-api/internal/domains/payments/domain"
	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists payments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// paymentRecord maps one settlement attempt.
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

// redsysTransactionRecord is the audit trail of one gateway exchange.
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

// CreateAttempt inserts the payment and its audit record in one
// transaction.
func (r *Repository) CreateAttempt(ctx context.Context, payment *domain.Payment, txn *domain.RedsysTransaction) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toPaymentRecord(payment)
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		txnRecord := toTransactionRecord(txn)
		return tx.Create(&txnRecord).Error
	})
}

func (r *Repository) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record paymentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrPaymentNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetTransactionByDsOrder(ctx context.Context, dsOrder string) (*domain.RedsysTransaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record redsysTransactionRecord
	if err := r.db.WithContext(ctx).First(&record, "ds_order = ?", dsOrder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrTransactionNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetTransactionByPaymentID(ctx context.Context, paymentID string) (*domain.RedsysTransaction, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record redsysTransactionRecord
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrTransactionNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// CancelPendingForOrder cancels every non-terminal attempt for the order.
func (r *Repository) CancelPendingForOrder(ctx context.Context, orderID string, at time.Time) (int, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).Model(&paymentRecord{}).
		Where("order_id = ? AND status IN ?", orderID,
			[]string{string(domain.StatusPending), string(domain.StatusProcessing), string(domain.StatusAuthorized)}).
		Updates(map[string]any{
			"status":     string(domain.StatusCancelled),
			"updated_at": at,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// openStatuses are the payment states a callback may still settle.
var openStatuses = []string{
	string(domain.StatusPending),
	string(domain.StatusProcessing),
	string(domain.StatusAuthorized),
}

// errAlreadyFinalized aborts the transaction when a concurrent delivery
// settled the payment first.
var errAlreadyFinalized = errors.New("payment already finalized")

// FinalizeCallback persists the reconciled payment, the transaction's
// response fields, and the owning order's outcome atomically. The payment
// update is conditional on the row still being open: when a concurrent
// delivery of the same callback finalized it first, nothing is written and
// false is returned. A partial write here would desynchronize settlement
// from fulfilment, so all three updates share one transaction.
func (r *Repository) FinalizeCallback(ctx context.Context, payment *domain.Payment, txn *domain.RedsysTransaction, outcome ports.OrderOutcome) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := toPaymentRecord(payment)
		result := tx.Model(&paymentRecord{}).
			Where("id = ? AND status IN ?", payment.ID, openStatuses).
			Select("status", "gateway_transaction_id", "gateway_response_code",
				"gateway_response_desc", "authorized_at", "captured_at", "failed_at", "updated_at").
			Updates(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadyFinalized
		}

		txnRecord := toTransactionRecord(txn)
		if err := tx.Model(&redsysTransactionRecord{}).Where("id = ?", txn.ID).
			Select("response_ds_order", "response_ds_code", "response_ds_auth_code",
				"response_ds_transaction_id", "response_ds_card_number",
				"response_ds_card_brand", "response_ds_card_type",
				"response_ds_card_country", "response_params",
				"response_signature", "response_received_at", "response_signature_valid").
			Updates(&txnRecord).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"status":         outcome.Status,
			"payment_status": outcome.PaymentStatus,
			"updated_at":     payment.UpdatedAt,
		}
		if outcome.PaymentReference != "" {
			updates["payment_reference"] = outcome.PaymentReference
			updates["payment_method"] = string(payment.Method)
		}
		return tx.Table("orders").Where("id = ?", outcome.OrderID).Updates(updates).Error
	})
	if errors.Is(err, errAlreadyFinalized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExpireStale moves open payments whose expiry timestamp has passed to
// expired.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) ([]string, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&paymentRecord{}).
			Where("status IN ? AND expires_at < ?",
				[]string{string(domain.StatusPending), string(domain.StatusProcessing)}, now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&paymentRecord{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":     string(domain.StatusExpired),
				"updated_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payment repository not configured")
	}
	return nil
}

func toPaymentRecord(p *domain.Payment) paymentRecord {
	return paymentRecord{
		ID:                   p.ID,
		OrderID:              p.OrderID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Status:               string(p.Status),
		Method:               string(p.Method),
		GatewayTransactionID: p.GatewayTransactionID,
		GatewayResponseCode:  p.GatewayResponseCode,
		GatewayResponseDesc:  p.GatewayResponseDesc,
		AuthorizedAt:         p.AuthorizedAt,
		CapturedAt:           p.CapturedAt,
		FailedAt:             p.FailedAt,
		ExpiresAt:            p.ExpiresAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (r paymentRecord) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:                   r.ID,
		OrderID:              r.OrderID,
		Amount:               r.Amount,
		Currency:             r.Currency,
		Status:               domain.Status(r.Status),
		Method:               domain.Method(r.Method),
		GatewayTransactionID: r.GatewayTransactionID,
		GatewayResponseCode:  r.GatewayResponseCode,
		GatewayResponseDesc:  r.GatewayResponseDesc,
		AuthorizedAt:         r.AuthorizedAt,
		CapturedAt:           r.CapturedAt,
		FailedAt:             r.FailedAt,
		ExpiresAt:            r.ExpiresAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func toTransactionRecord(t *domain.RedsysTransaction) redsysTransactionRecord {
	return redsysTransactionRecord{
		ID:                      t.ID,
		PaymentID:               t.PaymentID,
		DsOrder:                 t.DsOrder,
		DsAmount:                t.DsAmount,
		DsCurrency:              t.DsCurrency,
		DsMerchantCode:          t.DsMerchantCode,
		DsTerminal:              t.DsTerminal,
		DsTransactionType:       t.DsTransactionType,
		RequestParams:           t.RequestParams,
		RequestSignature:        t.RequestSignature,
		RequestSentAt:           t.RequestSentAt,
		ResponseDsOrder:         t.ResponseDsOrder,
		ResponseDsCode:          t.ResponseDsCode,
		ResponseDsAuthCode:      t.ResponseDsAuthCode,
		ResponseDsTransactionID: t.ResponseDsTransactionID,
		ResponseDsCardNumber:    t.ResponseDsCardNumber,
		ResponseDsCardBrand:     t.ResponseDsCardBrand,
		ResponseDsCardType:      t.ResponseDsCardType,
		ResponseDsCardCountry:   t.ResponseDsCardCountry,
		ResponseParams:          t.ResponseParams,
		ResponseSignature:       t.ResponseSignature,
		ResponseReceivedAt:      t.ResponseReceivedAt,
		ResponseSignatureValid:  t.ResponseSignatureValid,
		CreatedAt:               t.CreatedAt,
	}
}

func (r redsysTransactionRecord) toDomain() *domain.RedsysTransaction {
	return &domain.RedsysTransaction{
		ID:                      r.ID,
		PaymentID:               r.PaymentID,
		DsOrder:                 r.DsOrder,
		DsAmount:                r.DsAmount,
		DsCurrency:              r.DsCurrency,
		DsMerchantCode:          r.DsMerchantCode,
		DsTerminal:              r.DsTerminal,
		DsTransactionType:       r.DsTransactionType,
		RequestParams:           r.RequestParams,
		RequestSignature:        r.RequestSignature,
		RequestSentAt:           r.RequestSentAt,
		ResponseDsOrder:         r.ResponseDsOrder,
		ResponseDsCode:          r.ResponseDsCode,
		ResponseDsAuthCode:      r.ResponseDsAuthCode,
		ResponseDsTransactionID: r.ResponseDsTransactionID,
		ResponseDsCardNumber:    r.ResponseDsCardNumber,
		ResponseDsCardBrand:     r.ResponseDsCardBrand,
		ResponseDsCardType:      r.ResponseDsCardType,
		ResponseDsCardCountry:   r.ResponseDsCardCountry,
		ResponseParams:          r.ResponseParams,
		ResponseSignature:       r.ResponseSignature,
		ResponseReceivedAt:      r.ResponseReceivedAt,
		ResponseSignatureValid:  r.ResponseSignatureValid,
		CreatedAt:               r.CreatedAt,
	}
}
