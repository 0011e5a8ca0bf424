package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the payment lifecycle.
type Status string

const (
	StatusPending           Status = "pending"
	StatusProcessing        Status = "processing"
	StatusAuthorized        Status = "authorized"
	StatusCaptured          Status = "captured"
	StatusCompleted         Status = "completed"
	StatusFailed            Status = "failed"
	StatusCancelled         Status = "cancelled"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially_refunded"
	StatusExpired           Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
// A callback replay against a terminal payment must be a no-op.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusExpired:
		return true
	}
	return false
}

// Method identifies the settlement channel.
type Method string

const (
	MethodRedsys       Method = "redsys"
	MethodBankTransfer Method = "bank_transfer"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrNotPending    = errors.New("payment is not awaiting settlement")
)

// Payment is one settlement attempt against an order. An order may carry
// several attempts over its life, at most one of them non-terminal.
type Payment struct {
	ID      string
	OrderID string

	Amount   decimal.Decimal
	Currency string

	Status Status
	Method Method

	GatewayTransactionID string
	GatewayResponseCode  string
	GatewayResponseDesc  string

	AuthorizedAt *time.Time
	CapturedAt   *time.Time
	FailedAt     *time.Time
	ExpiresAt    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capture moves a pending or processing payment to completed, recording
// the gateway's transaction identifier and response code.
func (p *Payment) Capture(transactionID, responseCode string, at time.Time) error {
	if p.Status.Terminal() {
		return ErrNotPending
	}
	p.Status = StatusCompleted
	p.GatewayTransactionID = transactionID
	p.GatewayResponseCode = responseCode
	p.AuthorizedAt = &at
	p.CapturedAt = &at
	p.UpdatedAt = at
	return nil
}

// Fail moves a non-terminal payment to failed with the gateway's verdict.
func (p *Payment) Fail(responseCode, description string, at time.Time) error {
	if p.Status.Terminal() {
		return ErrNotPending
	}
	p.Status = StatusFailed
	p.GatewayResponseCode = responseCode
	p.GatewayResponseDesc = description
	p.FailedAt = &at
	p.UpdatedAt = at
	return nil
}

// RedsysTransaction is the audit record of one exchange with the bank
// gateway: the signed request we sent and the raw callback we received.
// One row per payment attempt.
type RedsysTransaction struct {
	ID        string
	PaymentID string

	DsOrder           string
	DsAmount          int64
	DsCurrency        string
	DsMerchantCode    string
	DsTerminal        string
	DsTransactionType string

	RequestParams    string
	RequestSignature string
	RequestSentAt    *time.Time

	ResponseDsOrder         string
	ResponseDsCode          string
	ResponseDsAuthCode      string
	ResponseDsTransactionID string
	ResponseDsCardNumber    string
	ResponseDsCardBrand     string
	ResponseDsCardType      string
	ResponseDsCardCountry   string
	ResponseParams          string
	ResponseSignature       string
	ResponseReceivedAt      *time.Time
	ResponseSignatureValid  *bool

	CreatedAt time.Time
}

// AmountToCents converts a decimal amount to the integer minor units the
// gateway wire format requires.
func AmountToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
