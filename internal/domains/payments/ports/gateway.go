package ports

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrMalformedCallback = errors.New("callback payload is malformed")
	ErrInvalidSignature  = errors.New("callback signature verification failed")
)

// PaymentRequest carries everything the gateway needs to start a redirect
// payment for one attempt.
type PaymentRequest struct {
	OrderNumber string
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// SignedForm is the auto-submit form payload the browser posts to the bank:
// the gateway endpoint URL plus the three signed fields.
type SignedForm struct {
	URL                string
	SignatureVersion   string
	MerchantParameters string
	Signature          string
	DsOrder            string
}

// Callback is the decoded merchant-parameters payload from a gateway
// notification, together with the raw fields needed for signature
// verification and auditing.
type Callback struct {
	RawParameters string
	RawSignature  string

	DsOrder       string
	ResponseCode  string
	Authorisation string
	TransactionID string
	Amount        string
	Currency      string
	CardNumber    string
	CardBrand     string
	CardType      string
	CardCountry   string
	Date          string
	Hour          string
}

// Gateway signs outbound payment requests and verifies inbound callbacks.
type Gateway interface {
	// Prepare derives the gateway order identifier and builds the signed
	// redirect form for a payment attempt.
	Prepare(req PaymentRequest) (*SignedForm, error)

	// DecodeCallback parses the notification fields without trusting them.
	// Returns ErrMalformedCallback when decoding fails.
	DecodeCallback(merchantParameters, signature string) (*Callback, error)

	// VerifySignature recomputes the callback signature over the raw
	// parameters and compares in constant time.
	VerifySignature(cb *Callback) error
}
