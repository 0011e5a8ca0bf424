// Package redsys implements the Redsys redirect payment protocol:
// HMAC_SHA256_V1 signing of outbound requests and verification of inbound
// notifications.
package redsys

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

const (
	// SignatureVersion is the only signature scheme this client speaks.
	SignatureVersion = "HMAC_SHA256_V1"

	// TransactionTypeAuthorization is a standard one-step payment.
	TransactionTypeAuthorization = "0"

	productionURL = "https://sis.redsys.es/sis/realizarPago"
	sandboxURL    = "https://sis-t.redsys.es:25443/sis/realizarPago"

	dsOrderMaxLen = 12

	// Gateway field limits. Overlong values are rejected by the bank, so
	// they are truncated before signing.
	descriptionMaxLen  = 125
	merchantNameMaxLen = 60
)

// Config carries the merchant credentials and endpoints.
type Config struct {
	// SecretKey is the base64-encoded merchant signing key.
	SecretKey    string
	MerchantCode string
	Terminal     string
	MerchantName string

	// NotificationURL receives the asynchronous server-to-server callback.
	NotificationURL string
	SuccessURL      string
	FailureURL      string

	Sandbox bool
}

// Client signs requests and verifies callbacks for one merchant.
type Client struct {
	key []byte
	cfg Config
	now func() time.Time
}

// NewClient decodes the merchant secret and validates it is a usable
// triple-DES key.
func NewClient(cfg Config) (*Client, error) {
	key, err := base64.StdEncoding.DecodeString(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("decode merchant secret: %w", err)
	}
	if len(key) != 24 {
		return nil, fmt.Errorf("merchant secret must decode to 24 bytes, got %d", len(key))
	}
	if cfg.MerchantCode == "" {
		return nil, errors.New("merchant code is required")
	}
	if cfg.Terminal == "" {
		cfg.Terminal = "001"
	}
	return &Client{key: key, cfg: cfg, now: time.Now}, nil
}

// WithClock fixes the time source used for gateway order identifiers.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// Prepare builds the signed redirect form for one payment attempt.
func (c *Client) Prepare(req ports.PaymentRequest) (*ports.SignedForm, error) {
	currency, ok := currencyCodes[strings.ToUpper(req.Currency)]
	if !ok {
		return nil, fmt.Errorf("unsupported currency %q", req.Currency)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", req.Amount)
	}

	dsOrder := c.makeDsOrder(req.OrderNumber)
	cents := req.Amount.Shift(2).Round(0).IntPart()

	params := merchantParameters{
		Amount:             fmt.Sprintf("%d", cents),
		Order:              dsOrder,
		MerchantCode:       c.cfg.MerchantCode,
		Currency:           currency,
		TransactionType:    TransactionTypeAuthorization,
		Terminal:           c.cfg.Terminal,
		MerchantURL:        c.cfg.NotificationURL,
		URLOK:              c.cfg.SuccessURL,
		URLKO:              c.cfg.FailureURL,
		ProductDescription: truncate(req.Description, descriptionMaxLen),
		MerchantName:       truncate(c.cfg.MerchantName, merchantNameMaxLen),
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode merchant parameters: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	signature, err := c.sign(dsOrder, encoded)
	if err != nil {
		return nil, err
	}

	return &ports.SignedForm{
		URL:                c.endpoint(),
		SignatureVersion:   SignatureVersion,
		MerchantParameters: encoded,
		Signature:          signature,
		DsOrder:            dsOrder,
	}, nil
}

// DecodeCallback parses a notification without trusting it. The response
// code is normalized to four digits; missing order or response fields make
// the payload malformed.
func (c *Client) DecodeCallback(merchantParameters, signature string) (*ports.Callback, error) {
	if merchantParameters == "" || signature == "" {
		return nil, fmt.Errorf("%w: missing parameters or signature", ports.ErrMalformedCallback)
	}
	raw, err := decodeBase64Lenient(merchantParameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrMalformedCallback, err)
	}
	var params notificationParameters
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrMalformedCallback, err)
	}
	if params.Order == "" || params.Response == "" {
		return nil, fmt.Errorf("%w: missing Ds_Order or Ds_Response", ports.ErrMalformedCallback)
	}

	code := params.Response
	for len(code) < 4 {
		code = "0" + code
	}

	return &ports.Callback{
		RawParameters: merchantParameters,
		RawSignature:  signature,
		DsOrder:       params.Order,
		ResponseCode:  code,
		Authorisation: strings.TrimSpace(params.AuthorisationCode),
		TransactionID: strings.TrimSpace(params.TransactionID),
		Amount:        params.Amount,
		Currency:      params.Currency,
		CardNumber:    params.CardNumber,
		CardBrand:     params.CardBrand,
		CardType:      params.CardType,
		CardCountry:   params.CardCountry,
		Date:          params.Date,
		Hour:          params.Hour,
	}, nil
}

// VerifySignature recomputes the signature over the raw base64 parameters
// and compares in constant time. Gateways send the signature in URL-safe
// base64; both alphabets are accepted.
func (c *Client) VerifySignature(cb *ports.Callback) error {
	if cb == nil {
		return ports.ErrMalformedCallback
	}
	expected, err := c.signRaw(cb.DsOrder, cb.RawParameters)
	if err != nil {
		return err
	}
	received, err := decodeBase64Lenient(cb.RawSignature)
	if err != nil {
		return fmt.Errorf("%w: undecodable signature", ports.ErrInvalidSignature)
	}
	if subtle.ConstantTimeCompare(expected, received) != 1 {
		return ports.ErrInvalidSignature
	}
	return nil
}

func (c *Client) endpoint() string {
	if c.cfg.Sandbox {
		return sandboxURL
	}
	return productionURL
}

// makeDsOrder derives the gateway order identifier: ten digits of UTC
// timestamp plus two hex characters, unique per attempt. The gateway
// requires at most twelve alphanumerics with the first four numeric.
func (c *Client) makeDsOrder(orderNumber string) string {
	stamp := c.now().UTC().Format("0601021504")
	sum := sha256.Sum256([]byte(orderNumber + uuid.NewString()))
	dsOrder := stamp + hex.EncodeToString(sum[:1])
	if len(dsOrder) > dsOrderMaxLen {
		dsOrder = dsOrder[:dsOrderMaxLen]
	}
	return dsOrder
}

// sign returns the base64 signature over the encoded parameters.
func (c *Client) sign(dsOrder, encodedParams string) (string, error) {
	mac, err := c.signRaw(dsOrder, encodedParams)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac), nil
}

// signRaw derives the per-order key by triple-DES encrypting the order
// identifier under the merchant secret, then HMAC-SHA256s the encoded
// parameters with it.
func (c *Client) signRaw(dsOrder, encodedParams string) ([]byte, error) {
	block, err := des.NewTripleDESCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("derive order key: %w", err)
	}
	plaintext := zeroPad([]byte(dsOrder), des.BlockSize)
	orderKey := make([]byte, len(plaintext))
	iv := make([]byte, des.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(orderKey, plaintext)

	mac := hmac.New(sha256.New, orderKey)
	mac.Write([]byte(encodedParams))
	return mac.Sum(nil), nil
}

// truncate caps s at max bytes.
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// zeroPad extends data with zero bytes to a multiple of blockSize.
func zeroPad(data []byte, blockSize int) []byte {
	rem := len(data) % blockSize
	if rem == 0 && len(data) > 0 {
		return data
	}
	padded := make([]byte, len(data)+blockSize-rem)
	copy(padded, data)
	return padded
}

// decodeBase64Lenient accepts standard or URL-safe alphabets, with or
// without padding.
func decodeBase64Lenient(s string) ([]byte, error) {
	normalized := strings.ReplaceAll(strings.ReplaceAll(s, "-", "+"), "_", "/")
	if rem := len(normalized) % 4; rem != 0 {
		normalized += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(normalized)
}

var _ ports.Gateway = (*Client)(nil)
