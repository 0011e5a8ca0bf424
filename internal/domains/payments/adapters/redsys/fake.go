package redsys

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

// FakeGateway is a deterministic stand-in for local runs without merchant
// credentials. It accepts every signature and numbers attempts
// sequentially.
type FakeGateway struct {
	counter atomic.Int64
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (f *FakeGateway) Prepare(req ports.PaymentRequest) (*ports.SignedForm, error) {
	n := f.counter.Add(1)
	dsOrder := fmt.Sprintf("0000%08d", n)
	params := merchantParameters{
		Amount:          req.Amount.Shift(2).Round(0).String(),
		Order:           dsOrder,
		MerchantCode:    "FAKE",
		Currency:        currencyCodes["EUR"],
		TransactionType: TransactionTypeAuthorization,
		Terminal:        "001",
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &ports.SignedForm{
		URL:                "http://localhost/fake-gateway/pay",
		SignatureVersion:   SignatureVersion,
		MerchantParameters: base64.StdEncoding.EncodeToString(raw),
		Signature:          "fake-signature",
		DsOrder:            dsOrder,
	}, nil
}

func (f *FakeGateway) DecodeCallback(merchantParameters, signature string) (*ports.Callback, error) {
	if merchantParameters == "" || signature == "" {
		return nil, ports.ErrMalformedCallback
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
		Authorisation: params.AuthorisationCode,
		TransactionID: params.TransactionID,
		Amount:        params.Amount,
		Currency:      params.Currency,
	}, nil
}

func (f *FakeGateway) VerifySignature(cb *ports.Callback) error {
	if cb == nil {
		return ports.ErrMalformedCallback
	}
	return nil
}

var _ ports.Gateway = (*FakeGateway)(nil)
