package redsys

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guantera/checkout-api/internal/domains/payments/ports"
)

func testSecret() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x5a}, 24))
}

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(Config{
		SecretKey:       testSecret(),
		MerchantCode:    "999008881",
		Terminal:        "001",
		MerchantName:    "Guantera",
		NotificationURL: "https://shop.example/api/v1/payments/redsys/callback",
		SuccessURL:      "https://shop.example/checkout/ok",
		FailureURL:      "https://shop.example/checkout/ko",
		Sandbox:         true,
	})
	require.NoError(t, err)
	return client.WithClock(func() time.Time {
		return time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	})
}

func TestNewClient_RejectsBadSecrets(t *testing.T) {
	_, err := NewClient(Config{SecretKey: "not base64!!", MerchantCode: "m"})
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = NewClient(Config{SecretKey: short, MerchantCode: "m"})
	assert.ErrorContains(t, err, "24 bytes")

	_, err = NewClient(Config{SecretKey: testSecret()})
	assert.ErrorContains(t, err, "merchant code")
}

func TestPrepare_BuildsSignedForm(t *testing.T) {
	client := testClient(t)

	form, err := client.Prepare(ports.PaymentRequest{
		OrderNumber: "ORD-AB12CD34",
		Amount:      decimal.RequireFromString("82.99"),
		Currency:    "EUR",
		Description: "Order ORD-AB12CD34",
	})
	require.NoError(t, err)

	assert.Equal(t, sandboxURL, form.URL)
	assert.Equal(t, SignatureVersion, form.SignatureVersion)
	assert.NotEmpty(t, form.Signature)

	require.Len(t, form.DsOrder, 12)
	assert.Equal(t, "2608301230", form.DsOrder[:10], "timestamp prefix")
	for _, r := range form.DsOrder {
		assert.True(t, r >= '0' && r <= '9' || r >= 'a' && r <= 'f', "ds_order char %q", r)
	}

	raw, err := base64.StdEncoding.DecodeString(form.MerchantParameters)
	require.NoError(t, err)
	var params map[string]string
	require.NoError(t, json.Unmarshal(raw, &params))
	assert.Equal(t, "8299", params["DS_MERCHANT_AMOUNT"], "amount in cents")
	assert.Equal(t, form.DsOrder, params["DS_MERCHANT_ORDER"])
	assert.Equal(t, "999008881", params["DS_MERCHANT_MERCHANTCODE"])
	assert.Equal(t, "978", params["DS_MERCHANT_CURRENCY"])
	assert.Equal(t, "0", params["DS_MERCHANT_TRANSACTIONTYPE"])
	assert.Equal(t, "001", params["DS_MERCHANT_TERMINAL"])
	assert.Equal(t, "https://shop.example/api/v1/payments/redsys/callback", params["DS_MERCHANT_MERCHANTURL"])
}

func TestPrepare_CapsOverlongFields(t *testing.T) {
	client, err := NewClient(Config{
		SecretKey:       testSecret(),
		MerchantCode:    "999008881",
		MerchantName:    strings.Repeat("Guantera ", 10),
		NotificationURL: "https://shop.example/api/v1/payments/redsys/callback",
		Sandbox:         true,
	})
	require.NoError(t, err)

	form, err := client.Prepare(ports.PaymentRequest{
		OrderNumber: "ORD-AB12CD34",
		Amount:      decimal.RequireFromString("10.00"),
		Currency:    "EUR",
		Description: strings.Repeat("Roll finger gloves ", 10),
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(form.MerchantParameters)
	require.NoError(t, err)
	var params map[string]string
	require.NoError(t, json.Unmarshal(raw, &params))

	assert.Len(t, params["DS_MERCHANT_PRODUCTDESCRIPTION"], 125)
	assert.Len(t, params["DS_MERCHANT_MERCHANTNAME"], 60)
}

func TestPrepare_UniqueDsOrderPerAttempt(t *testing.T) {
	client := testClient(t)
	req := ports.PaymentRequest{OrderNumber: "ORD-AB12CD34", Amount: decimal.RequireFromString("10.00"), Currency: "EUR"}

	first, err := client.Prepare(req)
	require.NoError(t, err)
	second, err := client.Prepare(req)
	require.NoError(t, err)
	assert.NotEqual(t, first.DsOrder, second.DsOrder)
}

func TestPrepare_RejectsUnsupportedCurrencyAndAmount(t *testing.T) {
	client := testClient(t)

	_, err := client.Prepare(ports.PaymentRequest{OrderNumber: "n", Amount: decimal.RequireFromString("1.00"), Currency: "JPY"})
	assert.ErrorContains(t, err, "unsupported currency")

	_, err = client.Prepare(ports.PaymentRequest{OrderNumber: "n", Amount: decimal.Zero, Currency: "EUR"})
	assert.ErrorContains(t, err, "positive")
}

func TestPrepare_ProductionEndpoint(t *testing.T) {
	client, err := NewClient(Config{SecretKey: testSecret(), MerchantCode: "m", Sandbox: false})
	require.NoError(t, err)

	form, err := client.Prepare(ports.PaymentRequest{OrderNumber: "n", Amount: decimal.RequireFromString("1.00"), Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, productionURL, form.URL)
}

func encodeNotification(t *testing.T, params notificationParameters) string {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestCallback_SignatureRoundTrip(t *testing.T) {
	client := testClient(t)
	encoded := encodeNotification(t, notificationParameters{
		Order:             "260830123056",
		Response:          "0000",
		AuthorisationCode: "123456",
		TransactionID:     "9a3b7c",
		CardNumber:        "454881******0004",
		CardBrand:         "1",
		CardType:          "C",
		Amount:            "8299",
		Currency:          "978",
	})
	signature, err := client.sign("260830123056", encoded)
	require.NoError(t, err)

	cb, err := client.DecodeCallback(encoded, signature)
	require.NoError(t, err)
	assert.Equal(t, "260830123056", cb.DsOrder)
	assert.Equal(t, "0000", cb.ResponseCode)
	assert.Equal(t, "123456", cb.Authorisation)
	assert.Equal(t, "9a3b7c", cb.TransactionID)
	assert.Equal(t, "454881******0004", cb.CardNumber)
	assert.Equal(t, "1", cb.CardBrand)
	assert.Equal(t, "C", cb.CardType)

	assert.NoError(t, client.VerifySignature(cb))
}

func TestCallback_URLSafeSignatureAccepted(t *testing.T) {
	client := testClient(t)
	encoded := encodeNotification(t, notificationParameters{Order: "260830123056", Response: "0000"})
	signature, err := client.sign("260830123056", encoded)
	require.NoError(t, err)

	urlSafe := strings.TrimRight(strings.ReplaceAll(strings.ReplaceAll(signature, "+", "-"), "/", "_"), "=")
	cb, err := client.DecodeCallback(encoded, urlSafe)
	require.NoError(t, err)
	assert.NoError(t, client.VerifySignature(cb))
}

func TestCallback_TamperedParametersRejected(t *testing.T) {
	client := testClient(t)
	encoded := encodeNotification(t, notificationParameters{Order: "260830123056", Response: "0000", Amount: "8299"})
	signature, err := client.sign("260830123056", encoded)
	require.NoError(t, err)

	tampered := encodeNotification(t, notificationParameters{Order: "260830123056", Response: "0000", Amount: "1"})
	cb, err := client.DecodeCallback(tampered, signature)
	require.NoError(t, err)
	assert.ErrorIs(t, client.VerifySignature(cb), ports.ErrInvalidSignature)
}

func TestCallback_WrongKeyRejected(t *testing.T) {
	client := testClient(t)
	other, err := NewClient(Config{
		SecretKey:    base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 24)),
		MerchantCode: "999008881",
	})
	require.NoError(t, err)

	encoded := encodeNotification(t, notificationParameters{Order: "260830123056", Response: "0000"})
	signature, err := other.sign("260830123056", encoded)
	require.NoError(t, err)

	cb, err := client.DecodeCallback(encoded, signature)
	require.NoError(t, err)
	assert.ErrorIs(t, client.VerifySignature(cb), ports.ErrInvalidSignature)
}

func TestDecodeCallback_Malformed(t *testing.T) {
	client := testClient(t)

	_, err := client.DecodeCallback("", "sig")
	assert.ErrorIs(t, err, ports.ErrMalformedCallback)

	_, err = client.DecodeCallback("%%%not-base64%%%", "sig")
	assert.ErrorIs(t, err, ports.ErrMalformedCallback)

	notJSON := base64.StdEncoding.EncodeToString([]byte("plain text"))
	_, err = client.DecodeCallback(notJSON, "sig")
	assert.ErrorIs(t, err, ports.ErrMalformedCallback)

	missing := encodeNotification(t, notificationParameters{Response: "0000"})
	_, err = client.DecodeCallback(missing, "sig")
	assert.ErrorIs(t, err, ports.ErrMalformedCallback)
}

func TestDecodeCallback_NormalizesResponseCode(t *testing.T) {
	client := testClient(t)
	encoded := encodeNotification(t, notificationParameters{Order: "260830123056", Response: "0"})
	cb, err := client.DecodeCallback(encoded, "sig")
	require.NoError(t, err)
	assert.Equal(t, "0000", cb.ResponseCode)
}
