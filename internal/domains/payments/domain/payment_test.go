package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Terminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled, StatusRefunded, StatusExpired}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "status %s", s)
	}

	open := []Status{StatusPending, StatusProcessing, StatusAuthorized, StatusCaptured, StatusPartiallyRefunded}
	for _, s := range open {
		assert.False(t, s.Terminal(), "status %s", s)
	}
}

func TestPayment_Capture(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := &Payment{Status: StatusPending}

	require.NoError(t, p.Capture("123456", "0000", at))
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, "123456", p.GatewayTransactionID)
	assert.Equal(t, "0000", p.GatewayResponseCode)
	require.NotNil(t, p.CapturedAt)
	assert.Equal(t, at, *p.CapturedAt)

	assert.ErrorIs(t, p.Capture("123456", "0000", at), ErrNotPending)
}

func TestPayment_Fail(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := &Payment{Status: StatusProcessing}

	require.NoError(t, p.Fail("0190", "Operation denied", at))
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, "0190", p.GatewayResponseCode)
	assert.Equal(t, "Operation denied", p.GatewayResponseDesc)
	require.NotNil(t, p.FailedAt)

	assert.ErrorIs(t, p.Fail("0190", "again", at), ErrNotPending)
	assert.ErrorIs(t, p.Capture("123456", "0000", at), ErrNotPending)
}

func TestResponseCodes(t *testing.T) {
	assert.True(t, Approved("0000"))
	assert.False(t, Approved("0190"))
	assert.False(t, Approved("0"))

	assert.Equal(t, "Card blocked", ResponseCodeDescription("0101"))
	assert.Equal(t, "Card expired", ResponseCodeDescription("0102"))
	assert.Equal(t, "Invalid CVC", ResponseCodeDescription("0167"))
	assert.Equal(t, "Issuer not available", ResponseCodeDescription("0912"))
	assert.Equal(t, "Duplicate transmission", ResponseCodeDescription("0913"))
	assert.Equal(t, "Payment cancelled by user", ResponseCodeDescription("9915"))
	assert.Equal(t, "Unknown response code: 4242", ResponseCodeDescription("4242"))
}

func TestAmountToCents(t *testing.T) {
	assert.Equal(t, int64(8299), AmountToCents(decimal.RequireFromString("82.99")))
	assert.Equal(t, int64(300), AmountToCents(decimal.RequireFromString("3.00")))
	assert.Equal(t, int64(0), AmountToCents(decimal.Zero))
}
