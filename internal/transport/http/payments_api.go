package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentsports "github.com/guantera/checkout-api/internal/domains/payments/ports"
	apierrors "github.com/guantera/checkout-api/internal/shared/errors"
)

// PaymentsAPI wires HTTP transport with the payments bounded context service.
type PaymentsAPI struct {
	service   paymentsports.Service
	responder *apierrors.ChainedResponder
}

// NewPaymentsAPI creates a PaymentsAPI backed by the provided service.
func NewPaymentsAPI(service paymentsports.Service) PaymentsAPI {
	return PaymentsAPI{
		service:   service,
		responder: apierrors.NewChainedResponder("", mapPaymentError),
	}
}

// Post /api/v1/payments/redsys/callback
// Receive the gateway's server-to-server notification. The gateway
// retries until it sees 200, so success is only returned once the
// callback is fully reconciled.
func (api *PaymentsAPI) HandleCallback(c *gin.Context) {
	var payload callbackRequest
	if err := c.ShouldBind(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	result, err := api.service.HandleCallback(c.Request.Context(), payload.MerchantParameters, payload.Signature)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get /api/v1/payments/:paymentId
// Fetch a payment attempt
func (api *PaymentsAPI) GetPayment(c *gin.Context) {
	payment, err := api.service.GetPayment(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(payment))
}

// Get /api/v1/payments/:paymentId/transaction
// Fetch the gateway audit record for a payment
func (api *PaymentsAPI) GetTransaction(c *gin.Context) {
	txn, err := api.service.GetTransaction(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionView(txn))
}

// mapPaymentError translates payments context errors into problem
// responses. Infra failures fall through to 500 so the gateway keeps
// retrying the callback.
func mapPaymentError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, paymentsports.ErrInvalidSignature):
		return apierrors.ErrUntrustedPayload.WithDetail("signature verification failed"), true
	case errors.Is(err, paymentsports.ErrMalformedCallback):
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	case errors.Is(err, paymentsports.ErrTransactionNotFound):
		return apierrors.ErrBadRequest.WithDetail("no transaction matches the notification"), true
	case errors.Is(err, paymentsports.ErrPaymentNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
