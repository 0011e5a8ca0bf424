package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersapp "github.com/guantera/checkout-api/internal/domains/orders/application"
	ordersports "github.com/guantera/checkout-api/internal/domains/orders/ports"
	apierrors "github.com/guantera/checkout-api/internal/shared/errors"
)

// OrdersAPI wires HTTP transport with the orders bounded context service.
type OrdersAPI struct {
	service   ordersports.Service
	responder *apierrors.ChainedResponder
}

// NewOrdersAPI creates an OrdersAPI backed by the provided service.
func NewOrdersAPI(service ordersports.Service) OrdersAPI {
	return OrdersAPI{
		service:   service,
		responder: apierrors.NewChainedResponder("", mapOrderError),
	}
}

// Post /api/v1/orders
// Create an order from a revalidated cart and start payment
func (api *OrdersAPI) CreateOrder(c *gin.Context) {
	var payload createOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	input := payload.toInput()
	if input.UserID == nil {
		// Session identity is optional, absence means guest checkout.
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			input.UserID = &userID
		}
	}
	result, err := api.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutView(result))
}

// Get /api/v1/orders/:orderId
// Fetch an order with its items
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(order))
}

// Post /api/v1/orders/:orderId/payment
// Start a fresh payment attempt for an unpaid order
func (api *OrdersAPI) RetryPayment(c *gin.Context) {
	result, err := api.service.RetryPayment(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutView(result))
}

// mapOrderError translates orders context errors into problem responses.
func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersapp.ErrValidation):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, ordersports.ErrOrderNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrOrderNotPayable):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
