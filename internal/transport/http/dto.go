package httpapi

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ordersdomain "github.com/guantera/checkout-api/internal/domains/orders/domain"
	ordersports "github.com/guantera/checkout-api/internal/domains/orders/ports"
	paymentsdomain "github.com/guantera/checkout-api/internal/domains/payments/domain"
)

type createOrderRequest struct {
	UserID       *string           `json:"user_id"`
	Items        []cartItemPayload `json:"items" binding:"required"`
	Customer     customerPayload   `json:"customer" binding:"required"`
	Shipping     shippingPayload   `json:"shipping_address" binding:"required"`
	DiscountCode string            `json:"discount_code"`
}

type cartItemPayload struct {
	ProductID   string          `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

type customerPayload struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
}

type shippingPayload struct {
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code" binding:"required"`
	Country      string `json:"country" binding:"required"`
}

func (r createOrderRequest) toInput() ordersports.CreateOrderInput {
	return ordersports.CreateOrderInput{
		UserID: r.UserID,
		Items: lo.Map(r.Items, func(item cartItemPayload, _ int) ordersports.CartItem {
			return ordersports.CartItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Size:        item.Size,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			}
		}),
		Customer: ordersdomain.Customer{
			Email:     r.Customer.Email,
			FirstName: r.Customer.FirstName,
			LastName:  r.Customer.LastName,
			Phone:     r.Customer.Phone,
		},
		Shipping: ordersdomain.ShippingAddress{
			AddressLine1: r.Shipping.AddressLine1,
			AddressLine2: r.Shipping.AddressLine2,
			City:         r.Shipping.City,
			State:        r.Shipping.State,
			PostalCode:   r.Shipping.PostalCode,
			Country:      r.Shipping.Country,
		},
		DiscountCode: r.DiscountCode,
	}
}

type orderItemView struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        string          `json:"size,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type orderView struct {
	ID            string `json:"id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`

	Items     []orderItemView `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}

func toOrderView(order *ordersdomain.Order) orderView {
	return orderView{
		ID:             order.ID,
		OrderNumber:    order.Number,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		Subtotal:       order.Subtotal,
		TaxAmount:      order.TaxAmount,
		ShippingAmount: order.ShippingAmount,
		DiscountAmount: order.DiscountAmount,
		TotalAmount:    order.TotalAmount,
		Items: lo.Map(order.Items, func(item ordersdomain.OrderItem, _ int) orderItemView {
			return orderItemView{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Size:        item.Size,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			}
		}),
		CreatedAt: order.CreatedAt,
	}
}

type paymentFormView struct {
	URL                string `json:"url"`
	SignatureVersion   string `json:"Ds_SignatureVersion"`
	MerchantParameters string `json:"Ds_MerchantParameters"`
	Signature          string `json:"Ds_Signature"`
}

type checkoutView struct {
	Order       orderView        `json:"order"`
	PaymentID   string           `json:"payment_id,omitempty"`
	PaymentForm *paymentFormView `json:"payment_form,omitempty"`
}

// toCheckoutView renders a checkout result. Payment initiation may have
// failed after the order persisted; the form is then absent and the client
// retries through the payment endpoint.
func toCheckoutView(result *ordersports.CreateOrderResult) checkoutView {
	view := checkoutView{Order: toOrderView(result.Order)}
	if result.Payment != nil {
		view.PaymentID = result.Payment.ID
	}
	if result.Form != nil {
		view.PaymentForm = &paymentFormView{
			URL:                result.Form.URL,
			SignatureVersion:   result.Form.SignatureVersion,
			MerchantParameters: result.Form.MerchantParameters,
			Signature:          result.Form.Signature,
		}
	}
	return view
}

type paymentView struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	Method       string          `json:"payment_method"`
	ResponseCode string          `json:"gateway_response_code,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toPaymentView(p *paymentsdomain.Payment) paymentView {
	return paymentView{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       string(p.Status),
		Method:       string(p.Method),
		ResponseCode: p.GatewayResponseCode,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    p.CreatedAt,
	}
}

type transactionView struct {
	PaymentID          string     `json:"payment_id"`
	DsOrder            string     `json:"ds_order"`
	DsAmount           int64      `json:"ds_amount"`
	DsCurrency         string     `json:"ds_currency"`
	RequestSentAt      *time.Time `json:"request_sent_at"`
	ResponseCode       string     `json:"response_code,omitempty"`
	ResponseAuthCode   string     `json:"response_auth_code,omitempty"`
	TransactionID      string     `json:"transaction_id,omitempty"`
	CardNumber         string     `json:"card_number,omitempty"`
	CardBrand          string     `json:"card_brand,omitempty"`
	CardType           string     `json:"card_type,omitempty"`
	ResponseReceivedAt *time.Time `json:"response_received_at"`
	SignatureValid     *bool      `json:"signature_valid"`
}

func toTransactionView(t *paymentsdomain.RedsysTransaction) transactionView {
	return transactionView{
		PaymentID:          t.PaymentID,
		DsOrder:            t.DsOrder,
		DsAmount:           t.DsAmount,
		DsCurrency:         t.DsCurrency,
		RequestSentAt:      t.RequestSentAt,
		ResponseCode:       t.ResponseDsCode,
		ResponseAuthCode:   t.ResponseDsAuthCode,
		TransactionID:      t.ResponseDsTransactionID,
		CardNumber:         t.ResponseDsCardNumber,
		CardBrand:          t.ResponseDsCardBrand,
		CardType:           t.ResponseDsCardType,
		ResponseReceivedAt: t.ResponseReceivedAt,
		SignatureValid:     t.ResponseSignatureValid,
	}
}

// callbackRequest matches the form fields the gateway posts.
type callbackRequest struct {
	SignatureVersion   string `form:"Ds_SignatureVersion"`
	MerchantParameters string `form:"Ds_MerchantParameters"`
	Signature          string `form:"Ds_Signature"`
}
