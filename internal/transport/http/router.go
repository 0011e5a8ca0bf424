// Package httpapi exposes the checkout surface over gin.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIHandlers groups the per-context handler sets registered on the router.
type APIHandlers struct {
	Orders   OrdersAPI
	Payments PaymentsAPI
}

// NewRouter builds the gin engine with all checkout routes registered.
func NewRouter(handlers APIHandlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", handlers.Orders.CreateOrder)
			orders.GET("/:orderId", handlers.Orders.GetOrder)
			orders.POST("/:orderId/payment", handlers.Orders.RetryPayment)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/redsys/callback", handlers.Payments.HandleCallback)
			payments.GET("/:paymentId", handlers.Payments.GetPayment)
			payments.GET("/:paymentId/transaction", handlers.Payments.GetTransaction)
		}
	}

	return router
}
