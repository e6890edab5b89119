package routes

import (
	"buildtrack/internal/handlers"

	"github.com/gin-gonic/gin"
)

type PaymentRoutes struct {
	handler *handlers.PaymentHandler
}

func NewPaymentRoutes(handler *handlers.PaymentHandler) *PaymentRoutes {
	return &PaymentRoutes{handler: handler}
}

func (r *PaymentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.GET("", r.handler.ListPayments)
		payments.POST("", r.handler.CreatePayment)
		payments.PATCH("/:id", r.handler.UpdatePayment)
		payments.DELETE("/:id", r.handler.DeletePayment)
	}
}
