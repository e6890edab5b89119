package handlers

import (
	"net/http"

	"buildtrack/internal/models"
	"buildtrack/internal/responses"
	"buildtrack/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type PaymentHandler struct {
	payments *services.PaymentService
	log      zerolog.Logger
}

func NewPaymentHandler(payments *services.PaymentService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	list, err := h.payments.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.log, "list payments", err)
		return
	}
	responses.Success(c, http.StatusOK, list, "")
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var p models.Payment
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	created, err := h.payments.Create(c.Request.Context(), p)
	if err != nil {
		respondError(c, h.log, "create payment", err)
		return
	}
	responses.Success(c, http.StatusCreated, created, "Payment created")
}

// UpdatePayment handles PATCH /api/v1/payments/:id
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var p models.Payment
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	updated, err := h.payments.Update(c.Request.Context(), id, p)
	if err != nil {
		respondError(c, h.log, "update payment", err)
		return
	}
	responses.Success(c, http.StatusOK, updated, "Payment updated")
}

// DeletePayment handles DELETE /api/v1/payments/:id
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, "delete payment", err)
		return
	}
	responses.Success(c, http.StatusOK, nil, "Payment deleted")
}
