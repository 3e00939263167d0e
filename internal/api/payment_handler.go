package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
	"gadgets-backend-go/internal/models"
)

// PaymentHandler handles payment intents and the payment ledger.
type PaymentHandler struct {
	paymentService core.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps core.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// CreatePaymentIntent handles POST /payment/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req models.PaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}
	secret, err := h.paymentService.CreateIntent(c.Request.Context(), middleware.IdentityFrom(c), req.Price)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, ClientSecretResponse{ClientSecret: secret})
}

// RecordPayment handles POST /booking
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.paymentService.Record(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPaymentHistory handles GET /payment/history?uid=
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	payments, err := h.paymentService.History(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
