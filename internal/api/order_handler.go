package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

// OrderHandler handles orders.
type OrderHandler struct {
	orderService core.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(ors core.OrderService) *OrderHandler {
	return &OrderHandler{orderService: ors}
}

// ListOrders handles GET /orders?uid=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOwn(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListAllOrders handles GET /orders/all
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	orders, err := h.orderService.ListAll(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	outcome, err := h.orderService.Create(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, createResponse(outcome))
}

// DeleteOrder handles DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	result, err := h.orderService.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkOrderPaid handles PATCH /orders/paid/:id
func (h *OrderHandler) MarkOrderPaid(c *gin.Context) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.orderService.MarkPaid(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), fields)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkOrderShipped handles PATCH /orders/shipped/:id
func (h *OrderHandler) MarkOrderShipped(c *gin.Context) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.orderService.MarkShipped(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), fields)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func createResponse(outcome *core.CreateOutcome) CreateResponse {
	if outcome.Created {
		return CreateResponse{Success: true, Order: outcome.Result}
	}
	return CreateResponse{Success: false, Order: outcome.Existing}
}
