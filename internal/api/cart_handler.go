package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

// CartHandler handles cart items.
type CartHandler struct {
	cartService core.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cs core.CartService) *CartHandler {
	return &CartHandler{cartService: cs}
}

// ListCart handles GET /carts?uid=
func (h *CartHandler) ListCart(c *gin.Context) {
	items, err := h.cartService.ListOwn(c.Request.Context(), middleware.IdentityFrom(c), c.Query("uid"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddToCart handles POST /carts
func (h *CartHandler) AddToCart(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	outcome, err := h.cartService.Add(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, createResponse(outcome))
}

// RemoveFromCart handles DELETE /carts/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	result, err := h.cartService.Remove(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
