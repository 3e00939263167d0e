package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
	"gadgets-backend-go/internal/models"
)

// ProductHandler handles the product catalog.
type ProductHandler struct {
	productService core.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps core.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// ListProducts handles GET /products. Any sort parameter orders newest first.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	_, newestFirst := c.GetQuery("sort")
	products, err := h.productService.List(c.Request.Context(), newestFirst)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListAllProducts handles GET /products/all
func (h *ProductHandler) ListAllProducts(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context(), false)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, ProductListResponse{Success: true, Result: products})
}

// SearchProducts handles GET /products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.productService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id. An unknown id yields null.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.productService.Create(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	result, err := h.productService.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStock handles PATCH /products/update-stock/:id
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	h.patch(c, h.productService.UpdateStock)
}

// UpdateQuantity handles PATCH /products/updateQty/:id
func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	h.patch(c, h.productService.UpdateQuantity)
}

// ReplaceProduct handles PUT /products/:id
func (h *ProductHandler) ReplaceProduct(c *gin.Context) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	outcome, err := h.productService.Replace(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), fields)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	if !outcome.Applied {
		c.JSON(http.StatusOK, CreateResponse{Success: false, Order: outcome.Existing})
		return
	}
	c.JSON(http.StatusOK, CreateResponse{Success: true, Order: outcome.Result})
}

type productPatch func(ctx context.Context, who models.Identity, id string, fields models.Document) (*models.UpdateResult, error)

func (h *ProductHandler) patch(c *gin.Context, apply productPatch) {
	fields, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := apply(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), fields)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
