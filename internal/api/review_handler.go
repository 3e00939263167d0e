package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/middleware"
)

// ReviewHandler handles product reviews.
type ReviewHandler struct {
	reviewService core.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(rs core.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: rs}
}

// ListReviews handles GET /reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviewService.List(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	doc, ok := bindDocument(c)
	if !ok {
		return
	}
	result, err := h.reviewService.Create(c.Request.Context(), middleware.IdentityFrom(c), doc)
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteReview handles DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	result, err := h.reviewService.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
