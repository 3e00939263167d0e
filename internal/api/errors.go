package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gadgets-backend-go/internal/core"
	"gadgets-backend-go/internal/db"
	"gadgets-backend-go/internal/models"
	"gadgets-backend-go/internal/payment"
)

// mapErrorToStatus writes the HTTP reply for an error returned by a service.
// The error is attached to the gin context so the request logger records it.
func mapErrorToStatus(c *gin.Context, err error) {
	_ = c.Error(err)

	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
		errResponse = ErrorResponse{Message: "Unauthorized access"}
	case errors.Is(err, core.ErrInvalidToken), errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
		errResponse = ErrorResponse{Message: "Forbidden access"}
	case errors.Is(err, core.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Message: "Invalid request", Details: err.Error()}
	case errors.Is(err, payment.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Message: "Invalid request", Details: payment.ErrInvalidAmount.Error()}
	case errors.Is(err, db.ErrInvalidID):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Message: db.ErrInvalidID.Error()}
	case errors.Is(err, payment.ErrProviderDown):
		statusCode = http.StatusBadGateway
		errResponse = ErrorResponse{Message: "Payment provider unavailable"}
	default:
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Message: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// mapSelfErrorToStatus is mapErrorToStatus for owner-only edits, whose
// authorization denials carry their own message.
func mapSelfErrorToStatus(c *gin.Context, err error, forbiddenMessage string) {
	if errors.Is(err, core.ErrForbidden) {
		_ = c.Error(err)
		c.JSON(http.StatusForbidden, ErrorResponse{Message: forbiddenMessage})
		return
	}
	mapErrorToStatus(c, err)
}

// bindDocument decodes a JSON object body. It replies 400 and returns false
// when the body is not an object.
func bindDocument(c *gin.Context) (models.Document, bool) {
	var doc models.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return nil, false
	}
	if doc == nil {
		doc = models.Document{}
	}
	return doc, true
}
