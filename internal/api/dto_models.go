package api

import "gadgets-backend-go/internal/models"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageResponse acknowledges an operation with a human readable message.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateResponse answers a guarded write. Order holds the storage
// acknowledgment on success, or the conflicting document when Success is false.
type CreateResponse struct {
	Success bool        `json:"success"`
	Order   interface{} `json:"order"`
}

// ProductListResponse is the body of GET /products/all.
type ProductListResponse struct {
	Success bool              `json:"success"`
	Result  []models.Document `json:"result"`
}

// AdminStatusResponse is the body of GET /admin/:email.
type AdminStatusResponse struct {
	Admin bool `json:"admin"`
}

// ClientSecretResponse carries the secret the browser uses to confirm a payment.
type ClientSecretResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
