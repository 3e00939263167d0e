package models

// PaymentIntentRequest is the body of POST /payment/create-payment-intent.
// Price is expressed in major currency units (e.g. dollars).
type PaymentIntentRequest struct {
	Price float64 `json:"price"`
}

// RoleChangeRequest is the body of PUT /user/admin and PUT /user/removeAdmin.
type RoleChangeRequest struct {
	Email string `json:"email" binding:"required"`
}
