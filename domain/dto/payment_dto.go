package dto

// TopupRequest creates a payment session whose purpose is a credit top-up.
type TopupRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
}

type PaymentMethodInfo struct {
	Method      string `json:"method"`
	DisplayName string `json:"display_name"`
	Available   bool   `json:"available"`
}
