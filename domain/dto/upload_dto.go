package dto

// UploadInitiateRequest starts a paid upload into the active round.
type UploadInitiateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UploadInitiateResponse struct {
	VideoID  string `json:"video_id"`
	RoundID  string `json:"round_id"`
	EntryFee int64  `json:"entry_fee"`
}

// PaymentMethodRequest selects how the entry fee is funded.
type PaymentMethodRequest struct {
	VideoID string `json:"video_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

type ViewRequest struct {
	ViewerID  string `json:"viewer_id"`
	SessionID string `json:"session_id"`
}
