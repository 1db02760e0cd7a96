package model

import "time"

type PaymentMethod string

const (
	MethodCardRedirect  PaymentMethod = "card_redirect"
	MethodQRTransfer    PaymentMethod = "qr_transfer"
	MethodCreditBalance PaymentMethod = "credit_balance"
)

type SessionStatus string

const (
	SessionCreated SessionStatus = "created"
	SessionPending SessionStatus = "pending"
	SessionPaid    SessionStatus = "paid"
	SessionFailed  SessionStatus = "failed"
	SessionExpired SessionStatus = "expired"
)

type PaymentPurpose string

const (
	PurposeCreditTopup   PaymentPurpose = "credit_topup"
	PurposeVideoEntryFee PaymentPurpose = "video_entry_fee"
)

// PaymentSession tracks a third-party payment with its own lifecycle,
// independent of the credit ledger. Paid/failed/expired are terminal.
type PaymentSession struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Amount      int64          `json:"amount"`
	Method      PaymentMethod  `json:"method"`
	Status      SessionStatus  `json:"status"`
	Purpose     PaymentPurpose `json:"purpose"`
	ReferenceID *string        `json:"reference_id,omitempty"`
	CheckoutURL *string        `json:"checkout_url,omitempty"`
	QRPayload   *string        `json:"qr_payload,omitempty"`
	ExpiresAt   time.Time      `json:"expires_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Terminal reports whether no further status transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == SessionPaid || s == SessionFailed || s == SessionExpired
}
