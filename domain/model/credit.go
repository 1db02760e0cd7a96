package model

import "time"

type CreditReason string

const (
	ReasonTopup           CreditReason = "topup"
	ReasonUploadFee       CreditReason = "upload_fee"
	ReasonRefund          CreditReason = "refund"
	ReasonAdminAdjustment CreditReason = "admin_adjustment"
)

// CreditTransaction is an immutable ledger entry. Delta is signed; a user's
// balance is always the sum of their deltas.
type CreditTransaction struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Delta       int64        `json:"delta"`
	Reason      CreditReason `json:"reason"`
	ReferenceID *string      `json:"reference_id,omitempty"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}
