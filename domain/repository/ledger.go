package repository

import (
	"context"

	"pego/domain/model"
)

// ICreditLedger is the append-only balance ledger. Implementations must make
// Debit an atomic check-and-decrement: the guarded balance update and the
// ledger insert commit together or not at all.
type ICreditLedger interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error)
	// Debit returns model.ErrInsufficientCredit when balance < amount; the
	// balance never goes negative, even under concurrent debits.
	Debit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error)
	// Refund appends the inverse of the original transaction exactly once;
	// a second refund of the same transaction fails with ErrAlreadyRefunded.
	Refund(ctx context.Context, originalTxID string) (*model.CreditTransaction, error)
	GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error)
	// FindByReference returns the entry recorded under the given reason and
	// reference, or ErrNotFound. Paid-session effects use it to stay
	// idempotent across redelivered confirmations.
	FindByReference(ctx context.Context, reason model.CreditReason, referenceID string) (*model.CreditTransaction, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.CreditTransaction, error)
	// SumDeltas recomputes the balance from the ledger for reconciliation.
	SumDeltas(ctx context.Context, userID string) (int64, error)
}
