package usecase

import (
	"context"
	"fmt"

	"pego/domain/model"
	"pego/domain/repository"
)

type ICreditUsecase interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]*model.CreditTransaction, error)
	// Adjust applies an admin credit adjustment through the ledger. Negative
	// amounts debit and are rejected when they would push the balance below
	// zero.
	Adjust(ctx context.Context, userID string, amount int64, reason string) (*model.CreditTransaction, error)
	// Reconcile verifies balance == sum(deltas) for a user.
	Reconcile(ctx context.Context, userID string) error
}

type creditUsecase struct {
	ledger repository.ICreditLedger
}

func NewCreditUsecase(ledger repository.ICreditLedger) ICreditUsecase {
	return &creditUsecase{ledger: ledger}
}

func (u *creditUsecase) GetBalance(ctx context.Context, userID string) (int64, error) {
	return u.ledger.GetBalance(ctx, userID)
}

func (u *creditUsecase) ListTransactions(ctx context.Context, userID string, limit int) ([]*model.CreditTransaction, error) {
	return u.ledger.ListByUser(ctx, userID, limit)
}

func (u *creditUsecase) Adjust(ctx context.Context, userID string, amount int64, reason string) (*model.CreditTransaction, error) {
	if amount == 0 {
		return nil, model.ErrInvalidAmount
	}
	description := "admin adjustment"
	if reason != "" {
		description = "admin adjustment: " + reason
	}
	if amount > 0 {
		return u.ledger.Credit(ctx, userID, amount, model.ReasonAdminAdjustment, nil, description)
	}
	return u.ledger.Debit(ctx, userID, -amount, model.ReasonAdminAdjustment, nil, description)
}

func (u *creditUsecase) Reconcile(ctx context.Context, userID string) error {
	balance, err := u.ledger.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	sum, err := u.ledger.SumDeltas(ctx, userID)
	if err != nil {
		return err
	}
	if balance != sum {
		return fmt.Errorf("ledger out of balance for user %s: balance=%d sum=%d", userID, balance, sum)
	}
	return nil
}
