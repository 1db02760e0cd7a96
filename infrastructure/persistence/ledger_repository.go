package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/logger"
)

// CreditLedgerRepository keeps the denormalized users.credit_balance and the
// append-only credit_transactions log consistent: every mutation updates both
// inside one SQL transaction.
type CreditLedgerRepository struct{ db *sql.DB }

func NewCreditLedgerRepository(db *sql.DB) repository.ICreditLedger {
	return &CreditLedgerRepository{db: db}
}

const txColumns = `id, user_id, delta, reason, reference_id, description, created_at`

func (r *CreditLedgerRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.db.QueryRowContext(ctx, `SELECT credit_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, model.ErrNotFound
	}
	return balance, err
}

func (r *CreditLedgerRepository) Credit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	return r.append(ctx, userID, amount, reason, referenceID, description)
}

func (r *CreditLedgerRepository) Debit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	return r.append(ctx, userID, -amount, reason, referenceID, description)
}

// append performs the atomic check-and-apply. The guarded UPDATE serializes
// concurrent debits on the user row; a debit that would push the balance
// negative matches zero rows and rolls back without writing a ledger entry.
func (r *CreditLedgerRepository) append(ctx context.Context, userID string, delta int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`,
		delta, userID)
	if err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var exists bool
		if scanErr := tx.QueryRowContext(ctx, `SELECT TRUE FROM users WHERE id = $1`, userID).Scan(&exists); scanErr == sql.ErrNoRows {
			err = model.ErrNotFound
			return nil, err
		}
		err = model.ErrInsufficientCredit
		return nil, err
	}

	entry := &model.CreditTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Delta:       delta,
		Reason:      reason,
		ReferenceID: referenceID,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO credit_transactions (`+txColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.UserID, entry.Delta, entry.Reason, entry.ReferenceID, entry.Description, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return entry, nil
}

func (r *CreditLedgerRepository) Refund(ctx context.Context, originalTxID string) (*model.CreditTransaction, error) {
	original, err := r.GetTransaction(ctx, originalTxID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin refund tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var refunded bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE reason = 'refund' AND reference_id = $1)`,
		originalTxID).Scan(&refunded)
	if err != nil {
		return nil, err
	}
	if refunded {
		err = model.ErrAlreadyRefunded
		return nil, err
	}

	inverse := -original.Delta
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`,
		inverse, original.UserID)
	if err != nil {
		return nil, fmt.Errorf("apply refund: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = model.ErrInsufficientCredit
		return nil, err
	}

	entry := &model.CreditTransaction{
		ID:          uuid.NewString(),
		UserID:      original.UserID,
		Delta:       inverse,
		Reason:      model.ReasonRefund,
		ReferenceID: &original.ID,
		Description: "refund of " + original.ID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO credit_transactions (`+txColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.UserID, entry.Delta, entry.Reason, entry.ReferenceID, entry.Description, entry.CreatedAt)
	if err != nil {
		// The partial unique index on refund reference_id backstops a race
		// between the EXISTS check and this insert.
		return nil, fmt.Errorf("insert refund entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit refund tx: %w", err)
	}
	return entry, nil
}

func (r *CreditLedgerRepository) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	entry := &model.CreditTransaction{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM credit_transactions WHERE id = $1`, id).
		Scan(&entry.ID, &entry.UserID, &entry.Delta, &entry.Reason, &entry.ReferenceID, &entry.Description, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CreditLedgerRepository) FindByReference(ctx context.Context, reason model.CreditReason, referenceID string) (*model.CreditTransaction, error) {
	entry := &model.CreditTransaction{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM credit_transactions WHERE reason = $1 AND reference_id = $2 LIMIT 1`,
		reason, referenceID).
		Scan(&entry.ID, &entry.UserID, &entry.Delta, &entry.Reason, &entry.ReferenceID, &entry.Description, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *CreditLedgerRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*model.CreditTransaction
	for rows.Next() {
		entry := &model.CreditTransaction{}
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Delta, &entry.Reason, &entry.ReferenceID, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

func (r *CreditLedgerRepository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM credit_transactions WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("user_id", userID).Error("ledger sum failed")
	}
	return sum, err
}
