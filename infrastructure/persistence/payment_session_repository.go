package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pego/domain/model"
	"pego/domain/repository"
)

type PaymentSessionRepository struct{ db *sql.DB }

func NewPaymentSessionRepository(db *sql.DB) repository.IPaymentSession {
	return &PaymentSessionRepository{db: db}
}

const sessionColumns = `id, user_id, amount, method, status, purpose, reference_id,
	checkout_url, qr_payload, expires_at, created_at, updated_at`

func scanSession(scanner interface{ Scan(...interface{}) error }) (*model.PaymentSession, error) {
	s := &model.PaymentSession{}
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.Amount, &s.Method, &s.Status, &s.Purpose, &s.ReferenceID,
		&s.CheckoutURL, &s.QRPayload, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PaymentSessionRepository) Create(ctx context.Context, session *model.PaymentSession) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `INSERT INTO payment_sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		session.ID, session.UserID, session.Amount, session.Method, session.Status, session.Purpose, session.ReferenceID,
		session.CheckoutURL, session.QRPayload, session.ExpiresAt, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment session: %w", err)
	}
	return nil
}

func (r *PaymentSessionRepository) GetByID(ctx context.Context, id string) (*model.PaymentSession, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM payment_sessions WHERE id = $1`, id))
}

func (r *PaymentSessionRepository) GetByReference(ctx context.Context, referenceID string) (*model.PaymentSession, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM payment_sessions WHERE reference_id = $1 ORDER BY created_at DESC LIMIT 1`,
		referenceID))
}

func (r *PaymentSessionRepository) Transition(ctx context.Context, id string, from []model.SessionStatus, to model.SessionStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_sessions SET status = $1, updated_at = $2 WHERE id = $3 AND status = ANY($4)`,
		to, time.Now().UTC(), id, pq.Array(states))
	if err != nil {
		return false, fmt.Errorf("session transition: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PaymentSessionRepository) ExpireStale(ctx context.Context, now time.Time) ([]*model.PaymentSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE payment_sessions SET status = $1, updated_at = $2
		 WHERE status = ANY($3) AND expires_at < $2
		 RETURNING `+sessionColumns,
		model.SessionExpired, now.UTC(), pq.Array([]string{string(model.SessionCreated), string(model.SessionPending)}))
	if err != nil {
		return nil, fmt.Errorf("expire stale sessions: %w", err)
	}
	defer rows.Close()

	var expired []*model.PaymentSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, s)
	}
	return expired, rows.Err()
}
