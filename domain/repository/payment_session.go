package repository

import (
	"context"
	"time"

	"pego/domain/model"
)

type IPaymentSession interface {
	Create(ctx context.Context, session *model.PaymentSession) error
	GetByID(ctx context.Context, id string) (*model.PaymentSession, error)
	GetByReference(ctx context.Context, referenceID string) (*model.PaymentSession, error)
	// Transition performs a guarded status update from any of the from-states.
	// false with nil error means the session was already elsewhere.
	Transition(ctx context.Context, id string, from []model.SessionStatus, to model.SessionStatus) (bool, error)
	// ExpireStale flips overdue created/pending sessions to expired and
	// returns the sessions it touched so callers can compensate.
	ExpireStale(ctx context.Context, now time.Time) ([]*model.PaymentSession, error)
}
