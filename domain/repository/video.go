package repository

import (
	"context"
	"time"

	"pego/domain/model"
)

type IVideo interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
	// TransitionStatus moves the video between states with a guarded update;
	// false means the video was in none of the from-states.
	TransitionStatus(ctx context.Context, id string, from []model.VideoStatus, to model.VideoStatus) (bool, error)
	AttachLedgerTx(ctx context.Context, id, txID string) error
	// PublishWithMedia records the received media and flips
	// paid_unpublished -> published in a single guarded update.
	PublishWithMedia(ctx context.Context, id, fileName, filePath string, fileSize int64, durationSecs float64, uploadedAt time.Time) (bool, error)
	ListPublishedByRound(ctx context.Context, roundID string, limit, offset int) ([]*model.Video, error)
	TopByViews(ctx context.Context, roundID string, limit int) ([]*model.Video, error)
	IncrementViewCount(ctx context.Context, id string) error
	// FindStalePendingPayment returns pending_payment videos created before
	// the cutoff, so the expiry sweep can resolve them.
	FindStalePendingPayment(ctx context.Context, cutoff time.Time) ([]*model.Video, error)
	CountByStatus(ctx context.Context, status model.VideoStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}
