package repository

import (
	"context"
	"time"

	"pego/domain/model"
)

type IRound interface {
	Create(ctx context.Context, round *model.CompetitionRound) error
	GetByID(ctx context.Context, id string) (*model.CompetitionRound, error)
	// GetActive returns model.ErrNoActiveRound when no round is active.
	GetActive(ctx context.Context) (*model.CompetitionRound, error)
	List(ctx context.Context, limit, offset int) ([]*model.CompetitionRound, error)
	CountActive(ctx context.Context) (int64, error)
	// TransitionStatus performs a guarded status update and reports whether a
	// row actually moved. A false return with nil error means the round was
	// not in the expected from-state.
	TransitionStatus(ctx context.Context, id string, from, to model.RoundStatus, endedAt *time.Time) (bool, error)
	// IncrementStats bumps revenue/prize/video counters when an entry publishes.
	IncrementStats(ctx context.Context, id string, revenue, prize int64, videos int) error
	SaveRankingSnapshot(ctx context.Context, id string, entries []model.RankingEntry) error
	GetRankingSnapshot(ctx context.Context, id string) ([]model.RankingEntry, error)
}
