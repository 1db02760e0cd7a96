package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/cache"
	"pego/infrastructure/logger"
	"pego/infrastructure/pubsub"
)

const (
	minRoundDurationDays = 1
	maxRoundDurationDays = 30
)

type IRoundUsecase interface {
	GetActiveRound(ctx context.Context) (*model.CompetitionRound, error)
	CreateRound(ctx context.Context, adminID string, req dto.CreateRoundRequest) (*model.CompetitionRound, error)
	ActivateRound(ctx context.Context, id string) (*model.CompetitionRound, error)
	EndRound(ctx context.Context, id string) (*model.CompetitionRound, error)
	ListRounds(ctx context.Context, limit, offset int) ([]*model.CompetitionRound, error)
}

type roundUsecase struct {
	roundRepo  repository.IRound
	videoRepo  repository.IVideo
	roundCache *cache.RoundCache
	events     pubsub.IEventPublisher
}

func NewRoundUsecase(roundRepo repository.IRound, videoRepo repository.IVideo, roundCache *cache.RoundCache, events pubsub.IEventPublisher) IRoundUsecase {
	return &roundUsecase{roundRepo: roundRepo, videoRepo: videoRepo, roundCache: roundCache, events: events}
}

func (u *roundUsecase) GetActiveRound(ctx context.Context) (*model.CompetitionRound, error) {
	if u.roundCache != nil {
		if round, ok := u.roundCache.GetActive(ctx); ok {
			return round, nil
		}
	}
	round, err := u.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if u.roundCache != nil {
		u.roundCache.SetActive(ctx, round)
	}
	return round, nil
}

func (u *roundUsecase) CreateRound(ctx context.Context, adminID string, req dto.CreateRoundRequest) (*model.CompetitionRound, error) {
	if req.DurationDays < minRoundDurationDays || req.DurationDays > maxRoundDurationDays {
		return nil, fmt.Errorf("%w: duration_days must be between %d and %d", model.ErrValidation, minRoundDurationDays, maxRoundDurationDays)
	}
	if req.EntryFee <= 0 {
		return nil, fmt.Errorf("%w: entry_fee must be positive", model.ErrValidation)
	}
	if req.WinnerCount <= 0 {
		return nil, fmt.Errorf("%w: winner_count must be positive", model.ErrValidation)
	}

	// A new round only auto-activates when no other round is active; it
	// otherwise starts in draft so the single-active-round invariant holds.
	status := model.RoundActive
	active, err := u.roundRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		status = model.RoundDraft
	}

	now := time.Now().UTC()
	round := &model.CompetitionRound{
		ID:          uuid.NewString(),
		Title:       req.Title,
		StartTime:   now,
		EndTime:     now.AddDate(0, 0, req.DurationDays),
		EntryFee:    req.EntryFee,
		WinnerCount: req.WinnerCount,
		Status:      status,
		CreatedBy:   adminID,
		CreatedAt:   now,
	}
	if err := u.roundRepo.Create(ctx, round); err != nil {
		return nil, err
	}
	if status == model.RoundActive && u.roundCache != nil {
		u.roundCache.SetActive(ctx, round)
	}
	return round, nil
}

func (u *roundUsecase) ActivateRound(ctx context.Context, id string) (*model.CompetitionRound, error) {
	active, err := u.roundRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, fmt.Errorf("%w: another round is already active", model.ErrInvalidTransition)
	}
	moved, err := u.roundRepo.TransitionStatus(ctx, id, model.RoundDraft, model.RoundActive, nil)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, model.ErrInvalidTransition
	}
	if u.roundCache != nil {
		u.roundCache.Invalidate(ctx)
	}
	return u.roundRepo.GetByID(ctx, id)
}

// EndRound is idempotent under retry: ending an already-ended round returns
// the stored terminal state instead of failing.
func (u *roundUsecase) EndRound(ctx context.Context, id string) (*model.CompetitionRound, error) {
	round, err := u.roundRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if round.Status == model.RoundEnded {
		return round, nil
	}
	if round.Status != model.RoundActive {
		return nil, model.ErrInvalidTransition
	}

	// Freeze the ranking before flipping status: view counts at end time
	// govern payouts.
	snapshot, err := u.buildSnapshot(ctx, round)
	if err != nil {
		return nil, err
	}

	endedAt := time.Now().UTC()
	moved, err := u.roundRepo.TransitionStatus(ctx, id, model.RoundActive, model.RoundEnded, &endedAt)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost a race against a concurrent end; the terminal state stands.
		return u.roundRepo.GetByID(ctx, id)
	}
	if err := u.roundRepo.SaveRankingSnapshot(ctx, id, snapshot); err != nil {
		logger.GetLogger().WithField("error", err).WithField("round_id", id).Error("failed saving ranking snapshot")
	}
	if u.roundCache != nil {
		u.roundCache.Invalidate(ctx)
	}
	if u.events != nil {
		if err := u.events.Publish(ctx, pubsub.Event{Type: "round.ended", EntityID: id}); err != nil {
			logger.GetLogger().WithField("error", err).Warn("round.ended event publish failed")
		}
	}
	return u.roundRepo.GetByID(ctx, id)
}

func (u *roundUsecase) buildSnapshot(ctx context.Context, round *model.CompetitionRound) ([]model.RankingEntry, error) {
	top, err := u.videoRepo.TopByViews(ctx, round.ID, round.WinnerCount)
	if err != nil {
		return nil, err
	}
	entries := make([]model.RankingEntry, 0, len(top))
	for i, v := range top {
		entries = append(entries, model.RankingEntry{
			Rank:      i + 1,
			VideoID:   v.ID,
			UserID:    v.UserID,
			Title:     v.Title,
			ViewCount: v.ViewCount,
		})
	}
	return entries, nil
}

func (u *roundUsecase) ListRounds(ctx context.Context, limit, offset int) ([]*model.CompetitionRound, error) {
	return u.roundRepo.List(ctx, limit, offset)
}
