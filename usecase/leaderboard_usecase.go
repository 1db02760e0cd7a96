package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/cache"
	"pego/infrastructure/logger"
)

const defaultLeaderboardSize = 50

type ILeaderboardUsecase interface {
	// Leaderboard returns the current ranking for a round. Ended rounds
	// serve the frozen snapshot taken at end time.
	Leaderboard(ctx context.Context, roundID string, limit int) ([]model.RankingEntry, error)
	ListVideos(ctx context.Context, roundID string, limit, offset int) ([]*model.Video, error)
	// RecordView appends an engagement event and bumps the counter. Views
	// are best-effort; a failed event write never blocks the viewer.
	RecordView(ctx context.Context, videoID string, req dto.ViewRequest) error
	// RefreshActive recomputes and caches the active round's leaderboard.
	RefreshActive(ctx context.Context) error
}

type leaderboardUsecase struct {
	videoRepo       repository.IVideo
	roundRepo       repository.IRound
	interactionRepo repository.IInteraction
	boardCache      *cache.LeaderboardCache
}

func NewLeaderboardUsecase(videoRepo repository.IVideo, roundRepo repository.IRound, interactionRepo repository.IInteraction, boardCache *cache.LeaderboardCache) ILeaderboardUsecase {
	return &leaderboardUsecase{
		videoRepo:       videoRepo,
		roundRepo:       roundRepo,
		interactionRepo: interactionRepo,
		boardCache:      boardCache,
	}
}

func (u *leaderboardUsecase) Leaderboard(ctx context.Context, roundID string, limit int) ([]model.RankingEntry, error) {
	if limit <= 0 || limit > defaultLeaderboardSize {
		limit = defaultLeaderboardSize
	}
	round, err := u.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Status == model.RoundEnded {
		snapshot, err := u.roundRepo.GetRankingSnapshot(ctx, roundID)
		if err != nil {
			return nil, err
		}
		if len(snapshot) > limit {
			snapshot = snapshot[:limit]
		}
		return snapshot, nil
	}

	if u.boardCache != nil {
		if entries, ok := u.boardCache.Get(ctx, roundID); ok {
			if len(entries) > limit {
				entries = entries[:limit]
			}
			return entries, nil
		}
	}
	entries, err := u.compute(ctx, roundID, defaultLeaderboardSize)
	if err != nil {
		return nil, err
	}
	if u.boardCache != nil {
		u.boardCache.Set(ctx, roundID, entries)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (u *leaderboardUsecase) compute(ctx context.Context, roundID string, limit int) ([]model.RankingEntry, error) {
	top, err := u.videoRepo.TopByViews(ctx, roundID, limit)
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

func (u *leaderboardUsecase) ListVideos(ctx context.Context, roundID string, limit, offset int) ([]*model.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return u.videoRepo.ListPublishedByRound(ctx, roundID, limit, offset)
}

func (u *leaderboardUsecase) RecordView(ctx context.Context, videoID string, req dto.ViewRequest) error {
	video, err := u.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.Status != model.VideoPublished {
		return model.ErrNotFound
	}

	if u.interactionRepo != nil {
		interaction := &model.VideoInteraction{
			ID:        uuid.NewString(),
			VideoID:   videoID,
			Type:      "view",
			Value:     1,
			CreatedAt: time.Now().UTC(),
		}
		if req.ViewerID != "" {
			interaction.UserID = &req.ViewerID
		}
		if req.SessionID != "" {
			interaction.SessionID = &req.SessionID
		}
		if err := u.interactionRepo.Insert(ctx, interaction); err != nil {
			logger.GetLogger().WithField("error", err).WithField("video_id", videoID).Warn("interaction event write failed")
		}
	}
	return u.videoRepo.IncrementViewCount(ctx, videoID)
}

func (u *leaderboardUsecase) RefreshActive(ctx context.Context) error {
	round, err := u.roundRepo.GetActive(ctx)
	if err != nil {
		return err
	}
	entries, err := u.compute(ctx, round.ID, defaultLeaderboardSize)
	if err != nil {
		return err
	}
	if u.boardCache != nil {
		u.boardCache.Set(ctx, round.ID, entries)
	}
	return nil
}
