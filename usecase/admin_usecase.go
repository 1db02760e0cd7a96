package usecase

import (
	"context"
	"errors"
	"fmt"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/logger"
	"pego/infrastructure/pubsub"
)

type IAdminUsecase interface {
	BanUser(ctx context.Context, userID, reason string) error
	UnbanUser(ctx context.Context, userID string) error
	// AdjustCredit moves credit by a signed amount through the ledger.
	AdjustCredit(ctx context.Context, userID string, req dto.CreditAdjustRequest) (*model.CreditTransaction, error)
	// ModerateVideo suspends, restores, or deletes a published entry.
	// Moderation never refunds; the fee bought the entry slot.
	ModerateVideo(ctx context.Context, videoID string, req dto.ModerateVideoRequest) (*model.Video, error)
	DashboardStats(ctx context.Context) (*dto.DashboardStats, error)
}

type adminUsecase struct {
	userRepo  repository.IUser
	videoRepo repository.IVideo
	roundRepo repository.IRound
	creditUC  ICreditUsecase
	events    pubsub.IEventPublisher
}

func NewAdminUsecase(userRepo repository.IUser, videoRepo repository.IVideo, roundRepo repository.IRound, creditUC ICreditUsecase, events pubsub.IEventPublisher) IAdminUsecase {
	return &adminUsecase{
		userRepo:  userRepo,
		videoRepo: videoRepo,
		roundRepo: roundRepo,
		creditUC:  creditUC,
		events:    events,
	}
}

func (u *adminUsecase) BanUser(ctx context.Context, userID, reason string) error {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		return fmt.Errorf("%w: admins cannot be banned", model.ErrValidation)
	}
	if err := u.userRepo.SetBanned(ctx, userID, true, reason); err != nil {
		return err
	}
	if u.events != nil {
		if err := u.events.Publish(ctx, pubsub.Event{Type: "user.banned", EntityID: userID}); err != nil {
			logger.GetLogger().WithField("error", err).Warn("user.banned event publish failed")
		}
	}
	return nil
}

func (u *adminUsecase) UnbanUser(ctx context.Context, userID string) error {
	if _, err := u.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return u.userRepo.SetBanned(ctx, userID, false, "")
}

func (u *adminUsecase) AdjustCredit(ctx context.Context, userID string, req dto.CreditAdjustRequest) (*model.CreditTransaction, error) {
	if _, err := u.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return u.creditUC.Adjust(ctx, userID, req.Amount, req.Reason)
}

func (u *adminUsecase) ModerateVideo(ctx context.Context, videoID string, req dto.ModerateVideoRequest) (*model.Video, error) {
	var from []model.VideoStatus
	var to model.VideoStatus
	switch req.Action {
	case "suspend":
		from, to = []model.VideoStatus{model.VideoPublished}, model.VideoSuspended
	case "restore":
		from, to = []model.VideoStatus{model.VideoSuspended}, model.VideoPublished
	case "delete":
		from = []model.VideoStatus{model.VideoPublished, model.VideoSuspended}
		to = model.VideoDeleted
	default:
		return nil, fmt.Errorf("%w: unknown moderation action %q", model.ErrValidation, req.Action)
	}

	moved, err := u.videoRepo.TransitionStatus(ctx, videoID, from, to)
	if err != nil {
		return nil, err
	}
	video, gerr := u.videoRepo.GetByID(ctx, videoID)
	if gerr != nil {
		return nil, gerr
	}
	if !moved {
		if video.Status == to {
			// Repeated moderation action; already in the target state.
			return video, nil
		}
		return nil, fmt.Errorf("%w: entry %s is %s", model.ErrInvalidState, videoID, video.Status)
	}
	logger.GetLogger().
		WithField("video_id", videoID).
		WithField("action", req.Action).
		WithField("reason", req.Reason).
		Info("video moderated")
	return video, nil
}

func (u *adminUsecase) DashboardStats(ctx context.Context) (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{}
	var err error
	if stats.TotalUsers, err = u.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalVideos, err = u.videoRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.PublishedVideos, err = u.videoRepo.CountByStatus(ctx, model.VideoPublished); err != nil {
		return nil, err
	}
	if stats.ActiveRounds, err = u.roundRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	round, err := u.roundRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNoActiveRound) {
			return stats, nil
		}
		return nil, err
	}
	stats.TotalRevenue = round.TotalRevenue
	stats.PrizePool = round.PrizePool
	return stats, nil
}
