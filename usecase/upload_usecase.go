package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
	"pego/infrastructure/logger"
	"pego/infrastructure/metrics"
	"pego/infrastructure/pubsub"
)

// stalePendingGrace is how long a pending_payment video may sit without a
// settled session before the sweeper deletes it.
const stalePendingGrace = 24 * time.Hour

type IUploadUsecase interface {
	// Initiate registers a draft entry against the active round. No credit
	// moves yet; the entry waits in pending_payment for a payment method.
	Initiate(ctx context.Context, userID string, req dto.UploadInitiateRequest) (*dto.UploadInitiateResponse, error)
	// ChoosePaymentMethod opens a payment session for the entry fee. The
	// credit_balance method settles inline by debiting the ledger.
	ChoosePaymentMethod(ctx context.Context, userID string, req dto.PaymentMethodRequest) (*model.PaymentSession, error)
	// AcceptMedia attaches the uploaded file to a paid entry and publishes it.
	AcceptMedia(ctx context.Context, userID, videoID, fileName, filePath string, fileSize int64, durationSecs float64) (*model.Video, error)
	// Cancel abandons an unpublished entry, refunding the fee if it was
	// already debited.
	Cancel(ctx context.Context, userID, videoID string) error
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)
	// SweepStalePending deletes entries stuck in pending_payment past grace.
	SweepStalePending(ctx context.Context) (int, error)
}

type uploadUsecase struct {
	videoRepo   repository.IVideo
	roundRepo   repository.IRound
	ledger      repository.ICreditLedger
	paymentUC   IPaymentUsecase
	events      pubsub.IEventPublisher
	metrics     *metrics.Metrics
	maxSize     int64
	maxDuration float64
}

func NewUploadUsecase(
	videoRepo repository.IVideo,
	roundRepo repository.IRound,
	ledger repository.ICreditLedger,
	paymentUC IPaymentUsecase,
	events pubsub.IEventPublisher,
	m *metrics.Metrics,
	maxSize int64,
	maxDuration float64,
) IUploadUsecase {
	if maxSize == 0 {
		maxSize = model.MaxMediaSizeBytes
	}
	if maxDuration == 0 {
		maxDuration = model.MaxMediaDurationSecs
	}
	return &uploadUsecase{
		videoRepo:   videoRepo,
		roundRepo:   roundRepo,
		ledger:      ledger,
		paymentUC:   paymentUC,
		events:      events,
		metrics:     m,
		maxSize:     maxSize,
		maxDuration: maxDuration,
	}
}

func (u *uploadUsecase) Initiate(ctx context.Context, userID string, req dto.UploadInitiateRequest) (*dto.UploadInitiateResponse, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if len(req.Title) > model.MaxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", model.ErrValidation, model.MaxTitleLength)
	}
	if len(req.Description) > model.MaxDescriptionLength {
		return nil, fmt.Errorf("%w: description exceeds %d characters", model.ErrValidation, model.MaxDescriptionLength)
	}

	round, err := u.roundRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(round.EndTime) {
		return nil, fmt.Errorf("%w: round %s submission window closed", model.ErrNoActiveRound, round.ID)
	}

	now := time.Now().UTC()
	video := &model.Video{
		ID:          uuid.NewString(),
		UserID:      userID,
		RoundID:     round.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.VideoPendingPayment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.videoRepo.Create(ctx, video); err != nil {
		return nil, err
	}
	return &dto.UploadInitiateResponse{
		VideoID:  video.ID,
		RoundID:  round.ID,
		EntryFee: round.EntryFee,
	}, nil
}

func (u *uploadUsecase) ChoosePaymentMethod(ctx context.Context, userID string, req dto.PaymentMethodRequest) (*model.PaymentSession, error) {
	video, err := u.videoRepo.GetByID(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrUnauthorized
	}
	if video.Status != model.VideoPendingPayment {
		return nil, fmt.Errorf("%w: entry %s is %s, expected %s", model.ErrInvalidState, video.ID, video.Status, model.VideoPendingPayment)
	}

	round, err := u.roundRepo.GetByID(ctx, video.RoundID)
	if err != nil {
		return nil, err
	}
	if round.Status != model.RoundActive {
		return nil, fmt.Errorf("%w: round %s no longer accepts entries", model.ErrInvalidState, round.ID)
	}

	method := model.PaymentMethod(req.Method)
	ref := video.ID
	session, err := u.paymentUC.CreateSession(ctx, userID, round.EntryFee, method, model.PurposeVideoEntryFee, &ref)
	if err != nil {
		return nil, err
	}
	if u.metrics != nil {
		u.metrics.UploadsInitiated.WithLabelValues(string(method)).Inc()
	}
	if method != model.MethodCreditBalance {
		return session, nil
	}
	return u.settleFromBalance(ctx, session, video, round)
}

// settleFromBalance debits the entry fee from the user's credit balance and
// confirms the session in the same call. The debit is the commit point: once
// it lands the entry is owed either publication or a refund.
func (u *uploadUsecase) settleFromBalance(ctx context.Context, session *model.PaymentSession, video *model.Video, round *model.CompetitionRound) (*model.PaymentSession, error) {
	ref := video.ID
	tx, err := u.ledger.Debit(ctx, video.UserID, round.EntryFee, model.ReasonUploadFee, &ref, "entry fee for round "+round.ID)
	if err != nil {
		if errors.Is(err, model.ErrInsufficientCredit) && u.metrics != nil {
			u.metrics.DebitsRejected.Inc()
		}
		if ferr := u.paymentUC.Fail(ctx, session.ID); ferr != nil {
			logger.GetLogger().WithField("error", ferr).WithField("session_id", session.ID).Warn("failed marking session failed")
		}
		return nil, err
	}
	if err := u.videoRepo.AttachLedgerTx(ctx, video.ID, tx.ID); err != nil {
		logger.GetLogger().WithField("error", err).WithField("video_id", video.ID).Error("failed attaching ledger tx")
	}

	confirmed, err := u.paymentUC.Confirm(ctx, session.ID)
	if err != nil && !errors.Is(err, model.ErrAlreadyFinalized) {
		// The debit stands but the session did not settle. Refund so the
		// ledger stays whole; the entry remains pending_payment for a retry.
		logger.GetLogger().WithField("error", err).WithField("session_id", session.ID).Error("balance settlement failed, refunding")
		if _, rerr := u.ledger.Refund(ctx, tx.ID); rerr != nil && !errors.Is(rerr, model.ErrAlreadyRefunded) {
			logger.GetLogger().WithField("error", rerr).WithField("tx_id", tx.ID).Error("refund after failed settlement also failed")
		}
		return nil, err
	}
	return confirmed, nil
}

func (u *uploadUsecase) AcceptMedia(ctx context.Context, userID, videoID, fileName, filePath string, fileSize int64, durationSecs float64) (*model.Video, error) {
	if fileSize > u.maxSize {
		return nil, model.ErrMediaTooLarge
	}
	if durationSecs > u.maxDuration {
		return nil, model.ErrMediaTooLong
	}

	video, err := u.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrUnauthorized
	}
	if video.Status == model.VideoPublished {
		// Retried upload of an already-published entry acks idempotently.
		return video, nil
	}
	if video.Status != model.VideoPaidUnpublished {
		return nil, fmt.Errorf("%w: entry %s is %s, expected %s", model.ErrInvalidState, video.ID, video.Status, model.VideoPaidUnpublished)
	}

	uploadedAt := time.Now().UTC()
	moved, err := u.videoRepo.PublishWithMedia(ctx, videoID, fileName, filePath, fileSize, durationSecs, uploadedAt)
	if err != nil {
		return nil, err
	}
	if !moved {
		video, err = u.videoRepo.GetByID(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if video.Status == model.VideoPublished {
			return video, nil
		}
		return nil, fmt.Errorf("%w: entry %s is %s, expected %s", model.ErrInvalidState, video.ID, video.Status, model.VideoPaidUnpublished)
	}

	round, err := u.roundRepo.GetByID(ctx, video.RoundID)
	if err != nil {
		return nil, err
	}
	prize := int64(float64(round.EntryFee) * model.PrizePoolShare)
	if err := u.roundRepo.IncrementStats(ctx, round.ID, round.EntryFee, prize, 1); err != nil {
		logger.GetLogger().WithField("error", err).WithField("round_id", round.ID).Error("failed incrementing round stats")
	}
	if u.metrics != nil {
		u.metrics.VideosPublished.Inc()
	}
	if u.events != nil {
		if err := u.events.Publish(ctx, pubsub.Event{Type: "video.published", EntityID: videoID, UserID: userID}); err != nil {
			logger.GetLogger().WithField("error", err).Warn("video.published event publish failed")
		}
	}
	return u.videoRepo.GetByID(ctx, videoID)
}

func (u *uploadUsecase) Cancel(ctx context.Context, userID, videoID string) error {
	video, err := u.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.UserID != userID {
		return model.ErrUnauthorized
	}
	switch video.Status {
	case model.VideoPendingPayment, model.VideoPaidUnpublished:
	case model.VideoDeleted:
		return nil
	default:
		return fmt.Errorf("%w: published entries cannot be cancelled", model.ErrInvalidState)
	}

	moved, err := u.videoRepo.TransitionStatus(ctx, videoID,
		[]model.VideoStatus{model.VideoPendingPayment, model.VideoPaidUnpublished}, model.VideoDeleted)
	if err != nil {
		return err
	}
	if !moved {
		video, err = u.videoRepo.GetByID(ctx, videoID)
		if err != nil {
			return err
		}
		if video.Status == model.VideoDeleted {
			return nil
		}
		return fmt.Errorf("%w: entry %s is %s", model.ErrInvalidState, videoID, video.Status)
	}

	if video.LedgerTxID != nil {
		if _, err := u.ledger.Refund(ctx, *video.LedgerTxID); err != nil && !errors.Is(err, model.ErrAlreadyRefunded) {
			return err
		}
	}
	return nil
}

func (u *uploadUsecase) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	return u.videoRepo.GetByID(ctx, videoID)
}

func (u *uploadUsecase) SweepStalePending(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-stalePendingGrace)
	stale, err := u.videoRepo.FindStalePendingPayment(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, video := range stale {
		moved, err := u.videoRepo.TransitionStatus(ctx, video.ID,
			[]model.VideoStatus{model.VideoPendingPayment}, model.VideoDeleted)
		if err != nil {
			logger.GetLogger().WithField("error", err).WithField("video_id", video.ID).Warn("stale entry sweep failed")
			continue
		}
		if moved {
			deleted++
		}
	}
	return deleted, nil
}
