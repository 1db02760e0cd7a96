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
	paymentclient "pego/infrastructure/clients/payment"
	"pego/infrastructure/logger"
	"pego/infrastructure/metrics"
	"pego/infrastructure/servicebus"
)

type IPaymentUsecase interface {
	CreateSession(ctx context.Context, userID string, amount int64, method model.PaymentMethod, purpose model.PaymentPurpose, referenceID *string) (*model.PaymentSession, error)
	MarkPending(ctx context.Context, sessionID string) error
	// Confirm transitions created|pending -> paid exactly once and applies
	// the paid effects (ledger credit for top-ups, entry unlock for fees).
	// A repeat call returns the stored session with model.ErrAlreadyFinalized,
	// which callers treat as success.
	Confirm(ctx context.Context, sessionID string) (*model.PaymentSession, error)
	// Fail records a session as failed, e.g. after a rejected debit.
	Fail(ctx context.Context, sessionID string) error
	// ExpireStale sweeps overdue created/pending sessions to expired.
	ExpireStale(ctx context.Context) (int, error)
	GetSession(ctx context.Context, sessionID string) (*model.PaymentSession, error)
	Methods() []dto.PaymentMethodInfo
}

type paymentUsecase struct {
	sessionRepo repository.IPaymentSession
	ledger      repository.ICreditLedger
	videoRepo   repository.IVideo
	providers   map[model.PaymentMethod]paymentclient.IProvider
	receipts    servicebus.IReceiptBus
	metrics     *metrics.Metrics
	cardTTL     time.Duration
	qrTTL       time.Duration
}

func NewPaymentUsecase(
	sessionRepo repository.IPaymentSession,
	ledger repository.ICreditLedger,
	videoRepo repository.IVideo,
	providers map[model.PaymentMethod]paymentclient.IProvider,
	receipts servicebus.IReceiptBus,
	m *metrics.Metrics,
	cardTTL, qrTTL time.Duration,
) IPaymentUsecase {
	if cardTTL == 0 {
		cardTTL = 30 * time.Minute
	}
	if qrTTL == 0 {
		qrTTL = 10 * time.Minute
	}
	return &paymentUsecase{
		sessionRepo: sessionRepo,
		ledger:      ledger,
		videoRepo:   videoRepo,
		providers:   providers,
		receipts:    receipts,
		metrics:     m,
		cardTTL:     cardTTL,
		qrTTL:       qrTTL,
	}
}

func (u *paymentUsecase) ttlFor(method model.PaymentMethod) time.Duration {
	switch method {
	case model.MethodCardRedirect:
		return u.cardTTL
	case model.MethodQRTransfer:
		return u.qrTTL
	default:
		// credit_balance sessions confirm within the same request.
		return 5 * time.Minute
	}
}

func (u *paymentUsecase) CreateSession(ctx context.Context, userID string, amount int64, method model.PaymentMethod, purpose model.PaymentPurpose, referenceID *string) (*model.PaymentSession, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	switch method {
	case model.MethodCardRedirect, model.MethodQRTransfer, model.MethodCreditBalance:
	default:
		return nil, model.ErrUnknownMethod
	}

	// A new payment path supersedes any unsettled session for the same
	// entry, so the ledger-debit and provider paths stay mutually exclusive:
	// at most one session per entry can ever reach paid.
	if referenceID != nil && purpose == model.PurposeVideoEntryFee {
		prev, err := u.sessionRepo.GetByReference(ctx, *referenceID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		if err == nil && !prev.Status.Terminal() {
			if _, err := u.sessionRepo.Transition(ctx, prev.ID,
				[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionFailed); err != nil {
				return nil, err
			}
			logger.GetLogger().
				WithField("session_id", prev.ID).
				WithField("reference_id", *referenceID).
				Info("superseded open payment session")
		}
	}

	now := time.Now().UTC()
	session := &model.PaymentSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Method:      method,
		Status:      model.SessionCreated,
		Purpose:     purpose,
		ReferenceID: referenceID,
		ExpiresAt:   now.Add(u.ttlFor(method)),
		CreatedAt:   now,
	}

	if provider, ok := u.providers[method]; ok && provider != nil {
		params := paymentclient.CreateParams{
			SessionID: session.ID,
			Amount:    amount,
			Currency:  "thb",
		}
		if referenceID != nil {
			params.Reference = *referenceID
		}
		started := time.Now()
		info, err := provider.CreateSession(ctx, params)
		if u.metrics != nil {
			u.metrics.ProviderLatency.WithLabelValues(string(method), "create").Observe(time.Since(started).Seconds())
		}
		if err != nil {
			return nil, fmt.Errorf("provider session create: %w", err)
		}
		if info.CheckoutURL != "" {
			session.CheckoutURL = &info.CheckoutURL
		}
		if info.QRPayload != "" {
			session.QRPayload = &info.QRPayload
		}
	}

	if err := u.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (u *paymentUsecase) MarkPending(ctx context.Context, sessionID string) error {
	moved, err := u.sessionRepo.Transition(ctx, sessionID, []model.SessionStatus{model.SessionCreated}, model.SessionPending)
	if err != nil {
		return err
	}
	if !moved {
		session, err := u.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == model.SessionPending {
			return nil
		}
		return model.ErrInvalidTransition
	}
	return nil
}

func (u *paymentUsecase) Confirm(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	session, err := u.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		if session.Status == model.SessionPaid {
			// Redelivered confirmation. Effects are idempotent, so re-running
			// them lets a retry complete anything a transient failure
			// interrupted after the paid transition.
			if err := u.applyPaidEffects(ctx, session); err != nil {
				return nil, err
			}
			return session, model.ErrAlreadyFinalized
		}
		if session.Status == model.SessionExpired {
			return session, model.ErrExpired
		}
		return session, model.ErrInvalidTransition
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		_, _ = u.sessionRepo.Transition(ctx, sessionID,
			[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionExpired)
		return session, model.ErrExpired
	}

	// Externally-settled methods are checked against the provider before we
	// accept the confirmation; redelivered callbacks re-check harmlessly.
	if provider, ok := u.providers[session.Method]; ok && provider != nil {
		started := time.Now()
		paid, err := provider.CheckPaid(ctx, session.ID)
		if u.metrics != nil {
			u.metrics.ProviderLatency.WithLabelValues(string(session.Method), "status").Observe(time.Since(started).Seconds())
		}
		if err != nil {
			return nil, fmt.Errorf("provider status check: %w", err)
		}
		if !paid {
			// The customer reached checkout but the provider has not settled
			// yet; record the session as pending until the next attempt.
			if session.Status == model.SessionCreated {
				if perr := u.MarkPending(ctx, session.ID); perr != nil {
					logger.GetLogger().WithField("error", perr).WithField("session_id", session.ID).Warn("failed marking session pending")
				}
			}
			return nil, fmt.Errorf("%w: provider has not settled session %s", model.ErrInvalidState, session.ID)
		}
	}

	moved, err := u.sessionRepo.Transition(ctx, sessionID,
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionPaid)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost the race against a concurrent confirm; effects already applied.
		session, err = u.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session.Status == model.SessionPaid {
			return session, model.ErrAlreadyFinalized
		}
		return session, model.ErrInvalidTransition
	}

	if err := u.applyPaidEffects(ctx, session); err != nil {
		// The session is paid; effects must not be silently lost.
		logger.GetLogger().WithField("error", err).WithField("session_id", session.ID).Error("paid effects failed")
		return nil, err
	}

	session, err = u.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	u.notifyPaid(ctx, session)
	return session, nil
}

// applyPaidEffects materializes what a paid session bought. Every branch is
// idempotent by session reference, so redelivered confirmations re-run it
// safely and complete any effect a transient failure interrupted.
func (u *paymentUsecase) applyPaidEffects(ctx context.Context, session *model.PaymentSession) error {
	switch session.Purpose {
	case model.PurposeCreditTopup:
		return u.applyTopup(ctx, session)
	case model.PurposeVideoEntryFee:
		return u.applyEntryFee(ctx, session)
	default:
		return fmt.Errorf("unknown session purpose %q", session.Purpose)
	}
}

func (u *paymentUsecase) applyTopup(ctx context.Context, session *model.PaymentSession) error {
	if _, err := u.ledger.FindByReference(ctx, model.ReasonTopup, session.ID); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	ref := session.ID
	_, err := u.ledger.Credit(ctx, session.UserID, session.Amount, model.ReasonTopup, &ref, "credit top-up")
	return err
}

func (u *paymentUsecase) applyEntryFee(ctx context.Context, session *model.PaymentSession) error {
	if session.ReferenceID == nil {
		return fmt.Errorf("entry fee session %s has no video reference", session.ID)
	}
	moved, err := u.videoRepo.TransitionStatus(ctx, *session.ReferenceID,
		[]model.VideoStatus{model.VideoPendingPayment}, model.VideoPaidUnpublished)
	if err != nil {
		return err
	}
	if moved {
		return nil
	}
	if session.Method == model.MethodCreditBalance {
		// The inline debit path already settled this entry.
		return nil
	}
	video, err := u.videoRepo.GetByID(ctx, *session.ReferenceID)
	if err != nil {
		return err
	}
	if video.LedgerTxID == nil &&
		(video.Status == model.VideoPaidUnpublished || video.Status == model.VideoPublished) {
		// This session's own earlier delivery unlocked the entry.
		return nil
	}
	// The entry was settled from the credit balance or is gone; the provider
	// payment must not stand as a second charge. Return it as credit, once
	// per session.
	if _, err := u.ledger.FindByReference(ctx, model.ReasonRefund, session.ID); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return err
	}
	logger.GetLogger().
		WithField("video_id", *session.ReferenceID).
		WithField("session_id", session.ID).
		Warn("entry already settled, returning provider payment as credit")
	ref := session.ID
	_, err = u.ledger.Credit(ctx, session.UserID, session.Amount, model.ReasonRefund, &ref, "entry fee returned, entry settled elsewhere")
	return err
}

func (u *paymentUsecase) notifyPaid(ctx context.Context, session *model.PaymentSession) {
	if u.metrics != nil {
		u.metrics.PaymentsConfirmed.WithLabelValues(string(session.Method), string(session.Purpose)).Inc()
	}
	if u.receipts != nil {
		receipt := servicebus.Receipt{
			SessionID: session.ID,
			UserID:    session.UserID,
			Amount:    session.Amount,
			Method:    string(session.Method),
			Purpose:   string(session.Purpose),
			PaidAt:    session.UpdatedAt,
		}
		if err := u.receipts.SendReceipt(ctx, receipt); err != nil {
			logger.GetLogger().WithField("error", err).Warn("receipt send failed")
		}
	}
}

func (u *paymentUsecase) Fail(ctx context.Context, sessionID string) error {
	moved, err := u.sessionRepo.Transition(ctx, sessionID,
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionFailed)
	if err != nil {
		return err
	}
	if !moved {
		session, err := u.sessionRepo.GetByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == model.SessionFailed {
			return nil
		}
		return model.ErrInvalidTransition
	}
	return nil
}

func (u *paymentUsecase) ExpireStale(ctx context.Context) (int, error) {
	expired, err := u.sessionRepo.ExpireStale(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if u.metrics != nil {
		u.metrics.SessionsExpired.Add(float64(len(expired)))
	}
	for _, session := range expired {
		logger.GetLogger().
			WithField("session_id", session.ID).
			WithField("method", session.Method).
			WithField("purpose", session.Purpose).
			Info("payment session expired")
	}
	return len(expired), nil
}

func (u *paymentUsecase) GetSession(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	return u.sessionRepo.GetByID(ctx, sessionID)
}

func (u *paymentUsecase) Methods() []dto.PaymentMethodInfo {
	infos := []dto.PaymentMethodInfo{
		{Method: string(model.MethodCreditBalance), DisplayName: "Credit balance", Available: true},
	}
	for _, method := range []model.PaymentMethod{model.MethodCardRedirect, model.MethodQRTransfer} {
		_, ok := u.providers[method]
		name := "Card"
		if method == model.MethodQRTransfer {
			name = "QR bank transfer"
		}
		infos = append(infos, dto.PaymentMethodInfo{Method: string(method), DisplayName: name, Available: ok})
	}
	return infos
}
