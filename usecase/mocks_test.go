package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pego/domain/model"
	paymentclient "pego/infrastructure/clients/payment"
)

// Mock implementations shared by the usecase tests.

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) Credit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, userID, amount, reason, referenceID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockLedger) Debit(ctx context.Context, userID string, amount int64, reason model.CreditReason, referenceID *string, description string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, userID, amount, reason, referenceID, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockLedger) Refund(ctx context.Context, originalTxID string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, originalTxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockLedger) GetTransaction(ctx context.Context, id string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditTransaction), args.Error(1)
}

func (m *MockLedger) FindByReference(ctx context.Context, reason model.CreditReason, referenceID string) (*model.CreditTransaction, error) {
	args := m.Called(ctx, reason, referenceID)
	if tx, ok := args.Get(0).(*model.CreditTransaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedger) ListByUser(ctx context.Context, userID string, limit int) ([]*model.CreditTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CreditTransaction), args.Error(1)
}

func (m *MockLedger) SumDeltas(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockRoundRepo struct {
	mock.Mock
}

func (m *MockRoundRepo) Create(ctx context.Context, round *model.CompetitionRound) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockRoundRepo) GetByID(ctx context.Context, id string) (*model.CompetitionRound, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompetitionRound), args.Error(1)
}

func (m *MockRoundRepo) GetActive(ctx context.Context) (*model.CompetitionRound, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompetitionRound), args.Error(1)
}

func (m *MockRoundRepo) List(ctx context.Context, limit, offset int) ([]*model.CompetitionRound, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CompetitionRound), args.Error(1)
}

func (m *MockRoundRepo) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoundRepo) TransitionStatus(ctx context.Context, id string, from, to model.RoundStatus, endedAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, endedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoundRepo) IncrementStats(ctx context.Context, id string, revenue, prize int64, videos int) error {
	args := m.Called(ctx, id, revenue, prize, videos)
	return args.Error(0)
}

func (m *MockRoundRepo) SaveRankingSnapshot(ctx context.Context, id string, entries []model.RankingEntry) error {
	args := m.Called(ctx, id, entries)
	return args.Error(0)
}

func (m *MockRoundRepo) GetRankingSnapshot(ctx context.Context, id string) ([]model.RankingEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RankingEntry), args.Error(1)
}

type MockVideoRepo struct {
	mock.Mock
}

func (m *MockVideoRepo) Create(ctx context.Context, video *model.Video) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoRepo) GetByID(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

func (m *MockVideoRepo) TransitionStatus(ctx context.Context, id string, from []model.VideoStatus, to model.VideoStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockVideoRepo) AttachLedgerTx(ctx context.Context, id, txID string) error {
	args := m.Called(ctx, id, txID)
	return args.Error(0)
}

func (m *MockVideoRepo) PublishWithMedia(ctx context.Context, id, fileName, filePath string, fileSize int64, durationSecs float64, uploadedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, fileName, filePath, fileSize, durationSecs, uploadedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockVideoRepo) ListPublishedByRound(ctx context.Context, roundID string, limit, offset int) ([]*model.Video, error) {
	args := m.Called(ctx, roundID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Video), args.Error(1)
}

func (m *MockVideoRepo) TopByViews(ctx context.Context, roundID string, limit int) ([]*model.Video, error) {
	args := m.Called(ctx, roundID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Video), args.Error(1)
}

func (m *MockVideoRepo) IncrementViewCount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockVideoRepo) FindStalePendingPayment(ctx context.Context, cutoff time.Time) ([]*model.Video, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Video), args.Error(1)
}

func (m *MockVideoRepo) CountByStatus(ctx context.Context, status model.VideoStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVideoRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) Create(ctx context.Context, session *model.PaymentSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) GetByID(ctx context.Context, id string) (*model.PaymentSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockSessionRepo) GetByReference(ctx context.Context, referenceID string) (*model.PaymentSession, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentSession), args.Error(1)
}

func (m *MockSessionRepo) Transition(ctx context.Context, id string, from []model.SessionStatus, to model.SessionStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepo) ExpireStale(ctx context.Context, now time.Time) ([]*model.PaymentSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PaymentSession), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, id string, displayName, bio string, avatarURL *string) error {
	args := m.Called(ctx, id, displayName, bio, avatarURL)
	return args.Error(0)
}

func (m *MockUserRepo) SetBanned(ctx context.Context, id string, banned bool, reason string) error {
	args := m.Called(ctx, id, banned, reason)
	return args.Error(0)
}

func (m *MockUserRepo) TouchLastActive(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateSession(ctx context.Context, params paymentclient.CreateParams) (*paymentclient.SessionInfo, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentclient.SessionInfo), args.Error(1)
}

func (m *MockProvider) CheckPaid(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}
