package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pego/domain/model"
	paymentclient "pego/infrastructure/clients/payment"
	"pego/usecase"
)

func newPaymentUsecase(sessionRepo *MockSessionRepo, ledger *MockLedger, videoRepo *MockVideoRepo, providers map[model.PaymentMethod]paymentclient.IProvider) usecase.IPaymentUsecase {
	return usecase.NewPaymentUsecase(sessionRepo, ledger, videoRepo, providers, nil, nil, 30*time.Minute, 10*time.Minute)
}

func TestPaymentUsecase_CreateSession_InvalidAmount(t *testing.T) {
	paymentUsecase := newPaymentUsecase(new(MockSessionRepo), new(MockLedger), new(MockVideoRepo), nil)

	_, err := paymentUsecase.CreateSession(context.Background(), "user-1", 0, model.MethodQRTransfer, model.PurposeCreditTopup, nil)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = paymentUsecase.CreateSession(context.Background(), "user-1", -5, model.MethodQRTransfer, model.PurposeCreditTopup, nil)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestPaymentUsecase_CreateSession_UnknownMethod(t *testing.T) {
	paymentUsecase := newPaymentUsecase(new(MockSessionRepo), new(MockLedger), new(MockVideoRepo), nil)

	_, err := paymentUsecase.CreateSession(context.Background(), "user-1", 100, "bank_cheque", model.PurposeCreditTopup, nil)
	assert.ErrorIs(t, err, model.ErrUnknownMethod)
}

func TestPaymentUsecase_CreateSession_QRCarriesPayload(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockProvider := new(MockProvider)

	mockProvider.On("CreateSession", mock.Anything, mock.MatchedBy(func(p paymentclient.CreateParams) bool {
		return p.Amount == 100 && p.SessionID != ""
	})).Return(&paymentclient.SessionInfo{QRPayload: "qr-data"}, nil).Once()
	mockSessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.PaymentSession")).Return(nil).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodQRTransfer: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), providers)

	session, err := paymentUsecase.CreateSession(context.Background(), "user-1", 100, model.MethodQRTransfer, model.PurposeCreditTopup, nil)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCreated, session.Status)
	require.NotNil(t, session.QRPayload)
	assert.Equal(t, "qr-data", *session.QRPayload)
	assert.WithinDuration(t, session.CreatedAt.Add(10*time.Minute), session.ExpiresAt, time.Second)
	mockProvider.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_TopupCreditsLedgerOnce(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockLedger := new(MockLedger)
	mockProvider := new(MockProvider)

	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionCreated,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	paid := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionPaid,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: created.ExpiresAt,
	}

	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockProvider.On("CheckPaid", mock.Anything, "session-1").Return(true, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionPaid).
		Return(true, nil).Once()
	mockLedger.On("FindByReference", mock.Anything, model.ReasonTopup, "session-1").
		Return(nil, model.ErrNotFound).Once()
	mockLedger.On("Credit", mock.Anything, "user-1", int64(100), model.ReasonTopup, mock.AnythingOfType("*string"), "credit top-up").
		Return(&model.CreditTransaction{ID: "tx-1", Delta: 100}, nil).Once()
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(paid, nil).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodQRTransfer: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, mockLedger, new(MockVideoRepo), providers)

	session, err := paymentUsecase.Confirm(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaid, session.Status)
	mockLedger.AssertNumberOfCalls(t, "Credit", 1)
	mockSessionRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_RepeatIsIdempotent(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockLedger := new(MockLedger)

	paid := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionPaid,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(paid, nil).Once()
	mockLedger.On("FindByReference", mock.Anything, model.ReasonTopup, "session-1").
		Return(&model.CreditTransaction{ID: "tx-1", Delta: 100}, nil).Once()

	paymentUsecase := newPaymentUsecase(mockSessionRepo, mockLedger, new(MockVideoRepo), nil)

	session, err := paymentUsecase.Confirm(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrAlreadyFinalized)
	assert.Equal(t, paid, session)
	mockLedger.AssertNotCalled(t, "Credit")
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_ExpiredSession(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)

	stale := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionCreated,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(stale, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionExpired).
		Return(true, nil).Once()

	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), nil)

	_, err := paymentUsecase.Confirm(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrExpired)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_ProviderNotSettled(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockProvider := new(MockProvider)

	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodCardRedirect, Status: model.SessionPending,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockProvider.On("CheckPaid", mock.Anything, "session-1").Return(false, nil).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodCardRedirect: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), providers)

	_, err := paymentUsecase.Confirm(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrInvalidState)
	mockSessionRepo.AssertNotCalled(t, "Transition")
	mockProvider.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_EntryFeeUnlocksVideo(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockVideoRepo := new(MockVideoRepo)

	ref := "video-1"
	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 30,
		Method: model.MethodCreditBalance, Status: model.SessionCreated,
		Purpose: model.PurposeVideoEntryFee, ReferenceID: &ref,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	paid := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 30,
		Method: model.MethodCreditBalance, Status: model.SessionPaid,
		Purpose: model.PurposeVideoEntryFee, ReferenceID: &ref,
		ExpiresAt: created.ExpiresAt,
	}

	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionPaid).
		Return(true, nil).Once()
	mockVideoRepo.On("TransitionStatus", mock.Anything, "video-1",
		[]model.VideoStatus{model.VideoPendingPayment}, model.VideoPaidUnpublished).
		Return(true, nil).Once()
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(paid, nil).Once()

	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), mockVideoRepo, nil)

	session, err := paymentUsecase.Confirm(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaid, session.Status)
	mockVideoRepo.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_CreateSession_SupersedesOpenEntrySession(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)

	ref := "video-1"
	open := &model.PaymentSession{
		ID: "session-old", UserID: "user-1", Amount: 30,
		Method: model.MethodCardRedirect, Status: model.SessionCreated,
		Purpose: model.PurposeVideoEntryFee, ReferenceID: &ref,
	}
	mockSessionRepo.On("GetByReference", mock.Anything, "video-1").Return(open, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-old",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionFailed).
		Return(true, nil).Once()
	mockSessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.PaymentSession")).Return(nil).Once()

	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), nil)

	session, err := paymentUsecase.CreateSession(context.Background(), "user-1", 30,
		model.MethodCreditBalance, model.PurposeVideoEntryFee, &ref)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCreated, session.Status)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_ReturnsProviderPaymentWhenEntryAlreadySettled(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockLedger := new(MockLedger)
	mockVideoRepo := new(MockVideoRepo)
	mockProvider := new(MockProvider)

	ref := "video-1"
	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 30,
		Method: model.MethodCardRedirect, Status: model.SessionCreated,
		Purpose: model.PurposeVideoEntryFee, ReferenceID: &ref,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	paid := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 30,
		Method: model.MethodCardRedirect, Status: model.SessionPaid,
		Purpose: model.PurposeVideoEntryFee, ReferenceID: &ref,
		ExpiresAt: created.ExpiresAt,
	}
	txID := "tx-debit"

	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockProvider.On("CheckPaid", mock.Anything, "session-1").Return(true, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionPaid).
		Return(true, nil).Once()
	// The entry was already unlocked by the credit-balance debit.
	mockVideoRepo.On("TransitionStatus", mock.Anything, "video-1",
		[]model.VideoStatus{model.VideoPendingPayment}, model.VideoPaidUnpublished).
		Return(false, nil).Once()
	mockVideoRepo.On("GetByID", mock.Anything, "video-1").
		Return(&model.Video{ID: "video-1", UserID: "user-1", Status: model.VideoPaidUnpublished, LedgerTxID: &txID}, nil).Once()
	mockLedger.On("FindByReference", mock.Anything, model.ReasonRefund, "session-1").
		Return(nil, model.ErrNotFound).Once()
	mockLedger.On("Credit", mock.Anything, "user-1", int64(30), model.ReasonRefund,
		mock.AnythingOfType("*string"), "entry fee returned, entry settled elsewhere").
		Return(&model.CreditTransaction{ID: "tx-comp", Delta: 30}, nil).Once()
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(paid, nil).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodCardRedirect: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, mockLedger, mockVideoRepo, providers)

	session, err := paymentUsecase.Confirm(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionPaid, session.Status)
	mockLedger.AssertExpectations(t)
	mockVideoRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_RetryCompletesInterruptedTopup(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockLedger := new(MockLedger)
	mockProvider := new(MockProvider)

	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionCreated,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	paid := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodQRTransfer, Status: model.SessionPaid,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: created.ExpiresAt,
	}

	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockProvider.On("CheckPaid", mock.Anything, "session-1").Return(true, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated, model.SessionPending}, model.SessionPaid).
		Return(true, nil).Once()
	mockLedger.On("FindByReference", mock.Anything, model.ReasonTopup, "session-1").
		Return(nil, model.ErrNotFound).Once()
	mockLedger.On("Credit", mock.Anything, "user-1", int64(100), model.ReasonTopup,
		mock.AnythingOfType("*string"), "credit top-up").
		Return(nil, errors.New("db connection reset")).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodQRTransfer: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, mockLedger, new(MockVideoRepo), providers)

	_, err := paymentUsecase.Confirm(context.Background(), "session-1")
	require.Error(t, err)

	// The session is already paid; the redelivered confirmation must still
	// land the credit.
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(paid, nil).Once()
	mockLedger.On("FindByReference", mock.Anything, model.ReasonTopup, "session-1").
		Return(nil, model.ErrNotFound).Once()
	mockLedger.On("Credit", mock.Anything, "user-1", int64(100), model.ReasonTopup,
		mock.AnythingOfType("*string"), "credit top-up").
		Return(&model.CreditTransaction{ID: "tx-1", Delta: 100}, nil).Once()

	session, err := paymentUsecase.Confirm(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrAlreadyFinalized)
	assert.Equal(t, model.SessionPaid, session.Status)
	mockLedger.AssertExpectations(t)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Confirm_UnsettledCheckoutMarksPending(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)
	mockProvider := new(MockProvider)

	created := &model.PaymentSession{
		ID: "session-1", UserID: "user-1", Amount: 100,
		Method: model.MethodCardRedirect, Status: model.SessionCreated,
		Purpose:   model.PurposeCreditTopup,
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	}
	mockSessionRepo.On("GetByID", mock.Anything, "session-1").Return(created, nil).Once()
	mockProvider.On("CheckPaid", mock.Anything, "session-1").Return(false, nil).Once()
	mockSessionRepo.On("Transition", mock.Anything, "session-1",
		[]model.SessionStatus{model.SessionCreated}, model.SessionPending).
		Return(true, nil).Once()

	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodCardRedirect: mockProvider}
	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), providers)

	_, err := paymentUsecase.Confirm(context.Background(), "session-1")
	assert.ErrorIs(t, err, model.ErrInvalidState)
	mockSessionRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestPaymentUsecase_ExpireStale(t *testing.T) {
	mockSessionRepo := new(MockSessionRepo)

	mockSessionRepo.On("ExpireStale", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*model.PaymentSession{
			{ID: "session-1", Status: model.SessionExpired},
			{ID: "session-2", Status: model.SessionExpired},
		}, nil).Once()

	paymentUsecase := newPaymentUsecase(mockSessionRepo, new(MockLedger), new(MockVideoRepo), nil)

	n, err := paymentUsecase.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	mockSessionRepo.AssertExpectations(t)
}

func TestPaymentUsecase_Methods_ReflectConfiguredProviders(t *testing.T) {
	providers := map[model.PaymentMethod]paymentclient.IProvider{model.MethodQRTransfer: new(MockProvider)}
	paymentUsecase := newPaymentUsecase(new(MockSessionRepo), new(MockLedger), new(MockVideoRepo), providers)

	methods := paymentUsecase.Methods()
	available := map[string]bool{}
	for _, m := range methods {
		available[m.Method] = m.Available
	}
	assert.True(t, available["credit_balance"])
	assert.True(t, available["qr_transfer"])
	assert.False(t, available["card_redirect"])
}
