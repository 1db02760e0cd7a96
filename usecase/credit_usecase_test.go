package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pego/domain/model"
	"pego/usecase"
)

func TestCreditUsecase_Adjust_PositiveCredits(t *testing.T) {
	mockLedger := new(MockLedger)

	mockLedger.On("Credit", mock.Anything, "user-1", int64(100), model.ReasonAdminAdjustment, (*string)(nil), "admin adjustment: goodwill").
		Return(&model.CreditTransaction{ID: "tx-1", Delta: 100}, nil).Once()

	creditUsecase := usecase.NewCreditUsecase(mockLedger)
	tx, err := creditUsecase.Adjust(context.Background(), "user-1", 100, "goodwill")

	require.NoError(t, err)
	assert.Equal(t, int64(100), tx.Delta)
	mockLedger.AssertExpectations(t)
}

func TestCreditUsecase_Adjust_NegativeDebits(t *testing.T) {
	mockLedger := new(MockLedger)

	mockLedger.On("Debit", mock.Anything, "user-1", int64(40), model.ReasonAdminAdjustment, (*string)(nil), "admin adjustment").
		Return(&model.CreditTransaction{ID: "tx-1", Delta: -40}, nil).Once()

	creditUsecase := usecase.NewCreditUsecase(mockLedger)
	tx, err := creditUsecase.Adjust(context.Background(), "user-1", -40, "")

	require.NoError(t, err)
	assert.Equal(t, int64(-40), tx.Delta)
	mockLedger.AssertExpectations(t)
}

func TestCreditUsecase_Adjust_ZeroRejected(t *testing.T) {
	creditUsecase := usecase.NewCreditUsecase(new(MockLedger))

	_, err := creditUsecase.Adjust(context.Background(), "user-1", 0, "")
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestCreditUsecase_Adjust_NeverBelowZero(t *testing.T) {
	mockLedger := new(MockLedger)

	mockLedger.On("Debit", mock.Anything, "user-1", int64(500), model.ReasonAdminAdjustment, (*string)(nil), "admin adjustment").
		Return(nil, model.ErrInsufficientCredit).Once()

	creditUsecase := usecase.NewCreditUsecase(mockLedger)
	_, err := creditUsecase.Adjust(context.Background(), "user-1", -500, "")

	assert.ErrorIs(t, err, model.ErrInsufficientCredit)
	mockLedger.AssertExpectations(t)
}

func TestCreditUsecase_Reconcile(t *testing.T) {
	mockLedger := new(MockLedger)

	mockLedger.On("GetBalance", mock.Anything, "user-1").Return(int64(70), nil).Once()
	mockLedger.On("SumDeltas", mock.Anything, "user-1").Return(int64(70), nil).Once()

	creditUsecase := usecase.NewCreditUsecase(mockLedger)
	require.NoError(t, creditUsecase.Reconcile(context.Background(), "user-1"))
	mockLedger.AssertExpectations(t)
}

func TestCreditUsecase_Reconcile_Mismatch(t *testing.T) {
	mockLedger := new(MockLedger)

	mockLedger.On("GetBalance", mock.Anything, "user-1").Return(int64(70), nil).Once()
	mockLedger.On("SumDeltas", mock.Anything, "user-1").Return(int64(40), nil).Once()

	creditUsecase := usecase.NewCreditUsecase(mockLedger)
	err := creditUsecase.Reconcile(context.Background(), "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of balance")
	mockLedger.AssertExpectations(t)
}
