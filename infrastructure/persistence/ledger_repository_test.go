package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"pego/domain/model"
)

func TestCreditLedgerRepository_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`)).
		WithArgs(int64(-30), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_transactions (id, user_id, delta, reason, reference_id, description, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`)).
		WithArgs(sqlmock.AnyArg(), "user-1", int64(-30), model.ReasonUploadFee, "video-1", "entry fee", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ref := "video-1"
	entry, err := repository.Debit(context.Background(), "user-1", 30, model.ReasonUploadFee, &ref, "entry fee")
	require.NoError(t, err)
	require.Equal(t, int64(-30), entry.Delta)
	require.Equal(t, model.ReasonUploadFee, entry.Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_Debit_InsufficientCredit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`)).
		WithArgs(int64(-30), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM users WHERE id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))
	mock.ExpectRollback()

	entry, err := repository.Debit(context.Background(), "user-1", 30, model.ReasonUploadFee, nil, "entry fee")
	require.ErrorIs(t, err, model.ErrInsufficientCredit)
	require.Nil(t, entry)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_Debit_UnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`)).
		WithArgs(int64(-30), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT TRUE FROM users WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"bool"}))
	mock.ExpectRollback()

	_, err = repository.Debit(context.Background(), "ghost", 30, model.ReasonUploadFee, nil, "entry fee")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_Credit_RejectsNonPositiveAmount(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	_, err = repository.Credit(context.Background(), "user-1", 0, model.ReasonTopup, nil, "")
	require.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = repository.Debit(context.Background(), "user-1", -5, model.ReasonUploadFee, nil, "")
	require.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestCreditLedgerRepository_Refund(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	createdAt := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, delta, reason, reference_id, description, created_at FROM credit_transactions WHERE id = $1`)).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "delta", "reason", "reference_id", "description", "created_at"}).
			AddRow("tx-1", "user-1", int64(-30), "upload_fee", "video-1", "entry fee", createdAt))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE reason = 'refund' AND reference_id = $1)`)).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET credit_balance = credit_balance + $1 WHERE id = $2 AND credit_balance + $1 >= 0`)).
		WithArgs(int64(30), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO credit_transactions (id, user_id, delta, reason, reference_id, description, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`)).
		WithArgs(sqlmock.AnyArg(), "user-1", int64(30), model.ReasonRefund, "tx-1", "refund of tx-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry, err := repository.Refund(context.Background(), "tx-1")
	require.NoError(t, err)
	require.Equal(t, int64(30), entry.Delta)
	require.Equal(t, model.ReasonRefund, entry.Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_Refund_AlreadyRefunded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	createdAt := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, delta, reason, reference_id, description, created_at FROM credit_transactions WHERE id = $1`)).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "delta", "reason", "reference_id", "description", "created_at"}).
			AddRow("tx-1", "user-1", int64(-30), "upload_fee", nil, "entry fee", createdAt))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE reason = 'refund' AND reference_id = $1)`)).
		WithArgs("tx-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = repository.Refund(context.Background(), "tx-1")
	require.ErrorIs(t, err, model.ErrAlreadyRefunded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_GetBalance_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT credit_balance FROM users WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"credit_balance"}))

	_, err = repository.GetBalance(context.Background(), "ghost")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_SumDeltas(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(delta), 0) FROM credit_transactions WHERE user_id = $1`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(120)))

	sum, err := repository.SumDeltas(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(120), sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_Debit_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectBegin().WillReturnError(fmt.Errorf("begin error"))

	_, err = repository.Debit(context.Background(), "user-1", 30, model.ReasonUploadFee, nil, "entry fee")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_FindByReference(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, delta, reason, reference_id, description, created_at FROM credit_transactions WHERE reason = $1 AND reference_id = $2 LIMIT 1`)).
		WithArgs(model.ReasonTopup, "session-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "delta", "reason", "reference_id", "description", "created_at"}).
			AddRow("tx-1", "user-1", int64(100), "topup", "session-1", "credit top-up", now))

	entry, err := repository.FindByReference(context.Background(), model.ReasonTopup, "session-1")
	require.NoError(t, err)
	require.Equal(t, "tx-1", entry.ID)
	require.Equal(t, int64(100), entry.Delta)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditLedgerRepository_FindByReference_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewCreditLedgerRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM credit_transactions WHERE reason = \$1 AND reference_id = \$2`).
		WithArgs(model.ReasonRefund, "session-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repository.FindByReference(context.Background(), model.ReasonRefund, "session-1")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
