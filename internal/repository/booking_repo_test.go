package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingRepo(t *testing.T) (*BookingRepository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewBookingRepository(database), mock
}

func TestMarkPaidBySession(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("sess_1", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPaidBySession("sess_1", "pi_1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidBySessionAlreadySettled(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("sess_1", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// A redelivered webhook finds the booking no longer pending.
	assert.ErrorIs(t, repo.MarkPaidBySession("sess_1", "pi_1"), ErrBookingNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusGuardsTransition(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs(42, "paid", "completed", "succeeded").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(42, "paid", "completed", "succeeded"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusRejectsStaleTransition(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectExec("UPDATE bookings").
		WithArgs(42, "paid", "completed", "succeeded").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateStatus(42, "paid", "completed", "succeeded"), ErrBadStatusChange)
	assert.NoError(t, mock.ExpectationsWereMet())
}
