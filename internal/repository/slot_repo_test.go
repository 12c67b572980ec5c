package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSlotRepo(t *testing.T) (*SlotRepository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewSlotRepository(database), mock
}

func TestClaimForBookingCommitsBothWrites(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(10, 1, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(42, 10, "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ClaimForBooking(10, 1, 42, "pi_1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimForBookingSlotTakenRollsBack(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(10, 2, 43).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT TRUE FROM booking_slots").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.ClaimForBooking(10, 2, 43, "pi_2")
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimForBookingMissingSlot(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(99, 2, 43).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT TRUE FROM booking_slots").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"bool"}))
	mock.ExpectRollback()

	err := repo.ClaimForBooking(99, 2, 43, "pi_2")
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimForBookingAbortsWhenBookingLeftPending(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(10, 1, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings").
		WithArgs(42, 10, "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// The slot update must not survive when the booking CAS misses.
	err := repo.ClaimForBooking(10, 1, 42, "pi_1")
	assert.ErrorIs(t, err, ErrBookingNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFreeRevertsClaim(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Free(10))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFreeOpenSlot(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectExec("UPDATE booking_slots").
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT TRUE FROM booking_slots").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))

	assert.ErrorIs(t, repo.Free(10), ErrSlotOpen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaimedSlotRefused(t *testing.T) {
	repo, mock := newSlotRepo(t)

	mock.ExpectExec("DELETE FROM booking_slots").
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(10), ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
