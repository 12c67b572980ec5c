package service

import (
	"regexp"
	"testing"
	"time"

	"petcare/internal/db"
	"petcare/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingTestColumns = []string{
	"id", "code", "kind", "user_id", "slot_id",
	"user_name", "user_email", "user_phone", "pet_name", "pet_species", "address",
	"start_date", "end_date", "amount", "currency", "status", "payment_status",
	"stripe_session_id", "stripe_payment_intent_id", "created_at", "updated_at",
}

func bookingRow(code, status, paymentStatus string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		1, code, db.KindVaccination, 1, nil,
		"Dana", "dana@example.com", "+15550001111", "Rex", "dog", "12 Main St",
		nil, nil, 4500, "usd", status, paymentStatus,
		"sess_1", "pi_1", now, now,
	)
}

func newBookingServiceWithMock(t *testing.T) (*BookingService, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	bookings := repository.NewBookingRepository(database)
	return NewBookingService(bookings, nil, nil, nil, nil, nil, nil), mock
}

func TestConfirmationTerminalStates(t *testing.T) {
	cases := []struct {
		status        string
		paymentStatus string
		terminal      bool
		wantMessage   bool
	}{
		{db.StatusPending, db.PaymentPending, false, false},
		{db.StatusPaid, db.PaymentSucceeded, true, false},
		{db.StatusCompleted, db.PaymentSucceeded, true, false},
		{db.StatusFailed, db.PaymentRefundPending, true, true},
		{db.StatusExpired, db.PaymentPending, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			svc, mock := newBookingServiceWithMock(t)
			mock.ExpectQuery("FROM bookings WHERE stripe_session_id").
				WithArgs("sess_1").
				WillReturnRows(bookingRow("BOOKABC", tc.status, tc.paymentStatus))

			conf, err := svc.Confirmation("sess_1")
			require.NoError(t, err)
			assert.Equal(t, "BOOKABC", conf.Code)
			assert.Equal(t, tc.status, conf.Status)
			assert.Equal(t, tc.terminal, conf.Terminal)
			if tc.wantMessage {
				assert.NotEmpty(t, conf.Message)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConfirmationUnknownSession(t *testing.T) {
	svc, mock := newBookingServiceWithMock(t)
	mock.ExpectQuery("FROM bookings WHERE stripe_session_id").
		WithArgs("sess_unknown").
		WillReturnRows(sqlmock.NewRows(bookingTestColumns))

	_, err := svc.Confirmation("sess_unknown")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestConfirmServicePaymentIdempotent(t *testing.T) {
	svc, mock := newBookingServiceWithMock(t)

	// First delivery moves the booking, second finds it settled.
	mock.ExpectExec("UPDATE bookings").
		WithArgs("sess_1", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM bookings WHERE stripe_session_id").
		WithArgs("sess_1").
		WillReturnRows(bookingRow("BOOKABC", db.StatusPaid, db.PaymentSucceeded))

	_, moved, err := svc.ConfirmServicePayment("sess_1", "pi_1")
	require.NoError(t, err)
	assert.True(t, moved)

	mock.ExpectExec("UPDATE bookings").
		WithArgs("sess_1", "pi_1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM bookings WHERE stripe_session_id").
		WithArgs("sess_1").
		WillReturnRows(bookingRow("BOOKABC", db.StatusPaid, db.PaymentSucceeded))

	_, moved, err = svc.ConfirmServicePayment("sess_1", "pi_1")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewBookingCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	pattern := regexp.MustCompile(`^[A-Z0-9]{10}$`)
	for i := 0; i < 100; i++ {
		code := newBookingCode()
		assert.Regexp(t, pattern, code)
		assert.False(t, seen[code], "codes should not repeat")
		seen[code] = true
	}
}
