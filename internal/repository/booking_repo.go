package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petcare/internal/db"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrBookingNotPending = errors.New("booking is not pending")
	ErrBadStatusChange   = errors.New("invalid booking status transition")
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `
	id, code, kind, user_id, slot_id,
	user_name, user_email, user_phone, pet_name, pet_species, address,
	start_date, end_date, amount, currency, status, payment_status,
	stripe_session_id, stripe_payment_intent_id, created_at, updated_at`

func scanBooking(row *sql.Row) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.Code, &b.Kind, &b.UserID, &b.SlotID,
		&b.UserName, &b.UserEmail, &b.UserPhone, &b.PetName, &b.PetSpecies, &b.Address,
		&b.StartDate, &b.EndDate, &b.Amount, &b.Currency, &b.Status, &b.PaymentStatus,
		&b.StripeSessionID, &b.StripePaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return &b, nil
}

// Create inserts the booking and its items in one transaction.
func (r *BookingRepository) Create(booking *db.Booking, items []db.BookingItem) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO bookings
		(code, kind, user_id, slot_id, user_name, user_email, user_phone, pet_name, pet_species,
		 address, start_date, end_date, amount, currency, status, payment_status,
		 stripe_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
		RETURNING id, created_at, updated_at`,
		booking.Code, booking.Kind, booking.UserID, booking.SlotID,
		booking.UserName, booking.UserEmail, booking.UserPhone, booking.PetName, booking.PetSpecies,
		booking.Address, booking.StartDate, booking.EndDate, booking.Amount, booking.Currency,
		booking.Status, booking.PaymentStatus, booking.StripeSessionID,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	for i := range items {
		items[i].BookingID = booking.ID
		err := tx.QueryRow(`
			INSERT INTO booking_items (booking_id, name, price)
			VALUES ($1, $2, $3) RETURNING id`,
			items[i].BookingID, items[i].Name, items[i].Price,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert booking item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByCode(code string) (*db.Booking, error) {
	row := r.DB.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE code = $1`, code)
	return scanBooking(row)
}

func (r *BookingRepository) GetBySessionID(sessionID string) (*db.Booking, error) {
	row := r.DB.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE stripe_session_id = $1`, sessionID)
	return scanBooking(row)
}

func (r *BookingRepository) GetItems(bookingID int) ([]db.BookingItem, error) {
	rows, err := r.DB.Query(`
		SELECT id, booking_id, name, price FROM booking_items
		WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("query booking items: %w", err)
	}
	defer rows.Close()

	var items []db.BookingItem
	for rows.Next() {
		var item db.BookingItem
		if err := rows.Scan(&item.ID, &item.BookingID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("scan booking item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *BookingRepository) ListByUser(userID int) ([]db.Booking, error) {
	rows, err := r.DB.Query(`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bookings by user: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// UpdateStatus is a guarded transition: it only fires when the row is still
// in the expected state, so concurrent updates cannot overwrite each other.
func (r *BookingRepository) UpdateStatus(id int, from, to, paymentStatus string) error {
	result, err := r.DB.Exec(`
		UPDATE bookings SET status = $3, payment_status = $4, updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to, paymentStatus)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBadStatusChange
	}
	return nil
}

// MarkPaidBySession moves a pending grooming or hostel booking to paid.
func (r *BookingRepository) MarkPaidBySession(sessionID, paymentIntentID string) error {
	result, err := r.DB.Exec(`
		UPDATE bookings
		SET status = 'paid', payment_status = 'succeeded',
		    stripe_payment_intent_id = $2, updated_at = now()
		WHERE stripe_session_id = $1 AND status = 'pending'`, sessionID, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark booking paid: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBookingNotPending
	}
	return nil
}

// MarkFailedRefundPending records that payment was captured but the booking
// could not be honored, so the money must go back.
func (r *BookingRepository) MarkFailedRefundPending(id int, paymentIntentID string) error {
	_, err := r.DB.Exec(`
		UPDATE bookings
		SET status = 'failed', payment_status = 'refund_pending',
		    stripe_payment_intent_id = $2, updated_at = now()
		WHERE id = $1`, id, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark booking failed: %w", err)
	}
	return nil
}

func (r *BookingRepository) MarkRefundedByPaymentIntent(paymentIntentID string) error {
	_, err := r.DB.Exec(`
		UPDATE bookings
		SET payment_status = 'refunded', updated_at = now()
		WHERE stripe_payment_intent_id = $1`, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark booking refunded: %w", err)
	}
	return nil
}

// ListAdmin filters bookings for the management panel.
func (r *BookingRepository) ListAdmin(date, kind, status string) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if date != "" {
		query += fmt.Sprintf(" AND DATE(created_at) = $%d", idx)
		args = append(args, date)
		idx++
	}
	if kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, kind)
		idx++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query admin bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListVaccinationsForDay returns paid vaccination bookings whose slot falls
// on the given day, for the doctor panel.
func (r *BookingRepository) ListVaccinationsForDay(day time.Time) ([]db.Booking, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	rows, err := r.DB.Query(`
		SELECT `+prefixedBookingColumns("b")+`
		FROM bookings b
		JOIN booking_slots s ON s.id = b.slot_id
		WHERE b.kind = 'vaccination' AND b.status IN ('paid', 'completed')
		  AND s.starts_at >= $1 AND s.starts_at < $2
		ORDER BY s.starts_at`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query vaccinations for day: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]db.Booking, error) {
	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		err := rows.Scan(
			&b.ID, &b.Code, &b.Kind, &b.UserID, &b.SlotID,
			&b.UserName, &b.UserEmail, &b.UserPhone, &b.PetName, &b.PetSpecies, &b.Address,
			&b.StartDate, &b.EndDate, &b.Amount, &b.Currency, &b.Status, &b.PaymentStatus,
			&b.StripeSessionID, &b.StripePaymentIntentID, &b.CreatedAt, &b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func prefixedBookingColumns(alias string) string {
	return alias + `.id, ` + alias + `.code, ` + alias + `.kind, ` + alias + `.user_id, ` + alias + `.slot_id,
	` + alias + `.user_name, ` + alias + `.user_email, ` + alias + `.user_phone, ` + alias + `.pet_name, ` + alias + `.pet_species, ` + alias + `.address,
	` + alias + `.start_date, ` + alias + `.end_date, ` + alias + `.amount, ` + alias + `.currency, ` + alias + `.status, ` + alias + `.payment_status,
	` + alias + `.stripe_session_id, ` + alias + `.stripe_payment_intent_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}
