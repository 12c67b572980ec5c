package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"petcare/internal/db"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotTaken    = errors.New("slot no longer available")
	ErrSlotOpen     = errors.New("slot is not claimed")
)

type SlotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(database *sql.DB) *SlotRepository {
	return &SlotRepository{DB: database}
}

func (r *SlotRepository) CreateSlots(startTimes []time.Time) ([]db.BookingSlot, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create slots: %w", err)
	}
	defer tx.Rollback()

	var slots []db.BookingSlot
	for _, ts := range startTimes {
		var s db.BookingSlot
		err := tx.QueryRow(`
			INSERT INTO booking_slots (starts_at, created_at, updated_at)
			VALUES ($1, now(), now())
			ON CONFLICT (starts_at) DO NOTHING
			RETURNING id, starts_at, claimed, claimed_by, booking_id, created_at, updated_at`, ts).
			Scan(&s.ID, &s.StartsAt, &s.Claimed, &s.ClaimedBy, &s.BookingID, &s.CreatedAt, &s.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Slot at this time already exists, skip it.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert slot at %s: %w", ts, err)
		}
		slots = append(slots, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create slots: %w", err)
	}
	return slots, nil
}

// ListOpen returns unclaimed future slots. A slot whose claim committed is
// never included, even when read immediately afterwards.
func (r *SlotRepository) ListOpen(after time.Time) ([]db.BookingSlot, error) {
	rows, err := r.DB.Query(`
		SELECT id, starts_at, claimed, claimed_by, booking_id, created_at, updated_at
		FROM booking_slots
		WHERE NOT claimed AND starts_at > $1
		ORDER BY starts_at`, after)
	if err != nil {
		return nil, fmt.Errorf("query open slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *SlotRepository) ListAll(from, to time.Time) ([]db.BookingSlot, error) {
	rows, err := r.DB.Query(`
		SELECT id, starts_at, claimed, claimed_by, booking_id, created_at, updated_at
		FROM booking_slots
		WHERE starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *SlotRepository) GetByID(id int) (*db.BookingSlot, error) {
	var s db.BookingSlot
	err := r.DB.QueryRow(`
		SELECT id, starts_at, claimed, claimed_by, booking_id, created_at, updated_at
		FROM booking_slots WHERE id = $1`, id).
		Scan(&s.ID, &s.StartsAt, &s.Claimed, &s.ClaimedBy, &s.BookingID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("query slot %d: %w", id, err)
	}
	return &s, nil
}

// ClaimForBooking binds the slot to the customer and flips the paid booking
// state in one transaction. The claim is a compare-and-set on claimed=false,
// so of any number of concurrent attempts exactly one commits; the rest see
// ErrSlotTaken and nothing they wrote survives.
func (r *SlotRepository) ClaimForBooking(slotID, userID, bookingID int, paymentIntentID string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE booking_slots
		SET claimed = TRUE, claimed_by = $2, booking_id = $3, updated_at = now()
		WHERE id = $1 AND claimed = FALSE`, slotID, userID, bookingID)
	if err != nil {
		return fmt.Errorf("claim slot %d: %w", slotID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		var exists bool
		if err := tx.QueryRow(`SELECT TRUE FROM booking_slots WHERE id = $1`, slotID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("check slot %d: %w", slotID, err)
		}
		return ErrSlotTaken
	}

	result, err = tx.Exec(`
		UPDATE bookings
		SET status = 'paid', payment_status = 'succeeded',
		    slot_id = $2, stripe_payment_intent_id = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`, bookingID, slotID, paymentIntentID)
	if err != nil {
		return fmt.Errorf("mark booking %d paid: %w", bookingID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Booking left pending state underneath us; abort so the slot claim
		// does not commit either.
		return ErrBookingNotPending
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

// Free reverts a claim. This is the only path that sets claimed back to
// false, and it is reachable from admin handlers only.
func (r *SlotRepository) Free(id int) error {
	result, err := r.DB.Exec(`
		UPDATE booking_slots
		SET claimed = FALSE, claimed_by = NULL, booking_id = NULL, updated_at = now()
		WHERE id = $1 AND claimed = TRUE`, id)
	if err != nil {
		return fmt.Errorf("free slot %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRow(`SELECT TRUE FROM booking_slots WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("check slot %d: %w", id, err)
		}
		return ErrSlotOpen
	}
	return nil
}

func (r *SlotRepository) Delete(id int) error {
	result, err := r.DB.Exec(`DELETE FROM booking_slots WHERE id = $1 AND claimed = FALSE`, id)
	if err != nil {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func scanSlots(rows *sql.Rows) ([]db.BookingSlot, error) {
	var slots []db.BookingSlot
	for rows.Next() {
		var s db.BookingSlot
		if err := rows.Scan(&s.ID, &s.StartsAt, &s.Claimed, &s.ClaimedBy, &s.BookingID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
