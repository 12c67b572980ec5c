package repository

import (
	"database/sql"
	"fmt"
	"time"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// ExpirePendingBookingsOlderThan expires bookings whose checkout was never
// completed. Only pending rows move, so a payment that lands concurrently
// keeps its paid state.
func (r *JobRepository) ExpirePendingBookingsOlderThan(before time.Time) (int64, error) {
	result, err := r.DB.Exec(`
		UPDATE bookings SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}
	return rowsAffected(result)
}

func (r *JobRepository) ExpirePendingOrdersOlderThan(before time.Time) (int64, error) {
	result, err := r.DB.Exec(`
		UPDATE orders SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("expire pending orders: %w", err)
	}
	return rowsAffected(result)
}

// CompletePastPaidBookings marks paid grooming and hostel bookings whose
// service window ended as completed. Vaccination bookings are completed by
// the doctor instead.
func (r *JobRepository) CompletePastPaidBookings() (int64, error) {
	result, err := r.DB.Exec(`
		UPDATE bookings SET status = 'completed', updated_at = now()
		WHERE status = 'paid' AND kind IN ('grooming', 'hostel')
		  AND COALESCE(end_date, start_date) < now()`)
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return rowsAffected(result)
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
