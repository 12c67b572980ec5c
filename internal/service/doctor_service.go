package service

import (
	"time"

	"petcare/internal/db"
	"petcare/internal/repository"
)

// DoctorService backs the veterinary provider panel.
type DoctorService struct {
	bookings *repository.BookingRepository
}

func NewDoctorService(bookings *repository.BookingRepository) *DoctorService {
	return &DoctorService{bookings: bookings}
}

// VisitsForDay lists the paid vaccination visits scheduled on the given day.
func (s *DoctorService) VisitsForDay(day time.Time) ([]db.Booking, error) {
	return s.bookings.ListVaccinationsForDay(day)
}

// CompleteVisit marks a paid vaccination booking as done.
func (s *DoctorService) CompleteVisit(code string) error {
	booking, err := s.bookings.GetByCode(code)
	if err != nil {
		return err
	}
	return s.bookings.UpdateStatus(booking.ID, db.StatusPaid, db.StatusCompleted, booking.PaymentStatus)
}
