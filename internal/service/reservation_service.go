package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"petcare/internal/db"
	"petcare/internal/redislock"
	"petcare/internal/repository"
)

// SlotStore is the slice of the slot repository the coordinator needs.
type SlotStore interface {
	GetByID(id int) (*db.BookingSlot, error)
	ClaimForBooking(slotID, userID, bookingID int, paymentIntentID string) error
}

// BookingStore is the slice of the booking repository the coordinator needs.
type BookingStore interface {
	GetBySessionID(sessionID string) (*db.Booking, error)
	MarkFailedRefundPending(id int, paymentIntentID string) error
}

// Refunder returns a captured payment when the booking cannot be honored.
type Refunder interface {
	RefundPaymentIntent(paymentIntentID string) error
}

// RefundNotifier tells the customer their payment is coming back.
type RefundNotifier interface {
	SendRefundNotice(booking db.Booking)
}

// ReservationService exclusively binds a vaccination slot to the customer
// whose payment just succeeded. The slot claim and the booking's paid state
// commit in one database transaction; concurrent attempts on the same slot
// serialize there and exactly one wins.
type ReservationService struct {
	slots    SlotStore
	bookings BookingStore
	refunds  Refunder
	notifier RefundNotifier
	locker   redislock.Locker
}

func NewReservationService(slots SlotStore, bookings BookingStore, refunds Refunder, notifier RefundNotifier, locker redislock.Locker) *ReservationService {
	return &ReservationService{
		slots:    slots,
		bookings: bookings,
		refunds:  refunds,
		notifier: notifier,
		locker:   locker,
	}
}

// ClaimResult reports what the coordinator did for one payment confirmation.
// Claimed says the booking holds its slot; NewlyClaimed is set only on the
// call whose claim transaction committed, so one-time side effects such as
// the booked notification must key off NewlyClaimed, not Claimed.
type ClaimResult struct {
	Booking      *db.Booking
	Claimed      bool
	NewlyClaimed bool
	SlotLost     bool
}

// ConfirmVaccinationPayment is invoked from the payment gateway's success
// webhook. It is idempotent per checkout session: a booking that already
// left the pending state is a no-op, so duplicate webhook deliveries and
// client retries cannot double-claim a slot or double-create a record.
func (s *ReservationService) ConfirmVaccinationPayment(ctx context.Context, sessionID, paymentIntentID string) (*ClaimResult, error) {
	booking, err := s.bookings.GetBySessionID(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load booking for session: %w", err)
	}

	if booking.Status != db.StatusPending {
		return &ClaimResult{Booking: booking, Claimed: booking.Status == db.StatusPaid || booking.Status == db.StatusCompleted}, nil
	}
	if booking.SlotID == nil {
		return nil, fmt.Errorf("vaccination booking %s has no slot", booking.Code)
	}
	slotID := *booking.SlotID

	claim := func(context.Context) error {
		return s.slots.ClaimForBooking(slotID, booking.UserID, booking.ID, paymentIntentID)
	}

	err = s.locker.WithSlotLock(ctx, slotID, claim)
	if errors.Is(err, redislock.ErrLockNotAcquired) {
		// Another confirmation holds the lock. The database compare-and-set
		// still decides the winner, so run the claim anyway.
		err = claim(ctx)
	}

	switch {
	case err == nil:
		booking, reloadErr := s.bookings.GetBySessionID(sessionID)
		if reloadErr != nil {
			return nil, fmt.Errorf("reload booking after claim: %w", reloadErr)
		}
		return &ClaimResult{Booking: booking, Claimed: true, NewlyClaimed: true}, nil

	case errors.Is(err, repository.ErrSlotTaken), errors.Is(err, repository.ErrSlotNotFound):
		return s.handleLostSlot(booking, paymentIntentID, err)

	case errors.Is(err, repository.ErrBookingNotPending):
		// Raced with ourselves: another delivery of the same event won.
		booking, reloadErr := s.bookings.GetBySessionID(sessionID)
		if reloadErr != nil {
			return nil, fmt.Errorf("reload booking: %w", reloadErr)
		}
		return &ClaimResult{Booking: booking, Claimed: booking.Status == db.StatusPaid}, nil

	default:
		return nil, fmt.Errorf("claim slot %d: %w", slotID, err)
	}
}

// handleLostSlot compensates a captured payment whose slot claim lost the
// race: the booking is marked failed, the payment refunded, and the customer
// told to pick a new slot. Money is never silently retained.
func (s *ReservationService) handleLostSlot(booking *db.Booking, paymentIntentID string, cause error) (*ClaimResult, error) {
	log.Printf("booking %s lost slot %d: %v", booking.Code, *booking.SlotID, cause)

	if err := s.bookings.MarkFailedRefundPending(booking.ID, paymentIntentID); err != nil {
		return nil, fmt.Errorf("mark booking failed: %w", err)
	}
	booking.Status = db.StatusFailed
	booking.PaymentStatus = db.PaymentRefundPending
	booking.StripePaymentIntentID = paymentIntentID

	if err := s.refunds.RefundPaymentIntent(paymentIntentID); err != nil {
		// Refund stays pending; support reconciles from the refund_pending
		// payment status.
		log.Printf("booking %s: refund of %s failed: %v", booking.Code, paymentIntentID, err)
	}

	s.notifier.SendRefundNotice(*booking)

	return &ClaimResult{Booking: booking, Claimed: false, SlotLost: true}, nil
}
