package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"petcare/internal/db"
	"petcare/internal/redislock"
	"petcare/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSlotStore backs the claim with an in-memory compare-and-set so
// concurrent confirmations race the same way they would against Postgres.
type fakeSlotStore struct {
	mu        sync.Mutex
	claimed   bool
	claimedBy int
	claims    int
	missing   bool
}

func (f *fakeSlotStore) GetByID(id int) (*db.BookingSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return nil, repository.ErrSlotNotFound
	}
	return &db.BookingSlot{ID: id, Claimed: f.claimed}, nil
}

func (f *fakeSlotStore) ClaimForBooking(slotID, userID, bookingID int, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return repository.ErrSlotNotFound
	}
	if f.claimed {
		return repository.ErrSlotTaken
	}
	f.claimed = true
	f.claimedBy = userID
	f.claims++
	return nil
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*db.Booking
	failed   []int
}

func newFakeBookingStore(bookings ...*db.Booking) *fakeBookingStore {
	m := make(map[string]*db.Booking)
	for _, b := range bookings {
		m[b.StripeSessionID] = b
	}
	return &fakeBookingStore{bookings: m}
}

func (f *fakeBookingStore) GetBySessionID(sessionID string) (*db.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[sessionID]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingStore) MarkFailedRefundPending(id int, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, id)
	for _, b := range f.bookings {
		if b.ID == id {
			b.Status = db.StatusFailed
			b.PaymentStatus = db.PaymentRefundPending
			b.StripePaymentIntentID = paymentIntentID
		}
	}
	return nil
}

type fakeRefunder struct {
	mu       sync.Mutex
	refunded []string
	err      error
}

func (f *fakeRefunder) RefundPaymentIntent(paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.refunded = append(f.refunded, paymentIntentID)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (f *fakeNotifier) SendRefundNotice(booking db.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, booking.Code)
}

// passLocker always grants the lock.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, slotID int, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// busyLocker always reports the lock as held elsewhere.
type busyLocker struct{}

func (busyLocker) WithSlotLock(ctx context.Context, slotID int, fn func(ctx context.Context) error) error {
	return redislock.ErrLockNotAcquired
}

func pendingBooking(id int, session string, slotID int) *db.Booking {
	sid := slotID
	return &db.Booking{
		ID:              id,
		Code:            fmt.Sprintf("BOOK%d", id),
		Kind:            db.KindVaccination,
		UserID:          id,
		SlotID:          &sid,
		Status:          db.StatusPending,
		PaymentStatus:   db.PaymentPending,
		StripeSessionID: session,
	}
}

func TestConfirmVaccinationPaymentClaimsSlot(t *testing.T) {
	slots := &fakeSlotStore{}
	bookings := newFakeBookingStore(pendingBooking(1, "sess_1", 10))
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	result, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_1", "pi_1")
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.True(t, result.NewlyClaimed)
	assert.False(t, result.SlotLost)
	assert.True(t, slots.claimed)
	assert.Equal(t, 1, slots.claimedBy)
	assert.Empty(t, refunds.refunded)
	assert.Empty(t, notifier.notices)
}

func TestConfirmVaccinationPaymentExactlyOneWinner(t *testing.T) {
	const contenders = 20

	slots := &fakeSlotStore{}
	all := make([]*db.Booking, 0, contenders)
	for i := 1; i <= contenders; i++ {
		all = append(all, pendingBooking(i, fmt.Sprintf("sess_%d", i), 10))
	}
	bookings := newFakeBookingStore(all...)
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	var wg sync.WaitGroup
	results := make([]*ClaimResult, contenders)
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ConfirmVaccinationPayment(context.Background(), fmt.Sprintf("sess_%d", i+1), fmt.Sprintf("pi_%d", i+1))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "confirmation %d", i+1)
	}

	winners := 0
	newlyClaimed := 0
	losers := 0
	for _, result := range results {
		if result.Claimed {
			winners++
		}
		if result.NewlyClaimed {
			newlyClaimed++
		}
		if result.SlotLost {
			losers++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, newlyClaimed)
	assert.Equal(t, contenders-1, losers)
	assert.Equal(t, 1, slots.claims)

	// Every loser got a refund and a notice.
	assert.Len(t, refunds.refunded, contenders-1)
	assert.Len(t, notifier.notices, contenders-1)
}

func TestConfirmVaccinationPaymentIdempotentPerSession(t *testing.T) {
	slots := &fakeSlotStore{}
	bookings := newFakeBookingStore(pendingBooking(1, "sess_1", 10))
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	first, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_1", "pi_1")
	require.NoError(t, err)
	require.True(t, first.Claimed)
	require.True(t, first.NewlyClaimed)

	// The winning claim flipped the stored booking out of pending.
	bookings.mu.Lock()
	bookings.bookings["sess_1"].Status = db.StatusPaid
	bookings.mu.Unlock()

	second, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_1", "pi_1")
	require.NoError(t, err)
	assert.True(t, second.Claimed)
	assert.False(t, second.NewlyClaimed, "redelivery must not re-trigger the booked notification")
	assert.Equal(t, 1, slots.claims, "redelivery must not claim again")
	assert.Empty(t, refunds.refunded)
}

func TestConfirmVaccinationPaymentLostSlotRefunds(t *testing.T) {
	slots := &fakeSlotStore{claimed: true}
	bookings := newFakeBookingStore(pendingBooking(7, "sess_7", 10))
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	result, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_7", "pi_7")
	require.NoError(t, err)
	assert.False(t, result.Claimed)
	assert.True(t, result.SlotLost)
	assert.Equal(t, db.StatusFailed, result.Booking.Status)
	assert.Equal(t, db.PaymentRefundPending, result.Booking.PaymentStatus)
	assert.Equal(t, []int{7}, bookings.failed)
	assert.Equal(t, []string{"pi_7"}, refunds.refunded)
	assert.Equal(t, []string{"BOOK7"}, notifier.notices)
}

func TestConfirmVaccinationPaymentRefundFailureStillReported(t *testing.T) {
	slots := &fakeSlotStore{claimed: true}
	bookings := newFakeBookingStore(pendingBooking(3, "sess_3", 10))
	refunds := &fakeRefunder{err: fmt.Errorf("gateway down")}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	result, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_3", "pi_3")
	require.NoError(t, err)
	assert.True(t, result.SlotLost)
	// Refund stays pending for support to reconcile; the customer is told.
	assert.Equal(t, db.PaymentRefundPending, result.Booking.PaymentStatus)
	assert.Equal(t, []string{"BOOK3"}, notifier.notices)
}

func TestConfirmVaccinationPaymentClaimsWithoutLock(t *testing.T) {
	slots := &fakeSlotStore{}
	bookings := newFakeBookingStore(pendingBooking(1, "sess_1", 10))
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, busyLocker{})

	// The lock is contention shedding only; a held lock must not block the
	// database claim.
	result, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_1", "pi_1")
	require.NoError(t, err)
	assert.True(t, result.Claimed)
	assert.Equal(t, 1, slots.claims)
}

func TestConfirmVaccinationPaymentMissingSlotCompensates(t *testing.T) {
	slots := &fakeSlotStore{missing: true}
	bookings := newFakeBookingStore(pendingBooking(5, "sess_5", 10))
	refunds := &fakeRefunder{}
	notifier := &fakeNotifier{}
	svc := NewReservationService(slots, bookings, refunds, notifier, passLocker{})

	result, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_5", "pi_5")
	require.NoError(t, err)
	assert.True(t, result.SlotLost)
	assert.Equal(t, []string{"pi_5"}, refunds.refunded)
}

func TestConfirmVaccinationPaymentUnknownSession(t *testing.T) {
	svc := NewReservationService(&fakeSlotStore{}, newFakeBookingStore(), &fakeRefunder{}, &fakeNotifier{}, passLocker{})

	_, err := svc.ConfirmVaccinationPayment(context.Background(), "sess_missing", "pi_x")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}
