package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"petcare/internal/db"
	"petcare/internal/entities"
	"petcare/internal/repository"
)

var (
	ErrServiceInactive = errors.New("service is not available")
	ErrWrongKind       = errors.New("service has the wrong kind")
)

const defaultCurrency = "usd"

// BookingService drives the three booking flows. A booking is created
// pending together with its hosted checkout session; the Stripe webhook
// moves it forward. Valid transitions are pending→paid→completed,
// pending→failed/expired and paid→canceled; every move is a guarded
// compare-and-set in the repository, so an illegal or concurrent transition
// simply does not fire.
type BookingService struct {
	bookings *repository.BookingRepository
	slots    *repository.SlotRepository
	pets     *repository.PetRepository
	users    *repository.UserRepository
	services *repository.ServiceRepository
	stripe   *StripeService
	sender   *SenderService
}

func NewBookingService(
	bookings *repository.BookingRepository,
	slots *repository.SlotRepository,
	pets *repository.PetRepository,
	users *repository.UserRepository,
	services *repository.ServiceRepository,
	stripe *StripeService,
	sender *SenderService,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		slots:    slots,
		pets:     pets,
		users:    users,
		services: services,
		stripe:   stripe,
		sender:   sender,
	}
}

func newBookingCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// ListServices returns the active care services of a kind so the booking
// UI can show prices before checkout.
func (s *BookingService) ListServices(kind string) ([]db.CareService, error) {
	return s.services.List(kind, true)
}

// ListOpenSlots returns claimable future slots for the booking UI.
func (s *BookingService) ListOpenSlots() ([]entities.SlotResponse, error) {
	slots, err := s.slots.ListOpen(time.Now())
	if err != nil {
		return nil, err
	}
	out := make([]entities.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, entities.SlotResponse{ID: slot.ID, StartsAt: slot.StartsAt})
	}
	return out, nil
}

// CreateVaccinationBooking validates the slot is still open, prices the
// vaccines, opens a checkout session and stores the booking pending. The
// slot is NOT claimed here: payment runs first, the claim happens in the
// webhook once the gateway reports success.
func (s *BookingService) CreateVaccinationBooking(userID int, req entities.VaccinationBookingRequest) (*entities.CheckoutResponse, error) {
	slot, err := s.slots.GetByID(req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Claimed {
		return nil, repository.ErrSlotTaken
	}
	if slot.StartsAt.Before(time.Now()) {
		return nil, repository.ErrSlotTaken
	}

	booking, items, err := s.buildBooking(userID, req.PetID, db.KindVaccination, req.VaccineIDs)
	if err != nil {
		return nil, err
	}
	booking.SlotID = &req.SlotID
	booking.Address = req.Address

	description := fmt.Sprintf("Home vaccination visit %s", slot.StartsAt.Format("02 Jan 15:04"))
	return s.checkoutAndStore(booking, items, description)
}

func (s *BookingService) CreateGroomingBooking(userID int, req entities.GroomingBookingRequest) (*entities.CheckoutResponse, error) {
	booking, items, err := s.buildBooking(userID, req.PetID, db.KindGrooming, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	date := req.Date
	booking.StartDate = &date
	booking.Address = req.Address

	description := fmt.Sprintf("Grooming appointment %s", req.Date.Format("02 Jan 15:04"))
	return s.checkoutAndStore(booking, items, description)
}

func (s *BookingService) CreateHostelBooking(userID int, req entities.HostelBookingRequest) (*entities.CheckoutResponse, error) {
	booking, items, err := s.buildBooking(userID, req.PetID, db.KindHostel, []int{req.ServiceID})
	if err != nil {
		return nil, err
	}
	start, end := req.StartDate, req.EndDate
	booking.StartDate = &start
	booking.EndDate = &end

	// Hostel stays are priced per night.
	nights := int(end.Sub(start).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	booking.Amount *= nights
	for i := range items {
		items[i].Price *= nights
	}

	description := fmt.Sprintf("Pet hostel stay %s - %s", start.Format("02 Jan"), end.Format("02 Jan"))
	return s.checkoutAndStore(booking, items, description)
}

// buildBooking loads the customer, the pet and the priced services, and
// assembles the denormalized pending record.
func (s *BookingService) buildBooking(userID, petID int, kind string, serviceIDs []int) (*db.Booking, []db.BookingItem, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}
	pet, err := s.pets.GetByID(petID, userID)
	if err != nil {
		return nil, nil, err
	}

	services, err := s.services.GetByIDs(serviceIDs)
	if err != nil {
		return nil, nil, err
	}

	var amount int
	var items []db.BookingItem
	for _, id := range serviceIDs {
		svc, ok := services[id]
		if !ok {
			return nil, nil, repository.ErrServiceNotFound
		}
		if !svc.Active {
			return nil, nil, ErrServiceInactive
		}
		if svc.Kind != kind {
			return nil, nil, ErrWrongKind
		}
		amount += svc.Price
		items = append(items, db.BookingItem{Name: svc.Name, Price: svc.Price})
	}

	booking := &db.Booking{
		Code:          newBookingCode(),
		Kind:          kind,
		UserID:        userID,
		UserName:      user.Name,
		UserEmail:     user.Email,
		UserPhone:     user.Phone,
		PetName:       pet.Name,
		PetSpecies:    pet.Species,
		Amount:        amount,
		Currency:      defaultCurrency,
		Status:        db.StatusPending,
		PaymentStatus: db.PaymentPending,
	}
	return booking, items, nil
}

func (s *BookingService) checkoutAndStore(booking *db.Booking, items []db.BookingItem, description string) (*entities.CheckoutResponse, error) {
	url, sessionID, err := s.stripe.CreateCheckoutSession(int64(booking.Amount), booking.Currency, description, booking.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	booking.StripeSessionID = sessionID

	if err := s.bookings.Create(booking, items); err != nil {
		return nil, err
	}

	return &entities.CheckoutResponse{
		Code:      booking.Code,
		URL:       url,
		SessionID: sessionID,
	}, nil
}

// ConfirmServicePayment moves a pending grooming or hostel booking to paid
// when the gateway reports success. Idempotent per session: a second
// delivery finds the booking no longer pending, does nothing and reports
// moved false so the caller does not notify twice.
func (s *BookingService) ConfirmServicePayment(sessionID, paymentIntentID string) (*db.Booking, bool, error) {
	moved := true
	err := s.bookings.MarkPaidBySession(sessionID, paymentIntentID)
	if errors.Is(err, repository.ErrBookingNotPending) {
		moved = false
	} else if err != nil {
		return nil, false, err
	}
	booking, err := s.bookings.GetBySessionID(sessionID)
	if err != nil {
		return nil, false, err
	}
	return booking, moved, nil
}

// FindBySession looks a booking up by its checkout session. The webhook
// uses it to tell vaccination bookings from the other kinds before
// confirming payment.
func (s *BookingService) FindBySession(sessionID string) (*db.Booking, error) {
	return s.bookings.GetBySessionID(sessionID)
}

// NotifyBooked sends the confirmation SMS and email for a paid booking.
func (s *BookingService) NotifyBooked(booking *db.Booking) {
	var slotStartsAt *time.Time
	if booking.SlotID != nil {
		if slot, err := s.slots.GetByID(*booking.SlotID); err == nil {
			slotStartsAt = &slot.StartsAt
		} else {
			log.Printf("booking %s: could not load slot %d for notification: %v", booking.Code, *booking.SlotID, err)
		}
	}
	s.sender.SendBookingSMS(*booking, slotStartsAt)
	s.sender.SendBookingEmail(*booking, slotStartsAt)
}

// Confirmation is the awaited post-payment reconciliation: the client polls
// it until the booking reaches a terminal state instead of trusting its own
// gateway success callback.
func (s *BookingService) Confirmation(sessionID string) (*entities.BookingConfirmation, error) {
	booking, err := s.bookings.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}

	conf := &entities.BookingConfirmation{
		Code:          booking.Code,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
	}
	switch booking.Status {
	case db.StatusPaid, db.StatusCompleted:
		conf.Terminal = true
	case db.StatusFailed:
		conf.Terminal = true
		conf.Message = "The selected slot was no longer available. Your payment is being refunded; please pick a new slot or contact support."
	case db.StatusExpired, db.StatusCanceled:
		conf.Terminal = true
	}
	return conf, nil
}

func (s *BookingService) GetByCode(code string, userID int) (*entities.BookingResponse, error) {
	booking, err := s.bookings.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, repository.ErrBookingNotFound
	}
	return s.toResponse(booking, true)
}

func (s *BookingService) ListByUser(userID int) ([]entities.BookingResponse, error) {
	bookings, err := s.bookings.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		resp, err := s.toResponse(&bookings[i], false)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// MarkRefunded records a gateway-side refund against whichever booking owns
// the payment intent.
func (s *BookingService) MarkRefunded(paymentIntentID string) error {
	return s.bookings.MarkRefundedByPaymentIntent(paymentIntentID)
}

func (s *BookingService) toResponse(booking *db.Booking, withItems bool) (*entities.BookingResponse, error) {
	resp := &entities.BookingResponse{
		Code:          booking.Code,
		Kind:          booking.Kind,
		PetName:       booking.PetName,
		PetSpecies:    booking.PetSpecies,
		UserName:      booking.UserName,
		UserPhone:     booking.UserPhone,
		UserEmail:     booking.UserEmail,
		Address:       booking.Address,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		Amount:        booking.Amount,
		Currency:      booking.Currency,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		CreatedAt:     booking.CreatedAt,
	}
	if booking.SlotID != nil {
		if slot, err := s.slots.GetByID(*booking.SlotID); err == nil {
			resp.SlotStartsAt = &slot.StartsAt
		}
	}
	if withItems {
		items, err := s.bookings.GetItems(booking.ID)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			resp.Items = append(resp.Items, entities.BookingItemResponse{Name: item.Name, Price: item.Price})
		}
	}
	return resp, nil
}
