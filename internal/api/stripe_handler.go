package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"petcare/internal/db"
	"petcare/internal/repository"
	"petcare/internal/service"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeWebhookHandler settles checkout sessions. A completed session
// belongs to exactly one booking or order; vaccination bookings go through
// the slot claim, everything else is a plain pending-to-paid move.
type StripeWebhookHandler struct {
	StripeSecret   string
	reservationSvc *service.ReservationService
	bookingService *service.BookingService
	shopService    *service.ShopService
}

func NewStripeWebhookHandler(stripeSecret string, reservationSvc *service.ReservationService, bookingService *service.BookingService, shopService *service.ShopService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret:   stripeSecret,
		reservationSvc: reservationSvc,
		bookingService: bookingService,
		shopService:    shopService,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			log.Printf("No session ID in checkout.session.completed")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		paymentIntentID := ""
		if sess.PaymentIntent != nil {
			paymentIntentID = sess.PaymentIntent.ID
		}
		if err := h.settleSession(r, sess.ID, paymentIntentID); err != nil {
			log.Printf("Error settling session %s: %v", sess.ID, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			log.Printf("Error parsing charge: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			err := h.bookingService.MarkRefunded(charge.PaymentIntent.ID)
			if err != nil && !errors.Is(err, repository.ErrBookingNotFound) {
				log.Printf("Error marking refund for %s: %v", charge.PaymentIntent.ID, err)
			}
		}
	default:
		log.Printf("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeWebhookHandler) settleSession(r *http.Request, sessionID, paymentIntentID string) error {
	booking, err := h.bookingService.FindBySession(sessionID)
	switch {
	case err == nil:
		if booking.Kind == db.KindVaccination {
			result, err := h.reservationSvc.ConfirmVaccinationPayment(r.Context(), sessionID, paymentIntentID)
			if err != nil {
				return err
			}
			if result.NewlyClaimed {
				h.bookingService.NotifyBooked(result.Booking)
			}
			return nil
		}
		paid, moved, err := h.bookingService.ConfirmServicePayment(sessionID, paymentIntentID)
		if err != nil {
			return err
		}
		if moved {
			h.bookingService.NotifyBooked(paid)
		}
		return nil

	case errors.Is(err, repository.ErrBookingNotFound):
		_, err := h.shopService.ConfirmOrderPayment(sessionID, paymentIntentID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			log.Printf("Session %s matches no booking or order", sessionID)
			return nil
		}
		return err

	default:
		return err
	}
}
