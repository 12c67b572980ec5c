package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"petcare/internal/auth"
	"petcare/internal/entities"
	"petcare/internal/repository"
	"petcare/internal/service"

	"github.com/gorilla/mux"
)

type BookingHandler struct {
	Service *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// ListOpenSlots is public so the booking page can show availability before
// the customer signs in.
func (h *BookingHandler) ListOpenSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.Service.ListOpenSlots()
	if err != nil {
		http.Error(w, "Could not list slots", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(slots)
}

// ListServices is public; it feeds the price list on the booking pages.
func (h *BookingHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.Service.ListServices(r.URL.Query().Get("kind"))
	if err != nil {
		http.Error(w, "Could not list services", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services)
}

func (h *BookingHandler) CreateVaccinationBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.VaccinationBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CreateVaccinationBooking(claims.UserID, req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *BookingHandler) CreateGroomingBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.GroomingBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CreateGroomingBooking(claims.UserID, req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *BookingHandler) CreateHostelBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req entities.HostelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}
	resp, err := h.Service.CreateHostelBooking(claims.UserID, req)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Confirmation lets the success page reconcile against the server instead
// of trusting its own redirect. Clients poll until terminal is true.
func (h *BookingHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	conf, err := h.Service.Confirmation(sessionID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(conf)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	code := mux.Vars(r)["code"]
	booking, err := h.Service.GetByCode(code, claims.UserID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(booking)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	bookings, err := h.Service.ListByUser(claims.UserID)
	if err != nil {
		http.Error(w, "Could not list bookings", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

func (h *BookingHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrSlotNotFound), errors.Is(err, repository.ErrPetNotFound), errors.Is(err, repository.ErrServiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, repository.ErrSlotTaken):
		http.Error(w, "Slot no longer available", http.StatusConflict)
	case errors.Is(err, service.ErrServiceInactive), errors.Is(err, service.ErrWrongKind):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Could not create booking", http.StatusInternalServerError)
	}
}
