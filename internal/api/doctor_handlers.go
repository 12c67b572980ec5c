package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"petcare/internal/repository"
	"petcare/internal/service"

	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	Service *service.DoctorService
}

func NewDoctorHandler(svc *service.DoctorService) *DoctorHandler {
	return &DoctorHandler{Service: svc}
}

// VisitsForDay lists the paid vaccination visits scheduled for a given day,
// today by default.
func (h *DoctorHandler) VisitsForDay(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = t
	}
	visits, err := h.Service.VisitsForDay(day)
	if err != nil {
		http.Error(w, "Could not list visits", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(visits)
}

func (h *DoctorHandler) CompleteVisit(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if err := h.Service.CompleteVisit(code); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			http.Error(w, "Booking not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrBadStatusChange):
			http.Error(w, "Visit is not in a completable state", http.StatusConflict)
		default:
			http.Error(w, "Could not complete visit", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Visit completed"})
}
