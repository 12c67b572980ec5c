package entities

import "time"

type VaccinationBookingRequest struct {
	SlotID     int    `json:"slot_id" validate:"required"`
	PetID      int    `json:"pet_id" validate:"required"`
	Address    string `json:"address" validate:"required,max=300"`
	VaccineIDs []int  `json:"vaccine_ids" validate:"required,min=1"`
}

type GroomingBookingRequest struct {
	PetID      int       `json:"pet_id" validate:"required"`
	ServiceIDs []int     `json:"service_ids" validate:"required,min=1"`
	Date       time.Time `json:"date" validate:"required"`
	Address    string    `json:"address" validate:"max=300"`
}

type HostelBookingRequest struct {
	PetID     int       `json:"pet_id" validate:"required"`
	ServiceID int       `json:"service_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
}

// CheckoutResponse sends the client to the hosted payment page.
type CheckoutResponse struct {
	Code      string `json:"code"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type BookingItemResponse struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type BookingResponse struct {
	Code          string                `json:"code"`
	Kind          string                `json:"kind"`
	PetName       string                `json:"pet_name"`
	PetSpecies    string                `json:"pet_species"`
	UserName      string                `json:"user_name"`
	UserPhone     string                `json:"user_phone"`
	UserEmail     string                `json:"user_email"`
	Address       string                `json:"address,omitempty"`
	SlotStartsAt  *time.Time            `json:"slot_starts_at,omitempty"`
	StartDate     *time.Time            `json:"start_date,omitempty"`
	EndDate       *time.Time            `json:"end_date,omitempty"`
	Items         []BookingItemResponse `json:"items,omitempty"`
	Amount        int                   `json:"amount"`
	Currency      string                `json:"currency"`
	Status        string                `json:"status"`
	PaymentStatus string                `json:"payment_status"`
	CreatedAt     time.Time             `json:"created_at"`
}

// BookingConfirmation is the post-payment reconciliation result the client
// polls for a terminal state instead of trusting its own success callback.
type BookingConfirmation struct {
	Code          string `json:"code"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Terminal      bool   `json:"terminal"`
	Message       string `json:"message,omitempty"`
}

type SlotResponse struct {
	ID       int       `json:"id"`
	StartsAt time.Time `json:"starts_at"`
}

type AdminSlotResponse struct {
	ID        int       `json:"id"`
	StartsAt  time.Time `json:"starts_at"`
	Claimed   bool      `json:"claimed"`
	ClaimedBy *int      `json:"claimed_by,omitempty"`
	BookingID *int      `json:"booking_id,omitempty"`
}

type CreateSlotsRequest struct {
	StartTimes []time.Time `json:"start_times" validate:"required,min=1"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=paid completed canceled failed"`
}
