package db

import "time"

// Booking kinds.
const (
	KindVaccination = "vaccination"
	KindGrooming    = "grooming"
	KindHostel      = "hostel"
)

// Booking and order statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusFailed    = "failed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusExpired   = "expired"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

// Payment statuses.
const (
	PaymentPending       = "pending"
	PaymentSucceeded     = "succeeded"
	PaymentRefundPending = "refund_pending"
	PaymentRefunded      = "refunded"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleDoctor   = "doctor"
)

type User struct {
	ID        int
	Phone     string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Pet struct {
	ID        int
	UserID    int
	Name      string
	Species   string
	Breed     string
	BirthDate *time.Time
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Reminder struct {
	ID          int
	UserID      int
	PetID       int
	VaccineName string
	DueDate     time.Time
	Notified    bool
	CreatedAt   time.Time
}

// BookingSlot is a discrete home-visit vaccination time window. Once Claimed
// flips to true it stays true; only an explicit admin free resets it.
type BookingSlot struct {
	ID        int
	StartsAt  time.Time
	Claimed   bool
	ClaimedBy *int
	BookingID *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Booking struct {
	ID     int
	Code   string
	Kind   string
	UserID int
	SlotID *int

	// Denormalized customer and pet details, frozen at booking time.
	UserName   string
	UserEmail  string
	UserPhone  string
	PetName    string
	PetSpecies string
	Address    string

	// Grooming and hostel bookings carry their own dates instead of a slot.
	StartDate *time.Time
	EndDate   *time.Time

	Amount        int // cents
	Currency      string
	Status        string
	PaymentStatus string

	StripeSessionID       string
	StripePaymentIntentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type BookingItem struct {
	ID        int
	BookingID int
	Name      string
	Price     int
}

// CareService is an admin-managed service definition: a vaccine, a grooming
// package, or a hostel room type.
type CareService struct {
	ID          int
	Kind        string
	Name        string
	Description string
	Price       int
	Active      bool
}

type Category struct {
	ID   int
	Name string
}

type Product struct {
	ID          int
	CategoryID  int
	Name        string
	Description string
	Price       int
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID     int
	Code   string
	UserID int

	ShipName    string
	ShipPhone   string
	ShipAddress string

	Amount        int
	Currency      string
	Status        string
	PaymentStatus string

	StripeSessionID       string
	StripePaymentIntentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        int
	OrderID   int
	ProductID int
	Name      string
	UnitPrice int
	Quantity  int
}
