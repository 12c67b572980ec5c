package entities

// BookingEmailData feeds the booking confirmation email template.
type BookingEmailData struct {
	UserName        string
	BookingCode     string
	Kind            string
	PetName         string
	WhenFormatted   string
	AmountFormatted string
	Status          string
	CurrentYear     int
}
