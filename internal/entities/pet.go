package entities

import "time"

type PetRequest struct {
	Name      string     `json:"name" validate:"required,max=120"`
	Species   string     `json:"species" validate:"required,max=60"`
	Breed     string     `json:"breed" validate:"max=120"`
	BirthDate *time.Time `json:"birth_date"`
}

type ReminderRequest struct {
	PetID       int       `json:"pet_id" validate:"required"`
	VaccineName string    `json:"vaccine_name" validate:"required,max=120"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}
