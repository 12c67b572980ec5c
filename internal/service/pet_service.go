package service

import (
	"petcare/internal/db"
	"petcare/internal/entities"
	"petcare/internal/repository"
)

type PetService struct {
	pets      *repository.PetRepository
	reminders *repository.ReminderRepository
}

func NewPetService(pets *repository.PetRepository, reminders *repository.ReminderRepository) *PetService {
	return &PetService{pets: pets, reminders: reminders}
}

func (s *PetService) Create(userID int, req entities.PetRequest) (*db.Pet, error) {
	pet := &db.Pet{
		UserID:    userID,
		Name:      req.Name,
		Species:   req.Species,
		Breed:     req.Breed,
		BirthDate: req.BirthDate,
	}
	if err := s.pets.Create(pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *PetService) Get(id, userID int) (*db.Pet, error) {
	return s.pets.GetByID(id, userID)
}

func (s *PetService) List(userID int) ([]db.Pet, error) {
	return s.pets.ListByUser(userID)
}

func (s *PetService) Update(id, userID int, req entities.PetRequest) (*db.Pet, error) {
	pet, err := s.pets.GetByID(id, userID)
	if err != nil {
		return nil, err
	}
	pet.Name = req.Name
	pet.Species = req.Species
	pet.Breed = req.Breed
	pet.BirthDate = req.BirthDate
	if err := s.pets.Update(pet); err != nil {
		return nil, err
	}
	return pet, nil
}

func (s *PetService) SetImage(id, userID int, imageURL string) error {
	return s.pets.SetImageURL(id, userID, imageURL)
}

func (s *PetService) Delete(id, userID int) error {
	return s.pets.Delete(id, userID)
}

func (s *PetService) CreateReminder(userID int, req entities.ReminderRequest) (*db.Reminder, error) {
	// The pet must belong to the caller.
	if _, err := s.pets.GetByID(req.PetID, userID); err != nil {
		return nil, err
	}
	reminder := &db.Reminder{
		UserID:      userID,
		PetID:       req.PetID,
		VaccineName: req.VaccineName,
		DueDate:     req.DueDate,
	}
	if err := s.reminders.Create(reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *PetService) ListReminders(userID int) ([]db.Reminder, error) {
	return s.reminders.ListByUser(userID)
}

func (s *PetService) DeleteReminder(id, userID int) error {
	return s.reminders.Delete(id, userID)
}
