package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petcare/internal/db"
)

var ErrPetNotFound = errors.New("pet not found")

type PetRepository struct {
	DB *sql.DB
}

func NewPetRepository(database *sql.DB) *PetRepository {
	return &PetRepository{DB: database}
}

func (r *PetRepository) Create(pet *db.Pet) error {
	query := `
		INSERT INTO pets (user_id, name, species, breed, birth_date, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query,
		pet.UserID, pet.Name, pet.Species, pet.Breed, pet.BirthDate, pet.ImageURL,
	).Scan(&pet.ID, &pet.CreatedAt, &pet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert pet: %w", err)
	}
	return nil
}

func (r *PetRepository) GetByID(id, userID int) (*db.Pet, error) {
	var p db.Pet
	err := r.DB.QueryRow(`
		SELECT id, user_id, name, species, breed, birth_date, image_url, created_at, updated_at
		FROM pets WHERE id = $1 AND user_id = $2`, id, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("query pet %d: %w", id, err)
	}
	return &p, nil
}

func (r *PetRepository) ListByUser(userID int) ([]db.Pet, error) {
	rows, err := r.DB.Query(`
		SELECT id, user_id, name, species, breed, birth_date, image_url, created_at, updated_at
		FROM pets WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	var pets []db.Pet
	for rows.Next() {
		var p db.Pet
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Species, &p.Breed, &p.BirthDate, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

func (r *PetRepository) Update(pet *db.Pet) error {
	result, err := r.DB.Exec(`
		UPDATE pets SET name = $3, species = $4, breed = $5, birth_date = $6, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		pet.ID, pet.UserID, pet.Name, pet.Species, pet.Breed, pet.BirthDate)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPetNotFound
	}
	return nil
}

func (r *PetRepository) SetImageURL(id, userID int, imageURL string) error {
	result, err := r.DB.Exec(`
		UPDATE pets SET image_url = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2`, id, userID, imageURL)
	if err != nil {
		return fmt.Errorf("update pet image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPetNotFound
	}
	return nil
}

func (r *PetRepository) Delete(id, userID int) error {
	result, err := r.DB.Exec(`DELETE FROM pets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPetNotFound
	}
	return nil
}
