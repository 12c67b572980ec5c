package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petcare/internal/db"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

// UpsertByPhone creates the user row on first login and returns the stored
// profile on subsequent ones. New users start as customers.
func (r *UserRepository) UpsertByPhone(phone string) (*db.User, error) {
	query := `
		INSERT INTO users (phone, role, created_at, updated_at)
		VALUES ($1, 'customer', now(), now())
		ON CONFLICT (phone) DO UPDATE SET updated_at = now()
		RETURNING id, phone, name, email, role, created_at, updated_at`
	var u db.User
	err := r.DB.QueryRow(query, phone).Scan(
		&u.ID, &u.Phone, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert user by phone: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(id int) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRow(`
		SELECT id, phone, name, email, role, created_at, updated_at
		FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Phone, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user %d: %w", id, err)
	}
	return &u, nil
}

func (r *UserRepository) GetByPhone(phone string) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRow(`
		SELECT id, phone, name, email, role, created_at, updated_at
		FROM users WHERE phone = $1`, phone).Scan(
		&u.ID, &u.Phone, &u.Name, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user by phone: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) UpdateProfile(id int, name, email string) error {
	result, err := r.DB.Exec(`
		UPDATE users SET name = $2, email = $3, updated_at = now()
		WHERE id = $1`, id, name, email)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetRoleByPhone flips a user between customer and doctor. Admin only.
func (r *UserRepository) SetRoleByPhone(phone, role string) error {
	result, err := r.DB.Exec(`
		UPDATE users SET role = $2, updated_at = now()
		WHERE phone = $1`, phone, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
