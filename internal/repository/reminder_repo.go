package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petcare/internal/db"

	"github.com/lib/pq"
)

var ErrReminderNotFound = errors.New("reminder not found")

type ReminderRepository struct {
	DB *sql.DB
}

func NewReminderRepository(database *sql.DB) *ReminderRepository {
	return &ReminderRepository{DB: database}
}

func (r *ReminderRepository) Create(rem *db.Reminder) error {
	query := `
		INSERT INTO reminders (user_id, pet_id, vaccine_name, due_date, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_at`
	err := r.DB.QueryRow(query, rem.UserID, rem.PetID, rem.VaccineName, rem.DueDate).
		Scan(&rem.ID, &rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) ListByUser(userID int) ([]db.Reminder, error) {
	rows, err := r.DB.Query(`
		SELECT id, user_id, pet_id, vaccine_name, due_date, notified, created_at
		FROM reminders WHERE user_id = $1 ORDER BY due_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var reminders []db.Reminder
	for rows.Next() {
		var rem db.Reminder
		if err := rows.Scan(&rem.ID, &rem.UserID, &rem.PetID, &rem.VaccineName, &rem.DueDate, &rem.Notified, &rem.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepository) Delete(id, userID int) error {
	result, err := r.DB.Exec(`DELETE FROM reminders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrReminderNotFound
	}
	return nil
}

// DueReminder joins in the contact and pet details the dispatch job needs.
type DueReminder struct {
	ID          int
	VaccineName string
	DueDate     string
	PetName     string
	UserName    string
	UserPhone   string
	UserEmail   string
}

// FindDueUnnotified returns reminders due today or earlier that have not
// been sent yet.
func (r *ReminderRepository) FindDueUnnotified() ([]DueReminder, error) {
	rows, err := r.DB.Query(`
		SELECT rem.id, rem.vaccine_name, to_char(rem.due_date, 'DD Mon YYYY'),
		       p.name, u.name, u.phone, u.email
		FROM reminders rem
		JOIN pets p ON p.id = rem.pet_id
		JOIN users u ON u.id = rem.user_id
		WHERE NOT rem.notified AND rem.due_date <= CURRENT_DATE
		ORDER BY rem.due_date`)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.ID, &d.VaccineName, &d.DueDate, &d.PetName, &d.UserName, &d.UserPhone, &d.UserEmail); err != nil {
			return nil, fmt.Errorf("scan due reminder: %w", err)
		}
		due = append(due, d)
	}
	return due, rows.Err()
}

func (r *ReminderRepository) MarkNotified(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.Exec(`UPDATE reminders SET notified = TRUE WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark reminders notified: %w", err)
	}
	return nil
}
