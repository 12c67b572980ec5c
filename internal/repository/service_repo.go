package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petcare/internal/db"

	"github.com/lib/pq"
)

var ErrServiceNotFound = errors.New("service not found")

// ServiceRepository stores the admin-managed grooming and hostel offerings.
type ServiceRepository struct {
	DB *sql.DB
}

func NewServiceRepository(database *sql.DB) *ServiceRepository {
	return &ServiceRepository{DB: database}
}

func (r *ServiceRepository) List(kind string, activeOnly bool) ([]db.CareService, error) {
	query := `SELECT id, kind, name, description, price, active FROM care_services WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, kind)
		idx++
	}
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY kind, name"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var services []db.CareService
	for rows.Next() {
		var s db.CareService
		if err := rows.Scan(&s.ID, &s.Kind, &s.Name, &s.Description, &s.Price, &s.Active); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *ServiceRepository) GetByIDs(ids []int) (map[int]db.CareService, error) {
	rows, err := r.DB.Query(`
		SELECT id, kind, name, description, price, active
		FROM care_services WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query services by ids: %w", err)
	}
	defer rows.Close()

	services := make(map[int]db.CareService, len(ids))
	for rows.Next() {
		var s db.CareService
		if err := rows.Scan(&s.ID, &s.Kind, &s.Name, &s.Description, &s.Price, &s.Active); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services[s.ID] = s
	}
	return services, rows.Err()
}

func (r *ServiceRepository) Create(s *db.CareService) error {
	err := r.DB.QueryRow(`
		INSERT INTO care_services (kind, name, description, price, active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.Kind, s.Name, s.Description, s.Price, s.Active,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func (r *ServiceRepository) Update(s *db.CareService) error {
	result, err := r.DB.Exec(`
		UPDATE care_services
		SET kind = $2, name = $3, description = $4, price = $5, active = $6
		WHERE id = $1`,
		s.ID, s.Kind, s.Name, s.Description, s.Price, s.Active)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *ServiceRepository) Delete(id int) error {
	result, err := r.DB.Exec(`DELETE FROM care_services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
