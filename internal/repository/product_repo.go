package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"petcare/internal/db"

	"github.com/lib/pq"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type ProductRepository struct {
	DB *sql.DB
}

func NewProductRepository(database *sql.DB) *ProductRepository {
	return &ProductRepository{DB: database}
}

func (r *ProductRepository) ListCategories() ([]db.Category, error) {
	rows, err := r.DB.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []db.Category
	for rows.Next() {
		var c db.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *ProductRepository) CreateCategory(name string) (*db.Category, error) {
	var c db.Category
	err := r.DB.QueryRow(`INSERT INTO categories (name) VALUES ($1) RETURNING id, name`, name).
		Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (r *ProductRepository) DeleteCategory(id int) error {
	result, err := r.DB.Exec(`DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *ProductRepository) ListProducts(categoryID int) ([]db.Product, error) {
	query := `
		SELECT id, category_id, name, description, price, stock, image_url, created_at, updated_at
		FROM products`
	args := []interface{}{}
	if categoryID > 0 {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []db.Product
	for rows.Next() {
		var p db.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetProduct(id int) (*db.Product, error) {
	var p db.Product
	err := r.DB.QueryRow(`
		SELECT id, category_id, name, description, price, stock, image_url, created_at, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("query product %d: %w", id, err)
	}
	return &p, nil
}

// GetProductsByIDs is used to re-price order lines from the catalog.
func (r *ProductRepository) GetProductsByIDs(ids []int) (map[int]db.Product, error) {
	rows, err := r.DB.Query(`
		SELECT id, category_id, name, description, price, stock, image_url, created_at, updated_at
		FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	products := make(map[int]db.Product, len(ids))
	for rows.Next() {
		var p db.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func (r *ProductRepository) CreateProduct(p *db.Product) error {
	err := r.DB.QueryRow(`
		INSERT INTO products (category_id, name, description, price, stock, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`,
		p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) UpdateProduct(p *db.Product) error {
	result, err := r.DB.Exec(`
		UPDATE products
		SET category_id = $2, name = $3, description = $4, price = $5, stock = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) SetProductImage(id int, imageURL string) error {
	result, err := r.DB.Exec(`UPDATE products SET image_url = $2, updated_at = now() WHERE id = $1`, id, imageURL)
	if err != nil {
		return fmt.Errorf("update product image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) DeleteProduct(id int) error {
	result, err := r.DB.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
