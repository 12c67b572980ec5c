package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"petcare/internal/db"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotPending = errors.New("order is not pending")
)

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(database *sql.DB) *OrderRepository {
	return &OrderRepository{DB: database}
}

const orderColumns = `
	id, code, user_id, ship_name, ship_phone, ship_address,
	amount, currency, status, payment_status,
	stripe_session_id, stripe_payment_intent_id, created_at, updated_at`

// Create inserts the order and its lines in one transaction.
func (r *OrderRepository) Create(order *db.Order, items []db.OrderItem) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`
		INSERT INTO orders
		(code, user_id, ship_name, ship_phone, ship_address, amount, currency,
		 status, payment_status, stripe_session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING id, created_at, updated_at`,
		order.Code, order.UserID, order.ShipName, order.ShipPhone, order.ShipAddress,
		order.Amount, order.Currency, order.Status, order.PaymentStatus, order.StripeSessionID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.QueryRow(`
			INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Name, items[i].UnitPrice, items[i].Quantity,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByCode(code string) (*db.Order, error) {
	return r.scanOne(r.DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE code = $1`, code))
}

func (r *OrderRepository) GetBySessionID(sessionID string) (*db.Order, error) {
	return r.scanOne(r.DB.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID))
}

func (r *OrderRepository) GetItems(orderID int) ([]db.OrderItem, error) {
	rows, err := r.DB.Query(`
		SELECT id, order_id, product_id, name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []db.OrderItem
	for rows.Next() {
		var item db.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) ListByUser(userID int) ([]db.Order, error) {
	rows, err := r.DB.Query(`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) ListAdmin(date, status string) ([]db.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if date != "" {
		query += fmt.Sprintf(" AND DATE(created_at) = $%d", idx)
		args = append(args, date)
		idx++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query admin orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// MarkPaidBySession flips a pending order to paid and takes its lines out of
// stock in the same transaction. The pending guard makes the decrement run
// once per order; the stock guard keeps concurrent paid orders from driving
// stock below zero.
func (r *OrderRepository) MarkPaidBySession(sessionID, paymentIntentID string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin mark order paid: %w", err)
	}
	defer tx.Rollback()

	var orderID int
	err = tx.QueryRow(`
		UPDATE orders
		SET status = 'paid', payment_status = 'succeeded',
		    stripe_payment_intent_id = $2, updated_at = now()
		WHERE stripe_session_id = $1 AND status = 'pending'
		RETURNING id`, sessionID, paymentIntentID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotPending
	}
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	type orderLine struct {
		productID int
		quantity  int
	}
	rows, err := tx.Query(`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	var lines []orderLine
	for rows.Next() {
		var line orderLine
		if err := rows.Scan(&line.productID, &line.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read order lines: %w", err)
	}

	for _, line := range lines {
		result, err := tx.Exec(`
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`, line.productID, line.quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", line.productID, err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			// Payment is already captured; support restocks or refunds.
			log.Printf("order %d: product %d short of stock for quantity %d", orderID, line.productID, line.quantity)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mark order paid: %w", err)
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(id int, from, to string) error {
	result, err := r.DB.Exec(`
		UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBadStatusChange
	}
	return nil
}

func (r *OrderRepository) scanOne(row *sql.Row) (*db.Order, error) {
	var o db.Order
	err := row.Scan(
		&o.ID, &o.Code, &o.UserID, &o.ShipName, &o.ShipPhone, &o.ShipAddress,
		&o.Amount, &o.Currency, &o.Status, &o.PaymentStatus,
		&o.StripeSessionID, &o.StripePaymentIntentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]db.Order, error) {
	var orders []db.Order
	for rows.Next() {
		var o db.Order
		err := rows.Scan(
			&o.ID, &o.Code, &o.UserID, &o.ShipName, &o.ShipPhone, &o.ShipAddress,
			&o.Amount, &o.Currency, &o.Status, &o.PaymentStatus,
			&o.StripeSessionID, &o.StripePaymentIntentID, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
