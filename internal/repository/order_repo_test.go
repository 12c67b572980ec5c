package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderRepo(t *testing.T) (*OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewOrderRepository(database), mock
}

func TestMarkOrderPaidDecrementsStock(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders").
		WithArgs("sess_1", "pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT product_id, quantity FROM order_items").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).
			AddRow(3, 2).
			AddRow(4, 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(3, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(4, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkPaidBySession("sess_1", "pi_1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOrderPaidAlreadySettled(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders").
		WithArgs("sess_1", "pi_1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	// A settled order decrements nothing on redelivery.
	err := repo.MarkPaidBySession("sess_1", "pi_1")
	assert.ErrorIs(t, err, ErrOrderNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkOrderPaidStockShortfallStillCommits(t *testing.T) {
	repo, mock := newOrderRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders").
		WithArgs("sess_2", "pi_2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectQuery("SELECT product_id, quantity FROM order_items").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity"}).AddRow(5, 10))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(5, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// The payment is captured; a shortfall is logged, not fatal.
	err := repo.MarkPaidBySession("sess_2", "pi_2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
