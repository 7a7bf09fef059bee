package catalog

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniInventory/internal/store"
)

var productColumns = []string{"id", "name", "description", "price", "quantity"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresStore(db), mock
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, description, price, quantity FROM products WHERE price >= \$1`).
		WithArgs(100.0, 200.0, 10.0, math.Inf(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(int64(2), "Drill", "", 150.0, 20))

	f := store.AnyProduct()
	f.MinPrice, f.MaxPrice, f.MinStock = 100, 200, 10

	got, err := s.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []store.Product{{ID: 2, Name: "Drill", Price: 150, Quantity: 20}}, got)
}

func TestPostgresStore_List_InvalidFilter(t *testing.T) {
	s, _ := newMockStore(t)

	f := store.AnyProduct()
	f.MinStock, f.MaxStock = 5, 1

	_, err := s.List(context.Background(), f)
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(1), "Bolt", "zinc", 0.5, 100))
	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	p, ok, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "zinc", p.Description)

	_, ok, err = s.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO products \(name, description, price, quantity\)`).
		WithArgs("Bolt", "zinc", 0.5, 100).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(7), "Bolt", "zinc", 0.5, 100))

	p, err := s.Create(context.Background(), store.Product{Name: "Bolt", Description: "zinc", Price: 0.5, Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
}

func TestPostgresStore_Create_Conflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO products \(id, name, description, price, quantity\)`).
		WithArgs(int64(1), "Bolt", "", 1.0, 1).
		WillReturnError(&pgconn.PgError{Code: "23505", Detail: "Key (id)=(1) already exists."})
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), store.Product{ID: 1, Name: "Bolt", Price: 1, Quantity: 1})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestPostgresStore_Create_WithIDAdvancesSequence(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO products \(id, name, description, price, quantity\)`).
		WithArgs(int64(40), "Bolt", "zinc", 0.5, 100).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(40), "Bolt", "zinc", 0.5, 100))
	mock.ExpectExec(`SELECT setval\(pg_get_serial_sequence\('products', 'id'\), \(SELECT MAX\(id\) FROM products\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.Create(context.Background(), store.Product{ID: 40, Name: "Bolt", Description: "zinc", Price: 0.5, Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(40), p.ID)
}

func TestPostgresStore_Create_SequenceFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO products \(id`).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(40), "Bolt", "", 1.0, 1))
	mock.ExpectExec(`SELECT setval`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), store.Product{ID: 40, Name: "Bolt", Price: 1, Quantity: 1})
	require.Error(t, err)
}

func TestPostgresStore_Create_CheckViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"})

	_, err := s.Create(context.Background(), store.Product{Name: "Bolt", Price: -1})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestPostgresStore_Update(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE products SET name = \$2`).
		WithArgs(int64(3), "Saw", "", 30.0, 4).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow(int64(3), "Saw", "", 30.0, 4))
	mock.ExpectQuery(`UPDATE products SET name = \$2`).
		WithArgs(int64(4), "Saw", "", 30.0, 4).
		WillReturnRows(sqlmock.NewRows(productColumns))

	p, err := s.Update(context.Background(), store.Product{ID: 3, Name: "Saw", Price: 30, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, p.Quantity)

	_, err = s.Update(context.Background(), store.Product{ID: 4, Name: "Saw", Price: 30, Quantity: 4})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), 5))
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing()
	require.NoError(t, NewPostgresStore(db).Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
