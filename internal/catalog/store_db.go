package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"MiniInventory/internal/store"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
	pgCheckCode  = "23514"
)

// PostgresStore is the alternate product backend mounted under /api/v2.
type PostgresStore struct {
	db *sql.DB
}

var _ ProductService = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.db.PingContext)
}

func (s *PostgresStore) List(ctx context.Context, f store.ProductFilter) ([]store.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var out []store.Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, description, price, quantity
			FROM products
			WHERE price >= $1 AND price <= $2
			  AND quantity::float8 >= $3 AND quantity::float8 <= $4
			ORDER BY id ASC
		`, f.MinPrice, f.MaxPrice, f.MinStock, f.MaxStock)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]store.Product, 0, 16)
		for rows.Next() {
			var p store.Product
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (store.Product, bool, error) {
	var p store.Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name, description, price, quantity
			FROM products
			WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, false, nil
	}
	if err != nil {
		return store.Product{}, false, fmt.Errorf("failed to get product: %w", err)
	}
	return p, true, nil
}

func (s *PostgresStore) Create(ctx context.Context, p store.Product) (store.Product, error) {
	var saved store.Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if p.ID != 0 {
			return s.createWithID(ctx, p, &saved)
		}
		return s.db.QueryRowContext(ctx, `
			INSERT INTO products (name, description, price, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING id, name, description, price, quantity
		`, p.Name, p.Description, p.Price, p.Quantity).
			Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Price, &saved.Quantity)
	})
	if err != nil {
		return store.Product{}, mapPgError("create product", err)
	}
	return saved, nil
}

// createWithID inserts under a caller-chosen id and moves the id sequence past
// it in the same transaction, so later inserts without an id cannot collide.
func (s *PostgresStore) createWithID(ctx context.Context, p store.Product, saved *store.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (id, name, description, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, price, quantity
	`, p.ID, p.Name, p.Description, p.Price, p.Quantity).
		Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Price, &saved.Quantity)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		SELECT setval(pg_get_serial_sequence('products', 'id'), (SELECT MAX(id) FROM products))
	`); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) Update(ctx context.Context, p store.Product) (store.Product, error) {
	var saved store.Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			UPDATE products
			SET name = $2, description = $3, price = $4, quantity = $5
			WHERE id = $1
			RETURNING id, name, description, price, quantity
		`, p.ID, p.Name, p.Description, p.Price, p.Quantity).
			Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Price, &saved.Quantity)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Product{}, fmt.Errorf("%w: product %d", store.ErrNotFound, p.ID)
	}
	if err != nil {
		return store.Product{}, mapPgError("update product", err)
	}
	return saved, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueCode:
			return fmt.Errorf("%w: %s: %s", store.ErrConflict, op, pgErr.Detail)
		case pgCheckCode:
			return fmt.Errorf("%w: %s: %s", store.ErrValidation, op, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
