package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/order-core/internal/domain/order"
	_ "github.com/lib/pq"
)

// PostgresOrderStore stores orders in PostgreSQL. The orders table
// carries unique indexes on id and order_number.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// Save inserts a new order row and stamps its timestamps.
func (s *PostgresOrderStore) Save(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, order_number, user_id, status, subtotal, total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID,
		o.OrderNumber,
		o.UserID,
		o.Status,
		o.Subtotal,
		o.Total,
		o.CreatedAt,
		o.UpdatedAt,
	)
	return err
}

func (s *PostgresOrderStore) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return s.findOne(ctx,
		`SELECT id, order_number, user_id, status, subtotal, total, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
}

func (s *PostgresOrderStore) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	return s.findOne(ctx,
		`SELECT id, order_number, user_id, status, subtotal, total, created_at, updated_at
		 FROM orders WHERE order_number = $1`, orderNumber)
}

func (s *PostgresOrderStore) findOne(ctx context.Context, query, arg string) (*order.Order, error) {
	var o order.Order
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.Total,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus writes a new status and refreshes updated_at.
func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// Discard removes a row that no caller ever received and no event
// references. Only the checkout race unwind calls this.
func (s *PostgresOrderStore) Discard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
