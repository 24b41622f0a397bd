package store

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/example/courier-orders/internal/models"
)

// Postgres implements Repository over the orders and services tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) DB() *sql.DB { return p.db }

func (p *Postgres) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, user_id, service_id, status, pickup_location, dropoff_location, estimated_price, payment_method, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.ServiceID, &o.Status, &o.PickupLocation,
			&o.DropoffLocation, &o.EstimatedPrice, &o.PaymentMethod, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (p *Postgres) Insert(ctx context.Context, o models.Order) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO orders(id, user_id, service_id, status, pickup_location, dropoff_location, estimated_price, payment_method, created_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.UserID, o.ServiceID, o.Status, o.PickupLocation, o.DropoffLocation, o.EstimatedPrice, o.PaymentMethod, o.CreatedAt)
	return err
}

func (p *Postgres) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	_, err := p.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	return err
}

func (p *Postgres) ServiceByID(ctx context.Context, id string) (models.Service, bool, error) {
	var s models.Service
	err := p.db.QueryRowContext(ctx,
		`SELECT id, type, name, min_price FROM services WHERE id = $1`, id).
		Scan(&s.ID, &s.Type, &s.Name, &s.MinPrice)
	if err == sql.ErrNoRows {
		return models.Service{}, false, nil
	}
	if err != nil {
		return models.Service{}, false, err
	}
	return s, true, nil
}

func (p *Postgres) ServiceByName(ctx context.Context, name string) (models.Service, bool, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, type, name, min_price FROM services WHERE name = $1`, name)
	if err != nil {
		return models.Service{}, false, err
	}
	defer rows.Close()

	var matches []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Type, &s.Name, &s.MinPrice); err != nil {
			return models.Service{}, false, err
		}
		matches = append(matches, s)
	}
	if err := rows.Err(); err != nil {
		return models.Service{}, false, err
	}
	// exactly one match required; zero or ambiguous both read as not found
	if len(matches) != 1 {
		return models.Service{}, false, nil
	}
	return matches[0], true, nil
}
