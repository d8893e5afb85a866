package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/service/convoy"
)

// ConvoyRepo implements convoy.Repository against PostgreSQL.
type ConvoyRepo struct{ db *sql.DB }

// NewConvoyRepo creates a Postgres-backed convoy repository.
func NewConvoyRepo(db *sql.DB) *ConvoyRepo { return &ConvoyRepo{db: db} }

const convoyQuery = `
	SELECT c.id, c.date, c.direction, c.created_at, COUNT(s.id)
	FROM convoys c
	LEFT JOIN shipments s ON s.convoy_id = c.id`

const convoyGroupBy = ` GROUP BY c.id, c.date, c.direction, c.created_at`

func scanConvoy(row rowScanner) (*domain.Convoy, error) {
	var c domain.Convoy
	err := row.Scan(&c.ID, &c.Date, &c.Direction, &c.CreatedAt, &c.ShipmentCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConvoyRepo) GetConvoy(ctx context.Context, id string) (*domain.Convoy, error) {
	c, err := scanConvoy(r.db.QueryRowContext(ctx,
		convoyQuery+` WHERE c.id = $1`+convoyGroupBy, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, convoy.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get convoy: %w", err)
	}
	return c, nil
}

func (r *ConvoyRepo) FindConvoyByDateDirection(ctx context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error) {
	c, err := scanConvoy(r.db.QueryRowContext(ctx,
		convoyQuery+` WHERE c.date = $1 AND c.direction = $2`+convoyGroupBy,
		date, direction))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, convoy.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find convoy by date and direction: %w", err)
	}
	return c, nil
}

func (r *ConvoyRepo) ListConvoys(ctx context.Context, limit int) ([]domain.Convoy, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		convoyQuery+convoyGroupBy+` ORDER BY c.date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list convoys: %w", err)
	}
	defer rows.Close()

	var convoys []domain.Convoy
	for rows.Next() {
		c, err := scanConvoy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan convoy: %w", err)
		}
		convoys = append(convoys, *c)
	}
	return convoys, rows.Err()
}

func (r *ConvoyRepo) UpdateShipmentsByConvoy(ctx context.Context, convoyID string, status domain.Status, location string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET status = $1,
		    current_location = CASE WHEN $2 <> '' THEN $2 ELSE current_location END,
		    updated_at = NOW()
		WHERE convoy_id = $3
	`, status, location, convoyID)
	if err != nil {
		return 0, fmt.Errorf("bulk update convoy shipments: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *ConvoyRepo) UpdateShipmentsByConvoyAndCity(ctx context.Context, convoyID, city string, status domain.Status) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET status = $1, updated_at = NOW()
		WHERE convoy_id = $2 AND receiver_city = $3
	`, status, convoyID, city)
	if err != nil {
		return 0, fmt.Errorf("bulk update convoy city shipments: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
