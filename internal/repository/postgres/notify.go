package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/service/notify"
)

// NotifyRepo implements notify.Repository against PostgreSQL.
type NotifyRepo struct{ db *sql.DB }

// NewNotifyRepo creates a Postgres-backed notification repository.
func NewNotifyRepo(db *sql.DB) *NotifyRepo { return &NotifyRepo{db: db} }

func (r *NotifyRepo) GetConvoy(ctx context.Context, id string) (*domain.Convoy, error) {
	c, err := scanConvoy(r.db.QueryRowContext(ctx,
		convoyQuery+` WHERE c.id = $1`+convoyGroupBy, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notify.ErrConvoyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get convoy: %w", err)
	}
	return c, nil
}

func (r *NotifyRepo) FindShipmentsByConvoy(ctx context.Context, convoyID string) ([]domain.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE convoy_id = $1
		ORDER BY tracking_code
	`, convoyID)
	if err != nil {
		return nil, fmt.Errorf("find convoy shipments: %w", err)
	}
	defer rows.Close()
	return collectShipments(rows)
}

func (r *NotifyRepo) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notify.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return s, nil
}

func (r *NotifyRepo) MarkThankYouSent(ctx context.Context, shipmentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE shipments
		SET thank_you_email_sent = true, updated_at = NOW()
		WHERE id = $1 AND thank_you_email_sent = false
	`, shipmentID)
	if err != nil {
		return false, fmt.Errorf("mark thank-you sent: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return true, nil
	}

	// Not flipped: either already set, or the shipment is gone.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM shipments WHERE id = $1)`, shipmentID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check shipment exists: %w", err)
	}
	if !exists {
		return false, notify.ErrShipmentNotFound
	}
	return false, nil
}
