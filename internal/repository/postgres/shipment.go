package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/service/shipment"
)

// ShipmentRepo implements shipment.Repository against PostgreSQL.
type ShipmentRepo struct{ db *sql.DB }

// NewShipmentRepo creates a Postgres-backed shipment repository.
func NewShipmentRepo(db *sql.DB) *ShipmentRepo { return &ShipmentRepo{db: db} }

const shipmentColumns = `id, tracking_code, receiver_name, receiver_email, receiver_phone,
	receiver_address, receiver_city, postal_code, weight_kg, notes, status,
	current_location, origin_country, destination_country, convoy_id,
	thank_you_email_sent, created_by, created_at, updated_at`

func scanShipment(row rowScanner) (*domain.Shipment, error) {
	var s domain.Shipment
	var convoyID sql.NullString
	err := row.Scan(
		&s.ID, &s.TrackingCode, &s.ReceiverName, &s.ReceiverEmail, &s.ReceiverPhone,
		&s.ReceiverAddress, &s.ReceiverCity, &s.PostalCode, &s.WeightKg, &s.Notes,
		&s.Status, &s.CurrentLocation, &s.OriginCountry, &s.DestinationCountry,
		&convoyID, &s.ThankYouEmailSent, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if convoyID.Valid {
		s.ConvoyID = &convoyID.String
	}
	return &s, nil
}

func (r *ShipmentRepo) GetShipment(ctx context.Context, id string) (*domain.Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	return s, nil
}

func (r *ShipmentRepo) GetByTrackingCode(ctx context.Context, code string) (*domain.Shipment, error) {
	s, err := scanShipment(r.db.QueryRowContext(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE tracking_code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shipment by tracking code: %w", err)
	}
	return s, nil
}

func (r *ShipmentRepo) CreateShipment(ctx context.Context, s *domain.Shipment, ev *domain.ShipmentEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create shipment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shipments (`+shipmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, s.ID, s.TrackingCode, s.ReceiverName, s.ReceiverEmail, s.ReceiverPhone,
		s.ReceiverAddress, s.ReceiverCity, s.PostalCode, s.WeightKg, s.Notes,
		s.Status, s.CurrentLocation, s.OriginCountry, s.DestinationCountry,
		s.ConvoyID, s.ThankYouEmailSent, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) ApplyTransition(ctx context.Context, shipmentID string, status domain.Status, location string, ev *domain.ShipmentEvent) (*domain.Shipment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	updated, err := scanShipment(tx.QueryRowContext(ctx, `
		UPDATE shipments
		SET status = $1,
		    current_location = CASE WHEN $2 <> '' THEN $2 ELSE current_location END,
		    updated_at = NOW()
		WHERE id = $3
		RETURNING `+shipmentColumns,
		status, location, shipmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update shipment status: %w", err)
	}

	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return updated, nil
}

func (r *ShipmentRepo) AppendEvent(ctx context.Context, ev *domain.ShipmentEvent) error {
	return insertEvent(ctx, r.db, ev)
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertEvent(ctx context.Context, db execer, ev *domain.ShipmentEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO shipment_events (id, shipment_id, type, description, location, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.ID, ev.ShipmentID, ev.Type, ev.Description, ev.Location, ev.OccurredAt, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment event: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) ListEvents(ctx context.Context, shipmentID string) ([]domain.ShipmentEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, shipment_id, type, description, location, occurred_at, created_at
		FROM shipment_events
		WHERE shipment_id = $1
		ORDER BY occurred_at DESC
	`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list shipment events: %w", err)
	}
	defer rows.Close()

	var events []domain.ShipmentEvent
	for rows.Next() {
		var ev domain.ShipmentEvent
		if err := rows.Scan(&ev.ID, &ev.ShipmentID, &ev.Type, &ev.Description,
			&ev.Location, &ev.OccurredAt, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shipment event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *ShipmentRepo) SearchByPhone(ctx context.Context, phoneDigits string, limit int) ([]domain.Shipment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE regexp_replace(receiver_phone, '\D', '', 'g') LIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`, phoneDigits, limit)
	if err != nil {
		return nil, fmt.Errorf("search shipments by phone: %w", err)
	}
	defer rows.Close()
	return collectShipments(rows)
}

func (r *ShipmentRepo) DeleteShipment(ctx context.Context, id string) error {
	// shipment_events cascades via its foreign key.
	res, err := r.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return shipment.ErrNotFound
	}
	return nil
}

func (r *ShipmentRepo) UpsertConvoy(ctx context.Context, date time.Time, direction domain.Direction) (*domain.Convoy, error) {
	var c domain.Convoy
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO convoys (id, date, direction, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (date, direction) DO UPDATE SET date = EXCLUDED.date
		RETURNING id, date, direction, created_at
	`, uuid.New().String(), date, direction).Scan(&c.ID, &c.Date, &c.Direction, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert convoy: %w", err)
	}
	return &c, nil
}

func collectShipments(rows *sql.Rows) ([]domain.Shipment, error) {
	var shipments []domain.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		shipments = append(shipments, *s)
	}
	return shipments, rows.Err()
}
