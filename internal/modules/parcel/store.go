// README: Parcel store backed by PostgreSQL.
package parcel

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"qikparcel/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const parcelColumns = `
	id, sender_id, pickup_address, delivery_address,
	pickup_country, delivery_country,
	pickup_lat, pickup_lng, delivery_lat, delivery_lng,
	weight_kg, declared_value, status, matched_trip_id, created_at`

func (s *Store) Create(ctx context.Context, p *Parcel) error {
	var pickupLat, pickupLng, deliveryLat, deliveryLng *float64
	if p.Pickup != nil {
		pickupLat, pickupLng = &p.Pickup.Lat, &p.Pickup.Lng
	}
	if p.Delivery != nil {
		deliveryLat, deliveryLng = &p.Delivery.Lat, &p.Delivery.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO parcels (
			id, sender_id, pickup_address, delivery_address,
			pickup_country, delivery_country,
			pickup_lat, pickup_lng, delivery_lat, delivery_lng,
			weight_kg, declared_value, status, matched_trip_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`,
		string(p.ID), string(p.SenderID), p.PickupAddress, p.DeliveryAddress,
		p.PickupCountry, p.DeliveryCountry,
		pickupLat, pickupLng, deliveryLat, deliveryLng,
		p.WeightKg, p.DeclaredValue, string(p.Status), toStringPtr(p.MatchedTripID), p.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Parcel, error) {
	row := s.db.QueryRow(ctx, `SELECT`+parcelColumns+` FROM parcels WHERE id = $1`, string(id))
	p, err := scanParcel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// ListPending returns parcels still awaiting a trip, oldest first.
func (s *Store) ListPending(ctx context.Context) ([]*Parcel, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+parcelColumns+`
		FROM parcels
		WHERE status = 'pending'
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parcels []*Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, err
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

// AppendHistory records a status-history entry for the parcel.
func (s *Store) AppendHistory(ctx context.Context, parcelID types.ID, status Status, note string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parcel_status_history (parcel_id, status, note, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(parcelID), string(status), note, time.Now().UTC(),
	)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanParcel(row scannable) (*Parcel, error) {
	var p Parcel
	var pickupLat, pickupLng, deliveryLat, deliveryLng sql.NullFloat64
	var matchedTripID sql.NullString

	err := row.Scan(
		&p.ID, &p.SenderID, &p.PickupAddress, &p.DeliveryAddress,
		&p.PickupCountry, &p.DeliveryCountry,
		&pickupLat, &pickupLng, &deliveryLat, &deliveryLng,
		&p.WeightKg, &p.DeclaredValue, &p.Status, &matchedTripID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pickupLat.Valid && pickupLng.Valid {
		p.Pickup = &types.Point{Lat: pickupLat.Float64, Lng: pickupLng.Float64}
	}
	if deliveryLat.Valid && deliveryLng.Valid {
		p.Delivery = &types.Point{Lat: deliveryLat.Float64, Lng: deliveryLng.Float64}
	}
	if matchedTripID.Valid {
		id := types.ID(matchedTripID.String)
		p.MatchedTripID = &id
	}
	return &p, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
