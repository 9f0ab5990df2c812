// README: Trip store backed by PostgreSQL.
package trip

import (
	"context"
	"database/sql"
	"errors"

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

const tripColumns = `
	id, courier_id, origin_address, destination_address,
	origin_country, destination_country,
	origin_lat, origin_lng, destination_lat, destination_lng,
	departure_at, arrival_at, capacity, status, locked_parcel_id, created_at`

func (s *Store) Create(ctx context.Context, t *Trip) error {
	var originLat, originLng, destLat, destLng *float64
	if t.Origin != nil {
		originLat, originLng = &t.Origin.Lat, &t.Origin.Lng
	}
	if t.Destination != nil {
		destLat, destLng = &t.Destination.Lat, &t.Destination.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (
			id, courier_id, origin_address, destination_address,
			origin_country, destination_country,
			origin_lat, origin_lng, destination_lat, destination_lng,
			departure_at, arrival_at, capacity, status, locked_parcel_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`,
		string(t.ID), string(t.CourierID), t.OriginAddress, t.DestinationAddress,
		t.OriginCountry, t.DestinationCountry,
		originLat, originLng, destLat, destLng,
		t.DepartureAt, t.ArrivalAt, string(t.Capacity), string(t.Status),
		toStringPtr(t.LockedParcelID), t.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT`+tripColumns+` FROM trips WHERE id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListOpen returns unlocked trips that can still take on matches.
func (s *Store) ListOpen(ctx context.Context) ([]*Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+tripColumns+`
		FROM trips
		WHERE status IN ('scheduled', 'in_progress')
		  AND locked_parcel_id IS NULL
		ORDER BY departure_at NULLS LAST`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Update persists editable trip fields (route, schedule, capacity).
func (s *Store) Update(ctx context.Context, t *Trip) error {
	var originLat, originLng, destLat, destLng *float64
	if t.Origin != nil {
		originLat, originLng = &t.Origin.Lat, &t.Origin.Lng
	}
	if t.Destination != nil {
		destLat, destLng = &t.Destination.Lat, &t.Destination.Lng
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET origin_address = $1, destination_address = $2,
		    origin_country = $3, destination_country = $4,
		    origin_lat = $5, origin_lng = $6,
		    destination_lat = $7, destination_lng = $8,
		    departure_at = $9, arrival_at = $10, capacity = $11
		WHERE id = $12`,
		t.OriginAddress, t.DestinationAddress,
		t.OriginCountry, t.DestinationCountry,
		originLat, originLng, destLat, destLng,
		t.DepartureAt, t.ArrivalAt, string(t.Capacity),
		string(t.ID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTrip(row interface{ Scan(dest ...any) error }) (*Trip, error) {
	var t Trip
	var originLat, originLng, destLat, destLng sql.NullFloat64
	var departureAt, arrivalAt sql.NullTime
	var lockedParcelID sql.NullString

	err := row.Scan(
		&t.ID, &t.CourierID, &t.OriginAddress, &t.DestinationAddress,
		&t.OriginCountry, &t.DestinationCountry,
		&originLat, &originLng, &destLat, &destLng,
		&departureAt, &arrivalAt, &t.Capacity, &t.Status, &lockedParcelID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if originLat.Valid && originLng.Valid {
		t.Origin = &types.Point{Lat: originLat.Float64, Lng: originLng.Float64}
	}
	if destLat.Valid && destLng.Valid {
		t.Destination = &types.Point{Lat: destLat.Float64, Lng: destLng.Float64}
	}
	if departureAt.Valid {
		v := departureAt.Time
		t.DepartureAt = &v
	}
	if arrivalAt.Valid {
		v := arrivalAt.Time
		t.ArrivalAt = &v
	}
	if lockedParcelID.Valid {
		id := types.ID(lockedParcelID.String)
		t.LockedParcelID = &id
	}
	return &t, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
