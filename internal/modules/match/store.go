// README: Match store backed by PostgreSQL; exclusive writes run in one transaction.
package match

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

// PgStore implements Store on PostgreSQL. Parcel and trip reads delegate to
// the owning module stores; the acceptance and expiry transactions write
// their rows directly because the guards must sit in one atomic unit.
type PgStore struct {
	db      *pgxpool.Pool
	parcels *parcel.Store
	trips   *trip.Store
}

func NewPgStore(db *pgxpool.Pool, parcels *parcel.Store, trips *trip.Store) *PgStore {
	return &PgStore{db: db, parcels: parcels, trips: trips}
}

func (s *PgStore) GetParcel(ctx context.Context, id types.ID) (*parcel.Parcel, error) {
	return s.parcels.Get(ctx, id)
}

func (s *PgStore) GetTrip(ctx context.Context, id types.ID) (*trip.Trip, error) {
	return s.trips.Get(ctx, id)
}

func (s *PgStore) ListPendingParcels(ctx context.Context) ([]*parcel.Parcel, error) {
	return s.parcels.ListPending(ctx)
}

func (s *PgStore) ListOpenTrips(ctx context.Context) ([]*trip.Trip, error) {
	return s.trips.ListOpen(ctx)
}

func (s *PgStore) AppendParcelHistory(ctx context.Context, parcelID types.ID, status parcel.Status, note string) error {
	return s.parcels.AppendHistory(ctx, parcelID, status, note)
}

const matchColumns = `
	id, parcel_id, trip_id, match_score, status, matched_at, accepted_at,
	delivery_fee, platform_fee, total_amount, currency, payment_status, estimated_days`

func (s *PgStore) GetMatch(ctx context.Context, id types.ID) (*Match, error) {
	row := s.db.QueryRow(ctx, `SELECT`+matchColumns+` FROM matches WHERE id = $1`, string(id))
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *PgStore) ListLiveMatchesForParcel(ctx context.Context, parcelID types.ID) ([]*Match, error) {
	return s.listMatches(ctx, `
		SELECT`+matchColumns+` FROM matches
		WHERE parcel_id = $1 AND status IN ('pending', 'accepted')`, string(parcelID))
}

func (s *PgStore) ListLiveMatchesForTrip(ctx context.Context, tripID types.ID) ([]*Match, error) {
	return s.listMatches(ctx, `
		SELECT`+matchColumns+` FROM matches
		WHERE trip_id = $1 AND status IN ('pending', 'accepted')`, string(tripID))
}

func (s *PgStore) InsertMatch(ctx context.Context, m *Match) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO matches (id, parcel_id, trip_id, match_score, status, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(m.ID), string(m.ParcelID), string(m.TripID), m.Score, string(m.Status), m.MatchedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicatePair
	}
	return err
}

func (s *PgStore) UpdateMatchScore(ctx context.Context, id types.ID, score float64) error {
	_, err := s.db.Exec(ctx, `UPDATE matches SET match_score = $1 WHERE id = $2`, score, string(id))
	return err
}

func (s *PgStore) RejectPending(ctx context.Context, id types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE matches SET status = 'rejected'
		WHERE id = $1 AND status = 'pending'`, string(id))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Accept applies the full acceptance in one transaction. Every exclusive
// write carries its own conditional guard, re-verified here rather than
// trusted from the caller's earlier reads; a guard miss rolls everything
// back and reports ErrConflict.
func (s *PgStore) Accept(ctx context.Context, w AcceptWrite) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE matches
		SET status = 'accepted', accepted_at = $2,
		    delivery_fee = $3, platform_fee = $4, total_amount = $5,
		    currency = $6, payment_status = $7, estimated_days = $8
		WHERE id = $1 AND status = 'pending'`,
		string(w.MatchID), w.AcceptedAt,
		w.Pricing.DeliveryFee, w.Pricing.PlatformFee, w.Pricing.TotalAmount,
		w.Pricing.Currency, w.Pricing.PaymentStatus, w.Pricing.EstimatedDays,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: match no longer pending", ErrConflict)
	}

	// First come, first served: foreclose competing offers on both sides.
	_, err = tx.Exec(ctx, `
		UPDATE matches SET status = 'rejected'
		WHERE parcel_id = $1 AND status = 'pending' AND id <> $2`,
		string(w.ParcelID), string(w.MatchID))
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE matches SET status = 'rejected'
		WHERE trip_id = $1 AND status = 'pending' AND id <> $2`,
		string(w.TripID), string(w.MatchID))
	if err != nil {
		return err
	}

	tag, err = tx.Exec(ctx, `
		UPDATE parcels SET status = 'matched', matched_trip_id = $2
		WHERE id = $1 AND status = 'pending'`,
		string(w.ParcelID), string(w.TripID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: parcel no longer pending", ErrConflict)
	}

	tag, err = tx.Exec(ctx, `
		UPDATE trips SET locked_parcel_id = $2
		WHERE id = $1 AND (locked_parcel_id IS NULL OR locked_parcel_id = $2)`,
		string(w.TripID), string(w.ParcelID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trip locked to another parcel", ErrConflict)
	}

	return tx.Commit(ctx)
}

// ExpireAccepted expires a re-scored match, releases the trip lock, and
// returns the parcel to pending in one transaction. The parcel reset keeps
// the invariant that matched_trip_id is non-null only for matched parcels.
func (s *PgStore) ExpireAccepted(ctx context.Context, w ExpireWrite) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE matches SET status = 'expired'
		WHERE id = $1 AND status = 'accepted'`, string(w.MatchID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: match not accepted", ErrConflict)
	}

	_, err = tx.Exec(ctx, `
		UPDATE parcels SET status = 'pending', matched_trip_id = NULL
		WHERE id = $1 AND matched_trip_id = $2`,
		string(w.ParcelID), string(w.TripID))
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE trips SET locked_parcel_id = NULL
		WHERE id = $1 AND locked_parcel_id = $2`,
		string(w.TripID), string(w.ParcelID))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PgStore) DeletePendingForTrip(ctx context.Context, tripID types.ID) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM matches WHERE trip_id = $1 AND status = 'pending'`, string(tripID))
	return err
}

func (s *PgStore) ListMatchesForParcel(ctx context.Context, parcelID types.ID) ([]*MatchWithTrip, error) {
	matches, err := s.listMatches(ctx, `
		SELECT`+matchColumns+` FROM matches
		WHERE parcel_id = $1 ORDER BY matched_at DESC`, string(parcelID))
	if err != nil {
		return nil, err
	}
	out := make([]*MatchWithTrip, 0, len(matches))
	for _, m := range matches {
		t, err := s.trips.Get(ctx, m.TripID)
		if err != nil {
			return nil, err
		}
		out = append(out, &MatchWithTrip{Match: m, Trip: t})
	}
	return out, nil
}

func (s *PgStore) ListMatchesForTrip(ctx context.Context, tripID types.ID) ([]*MatchWithParcel, error) {
	matches, err := s.listMatches(ctx, `
		SELECT`+matchColumns+` FROM matches
		WHERE trip_id = $1 ORDER BY matched_at DESC`, string(tripID))
	if err != nil {
		return nil, err
	}
	out := make([]*MatchWithParcel, 0, len(matches))
	for _, m := range matches {
		p, err := s.parcels.Get(ctx, m.ParcelID)
		if err != nil {
			return nil, err
		}
		out = append(out, &MatchWithParcel{Match: m, Parcel: p})
	}
	return out, nil
}

func (s *PgStore) listMatches(ctx context.Context, query string, arg any) ([]*Match, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanMatch(row interface{ Scan(dest ...any) error }) (*Match, error) {
	var m Match
	var acceptedAt sql.NullTime
	var deliveryFee, platformFee, totalAmount sql.NullFloat64
	var currency, paymentStatus sql.NullString
	var estimatedDays sql.NullInt64

	err := row.Scan(
		&m.ID, &m.ParcelID, &m.TripID, &m.Score, &m.Status, &m.MatchedAt, &acceptedAt,
		&deliveryFee, &platformFee, &totalAmount, &currency, &paymentStatus, &estimatedDays,
	)
	if err != nil {
		return nil, err
	}

	if acceptedAt.Valid {
		v := acceptedAt.Time
		m.AcceptedAt = &v
	}
	if deliveryFee.Valid {
		m.Pricing = &PricingSnapshot{
			DeliveryFee:   deliveryFee.Float64,
			PlatformFee:   platformFee.Float64,
			TotalAmount:   totalAmount.Float64,
			Currency:      currency.String,
			PaymentStatus: paymentStatus.String,
			EstimatedDays: int(estimatedDays.Int64),
		}
	}
	return &m, nil
}
