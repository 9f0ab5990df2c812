// README: Pricing rule store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) DomesticRule(ctx context.Context, country string) (*Rule, error) {
	row := s.db.QueryRow(ctx, `
		SELECT country, base_fee, rate_per_km, currency
		FROM pricing_rules
		WHERE country = $1`, country)

	var r Rule
	err := row.Scan(&r.Country, &r.BaseFee, &r.RatePerKm, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PgStore) CountryRate(ctx context.Context, originCountry, destCountry string) (*CountryRate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT origin_country, dest_country, base_fee, per_kg, currency, estimated_days
		FROM country_rates
		WHERE origin_country = $1 AND dest_country = $2`, originCountry, destCountry)

	var r CountryRate
	err := row.Scan(&r.OriginCountry, &r.DestCountry, &r.BaseFee, &r.PerKg, &r.Currency, &r.EstimatedDays)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
