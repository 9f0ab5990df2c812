// README: Trip geo index backed by Redis GEO; ranks open trips by origin.
package tripindex

import (
	"context"

	"github.com/redis/go-redis/v9"

	"qikparcel/internal/types"
)

const tripGeoKey = "match:trips"

// Store keeps the origins of open, unlocked trips in a Redis GEO set. It is
// advisory data: the relational store stays the source of truth for
// eligibility, so a stale index entry costs a wasted lookup, never a wrong
// match.
type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Add registers or refreshes a trip's origin.
func (s *Store) Add(ctx context.Context, id types.ID, origin types.Point) error {
	return s.redis.GeoAdd(ctx, tripGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: origin.Lng,
		Latitude:  origin.Lat,
	}).Err()
}

// Remove drops a trip from the index. Removing an absent trip is a no-op.
func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, tripGeoKey, string(id)).Err()
}

// NearbyTrips returns trip IDs whose origin lies within radiusKm of p,
// closest first.
func (s *Store) NearbyTrips(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, tripGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
