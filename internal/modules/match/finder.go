// README: Candidate finder; read-only eligibility queries with geo ranking.
package match

import (
	"context"
	"log"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

// TripRanker orders open trips by origin proximity. It is advisory only:
// eligibility always comes from the store, and a ranker failure falls back
// to store order.
type TripRanker interface {
	NearbyTrips(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

// Radius handed to the ranker; wide enough to cover the proximity signal.
const rankRadiusKm = 100.0

type Finder struct {
	store  Store
	ranker TripRanker // optional
}

func NewFinder(store Store, ranker TripRanker) *Finder {
	return &Finder{store: store, ranker: ranker}
}

// CandidateTripsForParcel returns open, unlocked trips that do not already
// carry a live match against this parcel. A parcel that is no longer pending
// has no candidates.
func (f *Finder) CandidateTripsForParcel(ctx context.Context, parcelID types.ID) ([]*trip.Trip, error) {
	p, err := f.store.GetParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if p.Status != parcel.StatusPending {
		return nil, nil
	}

	trips, err := f.store.ListOpenTrips(ctx)
	if err != nil {
		return nil, err
	}
	live, err := f.store.ListLiveMatchesForParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	taken := make(map[types.ID]bool, len(live))
	for _, m := range live {
		taken[m.TripID] = true
	}

	candidates := make([]*trip.Trip, 0, len(trips))
	for _, t := range trips {
		if taken[t.ID] {
			continue
		}
		candidates = append(candidates, t)
	}
	return f.rank(ctx, p, candidates), nil
}

// CandidateParcelsForTrip returns pending parcels without a live match
// against this trip. A locked or closed trip has no candidates.
func (f *Finder) CandidateParcelsForTrip(ctx context.Context, tripID types.ID) ([]*parcel.Parcel, error) {
	t, err := f.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !t.Open() || t.LockedParcelID != nil {
		return nil, nil
	}

	parcels, err := f.store.ListPendingParcels(ctx)
	if err != nil {
		return nil, err
	}
	live, err := f.store.ListLiveMatchesForTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	taken := make(map[types.ID]bool, len(live))
	for _, m := range live {
		taken[m.ParcelID] = true
	}

	candidates := make([]*parcel.Parcel, 0, len(parcels))
	for _, p := range parcels {
		if taken[p.ID] {
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates, nil
}

// rank moves trips the geo index considers nearest to the parcel's pickup to
// the front; trips unknown to the index keep their store order at the back.
func (f *Finder) rank(ctx context.Context, p *parcel.Parcel, trips []*trip.Trip) []*trip.Trip {
	if f.ranker == nil || p.Pickup == nil || len(trips) < 2 {
		return trips
	}
	nearby, err := f.ranker.NearbyTrips(ctx, *p.Pickup, rankRadiusKm)
	if err != nil {
		log.Printf("trip ranking unavailable: %v", err)
		return trips
	}
	pos := make(map[types.ID]int, len(nearby))
	for i, id := range nearby {
		pos[id] = i
	}

	ranked := make([]*trip.Trip, 0, len(trips))
	var rest []*trip.Trip
	for _, t := range trips {
		if _, ok := pos[t.ID]; ok {
			ranked = append(ranked, t)
		} else {
			rest = append(rest, t)
		}
	}
	// Insertion sort by index position; candidate sets are small.
	for i := 1; i < len(ranked); i++ {
		key := ranked[i]
		j := i - 1
		for j >= 0 && pos[ranked[j].ID] > pos[key.ID] {
			ranked[j+1] = ranked[j]
			j--
		}
		ranked[j+1] = key
	}
	return append(ranked, rest...)
}
