// README: Scoring engine; weighted multi-factor score for a (parcel, trip) pair.
package match

import (
	"math"
	"time"

	"qikparcel/internal/config"
	"qikparcel/internal/geo"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
)

// Sub-score weights. They sum to 1.0 and are never renormalized.
const (
	weightRouteAlignment = 0.40
	weightProximity      = 0.30
	weightTime           = 0.20
	weightCapacity       = 0.10
)

// Wider radius for the coarse "right part of the world" proximity signal,
// distinct from the tight route-alignment caps.
const proximityRadiusKm = 50.0

// Neutral defaults when inputs are missing: coarse matches must still come
// out when geocoding or schedule data is unavailable.
const (
	defaultRouteAlignment = 50.0
	defaultProximity      = 40.0
	defaultTimeScore      = 70.0
	defaultCapacityScore  = 70.0
)

// Engine computes deterministic, side-effect-free match scores in [0,100].
type Engine struct {
	threshold float64
	now       func() time.Time
}

func NewEngine(cfg config.MatchingConfig) *Engine {
	return &Engine{threshold: float64(cfg.MinScoreThreshold), now: time.Now}
}

// Score combines route alignment, geographic proximity, time compatibility,
// and capacity fit into a single 0-100 score, rounded to two decimals.
func (e *Engine) Score(p *parcel.Parcel, t *trip.Trip) float64 {
	total := weightRouteAlignment*routeAlignment(p, t) +
		weightProximity*proximity(p, t) +
		weightTime*timeCompatibility(t.DepartureAt, e.now()) +
		weightCapacity*capacityFit(p, t)
	return math.Round(total*100) / 100
}

// Valid reports whether a score makes the pairing eligible for persistence.
func (e *Engine) Valid(score float64) bool {
	return score >= e.threshold
}

func routeAlignment(p *parcel.Parcel, t *trip.Trip) float64 {
	if p.Pickup == nil || p.Delivery == nil || t.Origin == nil || t.Destination == nil {
		return defaultRouteAlignment
	}
	return geo.RouteAlignmentScore(*p.Pickup, *p.Delivery, *t.Origin, *t.Destination,
		geo.DefaultMaxPickupKm, geo.DefaultMaxDeliveryKm)
}

func proximity(p *parcel.Parcel, t *trip.Trip) float64 {
	if p.Pickup == nil || p.Delivery == nil || t.Origin == nil || t.Destination == nil {
		return defaultProximity
	}
	pickupScore := geo.ProximityScore(geo.DistanceKm(*p.Pickup, *t.Origin), proximityRadiusKm)
	deliveryScore := geo.ProximityScore(geo.DistanceKm(*p.Delivery, *t.Destination), proximityRadiusKm)
	return (pickupScore + deliveryScore) / 2
}

// timeCompatibility scores the lead time until departure. Departed trips are
// already missed; under an hour is too soon to coordinate a handover.
func timeCompatibility(departureAt *time.Time, now time.Time) float64 {
	if departureAt == nil {
		return defaultTimeScore
	}
	hours := departureAt.Sub(now).Hours()
	switch {
	case hours < 0:
		return 0
	case hours < 1:
		return 30
	case hours < 24:
		return 70
	default:
		return 90
	}
}

// capacityFit scores how a parcel's size class fits a trip's capacity tier.
// An undersized trip is a hard fail: it cannot be forced to carry a larger
// parcel.
func capacityFit(p *parcel.Parcel, t *trip.Trip) float64 {
	tripRank := trip.TierRank(t.Capacity)
	if tripRank < 0 {
		return defaultCapacityScore
	}
	parcelRank := trip.TierRank(trip.Capacity(parcel.SizeFromWeight(p.WeightKg)))
	if parcelRank < 0 {
		return 60
	}
	switch tripRank - parcelRank {
	case 0:
		return 100
	case 1:
		return 80
	case 2:
		return 60
	default:
		return 0
	}
}
