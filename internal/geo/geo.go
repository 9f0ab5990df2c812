// README: Pure great-circle distance and proximity scoring helpers.
package geo

import (
	"math"

	"qikparcel/internal/types"
)

const earthRadiusKm = 6371.0

// Default caps for the route-alignment check: a trip cannot realistically
// serve a pickup or delivery more than this far from its own endpoints.
const (
	DefaultMaxPickupKm   = 10.0
	DefaultMaxDeliveryKm = 10.0
)

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceKm is HaversineKm over Points.
func DistanceKm(a, b types.Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ProximityScore maps a distance onto [0,100]: 100 at distance zero, decaying
// linearly to 0 at maxDistanceKm, clamped to 0 beyond that radius.
func ProximityScore(distanceKm, maxDistanceKm float64) float64 {
	if maxDistanceKm <= 0 {
		return 0
	}
	if distanceKm <= 0 {
		return 100
	}
	if distanceKm >= maxDistanceKm {
		return 0
	}
	return 100 * (1 - distanceKm/maxDistanceKm)
}

// RouteAlignmentScore measures how well a parcel's pickup/delivery endpoints
// lie on a trip's own route. Either endpoint beyond its cap is a hard cutoff;
// otherwise the two proximity scores are averaged unweighted.
func RouteAlignmentScore(pickup, delivery, origin, destination types.Point, maxPickupKm, maxDeliveryKm float64) float64 {
	pickupDist := DistanceKm(pickup, origin)
	deliveryDist := DistanceKm(delivery, destination)
	if pickupDist > maxPickupKm || deliveryDist > maxDeliveryKm {
		return 0
	}
	return (ProximityScore(pickupDist, maxPickupKm) + ProximityScore(deliveryDist, maxDeliveryKm)) / 2
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
