package geo

import (
	"math"
	"testing"

	"qikparcel/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 51.5074, lng1: -0.1278,
			lat2: 51.5074, lng2: -0.1278,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "London to Manchester (~262km)",
			lat1: 51.5074, lng1: -0.1278,
			lat2: 53.4808, lng2: -2.2426,
			wantKm:    262,
			tolerance: 5,
		},
		{
			name: "London to Edinburgh (~534km)",
			lat1: 51.5074, lng1: -0.1278,
			lat2: 55.9533, lng2: -3.1883,
			wantKm:    534,
			tolerance: 10,
		},
		{
			name: "New York to Los Angeles (~3944km)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := HaversineKm(51.5, -0.12, 53.48, -2.24)
	d2 := HaversineKm(53.48, -2.24, 51.5, -0.12)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestProximityScore(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		maxKm      float64
		want       float64
	}{
		{"zero distance", 0, 50, 100},
		{"half the radius", 25, 50, 50},
		{"at the radius", 50, 50, 0},
		{"beyond the radius", 120, 50, 0},
		{"negative distance clamps to full score", -1, 50, 100},
		{"zero radius", 10, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProximityScore(tt.distanceKm, tt.maxKm)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("ProximityScore(%v, %v) = %v, want %v", tt.distanceKm, tt.maxKm, got, tt.want)
			}
		})
	}
}

func TestRouteAlignmentScore_NearbyEndpoints(t *testing.T) {
	// Parcel endpoints within ~1km of the trip's own endpoints.
	pickup := types.Point{Lat: 51.5155, Lng: -0.0922}
	delivery := types.Point{Lat: 53.4839, Lng: -2.2446}
	origin := types.Point{Lat: 51.5074, Lng: -0.1278}
	destination := types.Point{Lat: 53.4808, Lng: -2.2426}

	got := RouteAlignmentScore(pickup, delivery, origin, destination, DefaultMaxPickupKm, DefaultMaxDeliveryKm)
	if got < 70 || got > 100 {
		t.Errorf("expected high alignment for near-route endpoints, got %f", got)
	}
}

func TestRouteAlignmentScore_HardCutoff(t *testing.T) {
	// London pickup against a Manchester-origin trip: pickup is ~262km from
	// the origin, far past the 10km cap, so the score must be exactly zero
	// even though the delivery endpoints coincide.
	pickup := types.Point{Lat: 51.5074, Lng: -0.1278}
	delivery := types.Point{Lat: 55.9533, Lng: -3.1883}
	origin := types.Point{Lat: 53.4808, Lng: -2.2426}
	destination := types.Point{Lat: 55.9533, Lng: -3.1883}

	got := RouteAlignmentScore(pickup, delivery, origin, destination, DefaultMaxPickupKm, DefaultMaxDeliveryKm)
	if got != 0 {
		t.Errorf("expected 0 for out-of-cap pickup, got %f", got)
	}
}

func TestRouteAlignmentScore_IdenticalRoute(t *testing.T) {
	a := types.Point{Lat: 51.5074, Lng: -0.1278}
	b := types.Point{Lat: 53.4808, Lng: -2.2426}
	got := RouteAlignmentScore(a, b, a, b, DefaultMaxPickupKm, DefaultMaxDeliveryKm)
	if got != 100 {
		t.Errorf("expected 100 for identical endpoints, got %f", got)
	}
}
