// README: Address geocoding backed by the Google Maps API.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"qikparcel/internal/types"
)

// Geocoder resolves a postal address to coordinates.
type Geocoder struct {
	client *maps.Client
}

// NewGeocoder creates a Geocoder with the given API key.
func NewGeocoder(apiKey string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client}, nil
}

// Geocode returns the coordinates of the first result for the address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for %q", address)
	}
	loc := results[0].Geometry.Location
	return &types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
