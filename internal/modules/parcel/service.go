// README: Parcel intake service; validates, geocodes, persists, and triggers matching.
package parcel

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"qikparcel/internal/types"
)

// Geocoder is an opaque coordinate source for free-text addresses.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.Point, error)
}

// Matcher is invoked after a parcel is persisted to surface candidate trips.
type Matcher interface {
	CreateForParcel(ctx context.Context, p *Parcel) (int, error)
}

type Service struct {
	store    *Store
	geocoder Geocoder // optional
	matcher  Matcher  // optional
}

func NewService(store *Store, geocoder Geocoder, matcher Matcher) *Service {
	return &Service{store: store, geocoder: geocoder, matcher: matcher}
}

type CreateCommand struct {
	SenderID        types.ID
	PickupAddress   string
	DeliveryAddress string
	PickupCountry   string
	DeliveryCountry string
	Pickup          *types.Point
	Delivery        *types.Point
	WeightKg        float64
	DeclaredValue   float64
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Parcel, error) {
	if cmd.SenderID == "" || cmd.PickupAddress == "" || cmd.DeliveryAddress == "" || cmd.WeightKg <= 0 {
		return nil, ErrInvalid
	}

	p := &Parcel{
		ID:              types.ID(uuid.NewString()),
		SenderID:        cmd.SenderID,
		PickupAddress:   cmd.PickupAddress,
		DeliveryAddress: cmd.DeliveryAddress,
		PickupCountry:   cmd.PickupCountry,
		DeliveryCountry: cmd.DeliveryCountry,
		Pickup:          cmd.Pickup,
		Delivery:        cmd.Delivery,
		WeightKg:        cmd.WeightKg,
		DeclaredValue:   cmd.DeclaredValue,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	s.backfillCoordinates(ctx, p)

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.AppendHistory(ctx, p.ID, StatusPending, "parcel created"); err != nil {
		log.Printf("parcel %s: append history failed: %v", p.ID, err)
	}

	if s.matcher != nil {
		if _, err := s.matcher.CreateForParcel(ctx, p); err != nil {
			// Matching is re-driven by the rematch sweep; intake still succeeds.
			log.Printf("parcel %s: initial match pass failed: %v", p.ID, err)
		}
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Parcel, error) {
	return s.store.Get(ctx, id)
}

// backfillCoordinates resolves missing coordinates from addresses. Geocoding
// is best-effort: scoring falls back to neutral defaults without coordinates.
func (s *Service) backfillCoordinates(ctx context.Context, p *Parcel) {
	if s.geocoder == nil {
		return
	}
	if p.Pickup == nil {
		if pt, err := s.geocoder.Geocode(ctx, p.PickupAddress); err == nil {
			p.Pickup = pt
		} else {
			log.Printf("geocode pickup %q: %v", p.PickupAddress, err)
		}
	}
	if p.Delivery == nil {
		if pt, err := s.geocoder.Geocode(ctx, p.DeliveryAddress); err == nil {
			p.Delivery = pt
		} else {
			log.Printf("geocode delivery %q: %v", p.DeliveryAddress, err)
		}
	}
}
