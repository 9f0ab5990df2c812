// README: Trip intake and edit service; maintains the geo index and drives match invalidation.
package trip

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"qikparcel/internal/types"
)

type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.Point, error)
}

// Matcher surfaces candidate parcels after a trip is created.
type Matcher interface {
	CreateForTrip(ctx context.Context, t *Trip) (int, error)
}

// Lifecycle invalidates and re-scores matches after a trip edit.
type Lifecycle interface {
	OnTripUpdated(ctx context.Context, t *Trip) error
}

// Index is the geo index of open trip origins used for candidate ranking.
type Index interface {
	Add(ctx context.Context, tripID types.ID, origin types.Point) error
	Remove(ctx context.Context, tripID types.ID) error
}

type Service struct {
	store     *Store
	geocoder  Geocoder  // optional
	matcher   Matcher   // optional
	lifecycle Lifecycle // optional
	index     Index     // optional
}

func NewService(store *Store, geocoder Geocoder, matcher Matcher, lifecycle Lifecycle, index Index) *Service {
	return &Service{store: store, geocoder: geocoder, matcher: matcher, lifecycle: lifecycle, index: index}
}

type CreateCommand struct {
	CourierID          types.ID
	OriginAddress      string
	DestinationAddress string
	OriginCountry      string
	DestinationCountry string
	Origin             *types.Point
	Destination        *types.Point
	DepartureAt        *time.Time
	ArrivalAt          *time.Time
	Capacity           Capacity
}

type UpdateCommand struct {
	TripID             types.ID
	CourierID          types.ID
	OriginAddress      string
	DestinationAddress string
	OriginCountry      string
	DestinationCountry string
	Origin             *types.Point
	Destination        *types.Point
	DepartureAt        *time.Time
	ArrivalAt          *time.Time
	Capacity           Capacity
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	if cmd.CourierID == "" || cmd.OriginAddress == "" || cmd.DestinationAddress == "" {
		return nil, ErrInvalid
	}

	t := &Trip{
		ID:                 types.ID(uuid.NewString()),
		CourierID:          cmd.CourierID,
		OriginAddress:      cmd.OriginAddress,
		DestinationAddress: cmd.DestinationAddress,
		OriginCountry:      cmd.OriginCountry,
		DestinationCountry: cmd.DestinationCountry,
		Origin:             cmd.Origin,
		Destination:        cmd.Destination,
		DepartureAt:        cmd.DepartureAt,
		ArrivalAt:          cmd.ArrivalAt,
		Capacity:           cmd.Capacity,
		Status:             StatusScheduled,
		CreatedAt:          time.Now().UTC(),
	}
	s.backfillCoordinates(ctx, t)

	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	s.indexTrip(ctx, t)

	if s.matcher != nil {
		if _, err := s.matcher.CreateForTrip(ctx, t); err != nil {
			log.Printf("trip %s: initial match pass failed: %v", t.ID, err)
		}
	}
	return t, nil
}

// Update applies a courier's edit and triggers match invalidation/re-scoring.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*Trip, error) {
	t, err := s.store.Get(ctx, cmd.TripID)
	if err != nil {
		return nil, err
	}
	if t.CourierID != cmd.CourierID {
		return nil, ErrForbidden
	}

	t.OriginAddress = cmd.OriginAddress
	t.DestinationAddress = cmd.DestinationAddress
	t.OriginCountry = cmd.OriginCountry
	t.DestinationCountry = cmd.DestinationCountry
	t.Origin = cmd.Origin
	t.Destination = cmd.Destination
	t.DepartureAt = cmd.DepartureAt
	t.ArrivalAt = cmd.ArrivalAt
	t.Capacity = cmd.Capacity
	s.backfillCoordinates(ctx, t)

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	s.indexTrip(ctx, t)

	if s.lifecycle != nil {
		if err := s.lifecycle.OnTripUpdated(ctx, t); err != nil {
			log.Printf("trip %s: match invalidation failed: %v", t.ID, err)
		}
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) backfillCoordinates(ctx context.Context, t *Trip) {
	if s.geocoder == nil {
		return
	}
	if t.Origin == nil {
		if pt, err := s.geocoder.Geocode(ctx, t.OriginAddress); err == nil {
			t.Origin = pt
		} else {
			log.Printf("geocode origin %q: %v", t.OriginAddress, err)
		}
	}
	if t.Destination == nil {
		if pt, err := s.geocoder.Geocode(ctx, t.DestinationAddress); err == nil {
			t.Destination = pt
		} else {
			log.Printf("geocode destination %q: %v", t.DestinationAddress, err)
		}
	}
}

// indexTrip keeps the geo index current. The index only ranks candidates;
// eligibility always comes from the store, so failures are logged and ignored.
func (s *Service) indexTrip(ctx context.Context, t *Trip) {
	if s.index == nil || t.Origin == nil {
		return
	}
	var err error
	if t.Open() && t.LockedParcelID == nil {
		err = s.index.Add(ctx, t.ID, *t.Origin)
	} else {
		err = s.index.Remove(ctx, t.ID)
	}
	if err != nil {
		log.Printf("trip %s: geo index update failed: %v", t.ID, err)
	}
}
