// README: Match lifecycle service; create, accept, reject, and trip-edit invalidation.
package match

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/pricing"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

var (
	ErrNotFound  = errors.New("match not found")
	ErrForbidden = errors.New("actor does not own the trip")
	ErrConflict  = errors.New("match state conflict")

	// ErrDuplicatePair is returned by stores when inserting a second live
	// match for the same (parcel, trip) pair. Creation treats it as a
	// benign no-op.
	ErrDuplicatePair = errors.New("live match already exists for pair")
)

// Store is the transactional collaborator behind the lifecycle service.
// Accept and ExpireAccepted group their writes into one atomic unit whose
// conditional guards are re-verified inside the transaction.
type Store interface {
	GetParcel(ctx context.Context, id types.ID) (*parcel.Parcel, error)
	GetTrip(ctx context.Context, id types.ID) (*trip.Trip, error)
	ListPendingParcels(ctx context.Context) ([]*parcel.Parcel, error)
	ListOpenTrips(ctx context.Context) ([]*trip.Trip, error)

	GetMatch(ctx context.Context, id types.ID) (*Match, error)
	ListLiveMatchesForParcel(ctx context.Context, parcelID types.ID) ([]*Match, error)
	ListLiveMatchesForTrip(ctx context.Context, tripID types.ID) ([]*Match, error)
	ListMatchesForParcel(ctx context.Context, parcelID types.ID) ([]*MatchWithTrip, error)
	ListMatchesForTrip(ctx context.Context, tripID types.ID) ([]*MatchWithParcel, error)

	// InsertMatch persists a pending match; ErrDuplicatePair when the pair
	// already has a live match.
	InsertMatch(ctx context.Context, m *Match) error
	// UpdateMatchScore persists a recomputed score in place.
	UpdateMatchScore(ctx context.Context, id types.ID, score float64) error
	// RejectPending transitions pending→rejected; false when no longer pending.
	RejectPending(ctx context.Context, id types.ID) (bool, error)
	// Accept applies the exclusive acceptance writes atomically;
	// ErrConflict when any conditional guard misses.
	Accept(ctx context.Context, w AcceptWrite) error
	// ExpireAccepted transitions accepted→expired, releases the trip lock,
	// and returns the parcel to pending, atomically.
	ExpireAccepted(ctx context.Context, w ExpireWrite) error
	// DeletePendingForTrip removes all pending matches for a trip; their
	// scores are stale after an edit and are recomputed from scratch.
	DeletePendingForTrip(ctx context.Context, tripID types.ID) error

	AppendParcelHistory(ctx context.Context, parcelID types.ID, status parcel.Status, note string) error
}

// AcceptWrite is the atomic unit applied when a courier accepts a match:
// reject competing pendings, accept this match with its pricing snapshot,
// mark the parcel matched, and lock the trip.
type AcceptWrite struct {
	MatchID    types.ID
	ParcelID   types.ID
	TripID     types.ID
	AcceptedAt time.Time
	Pricing    *PricingSnapshot
}

// ExpireWrite is the atomic unit applied when a re-scored accepted match
// falls below threshold after a trip edit.
type ExpireWrite struct {
	MatchID  types.ID
	ParcelID types.ID
	TripID   types.ID
}

// Pricer computes the fee snapshot attached at acceptance time.
type Pricer interface {
	Quote(ctx context.Context, in pricing.QuoteInput) (pricing.Quote, error)
}

// Notifier delivers best-effort match notifications without blocking the
// caller. Implementations must never propagate delivery failures.
type Notifier interface {
	CourierOfMatch(matchID types.ID)
	SenderOfAcceptedMatch(matchID types.ID)
}

type Service struct {
	store    Store
	engine   *Engine
	finder   *Finder
	pricer   Pricer
	notifier Notifier // optional
}

func NewService(store Store, engine *Engine, finder *Finder, pricer Pricer, notifier Notifier) *Service {
	return &Service{store: store, engine: engine, finder: finder, pricer: pricer, notifier: notifier}
}

// AcceptResult reports a successful acceptance plus any non-fatal follow-up
// failures (partial success).
type AcceptResult struct {
	Match    *Match
	Warnings []string
}

// CreateForParcel scores every candidate trip for a parcel and persists a
// pending match for each valid score. Returns the number of matches created.
func (s *Service) CreateForParcel(ctx context.Context, p *parcel.Parcel) (int, error) {
	trips, err := s.finder.CandidateTripsForParcel(ctx, p.ID)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, t := range trips {
		if s.createPending(ctx, p, t) {
			created++
		}
	}
	return created, nil
}

// CreateForTrip is the symmetric pass run when a trip appears or changes.
func (s *Service) CreateForTrip(ctx context.Context, t *trip.Trip) (int, error) {
	parcels, err := s.finder.CandidateParcelsForTrip(ctx, t.ID)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, p := range parcels {
		if s.createPending(ctx, p, t) {
			created++
		}
	}
	return created, nil
}

func (s *Service) createPending(ctx context.Context, p *parcel.Parcel, t *trip.Trip) bool {
	score := s.engine.Score(p, t)
	if !s.engine.Valid(score) {
		return false
	}
	m := &Match{
		ID:        types.ID(uuid.NewString()),
		ParcelID:  p.ID,
		TripID:    t.ID,
		Score:     score,
		Status:    StatusPending,
		MatchedAt: time.Now().UTC(),
	}
	if err := s.store.InsertMatch(ctx, m); err != nil {
		if errors.Is(err, ErrDuplicatePair) {
			// A concurrent pass already offered this pair.
			return false
		}
		log.Printf("match insert %s/%s: %v", p.ID, t.ID, err)
		return false
	}
	if s.notifier != nil {
		s.notifier.CourierOfMatch(m.ID)
	}
	return true
}

// Accept locks the pairing exclusively for the acting courier. All competing
// pending matches on the parcel and the trip are rejected in the same atomic
// unit (first come, first served).
func (s *Service) Accept(ctx context.Context, matchID, actingCourierID types.ID) (*AcceptResult, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.Status != StatusPending {
		return nil, fmt.Errorf("%w: match already decided (%s)", ErrConflict, m.Status)
	}

	t, err := s.store.GetTrip(ctx, m.TripID)
	if err != nil {
		return nil, err
	}
	if t.CourierID != actingCourierID {
		return nil, ErrForbidden
	}
	if t.LockedParcelID != nil && *t.LockedParcelID != m.ParcelID {
		return nil, fmt.Errorf("%w: trip locked to another parcel", ErrConflict)
	}

	p, err := s.store.GetParcel(ctx, m.ParcelID)
	if err != nil {
		return nil, err
	}
	if p.Status != parcel.StatusPending {
		return nil, fmt.Errorf("%w: parcel no longer pending", ErrConflict)
	}

	quote, err := s.pricer.Quote(ctx, pricing.QuoteInput{
		Pickup:          p.Pickup,
		Delivery:        p.Delivery,
		PickupCountry:   p.PickupCountry,
		DeliveryCountry: p.DeliveryCountry,
		WeightKg:        p.WeightKg,
	})
	if err != nil {
		return nil, fmt.Errorf("pricing: %w", err)
	}
	snapshot := &PricingSnapshot{
		DeliveryFee:   quote.DeliveryFee,
		PlatformFee:   quote.PlatformFee,
		TotalAmount:   quote.TotalAmount,
		Currency:      quote.Currency,
		PaymentStatus: "unpaid",
		EstimatedDays: quote.EstimatedDays,
	}

	acceptedAt := time.Now().UTC()
	err = s.store.Accept(ctx, AcceptWrite{
		MatchID:    m.ID,
		ParcelID:   m.ParcelID,
		TripID:     m.TripID,
		AcceptedAt: acceptedAt,
		Pricing:    snapshot,
	})
	if err != nil {
		return nil, err
	}

	m.Status = StatusAccepted
	m.AcceptedAt = &acceptedAt
	m.Pricing = snapshot

	result := &AcceptResult{Match: m}
	// The lock has already taken effect; a history failure downgrades to a
	// warning rather than unwinding the acceptance.
	note := fmt.Sprintf("matched to trip %s", m.TripID)
	if err := s.store.AppendParcelHistory(ctx, m.ParcelID, parcel.StatusMatched, note); err != nil {
		log.Printf("match %s: status history append failed: %v", m.ID, err)
		result.Warnings = append(result.Warnings, "status history not recorded")
	}
	if s.notifier != nil {
		s.notifier.SenderOfAcceptedMatch(m.ID)
	}
	return result, nil
}

// Reject declines a pending offer. The parcel stays pending and remains
// eligible for other trips.
func (s *Service) Reject(ctx context.Context, matchID, actingCourierID types.ID) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != StatusPending {
		return fmt.Errorf("%w: match already decided (%s)", ErrConflict, m.Status)
	}
	t, err := s.store.GetTrip(ctx, m.TripID)
	if err != nil {
		return err
	}
	if t.CourierID != actingCourierID {
		return ErrForbidden
	}

	ok, err := s.store.RejectPending(ctx, matchID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: match already decided", ErrConflict)
	}
	return nil
}

// OnTripUpdated invalidates stale offers after a trip edit: pending matches
// are dropped outright, accepted matches are re-scored (expiring below
// threshold), and a fresh creation pass surfaces newly viable pairings.
func (s *Service) OnTripUpdated(ctx context.Context, t *trip.Trip) error {
	if t.Status != trip.StatusScheduled {
		return nil
	}

	if err := s.store.DeletePendingForTrip(ctx, t.ID); err != nil {
		return err
	}

	live, err := s.store.ListLiveMatchesForTrip(ctx, t.ID)
	if err != nil {
		return err
	}
	for _, m := range live {
		if m.Status != StatusAccepted {
			continue
		}
		p, err := s.store.GetParcel(ctx, m.ParcelID)
		if err != nil {
			log.Printf("match %s: parcel lookup during re-score: %v", m.ID, err)
			continue
		}
		score := s.engine.Score(p, t)
		if s.engine.Valid(score) {
			if err := s.store.UpdateMatchScore(ctx, m.ID, score); err != nil {
				log.Printf("match %s: score update failed: %v", m.ID, err)
			}
			continue
		}
		err = s.store.ExpireAccepted(ctx, ExpireWrite{MatchID: m.ID, ParcelID: m.ParcelID, TripID: m.TripID})
		if err != nil {
			log.Printf("match %s: expire failed: %v", m.ID, err)
			continue
		}
		note := fmt.Sprintf("match expired after trip %s edit", t.ID)
		if err := s.store.AppendParcelHistory(ctx, m.ParcelID, parcel.StatusPending, note); err != nil {
			log.Printf("match %s: status history append failed: %v", m.ID, err)
		}
	}

	if _, err := s.CreateForTrip(ctx, t); err != nil {
		return err
	}
	return nil
}

// ListPendingParcels exposes the rematch sweep's work queue.
func (s *Service) ListPendingParcels(ctx context.Context) ([]*parcel.Parcel, error) {
	return s.store.ListPendingParcels(ctx)
}

// MatchesForParcel lists a parcel's offers with their trips, newest first.
func (s *Service) MatchesForParcel(ctx context.Context, parcelID types.ID) ([]*MatchWithTrip, error) {
	return s.store.ListMatchesForParcel(ctx, parcelID)
}

// MatchesForTrip lists a trip's offers with their parcels, newest first.
func (s *Service) MatchesForTrip(ctx context.Context, tripID types.ID) ([]*MatchWithParcel, error) {
	return s.store.ListMatchesForTrip(ctx, tripID)
}
