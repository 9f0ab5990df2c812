// README: In-memory Store with the same conditional-write semantics as the
// PostgreSQL store; backs the unit and race tests.
package match

import (
	"context"
	"fmt"
	"sync"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

type historyEntry struct {
	parcelID types.ID
	status   parcel.Status
	note     string
}

type memStore struct {
	mu      sync.Mutex
	parcels map[types.ID]*parcel.Parcel
	trips   map[types.ID]*trip.Trip
	matches map[types.ID]*Match
	history []historyEntry

	historyErr error // injected failure for partial-success tests
}

func newMemStore() *memStore {
	return &memStore{
		parcels: make(map[types.ID]*parcel.Parcel),
		trips:   make(map[types.ID]*trip.Trip),
		matches: make(map[types.ID]*Match),
	}
}

func (s *memStore) addParcel(p *parcel.Parcel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.parcels[p.ID] = &cp
}

func (s *memStore) addTrip(t *trip.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct := *t
	s.trips[t.ID] = &ct
}

func (s *memStore) GetParcel(_ context.Context, id types.ID) (*parcel.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[id]
	if !ok {
		return nil, parcel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) GetTrip(_ context.Context, id types.ID) (*trip.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok {
		return nil, trip.ErrNotFound
	}
	ct := *t
	return &ct, nil
}

func (s *memStore) ListPendingParcels(_ context.Context) ([]*parcel.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*parcel.Parcel
	for _, p := range s.parcels {
		if p.Status == parcel.StatusPending {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListOpenTrips(_ context.Context) ([]*trip.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*trip.Trip
	for _, t := range s.trips {
		if t.Open() && t.LockedParcelID == nil {
			ct := *t
			out = append(out, &ct)
		}
	}
	return out, nil
}

func (s *memStore) GetMatch(_ context.Context, id types.ID) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cm := *m
	return &cm, nil
}

func (s *memStore) ListLiveMatchesForParcel(_ context.Context, parcelID types.ID) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		if m.ParcelID == parcelID && m.Status.Live() {
			cm := *m
			out = append(out, &cm)
		}
	}
	return out, nil
}

func (s *memStore) ListLiveMatchesForTrip(_ context.Context, tripID types.ID) ([]*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Match
	for _, m := range s.matches {
		if m.TripID == tripID && m.Status.Live() {
			cm := *m
			out = append(out, &cm)
		}
	}
	return out, nil
}

func (s *memStore) ListMatchesForParcel(_ context.Context, parcelID types.ID) ([]*MatchWithTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MatchWithTrip
	for _, m := range s.matches {
		if m.ParcelID == parcelID {
			cm := *m
			ct := *s.trips[m.TripID]
			out = append(out, &MatchWithTrip{Match: &cm, Trip: &ct})
		}
	}
	return out, nil
}

func (s *memStore) ListMatchesForTrip(_ context.Context, tripID types.ID) ([]*MatchWithParcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MatchWithParcel
	for _, m := range s.matches {
		if m.TripID == tripID {
			cm := *m
			cp := *s.parcels[m.ParcelID]
			out = append(out, &MatchWithParcel{Match: &cm, Parcel: &cp})
		}
	}
	return out, nil
}

func (s *memStore) InsertMatch(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.matches {
		if existing.ParcelID == m.ParcelID && existing.TripID == m.TripID && existing.Status.Live() {
			return ErrDuplicatePair
		}
	}
	cm := *m
	s.matches[m.ID] = &cm
	return nil
}

func (s *memStore) UpdateMatchScore(_ context.Context, id types.ID, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	m.Score = score
	return nil
}

func (s *memStore) RejectPending(_ context.Context, id types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != StatusPending {
		return false, nil
	}
	m.Status = StatusRejected
	return true, nil
}

func (s *memStore) Accept(_ context.Context, w AcceptWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[w.MatchID]
	if !ok || m.Status != StatusPending {
		return fmt.Errorf("%w: match no longer pending", ErrConflict)
	}
	p, ok := s.parcels[w.ParcelID]
	if !ok || p.Status != parcel.StatusPending {
		return fmt.Errorf("%w: parcel no longer pending", ErrConflict)
	}
	t, ok := s.trips[w.TripID]
	if !ok || (t.LockedParcelID != nil && *t.LockedParcelID != w.ParcelID) {
		return fmt.Errorf("%w: trip locked to another parcel", ErrConflict)
	}

	for _, other := range s.matches {
		if other.ID == w.MatchID || other.Status != StatusPending {
			continue
		}
		if other.ParcelID == w.ParcelID || other.TripID == w.TripID {
			other.Status = StatusRejected
		}
	}

	acceptedAt := w.AcceptedAt
	m.Status = StatusAccepted
	m.AcceptedAt = &acceptedAt
	snap := *w.Pricing
	m.Pricing = &snap

	tripID := w.TripID
	p.Status = parcel.StatusMatched
	p.MatchedTripID = &tripID
	parcelID := w.ParcelID
	t.LockedParcelID = &parcelID
	return nil
}

func (s *memStore) ExpireAccepted(_ context.Context, w ExpireWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[w.MatchID]
	if !ok || m.Status != StatusAccepted {
		return fmt.Errorf("%w: match not accepted", ErrConflict)
	}
	m.Status = StatusExpired

	if p, ok := s.parcels[w.ParcelID]; ok && p.MatchedTripID != nil && *p.MatchedTripID == w.TripID {
		p.Status = parcel.StatusPending
		p.MatchedTripID = nil
	}
	if t, ok := s.trips[w.TripID]; ok && t.LockedParcelID != nil && *t.LockedParcelID == w.ParcelID {
		t.LockedParcelID = nil
	}
	return nil
}

func (s *memStore) DeletePendingForTrip(_ context.Context, tripID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.TripID == tripID && m.Status == StatusPending {
			delete(s.matches, id)
		}
	}
	return nil
}

func (s *memStore) AppendParcelHistory(_ context.Context, parcelID types.ID, status parcel.Status, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyErr != nil {
		return s.historyErr
	}
	s.history = append(s.history, historyEntry{parcelID: parcelID, status: status, note: note})
	return nil
}

// snapshots used by invariant assertions

func (s *memStore) acceptedCountForParcel(parcelID types.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.ParcelID == parcelID && m.Status == StatusAccepted {
			n++
		}
	}
	return n
}

func (s *memStore) acceptedCountForTrip(tripID types.ID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.matches {
		if m.TripID == tripID && m.Status == StatusAccepted {
			n++
		}
	}
	return n
}

func (s *memStore) matchByPair(parcelID, tripID types.ID) *Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.ParcelID == parcelID && m.TripID == tripID {
			cm := *m
			return &cm
		}
	}
	return nil
}
