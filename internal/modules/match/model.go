// README: Match aggregate, status definitions, and pricing snapshot.
package match

import (
	"time"

	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// AllowedTransitions represents the match state flow as code. Rejected and
// expired are terminal; accepted can only expire (re-scored after a trip edit
// drops it below threshold).
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusExpired},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Live reports whether the status still occupies the (parcel, trip) pair.
func (s Status) Live() bool {
	return s == StatusPending || s == StatusAccepted
}

// PricingSnapshot is attached to a match at acceptance time.
type PricingSnapshot struct {
	DeliveryFee   float64
	PlatformFee   float64
	TotalAmount   float64
	Currency      string
	PaymentStatus string
	EstimatedDays int
}

// Match is a scored candidate pairing of one parcel and one trip.
// Invariants: at most one accepted match per parcel, at most one accepted
// match per trip, and at most one live (pending or accepted) match per
// (parcel, trip) pair; rejected/expired matches remain as history.
type Match struct {
	ID         types.ID
	ParcelID   types.ID
	TripID     types.ID
	Score      float64
	Status     Status
	MatchedAt  time.Time
	AcceptedAt *time.Time
	Pricing    *PricingSnapshot
}

// MatchWithTrip is the projection returned when listing a parcel's offers.
type MatchWithTrip struct {
	Match *Match
	Trip  *trip.Trip
}

// MatchWithParcel is the projection returned when listing a trip's offers.
type MatchWithParcel struct {
	Match  *Match
	Parcel *parcel.Parcel
}
