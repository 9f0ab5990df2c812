// README: Parcel aggregate, status definitions, and weight-based size classes.
package parcel

import (
	"errors"
	"time"

	"qikparcel/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusMatched   Status = "matched"
	StatusPickedUp  Status = "picked_up"
	StatusInTransit Status = "in_transit"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Size is the capacity class a parcel needs on a trip.
type Size string

const (
	SizeUnknown Size = ""
	SizeSmall   Size = "small"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
)

// SizeFromWeight classifies a parcel by declared weight. Non-positive weights
// classify as unknown rather than guessing.
func SizeFromWeight(weightKg float64) Size {
	switch {
	case weightKg <= 0:
		return SizeUnknown
	case weightKg <= 2:
		return SizeSmall
	case weightKg <= 10:
		return SizeMedium
	default:
		return SizeLarge
	}
}

var (
	ErrNotFound = errors.New("parcel not found")
	ErrInvalid  = errors.New("invalid parcel")
)

// Parcel is a sender's delivery request awaiting a carrying trip.
// Invariant: MatchedTripID is non-nil iff Status is matched or later
// (picked_up, in_transit, delivered).
type Parcel struct {
	ID              types.ID
	SenderID        types.ID
	PickupAddress   string
	DeliveryAddress string
	PickupCountry   string
	DeliveryCountry string
	Pickup          *types.Point
	Delivery        *types.Point
	WeightKg        float64
	DeclaredValue   float64
	Status          Status
	MatchedTripID   *types.ID
	CreatedAt       time.Time
}

// StatusHistory is one audit record of a parcel status transition.
type StatusHistory struct {
	ID        int64
	ParcelID  types.ID
	Status    Status
	Note      string
	CreatedAt time.Time
}
