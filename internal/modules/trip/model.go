// README: Trip aggregate, status definitions, and capacity tiers.
package trip

import (
	"errors"
	"time"

	"qikparcel/internal/types"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Capacity is the largest parcel class a trip can carry.
type Capacity string

const (
	CapacityUnset  Capacity = ""
	CapacitySmall  Capacity = "small"
	CapacityMedium Capacity = "medium"
	CapacityLarge  Capacity = "large"
)

// TierRank orders capacity tiers for fit comparison. Unset maps to -1.
func TierRank(c Capacity) int {
	switch c {
	case CapacitySmall:
		return 0
	case CapacityMedium:
		return 1
	case CapacityLarge:
		return 2
	default:
		return -1
	}
}

var (
	ErrNotFound  = errors.New("trip not found")
	ErrInvalid   = errors.New("invalid trip")
	ErrForbidden = errors.New("trip does not belong to courier")
)

// Trip is a courier's journey offering spare carrying capacity.
// Invariant: a trip with a non-nil LockedParcelID has exactly one accepted
// match whose parcel equals that id, and accepts no further matches.
type Trip struct {
	ID                 types.ID
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
	Status             Status
	LockedParcelID     *types.ID
	CreatedAt          time.Time
}

// Open reports whether the trip can still take on matches by status alone.
func (t *Trip) Open() bool {
	return t.Status == StatusScheduled || t.Status == StatusInProgress
}
