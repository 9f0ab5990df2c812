// README: Trip intake and edit handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qikparcel/internal/modules/match"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

type TripHandler struct {
	trips   *trip.Service
	matches *match.Service
}

func NewTripHandler(trips *trip.Service, matches *match.Service) *TripHandler {
	return &TripHandler{trips: trips, matches: matches}
}

type tripReq struct {
	OriginAddress      string     `json:"origin_address"`
	DestinationAddress string     `json:"destination_address"`
	OriginCountry      string     `json:"origin_country"`
	DestinationCountry string     `json:"destination_country"`
	OriginLat          *float64   `json:"origin_lat"`
	OriginLng          *float64   `json:"origin_lng"`
	DestinationLat     *float64   `json:"destination_lat"`
	DestinationLng     *float64   `json:"destination_lng"`
	DepartureAt        *time.Time `json:"departure_at"`
	ArrivalAt          *time.Time `json:"arrival_at"`
	Capacity           string     `json:"capacity"`
}

func (h *TripHandler) Create(c *gin.Context) {
	courier := actorID(c)
	if courier == "" {
		writeError(c, http.StatusBadRequest, "missing "+actorHeader+" header")
		return
	}
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.trips.Create(c.Request.Context(), trip.CreateCommand{
		CourierID:          courier,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		OriginCountry:      req.OriginCountry,
		DestinationCountry: req.DestinationCountry,
		Origin:             pointFrom(req.OriginLat, req.OriginLng),
		Destination:        pointFrom(req.DestinationLat, req.DestinationLng),
		DepartureAt:        req.DepartureAt,
		ArrivalAt:          req.ArrivalAt,
		Capacity:           trip.Capacity(req.Capacity),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, tripView(t))
}

func (h *TripHandler) Update(c *gin.Context) {
	courier := actorID(c)
	if courier == "" {
		writeError(c, http.StatusBadRequest, "missing "+actorHeader+" header")
		return
	}
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.trips.Update(c.Request.Context(), trip.UpdateCommand{
		TripID:             types.ID(c.Param("id")),
		CourierID:          courier,
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		OriginCountry:      req.OriginCountry,
		DestinationCountry: req.DestinationCountry,
		Origin:             pointFrom(req.OriginLat, req.OriginLng),
		Destination:        pointFrom(req.DestinationLat, req.DestinationLng),
		DepartureAt:        req.DepartureAt,
		ArrivalAt:          req.ArrivalAt,
		Capacity:           trip.Capacity(req.Capacity),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripView(t))
}

func (h *TripHandler) Get(c *gin.Context) {
	t, err := h.trips.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, tripView(t))
}

// Matches lists the trip's offers with their parcels, for the courier's view.
func (h *TripHandler) Matches(c *gin.Context) {
	list, err := h.matches.MatchesForTrip(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, mp := range list {
		out = append(out, gin.H{
			"match": matchView(mp.Match),
			"parcel": gin.H{
				"parcel_id":        mp.Parcel.ID,
				"pickup_address":   mp.Parcel.PickupAddress,
				"delivery_address": mp.Parcel.DeliveryAddress,
				"weight_kg":        mp.Parcel.WeightKg,
				"status":           mp.Parcel.Status,
			},
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": out})
}

func tripView(t *trip.Trip) gin.H {
	v := gin.H{
		"trip_id":             t.ID,
		"status":              t.Status,
		"origin_address":      t.OriginAddress,
		"destination_address": t.DestinationAddress,
		"capacity":            t.Capacity,
		"created_at":          t.CreatedAt,
	}
	if t.DepartureAt != nil {
		v["departure_at"] = *t.DepartureAt
	}
	if t.LockedParcelID != nil {
		v["locked_parcel_id"] = *t.LockedParcelID
	}
	return v
}
