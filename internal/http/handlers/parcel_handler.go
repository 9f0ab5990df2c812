// README: Parcel intake and lookup handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qikparcel/internal/modules/match"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/types"
)

type ParcelHandler struct {
	parcels *parcel.Service
	matches *match.Service
}

func NewParcelHandler(parcels *parcel.Service, matches *match.Service) *ParcelHandler {
	return &ParcelHandler{parcels: parcels, matches: matches}
}

type createParcelReq struct {
	PickupAddress   string   `json:"pickup_address"`
	DeliveryAddress string   `json:"delivery_address"`
	PickupCountry   string   `json:"pickup_country"`
	DeliveryCountry string   `json:"delivery_country"`
	PickupLat       *float64 `json:"pickup_lat"`
	PickupLng       *float64 `json:"pickup_lng"`
	DeliveryLat     *float64 `json:"delivery_lat"`
	DeliveryLng     *float64 `json:"delivery_lng"`
	WeightKg        float64  `json:"weight_kg"`
	DeclaredValue   float64  `json:"declared_value"`
}

func (h *ParcelHandler) Create(c *gin.Context) {
	sender := actorID(c)
	if sender == "" {
		writeError(c, http.StatusBadRequest, "missing "+actorHeader+" header")
		return
	}
	var req createParcelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := h.parcels.Create(c.Request.Context(), parcel.CreateCommand{
		SenderID:        sender,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		PickupCountry:   req.PickupCountry,
		DeliveryCountry: req.DeliveryCountry,
		Pickup:          pointFrom(req.PickupLat, req.PickupLng),
		Delivery:        pointFrom(req.DeliveryLat, req.DeliveryLng),
		WeightKg:        req.WeightKg,
		DeclaredValue:   req.DeclaredValue,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, parcelView(p))
}

func (h *ParcelHandler) Get(c *gin.Context) {
	p, err := h.parcels.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, parcelView(p))
}

// Matches lists the parcel's offers with their trips, for the sender's view.
func (h *ParcelHandler) Matches(c *gin.Context) {
	list, err := h.matches.MatchesForParcel(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, mt := range list {
		out = append(out, gin.H{
			"match": matchView(mt.Match),
			"trip": gin.H{
				"trip_id":             mt.Trip.ID,
				"origin_address":      mt.Trip.OriginAddress,
				"destination_address": mt.Trip.DestinationAddress,
				"departure_at":        mt.Trip.DepartureAt,
				"capacity":            mt.Trip.Capacity,
				"status":              mt.Trip.Status,
			},
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": out})
}

func parcelView(p *parcel.Parcel) gin.H {
	v := gin.H{
		"parcel_id":        p.ID,
		"status":           p.Status,
		"pickup_address":   p.PickupAddress,
		"delivery_address": p.DeliveryAddress,
		"weight_kg":        p.WeightKg,
		"created_at":       p.CreatedAt,
	}
	if p.MatchedTripID != nil {
		v["matched_trip_id"] = *p.MatchedTripID
	}
	return v
}

func pointFrom(lat, lng *float64) *types.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &types.Point{Lat: *lat, Lng: *lng}
}
