// README: Match decision handlers (accept/reject).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qikparcel/internal/modules/match"
	"qikparcel/internal/types"
)

type MatchHandler struct {
	matches *match.Service
}

func NewMatchHandler(matches *match.Service) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) Accept(c *gin.Context) {
	courier := actorID(c)
	if courier == "" {
		writeError(c, http.StatusBadRequest, "missing "+actorHeader+" header")
		return
	}
	res, err := h.matches.Accept(c.Request.Context(), types.ID(c.Param("id")), courier)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	v := matchView(res.Match)
	if len(res.Warnings) > 0 {
		v["warnings"] = res.Warnings
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *MatchHandler) Reject(c *gin.Context) {
	courier := actorID(c)
	if courier == "" {
		writeError(c, http.StatusBadRequest, "missing "+actorHeader+" header")
		return
	}
	if err := h.matches.Reject(c.Request.Context(), types.ID(c.Param("id")), courier); err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": match.StatusRejected})
}

func matchView(m *match.Match) gin.H {
	v := gin.H{
		"match_id":   m.ID,
		"parcel_id":  m.ParcelID,
		"trip_id":    m.TripID,
		"score":      m.Score,
		"status":     m.Status,
		"matched_at": m.MatchedAt,
	}
	if m.AcceptedAt != nil {
		v["accepted_at"] = *m.AcceptedAt
	}
	if m.Pricing != nil {
		v["pricing"] = gin.H{
			"delivery_fee":   m.Pricing.DeliveryFee,
			"platform_fee":   m.Pricing.PlatformFee,
			"total_amount":   m.Pricing.TotalAmount,
			"currency":       m.Pricing.Currency,
			"payment_status": m.Pricing.PaymentStatus,
			"estimated_days": m.Pricing.EstimatedDays,
		}
	}
	return v
}
