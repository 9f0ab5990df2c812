// README: Base handler utilities (JSON helpers, error mapping, actor identity).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qikparcel/internal/modules/match"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/types"
)

// Callers identify themselves with this header. Upstream auth is expected to
// have verified it.
const actorHeader = "X-User-ID"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func actorID(c *gin.Context) types.ID {
	return types.ID(c.GetHeader(actorHeader))
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, parcel.ErrInvalid), errors.Is(err, trip.ErrInvalid):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, parcel.ErrNotFound), errors.Is(err, trip.ErrNotFound), errors.Is(err, match.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, trip.ErrForbidden), errors.Is(err, match.ErrForbidden):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, match.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
