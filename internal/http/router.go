// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qikparcel/internal/http/handlers"
	"qikparcel/internal/http/middleware"
	"qikparcel/internal/modules/match"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/trip"
)

func NewRouter(
	parcelService *parcel.Service,
	tripService *trip.Service,
	matchService *match.Service,
) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	parcelHandler := handlers.NewParcelHandler(parcelService, matchService)
	r.POST("/api/parcels", parcelHandler.Create)
	r.GET("/api/parcels/:id", parcelHandler.Get)
	r.GET("/api/parcels/:id/matches", parcelHandler.Matches)

	tripHandler := handlers.NewTripHandler(tripService, matchService)
	r.POST("/api/trips", tripHandler.Create)
	r.GET("/api/trips/:id", tripHandler.Get)
	r.PUT("/api/trips/:id", tripHandler.Update)
	r.GET("/api/trips/:id/matches", tripHandler.Matches)

	matchHandler := handlers.NewMatchHandler(matchService)
	r.POST("/api/matches/:id/accept", matchHandler.Accept)
	r.POST("/api/matches/:id/reject", matchHandler.Reject)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
