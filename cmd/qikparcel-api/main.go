// README: Entry point; loads config, wires services, starts HTTP server and background workers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"qikparcel/internal/config"
	httptransport "qikparcel/internal/http"
	"qikparcel/internal/infra"
	"qikparcel/internal/jobs"
	"qikparcel/internal/maps"
	"qikparcel/internal/modules/match"
	"qikparcel/internal/modules/parcel"
	"qikparcel/internal/modules/pricing"
	"qikparcel/internal/modules/trip"
	"qikparcel/internal/modules/tripindex"
	"qikparcel/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	var parcelGeocoder parcel.Geocoder
	var tripGeocoder trip.Geocoder
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		parcelGeocoder = geocoder
		tripGeocoder = geocoder
	} else {
		log.Printf("QIKPARCEL_MAPS_API_KEY unset; coordinates must come from clients")
	}

	var delivery notify.Notifier = notify.LogNotifier{}
	if cfg.AMQP.URL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("broker init: %v", err)
		}
		defer amqpNotifier.Close()
		delivery = amqpNotifier
	}
	dispatcher := notify.NewDispatcher(delivery)
	go dispatcher.Run(ctx)

	parcelStore := parcel.NewStore(dbPool)
	tripStore := trip.NewStore(dbPool)
	tripIndex := tripindex.NewStore(redisClient)

	pricingStore := pricing.NewPgStore(dbPool)
	pricer := pricing.NewCalculator(pricingStore, cfg.Matching.CommissionPercent)

	matchStore := match.NewPgStore(dbPool, parcelStore, tripStore)
	engine := match.NewEngine(cfg.Matching)
	finder := match.NewFinder(matchStore, tripIndex)
	matchSvc := match.NewService(matchStore, engine, finder, pricer, dispatcher)

	parcelSvc := parcel.NewService(parcelStore, parcelGeocoder, matchSvc)
	tripSvc := trip.NewService(tripStore, tripGeocoder, matchSvc, matchSvc, tripIndex)

	rematch := jobs.NewRematchJob(matchSvc)
	if err := rematch.Start(); err != nil {
		log.Fatalf("rematch job: %v", err)
	}
	defer rematch.Stop()

	handler := httptransport.NewRouter(parcelSvc, tripSvc, matchSvc)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
