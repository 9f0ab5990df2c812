// README: Scheduled rematch sweep; re-offers pending parcels against open trips.
package jobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"qikparcel/internal/modules/parcel"
)

// Sweeper lists parcels still waiting for a courier and re-runs match
// creation for one parcel.
type Sweeper interface {
	ListPendingParcels(ctx context.Context) ([]*parcel.Parcel, error)
	CreateForParcel(ctx context.Context, p *parcel.Parcel) (int, error)
}

// RematchJob periodically re-offers pending parcels. It catches parcels whose
// intake match pass failed and pairings that only became viable after later
// trip intake.
type RematchJob struct {
	sweeper Sweeper
	cron    *cron.Cron
}

func NewRematchJob(sweeper Sweeper) *RematchJob {
	return &RematchJob{sweeper: sweeper, cron: cron.New()}
}

// Start schedules the sweep every 5 minutes.
func (j *RematchJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * *", j.sweep)
	if err != nil {
		return err
	}
	j.cron.Start()
	log.Printf("rematch sweep started (every 5 minutes)")
	return nil
}

func (j *RematchJob) Stop() {
	j.cron.Stop()
	log.Printf("rematch sweep stopped")
}

func (j *RematchJob) sweep() {
	ctx := context.Background()
	parcels, err := j.sweeper.ListPendingParcels(ctx)
	if err != nil {
		log.Printf("rematch sweep: list pending parcels: %v", err)
		return
	}
	created := 0
	for _, p := range parcels {
		n, err := j.sweeper.CreateForParcel(ctx, p)
		if err != nil {
			log.Printf("rematch sweep: parcel %s: %v", p.ID, err)
			continue
		}
		created += n
	}
	if created > 0 {
		log.Printf("rematch sweep: %d new matches across %d pending parcels", created, len(parcels))
	}
}
