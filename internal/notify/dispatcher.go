// README: Fire-and-forget dispatcher; decouples notification delivery from matching.
package notify

import (
	"context"
	"log"
	"time"

	"qikparcel/internal/types"
)

const (
	defaultQueueSize = 256
	deliveryTimeout  = 5 * time.Second
)

type job struct {
	matchID  types.ID
	accepted bool
}

// Dispatcher queues notifications and delivers them on a background worker.
// Enqueueing never blocks: when the queue is full the notification is
// dropped with a log line. Delivery failures are logged, never propagated.
type Dispatcher struct {
	notifier Notifier
	jobs     chan job
}

func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		jobs:     make(chan job, defaultQueueSize),
	}
}

// CourierOfMatch queues a new-offer notification for the trip's courier.
func (d *Dispatcher) CourierOfMatch(matchID types.ID) {
	d.enqueue(job{matchID: matchID})
}

// SenderOfAcceptedMatch queues an acceptance notification for the parcel's sender.
func (d *Dispatcher) SenderOfAcceptedMatch(matchID types.ID) {
	d.enqueue(job{matchID: matchID, accepted: true})
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		log.Printf("notify: queue full, dropping notification for match %s", j.matchID)
	}
}

// Run delivers queued notifications until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.jobs:
			d.deliver(j)
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	var err error
	if j.accepted {
		err = d.notifier.NotifySenderOfAcceptedMatch(ctx, j.matchID)
	} else {
		err = d.notifier.NotifyCourierOfMatch(ctx, j.matchID)
	}
	if err != nil {
		log.Printf("notify: delivery for match %s failed: %v", j.matchID, err)
	}
}
