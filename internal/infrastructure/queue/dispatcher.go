package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/civicworks/grievance-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher routes code deliveries to a fixed set of workers using
// consistent hashing on the identifier, guaranteeing per-identifier
// delivery ordering: a resend never overtakes the code it replaced.
type Dispatcher struct {
	workers  []chan ports.CodeDelivery
	notifier ports.Notifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.CodeDelivery, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.CodeDelivery, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a delivery to the worker responsible for its identifier.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(delivery ports.CodeDelivery) {
	d.workers[d.shardIndex(delivery.Identifier)] <- delivery
}

// shardIndex maps an identifier deterministically to a worker index.
func (d *Dispatcher) shardIndex(identifier string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.CodeDelivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-ch:
			if !ok {
				return
			}
			if err := d.notifier.Deliver(ctx, delivery); err != nil {
				d.log.Error().Err(err).
					Str("handle", delivery.Handle).
					Int("worker_id", id).
					Msg("code delivery failed")
			}
		}
	}
}
