package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/baharkarakas/mfs-backend/internal/metrics"
	"github.com/baharkarakas/mfs-backend/internal/worker"
)

const publishTimeout = 5 * time.Second

// Dispatcher hands events to a Publisher on the worker pool so callers
// never wait on the broker.
type Dispatcher struct {
	pub  Publisher
	pool *worker.Pool
	log  *slog.Logger
}

func NewDispatcher(pub Publisher, pool *worker.Pool, log *slog.Logger) *Dispatcher {
	if pub == nil {
		pub = Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{pub: pub, pool: pool, log: log}
}

// Emit is fire-and-forget. A nil Dispatcher drops events.
func (d *Dispatcher) Emit(routingKey string, body any) {
	if d == nil {
		return
	}
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := d.pub.Publish(ctx, routingKey, body); err != nil {
			metrics.EventsPublished.WithLabelValues(routingKey, "error").Inc()
			d.log.Warn("event publish failed", "routing_key", routingKey, "err", err)
			return
		}
		metrics.EventsPublished.WithLabelValues(routingKey, "ok").Inc()
	}
	if d.pool == nil {
		job()
		return
	}
	if !d.pool.Submit(job) {
		metrics.EventsPublished.WithLabelValues(routingKey, "dropped").Inc()
	}
}
