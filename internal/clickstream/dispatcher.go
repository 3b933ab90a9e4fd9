package clickstream

import (
	"context"
	"log/slog"
	"time"

	"github.com/shorturl-app/shorturl/internal/metrics"
	"github.com/shorturl-app/shorturl/internal/models"
)

const shutdownFlushTimeout = 5 * time.Second

// Store persists batches of click events.
type Store interface {
	SaveBatch(ctx context.Context, events []models.ClickEvent) error
}

// Dispatcher buffers click events in memory and flushes them to the store in
// batches. Record never blocks: when the buffer is full the event is dropped
// and counted. At most one buffer plus one unflushed batch can be lost on a
// crash.
type Dispatcher struct {
	store         Store
	logger        *slog.Logger
	events        chan models.ClickEvent
	batchSize     int
	flushInterval time.Duration
}

// NewDispatcher returns a dispatcher with the given buffer capacity, batch
// size and flush interval. Run must be started for events to reach the store.
func NewDispatcher(store Store, logger *slog.Logger, bufferSize, batchSize int, flushInterval time.Duration) *Dispatcher {
	return &Dispatcher{
		store:         store,
		logger:        logger,
		events:        make(chan models.ClickEvent, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Record enqueues a click event. It never blocks and never returns an error;
// a full buffer drops the event.
func (d *Dispatcher) Record(event models.ClickEvent) {
	select {
	case d.events <- event:
	default:
		metrics.ClickEventsDropped.Inc()
		d.logger.Warn("click event dropped, buffer full", slog.String("short_code", event.ShortCode))
	}
}

// Run consumes the buffer until ctx is cancelled, flushing whenever a batch
// fills or the flush interval elapses. On shutdown it drains the buffer and
// flushes what remains.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	batch := make([]models.ClickEvent, 0, d.batchSize)

	for {
		select {
		case event := <-d.events:
			batch = append(batch, event)
			if len(batch) >= d.batchSize {
				d.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				d.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			for len(d.events) > 0 {
				batch = append(batch, <-d.events)
			}
			if len(batch) > 0 {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
				d.flush(flushCtx, batch)
				cancel()
			}
			return nil
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context, batch []models.ClickEvent) {
	if err := d.store.SaveBatch(ctx, batch); err != nil {
		d.logger.Error("failed to flush click events", slog.Int("count", len(batch)), slog.Any("error", err))
		return
	}

	metrics.ClickEventsFlushed.Add(float64(len(batch)))
}
