package clickstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shorturl-app/shorturl/internal/metrics"
	"github.com/shorturl-app/shorturl/internal/models"
)

// Consumer drains the click queue and persists events in batches. Deliveries
// are acked only after a batch reaches the store, so a worker crash requeues
// in-flight events instead of losing them.
type Consumer struct {
	ch            *amqp.Channel
	queue         string
	store         Store
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration
}

// NewConsumer opens a channel on conn, declares the durable click queue and
// caps unacked deliveries at batchSize.
func NewConsumer(conn *amqp.Connection, queue string, store Store, logger *slog.Logger, batchSize int, flushInterval time.Duration) (*Consumer, error) {
	const op = "clickstream.NewConsumer"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open channel: %w", op, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue: %w", op, err)
	}

	if err := ch.Qos(batchSize, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set prefetch: %w", op, err)
	}

	return &Consumer{
		ch:            ch,
		queue:         queue,
		store:         store,
		logger:        logger,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}, nil
}

// Run consumes the queue until ctx is cancelled. Malformed deliveries are
// dropped without requeue; store failures requeue the whole batch.
func (c *Consumer) Run(ctx context.Context) error {
	const op = "clickstream.Consumer.Run"

	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to start consuming: %w", op, err)
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	events := make([]models.ClickEvent, 0, c.batchSize)
	pending := make([]amqp.Delivery, 0, c.batchSize)

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				c.flush(ctx, events, pending)
				return fmt.Errorf("%s: delivery channel closed", op)
			}

			var event wireEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				c.logger.Error("dropping malformed click event", slog.Any("error", err))
				if err := delivery.Nack(false, false); err != nil {
					c.logger.Error("failed to nack delivery", slog.Any("error", err))
				}
				continue
			}

			events = append(events, event.toClickEvent())
			pending = append(pending, delivery)

			if len(events) >= c.batchSize {
				c.flush(ctx, events, pending)
				events = events[:0]
				pending = pending[:0]
			}
		case <-ticker.C:
			if len(events) > 0 {
				c.flush(ctx, events, pending)
				events = events[:0]
				pending = pending[:0]
			}
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			c.flush(flushCtx, events, pending)
			cancel()
			return nil
		}
	}
}

// flush writes the batch and acks each delivery. On a store error the batch
// is requeued for a later attempt.
func (c *Consumer) flush(ctx context.Context, events []models.ClickEvent, pending []amqp.Delivery) {
	if len(events) == 0 {
		return
	}

	if err := c.store.SaveBatch(ctx, events); err != nil {
		c.logger.Error("failed to save click events, requeueing", slog.Int("count", len(events)), slog.Any("error", err))
		for _, delivery := range pending {
			if err := delivery.Nack(false, true); err != nil {
				c.logger.Error("failed to nack delivery", slog.Any("error", err))
			}
		}
		return
	}

	for _, delivery := range pending {
		if err := delivery.Ack(false); err != nil {
			c.logger.Error("failed to ack delivery", slog.Any("error", err))
		}
	}

	metrics.ClickEventsFlushed.Add(float64(len(events)))
	c.logger.Debug("click events saved", slog.Int("count", len(events)))
}

// Close releases the underlying channel.
func (c *Consumer) Close() error {
	return c.ch.Close()
}
