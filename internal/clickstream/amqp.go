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

const publishTimeout = 2 * time.Second

// wireEvent is the queue representation of a click event.
type wireEvent struct {
	ShortCode  string    `json:"short_code"`
	ClickedAt  time.Time `json:"clicked_at"`
	IPHash     string    `json:"ip_hash"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
	DeviceType string    `json:"device_type"`
	IsBot      bool      `json:"is_bot"`
}

func toWireEvent(event models.ClickEvent) wireEvent {
	return wireEvent{
		ShortCode:  event.ShortCode,
		ClickedAt:  event.ClickedAt,
		IPHash:     event.IPHash,
		UserAgent:  event.UserAgent,
		Referrer:   event.Referrer,
		DeviceType: event.DeviceType,
		IsBot:      event.IsBot,
	}
}

func (e wireEvent) toClickEvent() models.ClickEvent {
	return models.ClickEvent{
		ShortCode:  e.ShortCode,
		ClickedAt:  e.ClickedAt,
		IPHash:     e.IPHash,
		UserAgent:  e.UserAgent,
		Referrer:   e.Referrer,
		DeviceType: e.DeviceType,
		IsBot:      e.IsBot,
	}
}

// Publisher sends click events to an AMQP queue for a separate worker to
// persist. Like the in-process dispatcher, it never blocks a redirect:
// publish failures are logged and counted as drops.
type Publisher struct {
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
}

// NewPublisher opens a channel on conn and declares the durable click queue.
func NewPublisher(conn *amqp.Connection, queue string, logger *slog.Logger) (*Publisher, error) {
	const op = "clickstream.NewPublisher"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open channel: %w", op, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: failed to declare queue: %w", op, err)
	}

	return &Publisher{
		ch:     ch,
		queue:  queue,
		logger: logger,
	}, nil
}

// Record publishes a click event to the queue. Failures are swallowed so the
// redirect path is never affected.
func (p *Publisher) Record(event models.ClickEvent) {
	body, err := json.Marshal(toWireEvent(event))
	if err != nil {
		metrics.ClickEventsDropped.Inc()
		p.logger.Error("failed to marshal click event", slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		metrics.ClickEventsDropped.Inc()
		p.logger.Error("failed to publish click event", slog.String("short_code", event.ShortCode), slog.Any("error", err))
	}
}

// Close releases the underlying channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
