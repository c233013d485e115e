// Package events publishes lifecycle notifications to RabbitMQ. The broker is
// optional: a nil *Publisher silently drops messages, so call sites never
// branch on whether one is configured.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/streadway/amqp"
)

const queueName = "document_events"

const (
	DocumentCreated = "document.created"
	DocumentUpdated = "document.updated"
	DocumentDeleted = "document.deleted"
	UserRegistered  = "user.registered"
)

// Message is the wire shape for every event.
type Message struct {
	Event      string    `json:"event"`
	UserID     uint      `json:"user_id"`
	DocumentID uint      `json:"document_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Connect dials the broker and declares the durable event queue.
func Connect(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", queueName, err)
	}

	slog.Info("event publisher connected", "queue", queueName)
	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var first error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			first = fmt.Errorf("failed to close channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && first == nil {
			first = fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return first
}

// Publish sends one event. Failures are logged, not propagated; events are
// advisory and must never fail the request that produced them.
func (p *Publisher) Publish(msg Message) {
	if p == nil || p.channel == nil {
		return
	}

	msg.OccurredAt = time.Now().UTC()
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal event", "event", msg.Event, "error", err)
		return
	}

	err = p.channel.Publish("", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		slog.Error("failed to publish event", "event", msg.Event, "error", err)
	}
}
