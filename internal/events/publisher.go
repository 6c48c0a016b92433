// Package events carries fetch notifications from the API to the archiver.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/newsdesk/internal/models"
)

// Publisher sends FetchEvents to Kafka.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewPublisher builds an asynchronous publisher for topic. Delivery errors
// are logged; they never reach the request path.
func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	p := &Publisher{log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 200 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.log.Warn("fetch event delivery failed",
					slog.Int("messages", len(messages)),
					slog.Any("err", err),
				)
			}
		},
	}
	return p
}

// Publish enqueues ev keyed by its cache key.
func (p *Publisher) Publish(ctx context.Context, ev models.FetchEvent) error {
	msg, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewFetchEvent stamps a fresh event for a fetched result.
func NewFetchEvent(key, location, category string, articles []models.Article, now time.Time) models.FetchEvent {
	return models.FetchEvent{
		ID:        uuid.NewString(),
		Key:       key,
		Location:  location,
		Category:  category,
		FetchedAt: now.UTC(),
		Articles:  articles,
	}
}

// Encode serializes ev into a Kafka message.
func Encode(ev models.FetchEvent) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal fetch event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.Key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.ID)},
		},
	}, nil
}

// Decode parses a Kafka message produced by Encode.
func Decode(msg kafka.Message) (models.FetchEvent, error) {
	var ev models.FetchEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return models.FetchEvent{}, fmt.Errorf("unmarshal fetch event: %w", err)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}
