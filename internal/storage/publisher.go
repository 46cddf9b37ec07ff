package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"go.uber.org/zap"
)

// EventProducer sends a JSON value to a topic
type EventProducer interface {
	ProduceJSON(ctx context.Context, topic string, key string, v any) error
}

// Publisher publishes outbox flush events to Kafka
type Publisher struct {
	store     *Store
	producer  EventProducer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewPublisher creates a new outbox publisher
func NewPublisher(store *Store, producer EventProducer, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  250 * time.Millisecond,
		batchSize: 100,
	}
}

// Run starts the publisher loop
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PublishPending(ctx); err != nil {
				p.logger.Error("failed to publish batch", zap.Error(err))
			}
		}
	}
}

// PublishPending publishes one batch of unpublished events and returns how
// many were published. Failed events stay in the outbox for the next run.
func (p *Publisher) PublishPending(ctx context.Context) (int, error) {
	events, err := p.store.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list unpublished events: %w", err)
	}

	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now().UnixMilli()
	published := 0

	for _, event := range events {
		var flushEvent msg.FlushEventMsg
		if err := json.Unmarshal([]byte(event.PayloadJSON), &flushEvent); err != nil {
			p.logger.Error("failed to unmarshal event payload",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		if err := p.producer.ProduceJSON(ctx, event.Topic, event.Key, flushEvent); err != nil {
			p.logger.Error("failed to produce event",
				zap.String("event_id", event.EventID),
				zap.String("batch_id", event.BatchID),
				zap.Error(err),
			)
			continue
		}

		// A failure here republishes the event later; consumers dedupe by batch id
		if err := p.store.MarkPublished(ctx, event.EventID, now); err != nil {
			p.logger.Error("failed to mark event as published",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		published++
		p.logger.Debug("published flush event",
			zap.String("event_id", event.EventID),
			zap.String("batch_id", event.BatchID),
		)
	}

	if published > 0 {
		p.logger.Info("published outbox batch",
			zap.Int("published", published),
			zap.Int("total", len(events)),
		)
	}

	return published, nil
}
