package msg

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Producer wraps a Kafka producer
type Producer struct {
	client       *kgo.Client
	logger       *zap.Logger
	produceCount int64
	errorCount   int64
	done         chan struct{}
	closeOnce    sync.Once
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *Config, logger *zap.Logger) (*Producer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.DisableIdempotentWrite(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	p := &Producer{
		client: client,
		logger: logger,
		done:   make(chan struct{}),
	}

	logger.Info("producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	go p.logStats()

	return p, nil
}

// ProduceJSON produces a JSON message to the specified topic
func (p *Producer) ProduceJSON(ctx context.Context, topic string, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return p.produce(ctx, topic, key, data)
}

// ProduceMessage wraps m in an Envelope and produces it keyed by instrument
func (p *Producer) ProduceMessage(ctx context.Context, topic string, m message.Message) error {
	data, err := Encode(m, uuid.NewString(), time.Now().UnixMilli())
	if err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		return err
	}
	return p.produce(ctx, topic, PartitionKey(m), data)
}

func (p *Producer) produce(ctx context.Context, topic, key string, data []byte) error {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	// Synchronous produce with timeout
	produceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result := p.client.ProduceSync(produceCtx, record)
	if err := result.FirstErr(); err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		return fmt.Errorf("failed to produce message: %w", err)
	}

	atomic.AddInt64(&p.produceCount, 1)
	return nil
}

// Close closes the producer
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if p.client != nil {
			p.client.Close()
		}
	})
}

// logStats logs producer statistics periodically
func (p *Producer) logStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.logger.Info("producer stats",
				zap.Int64("produced", atomic.LoadInt64(&p.produceCount)),
				zap.Int64("errors", atomic.LoadInt64(&p.errorCount)),
			)
		}
	}
}
