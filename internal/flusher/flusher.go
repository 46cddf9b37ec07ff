// Package flusher periodically drains the storage buffer into a sink.
package flusher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/ismaiel54/trading-storage-buffer/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source is drained on every flush
type Source interface {
	Snapshot() buffer.Snapshot
	Settings() *buffer.Settings
}

// Sink persists a drained snapshot under a batch id
type Sink interface {
	WriteSnapshot(ctx context.Context, batchID string, snap buffer.Snapshot, withEvent bool) (storage.WriteResult, error)
}

// Result describes one flush
type Result struct {
	BatchID   string
	Rows      int
	Duplicate bool
	Empty     bool
}

type pendingBatch struct {
	id   string
	snap buffer.Snapshot
}

// Flusher drains a Source into a Sink on a timer
type Flusher struct {
	source        Source
	sink          Sink
	logger        *zap.Logger
	interval      time.Duration
	publishEvents bool
	newBatchID    func() string

	mu      sync.Mutex
	pending *pendingBatch

	flushCount int64
	rowCount   int64
}

// New creates a flusher. publishEvents queues a flush event with every
// written batch.
func New(source Source, sink Sink, interval time.Duration, publishEvents bool, logger *zap.Logger) *Flusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flusher{
		source:        source,
		sink:          sink,
		logger:        logger,
		interval:      interval,
		publishEvents: publishEvents,
		newBatchID:    uuid.NewString,
	}
}

// Run flushes every interval until ctx is done, then flushes once more
// with a fresh context so nothing accepted before shutdown is lost.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := f.Flush(finalCtx); err != nil {
				f.logger.Error("final flush failed", zap.Error(err))
			}
			return ctx.Err()
		case <-ticker.C:
			if f.source.Settings().DisableStorageTimer() {
				continue
			}
			if _, err := f.Flush(ctx); err != nil {
				// The batch is kept and retried on the next tick
				f.logger.Error("flush failed", zap.Error(err))
			}
		}
	}
}

// Flush drains the source and writes the result as one batch. A batch
// whose write failed earlier is written first under its original id.
func (f *Flusher) Flush(ctx context.Context) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pending != nil {
		if _, err := f.write(ctx, f.pending.id, f.pending.snap); err != nil {
			return Result{}, fmt.Errorf("failed to retry batch %s: %w", f.pending.id, err)
		}
		f.pending = nil
	}

	snap := f.source.Snapshot()
	if f.source.Settings().TicksAsLevel1() {
		addTicksAsLevel1(&snap)
	}

	if snap.Empty() {
		return Result{Empty: true}, nil
	}

	id := f.newBatchID()
	res, err := f.write(ctx, id, snap)
	if err != nil {
		f.pending = &pendingBatch{id: id, snap: snap}
		return Result{}, err
	}

	return res, nil
}

// Stats returns the number of batches and rows written so far
func (f *Flusher) Stats() (batches, rows int64) {
	return atomic.LoadInt64(&f.flushCount), atomic.LoadInt64(&f.rowCount)
}

func (f *Flusher) write(ctx context.Context, id string, snap buffer.Snapshot) (Result, error) {
	wr, err := f.sink.WriteSnapshot(ctx, id, snap, f.publishEvents)
	if err != nil {
		return Result{}, fmt.Errorf("failed to write batch %s: %w", id, err)
	}

	if wr.Duplicate {
		f.logger.Warn("batch already stored", zap.String("batch_id", id))
	} else {
		atomic.AddInt64(&f.flushCount, 1)
		atomic.AddInt64(&f.rowCount, int64(wr.Rows))
		f.logger.Info("flushed batch",
			zap.String("batch_id", id),
			zap.Int("rows", wr.Rows),
			zap.Any("counts", snap.Counts()),
		)
	}

	return Result{BatchID: id, Rows: wr.Rows, Duplicate: wr.Duplicate}, nil
}

// addTicksAsLevel1 derives a last-trade Level1 change from every tick with
// a trade price. The ticks themselves stay in the snapshot.
func addTicksAsLevel1(snap *buffer.Snapshot) {
	for sec, ticks := range snap.Ticks {
		for _, t := range ticks {
			if t.TradePrice == nil {
				continue
			}
			changes := map[message.Level1Field]decimal.Decimal{
				message.Level1LastTradePrice: *t.TradePrice,
			}
			if t.TradeVolume != nil {
				changes[message.Level1LastTradeVolume] = *t.TradeVolume
			}
			if snap.Level1 == nil {
				snap.Level1 = make(map[message.SecurityID][]*message.Level1Change)
			}
			snap.Level1[sec] = append(snap.Level1[sec], &message.Level1Change{
				Base:         message.Base{LocalTime: t.LocalTime},
				Subscription: message.Subscription{SubscriptionID: t.SubscriptionID, SubscriptionIDs: t.SubscriptionIDs},
				SecurityID:   sec,
				ServerTime:   t.ServerTime,
				Changes:      changes,
			})
		}
	}
}
