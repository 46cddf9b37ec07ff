package flusher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/ismaiel54/trading-storage-buffer/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sber = message.SecurityID{Code: "SBER", Board: "TQBR"}

type written struct {
	id        string
	snap      buffer.Snapshot
	withEvent bool
}

type fakeSink struct {
	mu      sync.Mutex
	batches []written
	failN   int
}

func (s *fakeSink) WriteSnapshot(_ context.Context, batchID string, snap buffer.Snapshot, withEvent bool) (storage.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return storage.WriteResult{}, errors.New("disk full")
	}
	s.batches = append(s.batches, written{id: batchID, snap: snap, withEvent: withEvent})
	return storage.WriteResult{BatchID: batchID, Rows: snap.Total()}, nil
}

func (s *fakeSink) written() []written {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]written(nil), s.batches...)
}

func newTestFlusher(buf *buffer.StorageBuffer, sink Sink) *Flusher {
	f := New(buf, sink, 10*time.Millisecond, true, zap.NewNop())
	n := 0
	f.newBatchID = func() string {
		n++
		return fmt.Sprintf("batch-%d", n)
	}
	return f
}

func tick(price, volume int64) *message.Execution {
	p := decimal.NewFromInt(price)
	v := decimal.NewFromInt(volume)
	return &message.Execution{
		ExecutionType: message.ExecutionTick,
		SecurityID:    sber,
		TradePrice:    &p,
		TradeVolume:   &v,
	}
}

func TestFlush_WritesDrainedSnapshot(t *testing.T) {
	settings := buffer.DefaultSettings()
	settings.SetTicksAsLevel1(false)
	buf := buffer.NewStorageBuffer(settings, nil)
	sink := &fakeSink{}
	f := newTestFlusher(buf, sink)

	require.NoError(t, buf.ProcessOutbound(tick(100, 1)))
	require.NoError(t, buf.ProcessOutbound(tick(101, 2)))

	res, err := f.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "batch-1", res.BatchID)
	assert.Equal(t, 2, res.Rows)

	got := sink.written()
	require.Len(t, got, 1)
	assert.True(t, got[0].withEvent)
	assert.Len(t, got[0].snap.Ticks[sber], 2)
	assert.Empty(t, got[0].snap.Level1)

	batches, rows := f.Stats()
	assert.Equal(t, int64(1), batches)
	assert.Equal(t, int64(2), rows)

	// Nothing left to write
	res, err = f.Flush(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Len(t, sink.written(), 1)
}

func TestFlush_TicksAsLevel1(t *testing.T) {
	buf := buffer.NewStorageBuffer(buffer.DefaultSettings(), nil)
	sink := &fakeSink{}
	f := newTestFlusher(buf, sink)

	require.NoError(t, buf.ProcessOutbound(tick(100, 5)))

	_, err := f.Flush(context.Background())
	require.NoError(t, err)

	snap := sink.written()[0].snap
	require.Len(t, snap.Ticks[sber], 1)
	require.Len(t, snap.Level1[sber], 1)
	l1 := snap.Level1[sber][0]
	assert.True(t, decimal.NewFromInt(100).Equal(l1.Changes[message.Level1LastTradePrice]))
	assert.True(t, decimal.NewFromInt(5).Equal(l1.Changes[message.Level1LastTradeVolume]))
}

func TestFlush_FailedBatchIsRetriedWithSameID(t *testing.T) {
	buf := buffer.NewStorageBuffer(buffer.DefaultSettings(), nil)
	sink := &fakeSink{failN: 1}
	f := newTestFlusher(buf, sink)

	require.NoError(t, buf.ProcessOutbound(tick(100, 1)))
	_, err := f.Flush(context.Background())
	require.Error(t, err)
	assert.Empty(t, sink.written())

	require.NoError(t, buf.ProcessOutbound(tick(102, 1)))
	res, err := f.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "batch-2", res.BatchID)

	got := sink.written()
	require.Len(t, got, 2)
	assert.Equal(t, "batch-1", got[0].id, "failed batch keeps its id")
	assert.Len(t, got[0].snap.Ticks[sber], 1)
	assert.Len(t, got[1].snap.Ticks[sber], 1)
}

func TestRun_FinalFlushOnShutdown(t *testing.T) {
	settings := buffer.DefaultSettings()
	settings.SetDisableStorageTimer(true)
	buf := buffer.NewStorageBuffer(settings, nil)
	sink := &fakeSink{}
	f := newTestFlusher(buf, sink)

	require.NoError(t, buf.ProcessOutbound(tick(100, 1)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	// Timer flushes are disabled, so nothing is written while running
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sink.written())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("flusher did not stop")
	}

	require.Len(t, sink.written(), 1)
}

func TestRun_FlushesOnTimer(t *testing.T) {
	buf := buffer.NewStorageBuffer(buffer.DefaultSettings(), nil)
	sink := &fakeSink{}
	f := newTestFlusher(buf, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.Run(ctx)

	require.NoError(t, buf.ProcessOutbound(tick(100, 1)))
	assert.Eventually(t, func() bool {
		return len(sink.written()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
