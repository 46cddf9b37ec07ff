package main

import (
	"context"
	"errors"
	"testing"

	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLookup(stored map[string]map[string]int) CountLookup {
	return func(_ context.Context, batchID string) (map[string]int, error) {
		return stored[batchID], nil
	}
}

func TestAnalyze_Passes(t *testing.T) {
	events := []msg.FlushEventMsg{
		{BatchID: "b1", Total: 3, Counts: map[string]int{"ticks": 2, "news": 1, "candles": 0}},
		{BatchID: "b2", Total: 1, Counts: map[string]int{"transactions": 1}},
	}
	lookup := staticLookup(map[string]map[string]int{
		"b1": {"ticks": 2, "news": 1},
		"b2": {"transactions": 1},
	})

	r, err := analyze(context.Background(), events, lookup)
	require.NoError(t, err)
	assert.True(t, r.ok())
	assert.Equal(t, 2, r.Batches)
	assert.Equal(t, 4, r.Messages)
}

func TestAnalyze_DetectsDuplicatesAndMismatches(t *testing.T) {
	events := []msg.FlushEventMsg{
		{BatchID: "b1", Total: 2, Counts: map[string]int{"ticks": 2}},
		{BatchID: "b1", Total: 2, Counts: map[string]int{"ticks": 2}},
		{BatchID: "b2", Total: 1, Counts: map[string]int{"news": 1}},
		{BatchID: "b3", Total: 4, Counts: map[string]int{"ticks": 4}},
	}
	lookup := staticLookup(map[string]map[string]int{
		"b1": {"ticks": 2},
		"b2": {"news": 1, "ticks": 1},
	})

	r, err := analyze(context.Background(), events, lookup)
	require.NoError(t, err)
	assert.False(t, r.ok())
	assert.Equal(t, map[string]int{"b1": 2}, r.Duplicates)
	assert.Equal(t, []string{"b3"}, r.Missing)
	assert.Equal(t, []mismatch{{BatchID: "b2", Category: "ticks", Event: 0, Stored: 1}}, r.Mismatches)
}

func TestAnalyze_WithoutStore(t *testing.T) {
	r, err := analyze(context.Background(), []msg.FlushEventMsg{{BatchID: "b1", Total: 1}}, nil)
	require.NoError(t, err)
	assert.True(t, r.ok())
}

func TestAnalyze_LookupError(t *testing.T) {
	boom := errors.New("locked")
	_, err := analyze(context.Background(), []msg.FlushEventMsg{{BatchID: "b1"}}, func(context.Context, string) (map[string]int, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}
