package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
)

// CountLookup returns the stored message counts per category for a batch
type CountLookup func(ctx context.Context, batchID string) (map[string]int, error)

type mismatch struct {
	BatchID  string
	Category string
	Event    int
	Stored   int
}

type report struct {
	TotalEvents int
	Batches     int
	Messages    int
	Duplicates  map[string]int
	Mismatches  []mismatch
	Missing     []string
}

func (r report) ok() bool {
	return len(r.Duplicates) == 0 && len(r.Mismatches) == 0 && len(r.Missing) == 0
}

// analyze checks that every batch was announced once and that the counts in
// each event match what the store holds for that batch. A nil lookup skips
// reconciliation.
func analyze(ctx context.Context, events []msg.FlushEventMsg, lookup CountLookup) (report, error) {
	r := report{
		TotalEvents: len(events),
		Duplicates:  make(map[string]int),
	}

	seen := make(map[string]int)
	var order []string
	first := make(map[string]msg.FlushEventMsg)
	for _, e := range events {
		seen[e.BatchID]++
		if seen[e.BatchID] == 1 {
			order = append(order, e.BatchID)
			first[e.BatchID] = e
			r.Messages += e.Total
		}
	}
	r.Batches = len(order)

	for id, n := range seen {
		if n > 1 {
			r.Duplicates[id] = n
		}
	}

	if lookup == nil {
		return r, nil
	}

	for _, id := range order {
		stored, err := lookup(ctx, id)
		if err != nil {
			return r, fmt.Errorf("failed to count batch %s: %w", id, err)
		}
		if len(stored) == 0 && first[id].Total > 0 {
			r.Missing = append(r.Missing, id)
			continue
		}
		r.Mismatches = append(r.Mismatches, compareCounts(id, first[id].Counts, stored)...)
	}

	return r, nil
}

func compareCounts(batchID string, event, stored map[string]int) []mismatch {
	categories := make(map[string]struct{})
	for c := range event {
		categories[c] = struct{}{}
	}
	for c := range stored {
		categories[c] = struct{}{}
	}

	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)

	var out []mismatch
	for _, c := range names {
		if event[c] != stored[c] {
			out = append(out, mismatch{BatchID: batchID, Category: c, Event: event[c], Stored: stored[c]})
		}
	}
	return out
}
