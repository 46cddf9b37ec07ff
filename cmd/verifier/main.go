package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/logging"
	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"github.com/ismaiel54/trading-storage-buffer/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <duration_seconds> [brokers] [storage_path]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example: %s 30 127.0.0.1:9092 ./data/storage.db\n", os.Args[0])
		os.Exit(1)
	}

	var durationSeconds int
	if _, err := fmt.Sscanf(os.Args[1], "%d", &durationSeconds); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid duration: %v\n", err)
		os.Exit(1)
	}

	brokers := "127.0.0.1:9092"
	if len(os.Args) >= 3 {
		brokers = os.Args[2]
	}
	storagePath := ""
	if len(os.Args) >= 4 {
		storagePath = os.Args[3]
	}

	logger, err := logging.NewLogger("verifier", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var brokerList []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}

	logger.Info("starting verifier",
		zap.Int("duration_seconds", durationSeconds),
		zap.Strings("brokers", brokerList),
		zap.String("storage_path", storagePath),
	)

	consumer, err := msg.NewConsumer(&msg.Config{Brokers: brokerList, ClientID: "verifier"}, "verifier-v1", []string{msg.TopicFlushes}, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	defer consumer.Close()

	var events []msg.FlushEventMsg

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(durationSeconds)*time.Second)
	defer cancel()

	err = consumer.Run(ctx, func(ctx context.Context, rec msg.Record) error {
		var event msg.FlushEventMsg
		if err := json.Unmarshal(rec.Value, &event); err != nil {
			logger.Warn("failed to unmarshal event", zap.Error(err))
			return nil
		}

		events = append(events, event)

		logger.Debug("consumed flush event",
			zap.String("batch_id", event.BatchID),
			zap.String("event_id", event.EventID),
			zap.Int("total", event.Total),
			zap.Int32("partition", rec.Partition),
			zap.Int64("offset", rec.Offset),
		)

		return nil
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Error("consumer error", zap.Error(err))
	}

	var lookup CountLookup
	if storagePath != "" {
		store, err := storage.Open(storagePath)
		if err != nil {
			logger.Fatal("failed to open storage", zap.Error(err))
		}
		defer store.Close()
		lookup = store.CountByCategory
	}

	r, err := analyze(context.Background(), events, lookup)
	if err != nil {
		logger.Fatal("verification aborted", zap.Error(err))
	}

	fmt.Println("\n=== Verification Results ===")
	fmt.Printf("Flush events consumed: %d\n", r.TotalEvents)
	fmt.Printf("Unique batches: %d\n", r.Batches)
	fmt.Printf("Messages announced: %d\n", r.Messages)
	fmt.Printf("Duplicate batch IDs: %d\n", len(r.Duplicates))
	if lookup != nil {
		fmt.Printf("Batches missing from storage: %d\n", len(r.Missing))
		fmt.Printf("Count mismatches: %d\n", len(r.Mismatches))
	}

	if !r.ok() {
		for id, n := range r.Duplicates {
			fmt.Printf("  Duplicate batch %s seen %d times\n", id, n)
		}
		for _, id := range r.Missing {
			fmt.Printf("  Batch %s not found in storage\n", id)
		}
		for _, m := range r.Mismatches {
			fmt.Printf("  Batch %s %s: event=%d stored=%d\n", m.BatchID, m.Category, m.Event, m.Stored)
		}
		fmt.Println("\n❌ VERIFICATION FAILED")
		os.Exit(1)
	}

	fmt.Println("\n✅ VERIFICATION PASSED")
}
