package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/ismaiel54/trading-storage-buffer/internal/logging"
	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"go.uber.org/zap"
)

func main() {
	var (
		count    = flag.Int("count", 200, "Number of market data messages to produce")
		orderPct = flag.Int("order-pct", 20, "Percentage of order commands among generated messages (0-100)")
		seed     = flag.Int64("seed", 42, "Random seed for deterministic generation")
		brokers  = flag.String("brokers", "127.0.0.1:9092", "Kafka broker addresses")
		symbols  = flag.String("symbols", "SBER@TQBR,GAZP@TQBR,LKOH@TQBR", "Instruments as CODE@BOARD")
	)
	flag.Parse()

	logger, err := logging.NewLogger("producer", "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	brokerList := splitAndTrim(*brokers, ",")
	logger.Info("starting producer",
		zap.Int("count", *count),
		zap.Int("order_pct", *orderPct),
		zap.Int64("seed", *seed),
		zap.Strings("brokers", brokerList),
	)

	producer, err := msg.NewProducer(&msg.Config{Brokers: brokerList, ClientID: "producer"}, logger)
	if err != nil {
		logger.Fatal("failed to create producer", zap.Error(err))
	}
	defer producer.Close()

	rng := rand.New(rand.NewSource(*seed))
	gen := newGenerator(rng, parseSymbols(splitAndTrim(*symbols, ",")), *orderPct)
	out := gen.generate(*count)

	ctx := context.Background()
	produced := 0
	failed := 0
	perTopic := make(map[string]int)

	for _, o := range out {
		if err := producer.ProduceMessage(ctx, o.topic, o.msg); err != nil {
			logger.Error("failed to produce message",
				zap.String("topic", o.topic),
				zap.Stringer("type", o.msg.Type()),
				zap.Error(err),
			)
			failed++
			continue
		}
		produced++
		perTopic[o.topic]++
	}

	logger.Info("producer completed",
		zap.Int("total", len(out)),
		zap.Int("produced", produced),
		zap.Int("failed", failed),
		zap.Any("per_topic", perTopic),
	)

	fmt.Printf("\n=== Producer Summary ===\n")
	fmt.Printf("Total messages: %d\n", len(out))
	fmt.Printf("Produced: %d\n", produced)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Printf("Inbound: %d\n", perTopic[msg.TopicInbound])
	fmt.Printf("Outbound: %d\n", perTopic[msg.TopicOutbound])
	fmt.Printf("\n")

	if failed > 0 {
		os.Exit(1)
	}
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
