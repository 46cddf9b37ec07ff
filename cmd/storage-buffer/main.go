package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/ismaiel54/trading-storage-buffer/internal/chaos"
	"github.com/ismaiel54/trading-storage-buffer/internal/config"
	"github.com/ismaiel54/trading-storage-buffer/internal/flusher"
	"github.com/ismaiel54/trading-storage-buffer/internal/logging"
	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"github.com/ismaiel54/trading-storage-buffer/internal/observability"
	"github.com/ismaiel54/trading-storage-buffer/internal/settings"
	"github.com/ismaiel54/trading-storage-buffer/internal/storage"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig("storage-buffer")

	// Initialize logger
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting storage-buffer service",
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("storage_path", cfg.StoragePath),
		zap.Duration("flush_interval", cfg.FlushInterval),
	)

	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.SetReady(observability.ComponentKafka, false)

	// Open the durable sink
	store, err := storage.Open(cfg.StoragePath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()
	healthChecker.SetReady(observability.ComponentStorage, true)

	// Buffer switches come from the YAML file when one is configured
	var settingsStore buffer.SettingsStore = store
	if cfg.SettingsFile != "" {
		fileStore, err := settings.Open(cfg.SettingsFile)
		if err != nil {
			logger.Fatal("failed to open settings file", zap.Error(err))
		}
		settingsStore = fileStore
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bufSettings := buffer.DefaultSettings()
	if err := bufSettings.Load(ctx, settingsStore); err != nil {
		logger.Fatal("failed to load buffer settings", zap.Error(err))
	}
	logger.Info("buffer settings loaded", zap.Any("settings", bufSettings.Map()))

	buf := buffer.NewStorageBuffer(bufSettings, logger.Named("buffer"))

	kafkaCfg := &msg.Config{Brokers: cfg.Brokers(), ClientID: cfg.ServiceName}

	consumer, err := msg.NewConsumer(kafkaCfg, cfg.KafkaGroup, []string{msg.TopicInbound, msg.TopicOutbound}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	// Flush events go through the outbox so a batch and its event commit together
	var producer *msg.Producer
	if cfg.PublishFlushEvents {
		producer, err = msg.NewProducer(kafkaCfg, logger)
		if err != nil {
			logger.Fatal("failed to create kafka producer", zap.Error(err))
		}
		defer producer.Close()
	}

	// Create gRPC server
	grpcServer := grpc.NewServer()
	healthChecker.RegisterGRPC(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logger.Fatal("failed to listen on gRPC port", zap.Error(err))
	}

	grpcErrCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			grpcErrCh <- err
		}
	}()

	// Start HTTP health server
	httpErrCh := make(chan error, 1)
	go func() {
		if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	// Start flusher; CHAOS_* variables can inject sink failures to exercise batch retries
	sink := chaos.WrapSink(store, chaos.New(chaos.LoadConfig(), logger.Named("chaos")))
	fl := flusher.New(buf, sink, cfg.FlushInterval, cfg.PublishFlushEvents, logger.Named("flusher"))
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		healthChecker.SetReady(observability.ComponentFlusher, true)
		fl.Run(ctx)
		healthChecker.SetReady(observability.ComponentFlusher, false)
	}()

	if producer != nil {
		publisher := storage.NewPublisher(store, producer, logger.Named("outbox"))
		go publisher.Run(ctx)
	}

	// Start consumer
	consumerErrCh := make(chan error, 1)
	go func() {
		err := consumer.Run(ctx, func(ctx context.Context, rec msg.Record) error {
			m, env, err := msg.Decode(rec.Value)
			if err != nil {
				// Retrying cannot fix a malformed record
				logger.Warn("dropping undecodable record",
					zap.String("topic", rec.Topic),
					zap.Int64("offset", rec.Offset),
					zap.Error(err),
				)
				return nil
			}

			if rec.IsInbound() {
				err = buf.ProcessInbound(m)
			} else {
				err = buf.ProcessOutbound(m)
			}

			if err != nil {
				logger.Warn("message rejected",
					zap.String("topic", rec.Topic),
					zap.String("type", env.Type),
					zap.String("event_id", env.EventID),
					zap.Error(err),
				)
				if errors.Is(err, buffer.ErrNilMessage) || errors.Is(err, buffer.ErrUnknownExecutionType) {
					return nil
				}
				return err
			}
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			consumerErrCh <- err
		}
	}()

	// Wait for consumer to start
	time.Sleep(1 * time.Second)
	if consumer.IsRunning() {
		healthChecker.SetReady(observability.ComponentKafka, true)
	} else {
		logger.Warn("consumer not running yet")
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-grpcErrCh:
		logger.Error("gRPC server error", zap.Error(err))
	case err := <-httpErrCh:
		logger.Error("HTTP server error", zap.Error(err))
	case err := <-consumerErrCh:
		logger.Error("consumer error", zap.Error(err))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")

	// Stop intake, then let the flusher write what is left
	cancel()
	consumer.Close()
	<-flusherDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if producer != nil {
		// Last attempt at events queued by the final flush
		if _, err := storage.NewPublisher(store, producer, logger.Named("outbox")).PublishPending(shutdownCtx); err != nil {
			logger.Error("failed to publish pending flush events", zap.Error(err))
		}
	}

	if err := bufSettings.Save(shutdownCtx, settingsStore); err != nil {
		logger.Error("failed to save buffer settings", zap.Error(err))
	}

	batches, rows := fl.Stats()
	logger.Info("flusher totals", zap.Int64("batches", batches), zap.Int64("rows", rows))

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}

	grpcServer.GracefulStop()

	logger.Info("storage-buffer service stopped")
}
