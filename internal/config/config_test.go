package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig("storage-buffer")

	assert.Equal(t, "storage-buffer", cfg.ServiceName)
	assert.Equal(t, ":50051", cfg.GRPCAddr())
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "storage-buffer", cfg.KafkaGroup)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
	assert.True(t, cfg.PublishFlushEvents)
	assert.Empty(t, cfg.SettingsFile)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT_GRPC", "6000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("FLUSH_INTERVAL", "250ms")
	t.Setenv("PUBLISH_FLUSH_EVENTS", "false")
	t.Setenv("SETTINGS_FILE", "/tmp/buffer.yaml")

	cfg := LoadConfig("storage-buffer")

	assert.Equal(t, ":6000", cfg.GRPCAddr())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers())
	assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval)
	assert.False(t, cfg.PublishFlushEvents)
	assert.Equal(t, "/tmp/buffer.yaml", cfg.SettingsFile)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT_HTTP", "eighty")
	t.Setenv("FLUSH_INTERVAL", "-1s")
	t.Setenv("PUBLISH_FLUSH_EVENTS", "maybe")

	cfg := LoadConfig("storage-buffer")

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
	assert.True(t, cfg.PublishFlushEvents)
}
