package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for all services
type Config struct {
	// Service name
	ServiceName string

	// gRPC health server port
	GRPCPort int

	// HTTP server port
	HTTPPort int

	// Log level: debug, info, warn, error
	LogLevel string

	// Kafka brokers (comma-separated)
	KafkaBrokers string

	// Kafka consumer group
	KafkaGroup string

	// SQLite database holding flushed batches
	StoragePath string

	// Optional YAML file for buffer switches; empty means the SQLite settings table
	SettingsFile string

	// Period between automatic flushes
	FlushInterval time.Duration

	// Publish a flush event to Kafka after every non-empty flush
	PublishFlushEvents bool
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig(serviceName string) *Config {
	cfg := &Config{
		ServiceName:        serviceName,
		GRPCPort:           getEnvAsInt("PORT_GRPC", 50051),
		HTTPPort:           getEnvAsInt("PORT_HTTP", 8080),
		LogLevel:           getEnvAsString("LOG_LEVEL", "info"),
		KafkaBrokers:       getEnvAsString("KAFKA_BROKERS", "127.0.0.1:9092"),
		KafkaGroup:         getEnvAsString("KAFKA_GROUP", serviceName),
		StoragePath:        getEnvAsString("STORAGE_PATH", "./data/storage.db"),
		SettingsFile:       getEnvAsString("SETTINGS_FILE", ""),
		FlushInterval:      getEnvAsDuration("FLUSH_INTERVAL", 5*time.Second),
		PublishFlushEvents: getEnvAsBool("PUBLISH_FLUSH_EVENTS", true),
	}

	return cfg
}

// GRPCAddr returns the gRPC server address
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

// HTTPAddr returns the HTTP server address
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Brokers splits KafkaBrokers into a seed list
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
