package msg

// Config holds Kafka client configuration
type Config struct {
	Brokers  []string
	ClientID string
}

// Topic names
const (
	// Commands travelling towards the venue
	TopicInbound = "trading.inbound"
	// Market data and reports coming back from the venue
	TopicOutbound = "trading.outbound"
	// One event per persisted flush batch
	TopicFlushes = "storage.flushes"
)
