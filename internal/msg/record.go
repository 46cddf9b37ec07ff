package msg

// Record represents a consumed Kafka record. Timestamp is in unix millis.
type Record struct {
	Topic     string
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp int64
}

// IsInbound reports whether the record carries a command towards the venue
func (r Record) IsInbound() bool {
	return r.Topic == TopicInbound
}
