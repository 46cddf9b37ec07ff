package msg

import "encoding/json"

// Envelope wraps one trading message on the wire. Type is the message
// type name, e.g. "execution".
type Envelope struct {
	Type         string          `json:"type"`
	EventID      string          `json:"event_id,omitempty"`
	Payload      json.RawMessage `json:"payload"`
	TsUnixMillis int64           `json:"ts_unix_millis,omitempty"`
}

// FlushEventMsg announces a batch written to the storage sink
type FlushEventMsg struct {
	EventID      string         `json:"event_id"`
	BatchID      string         `json:"batch_id"`
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	TsUnixMillis int64          `json:"ts_unix_millis"`
}
