package msg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ismaiel54/trading-storage-buffer/internal/message"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// Encode wraps m in an Envelope and marshals it
func Encode(m message.Message, eventID string, tsUnixMillis int64) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", m.Type(), err)
	}

	data, err := json.Marshal(Envelope{
		Type:         m.Type().String(),
		EventID:      eventID,
		Payload:      payload,
		TsUnixMillis: tsUnixMillis,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, nil
}

// Decode parses an Envelope and returns the concrete message it carries
func Decode(data []byte) (message.Message, Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, env, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	t, err := message.ParseType(env.Type)
	if err != nil {
		return nil, env, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return nil, env, fmt.Errorf("empty payload for %s", env.Type)
	}

	m := newMessage(t)
	if m == nil {
		return nil, env, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
	if err := json.Unmarshal(env.Payload, m); err != nil {
		return nil, env, fmt.Errorf("failed to unmarshal %s: %w", env.Type, err)
	}
	return m, env, nil
}

func newMessage(t message.Type) message.Message {
	switch t {
	case message.TypeReset:
		return &message.Reset{}
	case message.TypeOrderRegister:
		return &message.OrderRegister{}
	case message.TypeOrderReplace:
		return &message.OrderReplace{}
	case message.TypeOrderPairReplace:
		return &message.OrderPairReplace{}
	case message.TypeOrderCancel:
		return &message.OrderCancel{}
	case message.TypeOrderGroupCancel:
		return &message.OrderGroupCancel{}
	case message.TypeMarketData:
		return &message.MarketData{}
	case message.TypePortfolio:
		return &message.Portfolio{}
	case message.TypePositionChange:
		return &message.PositionChange{}
	case message.TypeLevel1Change:
		return &message.Level1Change{}
	case message.TypeQuoteChange:
		return &message.QuoteChange{}
	case message.TypeExecution:
		return &message.Execution{}
	case message.TypeNews:
		return &message.News{}
	case message.TypeBoardState:
		return &message.BoardState{}
	case message.TypeCandle:
		return &message.Candle{}
	}
	return nil
}

// PartitionKey keeps messages for one instrument on one partition so their
// relative order survives the transport.
func PartitionKey(m message.Message) string {
	switch v := m.(type) {
	case *message.OrderRegister:
		return v.SecurityID.String()
	case *message.OrderReplace:
		return v.SecurityID.String()
	case *message.OrderPairReplace:
		if v.Message1 != nil {
			return v.Message1.SecurityID.String()
		}
	case *message.OrderCancel:
		return v.SecurityID.String()
	case *message.MarketData:
		return v.SecurityID.String()
	case *message.PositionChange:
		return v.SecurityID.String()
	case *message.Level1Change:
		return v.SecurityID.String()
	case *message.QuoteChange:
		return v.SecurityID.String()
	case *message.Execution:
		return v.SecurityID.String()
	case *message.Candle:
		return v.SecurityID.String()
	}
	return ""
}
