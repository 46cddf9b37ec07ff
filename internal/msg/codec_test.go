package msg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sec = message.SecurityID{Code: "SBER", Board: "TQBR"}

func TestCodec_RoundTrip(t *testing.T) {
	price := decimal.RequireFromString("101.25")
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	cases := []message.Message{
		&message.Reset{},
		&message.OrderRegister{SecurityID: sec, TransactionID: 7, Price: price, Volume: decimal.NewFromInt(3)},
		&message.OrderReplace{OrderRegister: message.OrderRegister{SecurityID: sec, TransactionID: 8}, OldOrderStringID: "abc"},
		&message.MarketData{TransactionID: 9, IsSubscribe: true, SecurityID: sec, DataType: "ticks"},
		&message.Execution{
			ExecutionType: message.ExecutionTick,
			SecurityID:    sec,
			ServerTime:    ts,
			TradePrice:    &price,
			Subscription:  message.Subscription{SubscriptionID: 9},
		},
		&message.Candle{SecurityID: sec, Kind: message.CandleTimeFrame, Arg: "1m", State: message.CandleStateFinished, ClosePrice: price},
	}

	for _, in := range cases {
		t.Run(in.Type().String(), func(t *testing.T) {
			data, err := Encode(in, "evt-1", 42)
			require.NoError(t, err)

			out, env, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, in.Type(), out.Type())
			assert.Equal(t, "evt-1", env.EventID)
			assert.Equal(t, int64(42), env.TsUnixMillis)

			// Re-encoding the decoded message yields the same payload
			again, err := Encode(out, "evt-1", 42)
			require.NoError(t, err)
			assert.JSONEq(t, string(data), string(again))
		})
	}
}

func TestCodec_ExecutionFieldsSurvive(t *testing.T) {
	price := decimal.RequireFromString("99.5")
	in := &message.Execution{
		ExecutionType:  message.ExecutionTransaction,
		SecurityID:     sec,
		TransactionID:  11,
		TradePrice:     &price,
		IsCancellation: true,
		Subscription:   message.Subscription{SubscriptionIDs: []int64{1, 2}},
	}

	data, err := Encode(in, "", 0)
	require.NoError(t, err)

	out, _, err := Decode(data)
	require.NoError(t, err)
	exec, ok := out.(*message.Execution)
	require.True(t, ok)
	assert.Equal(t, sec, exec.SecurityID)
	assert.True(t, exec.IsCancellation)
	assert.Equal(t, []int64{1, 2}, exec.GetSubscriptionIDs())
	require.NotNil(t, exec.TradePrice)
	assert.True(t, price.Equal(*exec.TradePrice))
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := Decode([]byte("not json"))
	assert.Error(t, err)

	data, _ := json.Marshal(Envelope{Type: "heartbeat", Payload: json.RawMessage(`{}`)})
	_, _, err = Decode(data)
	assert.True(t, errors.Is(err, ErrUnknownMessageType))

	data, _ = json.Marshal(Envelope{Type: "news"})
	_, _, err = Decode(data)
	assert.Error(t, err)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, "SBER@TQBR", PartitionKey(&message.Execution{SecurityID: sec}))
	assert.Equal(t, "SBER@TQBR", PartitionKey(&message.OrderPairReplace{
		Message1: &message.OrderReplace{OrderRegister: message.OrderRegister{SecurityID: sec}},
	}))
	assert.Empty(t, PartitionKey(&message.News{}))
	assert.Empty(t, PartitionKey(&message.OrderPairReplace{}))
}

func TestConsumer_HandleWithRetry(t *testing.T) {
	c := &Consumer{logger: zap.NewNop()}
	rec := Record{Topic: TopicOutbound}

	calls := 0
	err := c.handleWithRetry(context.Background(), rec, func(context.Context, Record) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	boom := errors.New("permanent")
	calls = 0
	err = c.handleWithRetry(context.Background(), rec, func(context.Context, Record) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRecord_IsInbound(t *testing.T) {
	assert.True(t, Record{Topic: TopicInbound}.IsInbound())
	assert.False(t, Record{Topic: TopicOutbound}.IsInbound())
}
