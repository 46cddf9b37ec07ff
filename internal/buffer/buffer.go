// Package buffer accumulates trading messages between a live message stream
// and batch persistence. Messages are filtered by a retention policy, cloned
// and grouped per instrument until a consumer drains them.
package buffer

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"go.uber.org/zap"
)

var (
	ErrNilMessage           = errors.New("message is nil")
	ErrUnknownExecutionType = errors.New("unknown execution type")
)

// StorageBuffer routes inbound commands and outbound venue messages into
// per-category accumulators.
type StorageBuffer struct {
	settings      *Settings
	subscriptions *Subscriptions
	logger        *zap.Logger
	now           func() time.Time

	ticks           *Keyed[message.SecurityID, *message.Execution]
	orderLog        *Keyed[message.SecurityID, *message.Execution]
	transactions    *Keyed[message.SecurityID, *message.Execution]
	level1          *Keyed[message.SecurityID, *message.Level1Change]
	positionChanges *Keyed[message.SecurityID, *message.PositionChange]
	orderBooks      *Keyed[message.SecurityID, *message.QuoteChange]
	candles         *Keyed[message.CandleKey, *message.Candle]
	news            *Set[*message.News]
	boardStates     *Set[*message.BoardState]
}

// NewStorageBuffer creates an empty buffer driven by settings. A nil
// settings value means DefaultSettings.
func NewStorageBuffer(settings *Settings, logger *zap.Logger) *StorageBuffer {
	if settings == nil {
		settings = DefaultSettings()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StorageBuffer{
		settings:        settings,
		subscriptions:   NewSubscriptions(),
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		ticks:           NewKeyed[message.SecurityID, *message.Execution](),
		orderLog:        NewKeyed[message.SecurityID, *message.Execution](),
		transactions:    NewKeyed[message.SecurityID, *message.Execution](),
		level1:          NewKeyed[message.SecurityID, *message.Level1Change](),
		positionChanges: NewKeyed[message.SecurityID, *message.PositionChange](),
		orderBooks:      NewKeyed[message.SecurityID, *message.QuoteChange](),
		candles:         NewKeyed[message.CandleKey, *message.Candle](),
		news:            NewSet[*message.News](),
		boardStates:     NewSet[*message.BoardState](),
	}
}

// Settings returns the switches the buffer reads on every decision.
func (b *StorageBuffer) Settings() *Settings {
	return b.settings
}

// Subscriptions returns the registry of open market data subscriptions.
func (b *StorageBuffer) Subscriptions() *Subscriptions {
	return b.subscriptions
}

// ProcessInbound handles a message travelling towards the venue.
func (b *StorageBuffer) ProcessInbound(msg message.Message) error {
	if isNil(msg) {
		return ErrNilMessage
	}

	if msg.Offline() != message.OfflineNone {
		return nil
	}

	switch m := msg.(type) {
	case *message.Reset:
		b.clear()
		b.logger.Debug("storage buffer reset")

	case *message.OrderRegister:
		if b.CanStore(m) {
			b.transactions.Add(m.SecurityID, b.toTransaction(m))
		}

	case *message.OrderReplace:
		if b.CanStore(m) {
			b.transactions.Add(m.SecurityID, b.toTransaction(&m.OrderRegister))
		}

	case *message.OrderPairReplace:
		if b.CanStore(m) {
			if m.Message1 == nil || m.Message2 == nil {
				return fmt.Errorf("%w: pair replace leg", ErrNilMessage)
			}
			b.transactions.Add(m.Message1.SecurityID, b.toTransaction(&m.Message1.OrderRegister))
			b.transactions.Add(m.Message2.SecurityID, b.toTransaction(&m.Message2.OrderRegister))
		}

	case *message.MarketData:
		if !b.settings.Enabled() {
			break
		}
		if m.IsSubscribe {
			b.subscriptions.Add(m.TransactionID)
			b.logger.Debug("subscription opened",
				zap.Int64("transaction_id", m.TransactionID),
				zap.String("data_type", m.DataType),
				zap.Stringer("security_id", m.SecurityID),
			)
		} else {
			b.subscriptions.Remove(m.OriginalTransactionID)
			b.logger.Debug("subscription closed",
				zap.Int64("original_transaction_id", m.OriginalTransactionID),
			)
		}
	}

	return nil
}

// ProcessOutbound handles a message coming back from the venue or data
// source. Only an execution of unknown type is an error; anything the
// buffer does not keep is dropped silently.
func (b *StorageBuffer) ProcessOutbound(msg message.Message) error {
	if isNil(msg) {
		return ErrNilMessage
	}

	if msg.Offline() != message.OfflineNone {
		return nil
	}

	switch m := msg.(type) {
	case *message.Level1Change:
		if b.CanStore(m) {
			b.level1.Add(m.SecurityID, m)
		}

	case *message.QuoteChange:
		if b.CanStore(m) {
			b.orderBooks.Add(m.SecurityID, m)
		}

	case *message.Execution:
		var target *Keyed[message.SecurityID, *message.Execution]
		switch m.ExecutionType {
		case message.ExecutionTick:
			target = b.ticks
		case message.ExecutionTransaction:
			target = b.transactions
		case message.ExecutionOrderLog:
			target = b.orderLog
		default:
			return fmt.Errorf("%w %d for %s", ErrUnknownExecutionType, int(m.ExecutionType), m.SecurityID)
		}
		if b.CanStore(m) {
			target.Add(m.SecurityID, m)
		}

	case *message.News:
		if b.CanStore(m) {
			b.news.Add(m)
		}

	case *message.BoardState:
		if b.CanStore(m) {
			b.boardStates.Add(m)
		}

	case *message.PositionChange:
		if b.CanStore(m) {
			b.positionChanges.Add(m.SecurityID, m)
		}

	case *message.Candle:
		if m.State == message.CandleStateFinished && b.CanStore(m) {
			b.candles.Add(m.Key(), m)
		}
	}

	return nil
}

func (b *StorageBuffer) clear() {
	b.ticks.Clear()
	b.orderBooks.Clear()
	b.orderLog.Clear()
	b.level1.Clear()
	b.positionChanges.Clear()
	b.transactions.Clear()
	b.candles.Clear()
	b.news.Clear()
	b.boardStates.Clear()
	b.subscriptions.Clear()
}

// toTransaction builds the pending transaction record for an order command.
// Optional fields still point into reg; the clone taken on Add detaches them.
func (b *StorageBuffer) toTransaction(reg *message.OrderRegister) *message.Execution {
	pending := message.OrderStatePending
	volume := reg.Volume
	balance := reg.Volume

	return &message.Execution{
		Base:                  message.Base{LocalTime: reg.LocalTime},
		ServerTime:            b.now(),
		ExecutionType:         message.ExecutionTransaction,
		SecurityID:            reg.SecurityID,
		TransactionID:         reg.TransactionID,
		OriginalTransactionID: reg.TransactionID,
		HasOrderInfo:          true,
		OrderPrice:            reg.Price,
		OrderVolume:           &volume,
		Balance:               &balance,
		VisibleVolume:         reg.VisibleVolume,
		Currency:              reg.Currency,
		PortfolioName:         reg.PortfolioName,
		ClientCode:            reg.ClientCode,
		BrokerCode:            reg.BrokerCode,
		Comment:               reg.Comment,
		Side:                  reg.Side,
		OrderType:             reg.OrderType,
		TimeInForce:           reg.TimeInForce,
		ExpiryDate:            reg.TillDate,
		IsMarketMaker:         reg.IsMarketMaker,
		IsMargin:              reg.IsMargin,
		IsManual:              reg.IsManual,
		Slippage:              reg.Slippage,
		UserOrderID:           reg.UserOrderID,
		StrategyID:            reg.StrategyID,
		OrderState:            &pending,
		Condition:             reg.Condition,
		MinVolume:             reg.MinOrderVolume,
		PositionEffect:        reg.PositionEffect,
		PostOnly:              reg.PostOnly,
	}
}

func isNil(msg message.Message) bool {
	if msg == nil {
		return true
	}
	v := reflect.ValueOf(msg)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
