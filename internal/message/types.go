// Package message defines the closed set of trading messages handled by the
// storage buffer. Every variant is a pointer type implementing Message and
// carries a deep Clone.
package message

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type identifies a message category.
type Type int

const (
	TypeReset Type = iota + 1
	TypeOrderRegister
	TypeOrderReplace
	TypeOrderPairReplace
	TypeOrderCancel
	TypeOrderGroupCancel
	TypeMarketData
	TypePortfolio
	TypePositionChange
	TypeLevel1Change
	TypeQuoteChange
	TypeExecution
	TypeNews
	TypeBoardState
	TypeCandle
)

var typeNames = map[Type]string{
	TypeReset:            "reset",
	TypeOrderRegister:    "order_register",
	TypeOrderReplace:     "order_replace",
	TypeOrderPairReplace: "order_pair_replace",
	TypeOrderCancel:      "order_cancel",
	TypeOrderGroupCancel: "order_group_cancel",
	TypeMarketData:       "market_data",
	TypePortfolio:        "portfolio",
	TypePositionChange:   "position_change",
	TypeLevel1Change:     "level1_change",
	TypeQuoteChange:      "quote_change",
	TypeExecution:        "execution",
	TypeNews:             "news",
	TypeBoardState:       "board_state",
	TypeCandle:           "candle",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType returns the Type for a wire name such as "execution".
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown message type %q", name)
}

// OfflineMode marks messages replayed outside live processing.
type OfflineMode int

const (
	OfflineNone OfflineMode = iota
	OfflineIgnore
	OfflineCancel
)

// Message is implemented by every variant in this package and nothing else.
type Message interface {
	Type() Type
	Offline() OfflineMode
	isMessage()
}

// SubscriptionIDHolder is implemented by messages produced for a market
// data subscription.
type SubscriptionIDHolder interface {
	GetSubscriptionIDs() []int64
}

// Base holds the fields common to all messages.
type Base struct {
	LocalTime   time.Time   `json:"local_time"`
	OfflineMode OfflineMode `json:"offline_mode,omitempty"`
}

func (b *Base) Offline() OfflineMode { return b.OfflineMode }

func (*Base) isMessage() {}

// SecurityID identifies an instrument on a board.
type SecurityID struct {
	Code  string `json:"code"`
	Board string `json:"board"`
}

func (s SecurityID) String() string {
	if s.Board == "" {
		return s.Code
	}
	return s.Code + "@" + s.Board
}

// IsZero reports whether neither code nor board is set.
func (s SecurityID) IsZero() bool {
	return s.Code == "" && s.Board == ""
}

// Subscription carries the ids of the subscriptions a message was produced for.
type Subscription struct {
	SubscriptionID  int64   `json:"subscription_id,omitempty"`
	SubscriptionIDs []int64 `json:"subscription_ids,omitempty"`
}

// GetSubscriptionIDs returns the explicit id list, or the single id when
// only that is set.
func (s *Subscription) GetSubscriptionIDs() []int64 {
	if len(s.SubscriptionIDs) > 0 {
		return s.SubscriptionIDs
	}
	if s.SubscriptionID != 0 {
		return []int64{s.SubscriptionID}
	}
	return nil
}

func (s Subscription) clone() Subscription {
	return Subscription{
		SubscriptionID:  s.SubscriptionID,
		SubscriptionIDs: cloneSlice(s.SubscriptionIDs),
	}
}

type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

type OrderType int

const (
	OrderTypeLimit OrderType = iota + 1
	OrderTypeMarket
	OrderTypeConditional
)

type TimeInForce int

const (
	TimeInForcePutInQueue TimeInForce = iota + 1
	TimeInForceMatchOrCancel
	TimeInForceCancelBalance
)

type OrderState int

const (
	OrderStateNone OrderState = iota
	OrderStatePending
	OrderStateActive
	OrderStateDone
	OrderStateFailed
)

func (s OrderState) String() string {
	switch s {
	case OrderStatePending:
		return "pending"
	case OrderStateActive:
		return "active"
	case OrderStateDone:
		return "done"
	case OrderStateFailed:
		return "failed"
	default:
		return "none"
	}
}

// OrderCondition holds the parameters of a conditional (stop, take-profit)
// order.
type OrderCondition struct {
	Kind       string                     `json:"kind"`
	Parameters map[string]decimal.Decimal `json:"parameters,omitempty"`
}

func (c *OrderCondition) Clone() *OrderCondition {
	if c == nil {
		return nil
	}
	return &OrderCondition{
		Kind:       c.Kind,
		Parameters: cloneMap(c.Parameters),
	}
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
