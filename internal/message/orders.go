package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reset asks every downstream stage to drop its state.
type Reset struct {
	Base
}

func (*Reset) Type() Type { return TypeReset }

func (m *Reset) Clone() *Reset {
	c := *m
	return &c
}

// OrderRegister is a new order command sent towards the venue.
type OrderRegister struct {
	Base
	SecurityID     SecurityID       `json:"security_id"`
	TransactionID  int64            `json:"transaction_id"`
	Price          decimal.Decimal  `json:"price"`
	Volume         decimal.Decimal  `json:"volume"`
	VisibleVolume  *decimal.Decimal `json:"visible_volume,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	PortfolioName  string           `json:"portfolio_name"`
	ClientCode     string           `json:"client_code,omitempty"`
	BrokerCode     string           `json:"broker_code,omitempty"`
	Comment        string           `json:"comment,omitempty"`
	Side           Side             `json:"side"`
	OrderType      *OrderType       `json:"order_type,omitempty"`
	TimeInForce    *TimeInForce     `json:"time_in_force,omitempty"`
	TillDate       *time.Time       `json:"till_date,omitempty"`
	IsMarketMaker  bool             `json:"is_market_maker,omitempty"`
	IsMargin       bool             `json:"is_margin,omitempty"`
	IsManual       bool             `json:"is_manual,omitempty"`
	Slippage       *decimal.Decimal `json:"slippage,omitempty"`
	UserOrderID    string           `json:"user_order_id,omitempty"`
	StrategyID     string           `json:"strategy_id,omitempty"`
	MinOrderVolume *decimal.Decimal `json:"min_order_volume,omitempty"`
	PositionEffect string           `json:"position_effect,omitempty"`
	PostOnly       bool             `json:"post_only,omitempty"`
	Condition      *OrderCondition  `json:"condition,omitempty"`
}

func (*OrderRegister) Type() Type { return TypeOrderRegister }

func (m *OrderRegister) Clone() *OrderRegister {
	c := *m
	c.VisibleVolume = clonePtr(m.VisibleVolume)
	c.OrderType = clonePtr(m.OrderType)
	c.TimeInForce = clonePtr(m.TimeInForce)
	c.TillDate = clonePtr(m.TillDate)
	c.Slippage = clonePtr(m.Slippage)
	c.MinOrderVolume = clonePtr(m.MinOrderVolume)
	c.Condition = m.Condition.Clone()
	return &c
}

// OrderReplace moves an existing order: it cancels OldOrderID and registers
// the embedded order in its place.
type OrderReplace struct {
	OrderRegister
	OldOrderID            *int64 `json:"old_order_id,omitempty"`
	OldOrderStringID      string `json:"old_order_string_id,omitempty"`
	OriginalTransactionID int64  `json:"original_transaction_id"`
}

func (*OrderReplace) Type() Type { return TypeOrderReplace }

func (m *OrderReplace) Clone() *OrderReplace {
	return &OrderReplace{
		OrderRegister:         *m.OrderRegister.Clone(),
		OldOrderID:            clonePtr(m.OldOrderID),
		OldOrderStringID:      m.OldOrderStringID,
		OriginalTransactionID: m.OriginalTransactionID,
	}
}

// OrderPairReplace replaces two orders, possibly on different instruments,
// in one command.
type OrderPairReplace struct {
	Base
	Message1 *OrderReplace `json:"message1"`
	Message2 *OrderReplace `json:"message2"`
}

func (*OrderPairReplace) Type() Type { return TypeOrderPairReplace }

func (m *OrderPairReplace) Clone() *OrderPairReplace {
	c := &OrderPairReplace{Base: m.Base}
	if m.Message1 != nil {
		c.Message1 = m.Message1.Clone()
	}
	if m.Message2 != nil {
		c.Message2 = m.Message2.Clone()
	}
	return c
}

// OrderCancel cancels a single order.
type OrderCancel struct {
	Base
	SecurityID            SecurityID       `json:"security_id"`
	TransactionID         int64            `json:"transaction_id"`
	OriginalTransactionID int64            `json:"original_transaction_id"`
	OrderID               *int64           `json:"order_id,omitempty"`
	OrderStringID         string           `json:"order_string_id,omitempty"`
	PortfolioName         string           `json:"portfolio_name,omitempty"`
	Volume                *decimal.Decimal `json:"volume,omitempty"`
	Side                  *Side            `json:"side,omitempty"`
}

func (*OrderCancel) Type() Type { return TypeOrderCancel }

func (m *OrderCancel) Clone() *OrderCancel {
	c := *m
	c.OrderID = clonePtr(m.OrderID)
	c.Volume = clonePtr(m.Volume)
	c.Side = clonePtr(m.Side)
	return &c
}

// OrderGroupCancel cancels every order matching the filter.
type OrderGroupCancel struct {
	Base
	TransactionID int64       `json:"transaction_id"`
	SecurityID    *SecurityID `json:"security_id,omitempty"`
	PortfolioName string      `json:"portfolio_name,omitempty"`
	Side          *Side       `json:"side,omitempty"`
	IsStop        *bool       `json:"is_stop,omitempty"`
}

func (*OrderGroupCancel) Type() Type { return TypeOrderGroupCancel }

func (m *OrderGroupCancel) Clone() *OrderGroupCancel {
	c := *m
	c.SecurityID = clonePtr(m.SecurityID)
	c.Side = clonePtr(m.Side)
	c.IsStop = clonePtr(m.IsStop)
	return &c
}

// MarketData opens (IsSubscribe) or closes a market data subscription. An
// unsubscribe refers to the subscription by OriginalTransactionID.
type MarketData struct {
	Base
	TransactionID         int64      `json:"transaction_id"`
	OriginalTransactionID int64      `json:"original_transaction_id,omitempty"`
	IsSubscribe           bool       `json:"is_subscribe"`
	SecurityID            SecurityID `json:"security_id"`
	DataType              string     `json:"data_type"`
	From                  *time.Time `json:"from,omitempty"`
	To                    *time.Time `json:"to,omitempty"`
}

func (*MarketData) Type() Type { return TypeMarketData }

func (m *MarketData) Clone() *MarketData {
	c := *m
	c.From = clonePtr(m.From)
	c.To = clonePtr(m.To)
	return &c
}

// Portfolio describes a trading account.
type Portfolio struct {
	Base
	Subscription
	PortfolioName string `json:"portfolio_name"`
	BoardCode     string `json:"board_code,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

func (*Portfolio) Type() Type { return TypePortfolio }

func (m *Portfolio) Clone() *Portfolio {
	c := *m
	c.Subscription = m.Subscription.clone()
	return &c
}
