package message

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionType distinguishes the kinds of Execution.
type ExecutionType int

const (
	ExecutionTick ExecutionType = iota + 1
	ExecutionTransaction
	ExecutionOrderLog
)

func (t ExecutionType) String() string {
	switch t {
	case ExecutionTick:
		return "tick"
	case ExecutionTransaction:
		return "transaction"
	case ExecutionOrderLog:
		return "order_log"
	default:
		return "unknown"
	}
}

// Level1Field names a summary quote field.
type Level1Field string

const (
	Level1BestBidPrice    Level1Field = "best_bid_price"
	Level1BestBidVolume   Level1Field = "best_bid_volume"
	Level1BestAskPrice    Level1Field = "best_ask_price"
	Level1BestAskVolume   Level1Field = "best_ask_volume"
	Level1LastTradePrice  Level1Field = "last_trade_price"
	Level1LastTradeVolume Level1Field = "last_trade_volume"
	Level1OpenInterest    Level1Field = "open_interest"
)

// Level1Change carries changed best bid/ask and summary fields.
type Level1Change struct {
	Base
	Subscription
	SecurityID SecurityID                      `json:"security_id"`
	ServerTime time.Time                       `json:"server_time"`
	Changes    map[Level1Field]decimal.Decimal `json:"changes"`
}

func (*Level1Change) Type() Type { return TypeLevel1Change }

func (m *Level1Change) Clone() *Level1Change {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.Changes = cloneMap(m.Changes)
	return &c
}

// Quote is one order book price level.
type Quote struct {
	Price       decimal.Decimal `json:"price"`
	Volume      decimal.Decimal `json:"volume"`
	OrdersCount *int            `json:"orders_count,omitempty"`
}

// QuoteChange is an order book snapshot or increment.
type QuoteChange struct {
	Base
	Subscription
	SecurityID SecurityID `json:"security_id"`
	ServerTime time.Time  `json:"server_time"`
	Bids       []Quote    `json:"bids"`
	Asks       []Quote    `json:"asks"`
	IsSnapshot bool       `json:"is_snapshot,omitempty"`
}

func (*QuoteChange) Type() Type { return TypeQuoteChange }

func (m *QuoteChange) Clone() *QuoteChange {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.Bids = cloneQuotes(m.Bids)
	c.Asks = cloneQuotes(m.Asks)
	return &c
}

func cloneQuotes(qs []Quote) []Quote {
	if qs == nil {
		return nil
	}
	out := make([]Quote, len(qs))
	for i, q := range qs {
		out[i] = Quote{Price: q.Price, Volume: q.Volume, OrdersCount: clonePtr(q.OrdersCount)}
	}
	return out
}

// Execution reports a trade print, an order log entry or a change of one of
// our own orders, depending on ExecutionType.
type Execution struct {
	Base
	Subscription
	ExecutionType         ExecutionType    `json:"execution_type"`
	SecurityID            SecurityID       `json:"security_id"`
	ServerTime            time.Time        `json:"server_time"`
	TransactionID         int64            `json:"transaction_id,omitempty"`
	OriginalTransactionID int64            `json:"original_transaction_id,omitempty"`
	HasOrderInfo          bool             `json:"has_order_info,omitempty"`
	OrderID               *int64           `json:"order_id,omitempty"`
	OrderStringID         string           `json:"order_string_id,omitempty"`
	OrderPrice            decimal.Decimal  `json:"order_price"`
	OrderVolume           *decimal.Decimal `json:"order_volume,omitempty"`
	Balance               *decimal.Decimal `json:"balance,omitempty"`
	VisibleVolume         *decimal.Decimal `json:"visible_volume,omitempty"`
	OrderType             *OrderType       `json:"order_type,omitempty"`
	OrderState            *OrderState      `json:"order_state,omitempty"`
	TimeInForce           *TimeInForce     `json:"time_in_force,omitempty"`
	ExpiryDate            *time.Time       `json:"expiry_date,omitempty"`
	Side                  Side             `json:"side,omitempty"`
	TradeID               *int64           `json:"trade_id,omitempty"`
	TradeStringID         string           `json:"trade_string_id,omitempty"`
	TradePrice            *decimal.Decimal `json:"trade_price,omitempty"`
	TradeVolume           *decimal.Decimal `json:"trade_volume,omitempty"`
	OriginSide            *Side            `json:"origin_side,omitempty"`
	Currency              string           `json:"currency,omitempty"`
	PortfolioName         string           `json:"portfolio_name,omitempty"`
	ClientCode            string           `json:"client_code,omitempty"`
	BrokerCode            string           `json:"broker_code,omitempty"`
	Comment               string           `json:"comment,omitempty"`
	IsMarketMaker         bool             `json:"is_market_maker,omitempty"`
	IsMargin              bool             `json:"is_margin,omitempty"`
	IsManual              bool             `json:"is_manual,omitempty"`
	Slippage              *decimal.Decimal `json:"slippage,omitempty"`
	UserOrderID           string           `json:"user_order_id,omitempty"`
	StrategyID            string           `json:"strategy_id,omitempty"`
	Condition             *OrderCondition  `json:"condition,omitempty"`
	MinVolume             *decimal.Decimal `json:"min_volume,omitempty"`
	PositionEffect        string           `json:"position_effect,omitempty"`
	PostOnly              bool             `json:"post_only,omitempty"`
	IsCancellation        bool             `json:"is_cancellation,omitempty"`
}

func (*Execution) Type() Type { return TypeExecution }

// IsMarketData reports whether the execution is public market data rather
// than a report about our own order.
func (m *Execution) IsMarketData() bool {
	return m.ExecutionType == ExecutionTick || m.ExecutionType == ExecutionOrderLog
}

func (m *Execution) Clone() *Execution {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.OrderID = clonePtr(m.OrderID)
	c.OrderVolume = clonePtr(m.OrderVolume)
	c.Balance = clonePtr(m.Balance)
	c.VisibleVolume = clonePtr(m.VisibleVolume)
	c.OrderType = clonePtr(m.OrderType)
	c.OrderState = clonePtr(m.OrderState)
	c.TimeInForce = clonePtr(m.TimeInForce)
	c.ExpiryDate = clonePtr(m.ExpiryDate)
	c.TradeID = clonePtr(m.TradeID)
	c.TradePrice = clonePtr(m.TradePrice)
	c.TradeVolume = clonePtr(m.TradeVolume)
	c.OriginSide = clonePtr(m.OriginSide)
	c.Slippage = clonePtr(m.Slippage)
	c.Condition = m.Condition.Clone()
	c.MinVolume = clonePtr(m.MinVolume)
	return &c
}

// News is a news item, optionally tied to an instrument.
type News struct {
	Base
	Subscription
	ID         string      `json:"id"`
	ServerTime time.Time   `json:"server_time"`
	Source     string      `json:"source,omitempty"`
	Headline   string      `json:"headline"`
	Story      string      `json:"story,omitempty"`
	BoardCode  string      `json:"board_code,omitempty"`
	SecurityID *SecurityID `json:"security_id,omitempty"`
	URL        string      `json:"url,omitempty"`
}

func (*News) Type() Type { return TypeNews }

func (m *News) Clone() *News {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.SecurityID = clonePtr(m.SecurityID)
	return &c
}

// SessionState is a trading venue session state.
type SessionState int

const (
	SessionAssigned SessionState = iota + 1
	SessionActive
	SessionPaused
	SessionRejectedMatching
	SessionForceStopped
	SessionEnded
)

// BoardState notifies a change of a board's session state.
type BoardState struct {
	Base
	Subscription
	BoardCode  string       `json:"board_code"`
	State      SessionState `json:"state"`
	ServerTime time.Time    `json:"server_time"`
}

func (*BoardState) Type() Type { return TypeBoardState }

func (m *BoardState) Clone() *BoardState {
	c := *m
	c.Subscription = m.Subscription.clone()
	return &c
}

// PositionField names a position value.
type PositionField string

const (
	PositionBeginValue   PositionField = "begin_value"
	PositionCurrentValue PositionField = "current_value"
	PositionBlockedValue PositionField = "blocked_value"
	PositionAveragePrice PositionField = "average_price"
	PositionRealizedPnL  PositionField = "realized_pnl"
	PositionCommission   PositionField = "commission"
)

// PositionChange carries changed values of a portfolio position.
type PositionChange struct {
	Base
	Subscription
	SecurityID    SecurityID                        `json:"security_id"`
	PortfolioName string                            `json:"portfolio_name"`
	ServerTime    time.Time                         `json:"server_time"`
	Changes       map[PositionField]decimal.Decimal `json:"changes"`
}

func (*PositionChange) Type() Type { return TypePositionChange }

func (m *PositionChange) Clone() *PositionChange {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.Changes = cloneMap(m.Changes)
	return &c
}

// CandleKind is the series family of a candle, e.g. time frame or volume.
type CandleKind string

const (
	CandleTimeFrame CandleKind = "time_frame"
	CandleTick      CandleKind = "tick"
	CandleVolume    CandleKind = "volume"
	CandleRange     CandleKind = "range"
)

type CandleState int

const (
	CandleStateNone CandleState = iota
	CandleStateActive
	CandleStateFinished
)

// Candle is an OHLC bar. Arg distinguishes series of the same kind, e.g.
// "1m" and "5m" time frames.
type Candle struct {
	Base
	Subscription
	SecurityID  SecurityID      `json:"security_id"`
	Kind        CandleKind      `json:"kind"`
	Arg         string          `json:"arg"`
	OpenTime    time.Time       `json:"open_time"`
	CloseTime   time.Time       `json:"close_time"`
	OpenPrice   decimal.Decimal `json:"open_price"`
	HighPrice   decimal.Decimal `json:"high_price"`
	LowPrice    decimal.Decimal `json:"low_price"`
	ClosePrice  decimal.Decimal `json:"close_price"`
	TotalVolume decimal.Decimal `json:"total_volume"`
	TotalTicks  *int            `json:"total_ticks,omitempty"`
	State       CandleState     `json:"state"`
}

func (*Candle) Type() Type { return TypeCandle }

// Key returns the series key of the candle.
func (m *Candle) Key() CandleKey {
	return CandleKey{SecurityID: m.SecurityID, Kind: m.Kind, Arg: m.Arg}
}

func (m *Candle) Clone() *Candle {
	c := *m
	c.Subscription = m.Subscription.clone()
	c.TotalTicks = clonePtr(m.TotalTicks)
	return &c
}

// CandleKey identifies one candle series.
type CandleKey struct {
	SecurityID SecurityID
	Kind       CandleKind
	Arg        string
}

func (k CandleKey) String() string {
	return k.SecurityID.String() + "/" + string(k.Kind) + "/" + k.Arg
}
