package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	"github.com/shopspring/decimal"
)

type outgoing struct {
	topic string
	msg   message.Message
}

type instrument struct {
	sec   message.SecurityID
	subID int64
	price decimal.Decimal
}

// generator builds a deterministic stream: one subscription per
// instrument, then a mix of market data and order commands.
type generator struct {
	rng         *rand.Rand
	instruments []*instrument
	orderPct    int
	nextTxID    int64
	start       time.Time
	step        int
}

func newGenerator(rng *rand.Rand, secs []message.SecurityID, orderPct int) *generator {
	g := &generator{
		rng:      rng,
		orderPct: orderPct,
		nextTxID: 1,
		start:    time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	for _, sec := range secs {
		g.instruments = append(g.instruments, &instrument{
			sec:   sec,
			price: decimal.NewFromInt(int64(100 + rng.Intn(200))),
		})
	}
	return g
}

func (g *generator) generate(count int) []outgoing {
	out := make([]outgoing, 0, count+len(g.instruments))

	for _, inst := range g.instruments {
		inst.subID = g.txID()
		out = append(out, outgoing{msg.TopicInbound, &message.MarketData{
			Base:          message.Base{LocalTime: g.now()},
			TransactionID: inst.subID,
			IsSubscribe:   true,
			SecurityID:    inst.sec,
			DataType:      "ticks",
		}})
	}

	for i := 0; i < count; i++ {
		inst := g.instruments[g.rng.Intn(len(g.instruments))]
		g.walk(inst)

		if g.rng.Intn(100) < g.orderPct {
			out = append(out, outgoing{msg.TopicInbound, g.order(inst)})
			continue
		}
		out = append(out, outgoing{msg.TopicOutbound, g.marketData(inst, i)})
	}

	return out
}

func (g *generator) marketData(inst *instrument, i int) message.Message {
	sub := message.Subscription{SubscriptionID: inst.subID}
	now := g.now()

	switch g.rng.Intn(6) {
	case 0:
		return &message.Level1Change{
			Base:         message.Base{LocalTime: now},
			Subscription: sub,
			SecurityID:   inst.sec,
			ServerTime:   now,
			Changes: map[message.Level1Field]decimal.Decimal{
				message.Level1BestBidPrice: inst.price.Sub(decimal.RequireFromString("0.01")),
				message.Level1BestAskPrice: inst.price.Add(decimal.RequireFromString("0.01")),
			},
		}
	case 1:
		return &message.QuoteChange{
			Base:         message.Base{LocalTime: now},
			Subscription: sub,
			SecurityID:   inst.sec,
			ServerTime:   now,
			Bids:         []message.Quote{{Price: inst.price.Sub(decimal.RequireFromString("0.01")), Volume: decimal.NewFromInt(int64(1 + g.rng.Intn(50)))}},
			Asks:         []message.Quote{{Price: inst.price.Add(decimal.RequireFromString("0.01")), Volume: decimal.NewFromInt(int64(1 + g.rng.Intn(50)))}},
			IsSnapshot:   true,
		}
	case 2:
		state := message.CandleStateActive
		if i%2 == 0 {
			state = message.CandleStateFinished
		}
		return &message.Candle{
			Base:         message.Base{LocalTime: now},
			Subscription: sub,
			SecurityID:   inst.sec,
			Kind:         message.CandleTimeFrame,
			Arg:          "1m",
			OpenTime:     now.Truncate(time.Minute),
			CloseTime:    now.Truncate(time.Minute).Add(time.Minute),
			OpenPrice:    inst.price,
			HighPrice:    inst.price,
			LowPrice:     inst.price,
			ClosePrice:   inst.price,
			TotalVolume:  decimal.NewFromInt(int64(g.rng.Intn(1000))),
			State:        state,
		}
	case 3:
		if g.rng.Intn(4) == 0 {
			sec := inst.sec
			return &message.News{
				Base:         message.Base{LocalTime: now},
				Subscription: sub,
				ID:           fmt.Sprintf("news-%d", i),
				ServerTime:   now,
				Headline:     "trading update for " + inst.sec.Code,
				SecurityID:   &sec,
			}
		}
	}

	price := inst.price
	volume := decimal.NewFromInt(int64(1 + g.rng.Intn(100)))
	tradeID := int64(i + 1)
	return &message.Execution{
		Base:          message.Base{LocalTime: now},
		Subscription:  sub,
		ExecutionType: message.ExecutionTick,
		SecurityID:    inst.sec,
		ServerTime:    now,
		TradeID:       &tradeID,
		TradePrice:    &price,
		TradeVolume:   &volume,
	}
}

func (g *generator) order(inst *instrument) *message.OrderRegister {
	side := message.SideBuy
	if g.rng.Intn(2) == 0 {
		side = message.SideSell
	}
	orderType := message.OrderTypeLimit
	tif := message.TimeInForcePutInQueue

	return &message.OrderRegister{
		Base:          message.Base{LocalTime: g.now()},
		SecurityID:    inst.sec,
		TransactionID: g.txID(),
		Price:         inst.price,
		Volume:        decimal.NewFromInt(int64(1 + g.rng.Intn(10))),
		PortfolioName: "demo",
		Side:          side,
		OrderType:     &orderType,
		TimeInForce:   &tif,
		Currency:      "RUB",
	}
}

// walk moves the instrument price by up to one tick either way
func (g *generator) walk(inst *instrument) {
	delta := decimal.New(int64(g.rng.Intn(3)-1), -2)
	inst.price = inst.price.Add(delta)
}

func (g *generator) txID() int64 {
	id := g.nextTxID
	g.nextTxID++
	return id
}

func (g *generator) now() time.Time {
	g.step++
	return g.start.Add(time.Duration(g.step) * time.Millisecond)
}

// parseSymbols turns CODE@BOARD strings into security ids
func parseSymbols(symbols []string) []message.SecurityID {
	out := make([]message.SecurityID, 0, len(symbols))
	for _, s := range symbols {
		code, board, _ := strings.Cut(s, "@")
		out = append(out, message.SecurityID{Code: code, Board: board})
	}
	return out
}
