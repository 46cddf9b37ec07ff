package buffer

import "github.com/ismaiel54/trading-storage-buffer/internal/message"

// DrainTicks returns accumulated tick executions and clears them.
func (b *StorageBuffer) DrainTicks() map[message.SecurityID][]*message.Execution {
	return b.ticks.DrainAll()
}

// DrainOrderLog returns accumulated order log executions and clears them.
func (b *StorageBuffer) DrainOrderLog() map[message.SecurityID][]*message.Execution {
	return b.orderLog.DrainAll()
}

// DrainTransactions returns accumulated transactions, both reported by the
// venue and synthesized from order commands, and clears them.
func (b *StorageBuffer) DrainTransactions() map[message.SecurityID][]*message.Execution {
	return b.transactions.DrainAll()
}

// DrainLevel1 returns accumulated Level1 changes and clears them.
func (b *StorageBuffer) DrainLevel1() map[message.SecurityID][]*message.Level1Change {
	return b.level1.DrainAll()
}

// DrainPositionChanges returns accumulated position changes and clears them.
func (b *StorageBuffer) DrainPositionChanges() map[message.SecurityID][]*message.PositionChange {
	return b.positionChanges.DrainAll()
}

// DrainOrderBooks returns accumulated order book changes and clears them.
func (b *StorageBuffer) DrainOrderBooks() map[message.SecurityID][]*message.QuoteChange {
	return b.orderBooks.DrainAll()
}

// DrainCandles returns finished candles per series and clears them.
func (b *StorageBuffer) DrainCandles() map[message.CandleKey][]*message.Candle {
	return b.candles.DrainAll()
}

// DrainNews returns accumulated news in arrival order and clears them.
func (b *StorageBuffer) DrainNews() []*message.News {
	return b.news.DrainAll()
}

// DrainBoardStates returns accumulated board states and clears them.
func (b *StorageBuffer) DrainBoardStates() []*message.BoardState {
	return b.boardStates.DrainAll()
}

// Snapshot holds the result of draining every buffer once.
type Snapshot struct {
	Ticks           map[message.SecurityID][]*message.Execution
	OrderLog        map[message.SecurityID][]*message.Execution
	Transactions    map[message.SecurityID][]*message.Execution
	Level1          map[message.SecurityID][]*message.Level1Change
	PositionChanges map[message.SecurityID][]*message.PositionChange
	OrderBooks      map[message.SecurityID][]*message.QuoteChange
	Candles         map[message.CandleKey][]*message.Candle
	News            []*message.News
	BoardStates     []*message.BoardState
}

// Snapshot drains every buffer. Each buffer is drained atomically on its
// own; a message arriving mid-call may land in this snapshot or the next.
func (b *StorageBuffer) Snapshot() Snapshot {
	return Snapshot{
		Ticks:           b.DrainTicks(),
		OrderLog:        b.DrainOrderLog(),
		Transactions:    b.DrainTransactions(),
		Level1:          b.DrainLevel1(),
		PositionChanges: b.DrainPositionChanges(),
		OrderBooks:      b.DrainOrderBooks(),
		Candles:         b.DrainCandles(),
		News:            b.DrainNews(),
		BoardStates:     b.DrainBoardStates(),
	}
}

// Counts returns the number of messages per category.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		CategoryTicks:           countValues(s.Ticks),
		CategoryOrderLog:        countValues(s.OrderLog),
		CategoryTransactions:    countValues(s.Transactions),
		CategoryLevel1:          countValues(s.Level1),
		CategoryPositionChanges: countValues(s.PositionChanges),
		CategoryOrderBooks:      countValues(s.OrderBooks),
		CategoryCandles:         countValues(s.Candles),
		CategoryNews:            len(s.News),
		CategoryBoardStates:     len(s.BoardStates),
	}
}

// Total returns the number of messages in the snapshot.
func (s Snapshot) Total() int {
	n := 0
	for _, c := range s.Counts() {
		n += c
	}
	return n
}

// Empty reports whether the snapshot holds no messages.
func (s Snapshot) Empty() bool {
	return s.Total() == 0
}

// Categories used when a snapshot is persisted or reported.
const (
	CategoryTicks           = "ticks"
	CategoryOrderLog        = "order_log"
	CategoryTransactions    = "transactions"
	CategoryLevel1          = "level1"
	CategoryPositionChanges = "position_changes"
	CategoryOrderBooks      = "order_books"
	CategoryCandles         = "candles"
	CategoryNews            = "news"
	CategoryBoardStates     = "board_states"
)

func countValues[K comparable, V any](m map[K][]V) int {
	n := 0
	for _, vs := range m {
		n += len(vs)
	}
	return n
}
