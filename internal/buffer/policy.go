package buffer

import "github.com/ismaiel54/trading-storage-buffer/internal/message"

// CanStore reports whether msg should be retained under the current
// settings and open subscriptions. It never mutates state.
func (b *StorageBuffer) CanStore(msg message.Message) bool {
	if !b.settings.Enabled() {
		return false
	}

	if !b.settings.FilterSubscription() {
		return true
	}

	switch m := msg.(type) {
	case *message.Portfolio, *message.PositionChange:
		return b.settings.EnabledPositions()

	case *message.OrderRegister, *message.OrderReplace, *message.OrderCancel,
		*message.OrderPairReplace, *message.OrderGroupCancel:
		return b.settings.EnabledTransactions()

	case *message.Execution:
		if !m.IsMarketData() {
			// cancellations never go into a transaction snapshot
			if m.IsCancellation {
				return false
			}
			return b.settings.EnabledTransactions()
		}
	}

	if holder, ok := msg.(message.SubscriptionIDHolder); ok {
		return b.subscriptions.ContainsAny(holder.GetSubscriptionIDs())
	}

	return false
}
