package order

import "time"

// OrderPlacedEvent is emitted after a placement commits. Consumers must treat
// it as fire-and-forget; delivery failures never affect order state.
type OrderPlacedEvent struct {
	OrderID     string
	BuyerID     string
	ProductName string
	OptionName  string
	Quantity    int
	TotalAmount int64
	Currency    string
	OccurredAt  time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	e := OrderPlacedEvent{
		OrderID:     o.ID,
		BuyerID:     o.BuyerID,
		TotalAmount: o.TotalAmount,
		Currency:    o.Payment.Currency,
		OccurredAt:  time.Now().UTC(),
	}
	if len(o.Items) > 0 {
		e.ProductName = o.Items[0].ProductName
		e.OptionName = o.Items[0].OptionName
		e.Quantity = o.Items[0].Quantity
	}
	return e
}

// GiftOrderedEvent is emitted when a placement names a gift recipient so the
// notifier can send the gift message alongside the buyer confirmation.
type GiftOrderedEvent struct {
	OrderID    string
	BuyerID    string
	Recipient  string
	OccurredAt time.Time
}

func (GiftOrderedEvent) EventName() string { return "order.gift_ordered" }

func NewGiftOrderedEvent(o *Order, recipient string) GiftOrderedEvent {
	return GiftOrderedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		Recipient:  recipient,
		OccurredAt: time.Now().UTC(),
	}
}
