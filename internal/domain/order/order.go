package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("order: not found")
	ErrNoItems        = errors.New("order: at least one item is required")
	ErrInvalidAmount  = errors.New("order: total amount must be greater than zero")
	ErrPaymentPending = errors.New("order: payment is not approved")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentDeclined  PaymentStatus = "declined"
)

// Order is one purchase transaction. It is assembled in full at the end of a
// successful placement attempt and immutable afterwards except for status
// transitions driven by fulfillment.
type Order struct {
	ID          string
	BuyerID     string
	CreatedAt   time.Time
	Status      Status
	Items       []Item
	Payment     Payment
	TotalAmount int64
}

// Item is an immutable snapshot of what was bought, decoupled from the live
// stock option so later catalog edits do not alter history.
type Item struct {
	ID          string
	OrderID     string
	OptionID    string
	ProductName string
	OptionName  string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Payment records the external charge. Owned 1:1 by its order; created
// together with the order or not at all.
type Payment struct {
	ID            string
	OrderID       string
	Amount        int64
	Currency      string
	Status        PaymentStatus
	ExternalID    string
	FailureReason string
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}
