package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot carries the priced view of the purchased option at the moment the
// lock was held. The assembler copies it verbatim into the order item.
type Snapshot struct {
	OptionID    string
	ProductName string
	OptionName  string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Charge is the approved gateway outcome the assembler binds to the payment row.
type Charge struct {
	Amount        int64
	Currency      string
	TransactionID string
}

// IDs holds the pre-generated identifiers for the three rows written together.
type IDs struct {
	Order   string
	Item    string
	Payment string
}

// Assemble builds the immutable Order + Item + Payment record for a placement
// whose charge was approved. The result is written in one atomic unit or not
// at all.
func Assemble(ids IDs, buyerID string, snap Snapshot, charge Charge) (*Order, error) {
	if snap.Quantity <= 0 {
		return nil, ErrNoItems
	}
	if charge.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if charge.TransactionID == "" {
		return nil, ErrPaymentPending
	}

	o := &Order{
		ID:          ids.Order,
		BuyerID:     buyerID,
		CreatedAt:   time.Now().UTC(),
		Status:      StatusPaid,
		TotalAmount: charge.Amount,
		Items: []Item{{
			ID:          ids.Item,
			OrderID:     ids.Order,
			OptionID:    snap.OptionID,
			ProductName: snap.ProductName,
			OptionName:  snap.OptionName,
			UnitPrice:   snap.UnitPrice,
			Quantity:    snap.Quantity,
		}},
		Payment: Payment{
			ID:         ids.Payment,
			OrderID:    ids.Order,
			Amount:     charge.Amount,
			Currency:   charge.Currency,
			Status:     PaymentSucceeded,
			ExternalID: charge.TransactionID,
		},
	}
	return o, nil
}
