package placement

import (
	"context"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// LockMode selects the concurrency strategy the store applies to the stock row.
type LockMode string

const (
	LockPessimistic LockMode = "pessimistic"
	LockOptimistic  LockMode = "optimistic"
)

// PricedOption is the locked stock row joined with the owning product's
// display name and current unit price.
type PricedOption struct {
	Option      *stock.Option
	ProductName string
	UnitPrice   decimal.Decimal
}

// Tx is one placement transaction. All writes made through it become visible
// atomically on commit or not at all.
type Tx interface {
	// LockOption reads the stock row under the store's lock mode. Pessimistic
	// stores hold an exclusive row lock until the transaction ends; optimistic
	// stores return the current version for a conditional write later.
	LockOption(ctx context.Context, optionID string) (*PricedOption, error)
	// SaveStock persists a mutated option. Optimistic stores fail with
	// stock.ErrConcurrentModification when the row changed since LockOption.
	SaveStock(ctx context.Context, opt *stock.Option) error
	InsertOrder(ctx context.Context, o *order.Order) error
	// RemoveCartLine deletes the buyer's cart entry for the option. A missing
	// line is a no-op.
	RemoveCartLine(ctx context.Context, buyerID, optionID string) error
}

// Store runs placement transactions and serves order lookups.
type Store interface {
	WithinPlacement(ctx context.Context, fn func(tx Tx) error) error
	FindOrder(ctx context.Context, orderID string) (*order.Order, error)
}

// ChargeRequest is the outbound payment gateway contract.
type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	Method      string
}

// ChargeResult reports the gateway outcome. Anything that is not an approval,
// including transport failure, surfaces as Approved=false with a reason.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Reason        string
}

// Gateway charges the buyer's payment method synchronously.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// IDGenerator mints identifiers for the rows written by a placement.
type IDGenerator interface {
	NewID() string
}
