package cart

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("cart: line not found")

// Line is one entry in a buyer's cart pointing at a sellable option.
type Line struct {
	BuyerID  string
	OptionID string
	Quantity int
}

// Repository lists cart lines outside the placement path. Removal during a
// placement happens inside the placement transaction, not through this port.
type Repository interface {
	ListByBuyer(ctx context.Context, buyerID string) ([]Line, error)
	Put(ctx context.Context, line Line) error
}
