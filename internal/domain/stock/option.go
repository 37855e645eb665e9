package stock

import (
	"errors"
	"time"
)

var (
	ErrNotFound               = errors.New("stock: option not found")
	ErrInvalidName            = errors.New("stock: option name is invalid")
	ErrInvalidQuantity        = errors.New("stock: quantity out of range")
	ErrInvalidAmount          = errors.New("stock: amount must be greater than zero")
	ErrInsufficientStock      = errors.New("stock: insufficient stock")
	ErrConcurrentModification = errors.New("stock: concurrent modification")
)

const (
	MaxNameLength = 50
	MinQuantity   = 1
	MaxQuantity   = 99_999_999
)

// Option is the authoritative count of purchasable units for one product variant.
type Option struct {
	ID        string
	ProductID string
	Name      string
	Quantity  int
	Version   int64
	UpdatedAt time.Time
}

func NewOption(id, productID, name string, quantity int) (*Option, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return &Option{
		ID:        id,
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Decrease is the only mutation path for the quantity. It never lets the
// quantity go negative regardless of caller interleaving; concurrency control
// on the persisted row is the storage layer's responsibility.
func (o *Option) Decrease(amount int) error {
	if amount < MinQuantity {
		return ErrInvalidAmount
	}
	if amount > o.Quantity {
		return ErrInsufficientStock
	}
	o.Quantity -= amount
	o.Version++
	o.touch()
	return nil
}

func (o *Option) Clone() *Option {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Option) touch() {
	o.UpdatedAt = time.Now().UTC()
}

// ValidateName checks the display name rules shared by creation and rename.
func ValidateName(name string) error {
	if name == "" || len([]rune(name)) > MaxNameLength {
		return ErrInvalidName
	}
	for _, r := range name {
		if !allowedNameRune(r) {
			return ErrInvalidName
		}
	}
	return nil
}

// ValidateQuantity bounds the stored quantity for a sellable option.
func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

func allowedNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	switch r {
	case ' ', '(', ')', '[', ']', '+', '-', '&', '/', '_', '.', ',', '\'':
		return true
	}
	return false
}
