package placement

import (
	"errors"
	"fmt"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
)

// Public failure taxonomy of a placement attempt. Everything before the
// persisting step is recoverable by simply retrying the request; persistence
// failures are fatal for the attempt and leave no partial rows behind.
var (
	ErrNotFound               = errors.New("placement: option not found")
	ErrInvalidQuantity        = errors.New("placement: quantity must be greater than zero")
	ErrInsufficientStock      = errors.New("placement: insufficient stock")
	ErrConcurrentModification = errors.New("placement: concurrent modification, retry the attempt")
	ErrPaymentDeclined        = errors.New("placement: payment declined")
	ErrPersistence            = errors.New("placement: persistence failure")
)

func declined(reason string) error {
	if reason == "" {
		reason = "declined by gateway"
	}
	return fmt.Errorf("%w: %s", ErrPaymentDeclined, reason)
}

// mapStorageError folds storage-layer sentinels onto the public taxonomy.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, stock.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, stock.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, stock.ErrConcurrentModification):
		return ErrConcurrentModification
	case errors.Is(err, ErrPaymentDeclined),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrPersistence):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}
