package order_test

import (
	"testing"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	ids := order.IDs{Order: "ord-1", Item: "item-1", Payment: "pay-1"}
	snap := order.Snapshot{
		OptionID:    "opt-1",
		ProductName: "Club Cola",
		OptionName:  "0.5l bottle",
		UnitPrice:   decimal.RequireFromString("1.80"),
		Quantity:    2,
	}
	charge := order.Charge{Amount: 360, Currency: "EUR", TransactionID: "txn-abc"}

	t.Run("builds a paid order with one item and one payment", func(t *testing.T) {
		o, err := order.Assemble(ids, "buyer-1", snap, charge)
		require.NoError(t, err)

		assert.Equal(t, order.StatusPaid, o.Status)
		assert.Equal(t, "buyer-1", o.BuyerID)
		assert.Equal(t, int64(360), o.TotalAmount)
		assert.False(t, o.CreatedAt.IsZero())

		require.Len(t, o.Items, 1)
		item := o.Items[0]
		assert.Equal(t, "ord-1", item.OrderID)
		assert.Equal(t, "opt-1", item.OptionID)
		assert.Equal(t, "Club Cola", item.ProductName)
		assert.Equal(t, "0.5l bottle", item.OptionName)
		assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("1.80")))
		assert.Equal(t, 2, item.Quantity)

		assert.Equal(t, "ord-1", o.Payment.OrderID)
		assert.Equal(t, order.PaymentSucceeded, o.Payment.Status)
		assert.Equal(t, "txn-abc", o.Payment.ExternalID)
		assert.Equal(t, "EUR", o.Payment.Currency)
	})

	t.Run("rejects missing transaction id", func(t *testing.T) {
		bad := charge
		bad.TransactionID = ""
		_, err := order.Assemble(ids, "buyer-1", snap, bad)
		assert.ErrorIs(t, err, order.ErrPaymentPending)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		bad := charge
		bad.Amount = 0
		_, err := order.Assemble(ids, "buyer-1", snap, bad)
		assert.ErrorIs(t, err, order.ErrInvalidAmount)
	})

	t.Run("rejects empty snapshot", func(t *testing.T) {
		bad := snap
		bad.Quantity = 0
		_, err := order.Assemble(ids, "buyer-1", bad, charge)
		assert.ErrorIs(t, err, order.ErrNoItems)
	})
}
