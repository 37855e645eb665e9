package stock_test

import (
	"strings"
	"testing"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOption(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		opt, err := stock.NewOption("opt-1", "prod-1", "0.5l bottle", 10)
		require.NoError(t, err)
		assert.Equal(t, 10, opt.Quantity)
		assert.Equal(t, int64(1), opt.Version)
	})

	t.Run("name rules", func(t *testing.T) {
		cases := []struct {
			name    string
			input   string
			wantErr error
		}{
			{"empty", "", stock.ErrInvalidName},
			{"too long", strings.Repeat("a", 51), stock.ErrInvalidName},
			{"max length ok", strings.Repeat("a", 50), nil},
			{"forbidden char", "cola #1", stock.ErrInvalidName},
			{"allowed specials", "Mate (0.5l) [cold] + chips & co_,'", nil},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := stock.NewOption("opt-1", "prod-1", tc.input, 1)
				if tc.wantErr != nil {
					assert.ErrorIs(t, err, tc.wantErr)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})

	t.Run("quantity bounds", func(t *testing.T) {
		_, err := stock.NewOption("opt-1", "prod-1", "bottle", 0)
		assert.ErrorIs(t, err, stock.ErrInvalidQuantity)

		_, err = stock.NewOption("opt-1", "prod-1", "bottle", stock.MaxQuantity+1)
		assert.ErrorIs(t, err, stock.ErrInvalidQuantity)

		_, err = stock.NewOption("opt-1", "prod-1", "bottle", stock.MaxQuantity)
		assert.NoError(t, err)
	})
}

func TestOptionDecrease(t *testing.T) {
	newOption := func(t *testing.T, quantity int) *stock.Option {
		t.Helper()
		opt, err := stock.NewOption("opt-1", "prod-1", "bottle", quantity)
		require.NoError(t, err)
		return opt
	}

	t.Run("success", func(t *testing.T) {
		opt := newOption(t, 5)
		require.NoError(t, opt.Decrease(2))
		assert.Equal(t, 3, opt.Quantity)
		assert.Equal(t, int64(2), opt.Version)
	})

	t.Run("to zero", func(t *testing.T) {
		opt := newOption(t, 2)
		require.NoError(t, opt.Decrease(2))
		assert.Equal(t, 0, opt.Quantity)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		opt := newOption(t, 5)
		assert.ErrorIs(t, opt.Decrease(0), stock.ErrInvalidAmount)
		assert.ErrorIs(t, opt.Decrease(-1), stock.ErrInvalidAmount)
		assert.Equal(t, 5, opt.Quantity)
	})

	t.Run("rejects oversell", func(t *testing.T) {
		opt := newOption(t, 1)
		assert.ErrorIs(t, opt.Decrease(2), stock.ErrInsufficientStock)
		assert.Equal(t, 1, opt.Quantity)
		assert.Equal(t, int64(1), opt.Version)
	})
}
