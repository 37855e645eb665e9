package placement_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/cart"
	domorder "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	domoutbox "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/outbox"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/id"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	declineWith string
	failWith    error
	calls       atomic.Int64
	lastAmount  atomic.Int64
}

func (g *stubGateway) Charge(_ context.Context, req placement.ChargeRequest) (placement.ChargeResult, error) {
	n := g.calls.Add(1)
	g.lastAmount.Store(req.AmountMinor)
	if g.failWith != nil {
		return placement.ChargeResult{}, g.failWith
	}
	if g.declineWith != "" {
		return placement.ChargeResult{Approved: false, Reason: g.declineWith}, nil
	}
	return placement.ChargeResult{Approved: true, TransactionID: fmt.Sprintf("txn-%d", n)}, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *stubPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *stubPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	uc        *placement.PlaceOrderUseCase
	store     *memory.Store
	gateway   *stubGateway
	publisher *stubPublisher
}

func newFixture(t *testing.T, mode placement.LockMode) *fixture {
	t.Helper()
	store := memory.NewStore(mode)
	seedOption(t, store, "opt-cola", 5)
	seedOption(t, store, "opt-last", 1)
	require.NoError(t, store.Put(context.Background(), cart.Line{BuyerID: "buyer-1", OptionID: "opt-cola", Quantity: 2}))
	require.NoError(t, store.Put(context.Background(), cart.Line{BuyerID: "buyer-1", OptionID: "opt-last", Quantity: 1}))

	gateway := &stubGateway{}
	publisher := &stubPublisher{}
	uc := placement.NewPlaceOrderUseCase(store, gateway, id.NewUUIDGenerator(), publisher, nil)
	return &fixture{uc: uc, store: store, gateway: gateway, publisher: publisher}
}

func seedOption(t *testing.T, store *memory.Store, optionID string, quantity int) {
	t.Helper()
	opt, err := stock.NewOption(optionID, "prod-"+optionID, "0.5l bottle", quantity)
	require.NoError(t, err)
	store.AddOption(opt, "Club Cola", decimal.RequireFromString("1.80"))
}

func placeInput(optionID string, quantity int) placement.PlaceOrderInput {
	return placement.PlaceOrderInput{
		BuyerID:       "buyer-1",
		OptionID:      optionID,
		Quantity:      quantity,
		PaymentMethod: "card-token",
		Currency:      "EUR",
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)

	result, err := f.uc.Execute(context.Background(), placeInput("opt-cola", 2))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domorder.PaymentSucceeded, result.PaymentStatus)
	assert.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.Message)

	// 1.80 * 2 = 3.60 EUR = 360 minor units
	assert.Equal(t, int64(360), f.gateway.lastAmount.Load())

	quantity, ok := f.store.Quantity("opt-cola")
	require.True(t, ok)
	assert.Equal(t, 3, quantity)

	placed, err := f.store.FindOrder(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, placed.Status)
	assert.Equal(t, "buyer-1", placed.BuyerID)
	assert.Equal(t, int64(360), placed.TotalAmount)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 2, placed.Items[0].Quantity)
	assert.Equal(t, "Club Cola", placed.Items[0].ProductName)
	assert.Equal(t, domorder.PaymentSucceeded, placed.Payment.Status)
	assert.Equal(t, "txn-1", placed.Payment.ExternalID)

	// Matching cart line removed, the other one untouched.
	lines, err := f.store.ListByBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "opt-last", lines[0].OptionID)

	assert.Equal(t, []string{"order.placed"}, f.publisher.names())
}

func TestPlaceOrder_GiftPublishesSecondEvent(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)

	input := placeInput("opt-cola", 1)
	input.GiftRecipient = "friend@example.com"
	_, err := f.uc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []string{"order.placed", "order.gift_ordered"}, f.publisher.names())
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)

	_, err := f.uc.Execute(context.Background(), placeInput("opt-last", 2))
	assert.ErrorIs(t, err, placement.ErrInsufficientStock)

	quantity, _ := f.store.Quantity("opt-last")
	assert.Equal(t, 1, quantity)
	assert.Equal(t, 0, f.store.OrderCount())
	assert.Equal(t, int64(0), f.gateway.calls.Load(), "gateway must not be charged without stock")
}

func TestPlaceOrder_DeclinedChargeLeavesNoState(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)
	f.gateway.declineWith = "insufficient funds"

	_, err := f.uc.Execute(context.Background(), placeInput("opt-cola", 2))
	require.ErrorIs(t, err, placement.ErrPaymentDeclined)
	assert.Contains(t, err.Error(), "insufficient funds")

	quantity, _ := f.store.Quantity("opt-cola")
	assert.Equal(t, 5, quantity)
	assert.Equal(t, 0, f.store.OrderCount())

	lines, err := f.store.ListByBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2, "cart must be untouched after a decline")
	assert.Empty(t, f.publisher.names())
}

func TestPlaceOrder_GatewayTransportFailureIsDecline(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)
	f.gateway.failWith = errors.New("connection reset")

	_, err := f.uc.Execute(context.Background(), placeInput("opt-cola", 1))
	assert.ErrorIs(t, err, placement.ErrPaymentDeclined)
	assert.Equal(t, 0, f.store.OrderCount())
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)

	_, err := f.uc.Execute(context.Background(), placeInput("opt-cola", 0))
	assert.ErrorIs(t, err, placement.ErrInvalidQuantity)

	_, err = f.uc.Execute(context.Background(), placeInput("opt-missing", 1))
	assert.ErrorIs(t, err, placement.ErrNotFound)

	assert.Equal(t, int64(0), f.gateway.calls.Load())
}

func TestPlaceOrder_CartCleanupIsIdempotent(t *testing.T) {
	f := newFixture(t, placement.LockPessimistic)

	// buyer-2 has no cart at all; placement must still succeed.
	input := placeInput("opt-cola", 1)
	input.BuyerID = "buyer-2"
	_, err := f.uc.Execute(context.Background(), input)
	require.NoError(t, err)

	lines, err := f.store.ListByBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Len(t, lines, 2, "other buyers' cart entries must be untouched")
}

func TestPlaceOrder_ConcurrentExclusivity(t *testing.T) {
	for _, mode := range []placement.LockMode{placement.LockPessimistic, placement.LockOptimistic} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, mode)

			var wg sync.WaitGroup
			errs := make([]error, 2)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(slot int) {
					defer wg.Done()
					_, errs[slot] = f.uc.Execute(context.Background(), placeInput("opt-last", 1))
				}(i)
			}
			wg.Wait()

			var succeeded, failed int
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				failed++
				assert.True(t,
					errors.Is(err, placement.ErrInsufficientStock) || errors.Is(err, placement.ErrConcurrentModification),
					"unexpected failure: %v", err)
			}
			assert.Equal(t, 1, succeeded, "exactly one attempt must win")
			assert.Equal(t, 1, failed)

			quantity, _ := f.store.Quantity("opt-last")
			assert.Equal(t, 0, quantity)
			assert.Equal(t, 1, f.store.OrderCount())
		})
	}
}
