package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	domoutbox "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/outbox"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability/logctx"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/pkg/money"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName       = "placement-service"
	useCasePlaceOrder = "order.place"
	spanPrefix        = "UC."
	gatewayPeer       = "payment-gateway"
	gatewayEndpoint   = "charge"
	publishPeer       = "eventbus"
	publishTimeout    = 300 * time.Millisecond
)

// PlaceOrderUseCase drives a single placement attempt through
// validate -> lock -> price -> charge -> persist -> commit, unwinding without
// partial state on any failure. The charge happens inside the storage
// transaction, before any row is written, so a decline costs nothing but a
// rollback.
type PlaceOrderUseCase struct {
	store       Store
	gateway     Gateway
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	tel         observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

// NewPlaceOrderUseCase wires the dependencies required to execute the use case.
func NewPlaceOrderUseCase(
	store Store,
	gateway Gateway,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &PlaceOrderUseCase{
		store:        store,
		gateway:      gateway,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", serviceName)),
		reqCounter:   metrics.Counter(observability.MPlacementRequests),
		durHistogram: metrics.Histogram(observability.MPlacementDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderInput struct {
	BuyerID       string
	OptionID      string
	Quantity      int
	PaymentMethod string
	Currency      string
	GiftRecipient string
}

type PlaceOrderResult struct {
	OrderID       string
	PaymentStatus order.PaymentStatus
	Message       string
}

// Execute performs one placement attempt end to end.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCasePlaceOrder))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("order.buyer_id", cmd.BuyerID),
		attribute.String("order.option_id", cmd.OptionID),
		attribute.Int("order.quantity", cmd.Quantity),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID string
	var publishErr error

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("place_order_done", fields...)
	}()

	// Validating
	if cmd.BuyerID == "" {
		outcome, statusText = "error", "BUYER_REQUIRED"
		return nil, ErrNotFound
	}
	if cmd.OptionID == "" {
		outcome, statusText = "error", "OPTION_REQUIRED"
		return nil, ErrNotFound
	}
	if cmd.Quantity < 1 {
		outcome, statusText = "error", "QUANTITY_INVALID"
		return nil, ErrInvalidQuantity
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	var placed *order.Order
	txErr := uc.store.WithinPlacement(ctx, func(tx Tx) error {
		// Locking
		priced, lockErr := tx.LockOption(ctx, cmd.OptionID)
		if lockErr != nil {
			return lockErr
		}

		// Pricing: quantity check against the locked row, snapshot unit price.
		if priced.Option.Quantity < cmd.Quantity {
			return ErrInsufficientStock
		}
		amount, convErr := money.MinorUnits(priced.UnitPrice, cmd.Quantity)
		if convErr != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, convErr)
		}
		span.SetAttributes(attribute.Int64("order.amount_minor", amount))

		// Charging
		result, chargeErr := uc.charge(ctx, ChargeRequest{
			AmountMinor: amount,
			Currency:    cmd.Currency,
			Method:      cmd.PaymentMethod,
		})
		if chargeErr != nil {
			return declined(chargeErr.Error())
		}
		if !result.Approved {
			return declined(result.Reason)
		}

		assembled, asmErr := order.Assemble(
			order.IDs{
				Order:   uc.idGenerator.NewID(),
				Item:    uc.idGenerator.NewID(),
				Payment: uc.idGenerator.NewID(),
			},
			cmd.BuyerID,
			order.Snapshot{
				OptionID:    priced.Option.ID,
				ProductName: priced.ProductName,
				OptionName:  priced.Option.Name,
				UnitPrice:   priced.UnitPrice,
				Quantity:    cmd.Quantity,
			},
			order.Charge{
				Amount:        amount,
				Currency:      cmd.Currency,
				TransactionID: result.TransactionID,
			},
		)
		if asmErr != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, asmErr)
		}

		// Persisting
		if insErr := tx.InsertOrder(ctx, assembled); insErr != nil {
			return insErr
		}

		// Committing: decrement under the lock scope from above, then drop the
		// matching cart line in the same transaction.
		if decErr := priced.Option.Decrease(cmd.Quantity); decErr != nil {
			return decErr
		}
		if saveErr := tx.SaveStock(ctx, priced.Option); saveErr != nil {
			return saveErr
		}
		if cartErr := tx.RemoveCartLine(ctx, cmd.BuyerID, cmd.OptionID); cartErr != nil {
			return cartErr
		}

		placed = assembled
		return nil
	})
	if txErr != nil {
		err = mapStorageError(txErr)
		outcome, statusText = "error", statusFor(err)
		return nil, err
	}

	orderID = placed.ID
	publishErr = uc.publishPlaced(ctx, placed, cmd.GiftRecipient)
	if publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.SetAttributes(attribute.String("order.id", orderID))
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)

	return &PlaceOrderResult{
		OrderID:       placed.ID,
		PaymentStatus: placed.Payment.Status,
		Message:       fmt.Sprintf("order %s placed, charged %d %s", placed.ID, placed.TotalAmount, placed.Payment.Currency),
	}, nil
}

// GetOrder returns a persisted order scoped to its buyer.
func (uc *PlaceOrderUseCase) GetOrder(ctx context.Context, buyerID, orderID string) (*order.Order, error) {
	if orderID == "" {
		return nil, order.ErrNotFound
	}
	found, err := uc.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if buyerID != "" && found.BuyerID != buyerID {
		return nil, order.ErrNotFound
	}
	return found, nil
}

// charge wraps the gateway call with external-peer metrics.
func (uc *PlaceOrderUseCase) charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	start := time.Now()
	result, err := uc.gateway.Charge(ctx, req)

	chargeOutcome := "success"
	if err != nil || !result.Approved {
		chargeOutcome = "declined"
	}
	uc.extCounter.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", gatewayEndpoint),
		observability.L("outcome", chargeOutcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", gatewayEndpoint),
	)
	return result, err
}

func (uc *PlaceOrderUseCase) publishPlaced(ctx context.Context, placed *order.Order, giftRecipient string) error {
	if uc.publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := uc.publisher.Publish(pubCtx, order.NewOrderPlacedEvent(placed)); err != nil {
		return err
	}
	if giftRecipient != "" {
		if err := uc.publisher.Publish(pubCtx, order.NewGiftOrderedEvent(placed, giftRecipient)); err != nil {
			return err
		}
	}
	return nil
}

func statusFor(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, ErrNotFound):
		return "OPTION_NOT_FOUND"
	case errors.Is(err, ErrInvalidQuantity):
		return "QUANTITY_INVALID"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrConcurrentModification):
		return "CONCURRENT_MODIFICATION"
	case errors.Is(err, ErrPaymentDeclined):
		return "PAYMENT_DECLINED"
	default:
		return "PERSISTENCE_FAILURE"
	}
}
