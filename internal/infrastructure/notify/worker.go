package notify

import (
	"context"
	"fmt"

	domorder "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	domoutbox "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/outbox"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability/logctx"
)

// Sender delivers a formatted notification. Implementations are best-effort;
// the worker logs failures and moves on.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSender writes notifications to the log instead of an external channel.
type LogSender struct {
	log observability.Logger
}

func NewLogSender(log observability.Logger) *LogSender {
	if log == nil {
		log = observability.NopLogger()
	}
	return &LogSender{log: log.With(observability.F("component", "notification_sender"))}
}

func (s *LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	logger := logctx.FromOr(ctx, s.log)
	logger.Info("notification_sent",
		observability.F("recipient", recipient),
		observability.F("subject", subject),
		observability.F("body", body),
	)
	return nil
}

// Worker subscribes to order events and sends buyer confirmations and gift
// notices. Errors never reach the placement pipeline.
type Worker struct {
	subscriber domoutbox.Subscriber
	sender     Sender
	log        observability.Logger
}

func NewWorker(subscriber domoutbox.Subscriber, sender Sender, log observability.Logger) *Worker {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Worker{
		subscriber: subscriber,
		sender:     sender,
		log:        log.With(observability.F("component", "notify_worker")),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handleOrderPlaced)
	w.subscriber.Subscribe(domorder.GiftOrderedEvent{}.EventName(), w.handleGiftOrdered)
}

func (w *Worker) handleOrderPlaced(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	subject := "Your order is confirmed"
	body := fmt.Sprintf("Order %s: %dx %s (%s), total %d %s.",
		evt.OrderID, evt.Quantity, evt.ProductName, evt.OptionName, evt.TotalAmount, evt.Currency)

	if err := w.sender.Send(ctx, evt.BuyerID, subject, body); err != nil {
		logger := logctx.FromOr(ctx, w.log)
		logger.Warn("confirmation_send_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
	}
	return nil
}

func (w *Worker) handleGiftOrdered(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.GiftOrderedEvent)
	if !ok {
		return nil
	}

	subject := "You received a gift"
	body := fmt.Sprintf("A gift from buyer %s is on its way (order %s).", evt.BuyerID, evt.OrderID)

	if err := w.sender.Send(ctx, evt.Recipient, subject, body); err != nil {
		logger := logctx.FromOr(ctx, w.log)
		logger.Warn("gift_notice_send_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
	}
	return nil
}
