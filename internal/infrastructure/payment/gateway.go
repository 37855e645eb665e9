package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability/logctx"
)

const defaultTimeout = 5 * time.Second

// HTTPGateway charges through an external payment processor over HTTP. Any
// transport failure, timeout, or non-2xx response is reported as a decline;
// the pipeline never assumes partial success from the processor.
type HTTPGateway struct {
	url    string
	client *http.Client
	log    observability.Logger
}

func NewHTTPGateway(url string, timeout time.Duration, log observability.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &HTTPGateway{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.With(observability.F("component", "payment_gateway")),
	}
}

type chargeRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"payment_method"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req placement.ChargeRequest) (placement.ChargeResult, error) {
	logger := logctx.FromOr(ctx, g.log)

	body, err := json.Marshal(chargeRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Method:   req.Method,
	})
	if err != nil {
		return declineResult(fmt.Sprintf("encode charge request: %v", err)), nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return declineResult(fmt.Sprintf("build charge request: %v", err)), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		// Includes client-side timeout; the pipeline treats it as a decline.
		logger.Warn("gateway_unreachable", observability.F("error", err.Error()))
		return declineResult("gateway unreachable"), nil
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		logger.Warn("gateway_bad_response", observability.F("error", err.Error()))
		return declineResult("unreadable gateway response"), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decoded.Status != "succeeded" {
		reason := decoded.Reason
		if reason == "" {
			reason = fmt.Sprintf("gateway status %d", resp.StatusCode)
		}
		return declineResult(reason), nil
	}

	return placement.ChargeResult{
		Approved:      true,
		TransactionID: decoded.TransactionID,
	}, nil
}

func declineResult(reason string) placement.ChargeResult {
	return placement.ChargeResult{Approved: false, Reason: reason}
}
