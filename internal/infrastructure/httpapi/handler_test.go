package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/httpapi"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/id"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type approvingGateway struct {
	calls atomic.Int64
}

func (g *approvingGateway) Charge(_ context.Context, _ placement.ChargeRequest) (placement.ChargeResult, error) {
	n := g.calls.Add(1)
	return placement.ChargeResult{Approved: true, TransactionID: fmt.Sprintf("txn-%d", n)}, nil
}

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore(placement.LockPessimistic)
	opt, err := stock.NewOption("opt-cola", "prod-cola", "0.5l bottle", 5)
	require.NoError(t, err)
	store.AddOption(opt, "Club Cola", decimal.RequireFromString("1.80"))

	uc := placement.NewPlaceOrderUseCase(store, &approvingGateway{}, id.NewUUIDGenerator(), nil, nil)
	handler := httpapi.NewHandler(uc)
	srv := httptest.NewServer(handler.Router(httpapi.RouterOptions{
		AuthTokens:  map[string]string{"tok-1": "buyer-1", "tok-2": "buyer-2"},
		CORSOrigins: []string{"*"},
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func placeBody(optionID string, quantity int) string {
	b, _ := json.Marshal(map[string]any{
		"option_id":      optionID,
		"quantity":       quantity,
		"payment_method": "card-token",
		"currency":       "EUR",
	})
	return string(b)
}

func TestPlaceOrderEndpoint(t *testing.T) {
	cases := []struct {
		name       string
		token      string
		body       string
		wantStatus int
	}{
		{"missing token", "", placeBody("opt-cola", 1), http.StatusUnauthorized},
		{"unknown token", "tok-bogus", placeBody("opt-cola", 1), http.StatusForbidden},
		{"success", "tok-1", placeBody("opt-cola", 2), http.StatusCreated},
		{"unknown option", "tok-1", placeBody("opt-missing", 1), http.StatusNotFound},
		{"zero quantity", "tok-1", placeBody("opt-cola", 0), http.StatusBadRequest},
		{"insufficient stock", "tok-1", placeBody("opt-cola", 99), http.StatusConflict},
		{"malformed body", "tok-1", `{"option_id":`, http.StatusBadRequest},
		{"unknown field", "tok-1", `{"option_id":"opt-cola","quantity":1,"surprise":true}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newServer(t)
			resp := doRequest(t, http.MethodPost, srv.URL+"/orders", tc.token, tc.body)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			if tc.wantStatus != http.StatusCreated {
				var body struct {
					Error string `json:"error"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.NotEmpty(t, body.Error)
				return
			}

			var body struct {
				OrderID       string `json:"order_id"`
				PaymentStatus string `json:"payment_status"`
				Message       string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.OrderID)
			assert.Equal(t, "succeeded", body.PaymentStatus)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	srv, store := newServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/orders", "tok-1", placeBody("opt-cola", 2))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var placed struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&placed))
	require.Equal(t, 1, store.OrderCount())

	t.Run("owner sees the order", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, srv.URL+"/orders/"+placed.OrderID, "tok-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			OrderID       string `json:"order_id"`
			Status        string `json:"status"`
			TotalAmount   int64  `json:"total_amount"`
			Currency      string `json:"currency"`
			PaymentStatus string `json:"payment_status"`
			Items         []struct {
				ProductName string `json:"product_name"`
				Quantity    int    `json:"quantity"`
			} `json:"items"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, placed.OrderID, body.OrderID)
		assert.Equal(t, "PAID", body.Status)
		assert.Equal(t, int64(360), body.TotalAmount)
		assert.Equal(t, "EUR", body.Currency)
		assert.Equal(t, "succeeded", body.PaymentStatus)
		require.Len(t, body.Items, 1)
		assert.Equal(t, "Club Cola", body.Items[0].ProductName)
		assert.Equal(t, 2, body.Items[0].Quantity)
	})

	t.Run("other buyer cannot see it", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, srv.URL+"/orders/"+placed.OrderID, "tok-2", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown order id", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, srv.URL+"/orders/ord-nope", "tok-1", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	resp := doRequest(t, http.MethodGet, srv.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
