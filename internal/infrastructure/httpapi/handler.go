package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	domorder "github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
)

type Handler struct {
	placeOrder *placement.PlaceOrderUseCase
}

func NewHandler(placeOrder *placement.PlaceOrderUseCase) *Handler {
	return &Handler{placeOrder: placeOrder}
}

// RouterOptions carries the middleware configuration for the public router.
type RouterOptions struct {
	AuthTokens  map[string]string
	CORSOrigins []string
	Middleware  []func(http.Handler) http.Handler
}

func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	for _, mw := range opts.Middleware {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(AuthContext(opts.AuthTokens))
		r.Post("/", h.handlePlaceOrder)
		r.Get("/{orderID}", h.handleGetOrder)
	})

	return r
}

type placeOrderRequest struct {
	OptionID      string `json:"option_id"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"payment_method"`
	Currency      string `json:"currency"`
	GiftRecipient string `json:"gift_recipient,omitempty"`
}

type placeOrderResponse struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	Message       string `json:"message"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := BuyerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("buyer identity missing"))
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.placeOrder.Execute(r.Context(), placement.PlaceOrderInput{
		BuyerID:       buyerID,
		OptionID:      req.OptionID,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		Currency:      req.Currency,
		GiftRecipient: req.GiftRecipient,
	})
	if err != nil {
		writePlacementError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID:       result.OrderID,
		PaymentStatus: string(result.PaymentStatus),
		Message:       result.Message,
	})
}

type orderItemResponse struct {
	ProductName string          `json:"product_name"`
	OptionName  string          `json:"option_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

type orderResponse struct {
	OrderID       string              `json:"order_id"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	TotalAmount   int64               `json:"total_amount"`
	Currency      string              `json:"currency"`
	PaymentStatus string              `json:"payment_status"`
	Items         []orderItemResponse `json:"items"`
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := BuyerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("buyer identity missing"))
		return
	}

	found, err := h.placeOrder.GetOrder(r.Context(), buyerID, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, domorder.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("order not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	resp := orderResponse{
		OrderID:       found.ID,
		Status:        string(found.Status),
		CreatedAt:     found.CreatedAt,
		TotalAmount:   found.TotalAmount,
		Currency:      found.Payment.Currency,
		PaymentStatus: string(found.Payment.Status),
	}
	for _, item := range found.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductName: item.ProductName,
			OptionName:  item.OptionName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// writePlacementError maps the placement taxonomy onto HTTP status codes.
func writePlacementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, placement.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, placement.ErrInvalidQuantity),
		errors.Is(err, placement.ErrPaymentDeclined):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, placement.ErrInsufficientStock),
		errors.Is(err, placement.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
