package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/placement"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req placement.Request) (*orders.Order, error)
}

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (*orders.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]orders.Order, error)
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Engine   OrderPlacer
	Reader   OrderReader
	Producer EventPublisher
	Redis    *redis.Client // optional cache; nil = cache off
	Validate *validatorv10.Validate
	Service  string
}

type OrderItemReq struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type PlaceOrderReq struct {
	EstablishmentID string         `json:"establishment_id" validate:"required"`
	AddressID       string         `json:"address_id" validate:"required"`
	PaymentMethod   string         `json:"payment_method" validate:"required"`
	Items           []OrderItemReq `json:"items" validate:"required,min=1,dive"`
}

type PlaceOrderResp struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

func (h *OrdersHandler) Register(r chi.Router, v TokenVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(RequireCustomer(v))
		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := decodeAndValidate(r, h.Validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items := make([]placement.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, placement.ItemRequest{ProductID: it.ProductID, Qty: it.Qty})
	}

	o, err := h.Engine.PlaceOrder(ctx, placement.Request{
		CustomerID:      CustomerID(ctx),
		EstablishmentID: req.EstablishmentID,
		AddressID:       req.AddressID,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	})
	if err != nil {
		code, body := placementError(err)
		writeJSON(w, code, body)
		return
	}

	h.cacheOrder(ctx, o)
	h.publishPlaced(o, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, PlaceOrderResp{OrderID: o.ID, Total: o.Total})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	if o, ok := h.cachedOrder(ctx, orderID); ok {
		if o.CustomerID != CustomerID(ctx) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeJSON(w, http.StatusOK, o)
		return
	}

	// 2) fallback DB
	o, err := h.Reader.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if o.CustomerID != CustomerID(ctx) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Reader.ListByCustomer(ctx, CustomerID(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	_ = h.Redis.Set(ctx, fmt.Sprintf(redisx.KeyOrder, o.ID), b, redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) cachedOrder(ctx context.Context, orderID string) (*orders.Order, bool) {
	if h.Redis == nil {
		return nil, false
	}
	s, err := h.Redis.Get(ctx, fmt.Sprintf(redisx.KeyOrder, orderID)).Result()
	if err != nil || s == "" {
		return nil, false
	}
	var o orders.Order
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return nil, false
	}
	return &o, true
}

func (h *OrdersHandler) publishPlaced(o *orders.Order, trace string) {
	if h.Producer == nil {
		return
	}
	placed := make([]orders.PlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		placed = append(placed, orders.PlacedItem{ProductID: it.ProductID, Qty: it.Qty})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:         o.ID,
			EstablishmentID: o.EstablishmentID,
			CustomerID:      o.CustomerID,
			Items:           placed,
			Total:           o.Total,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// placementError memetakan taxonomy engine ke status + body user-facing.
func placementError(err error) (int, map[string]any) {
	var unavailable *placement.ProductUnavailableError
	var short *placement.InsufficientStockError
	var transient *placement.TransientError
	switch {
	case errors.Is(err, placement.ErrInvalidRequest):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	case errors.Is(err, placement.ErrAddressNotFound):
		return http.StatusNotFound, map[string]any{"error": "delivery address not found"}
	case errors.Is(err, placement.ErrEstablishmentNotFound):
		return http.StatusNotFound, map[string]any{"error": "establishment not found"}
	case errors.As(err, &unavailable):
		return http.StatusNotFound, map[string]any{
			"error":      "product not available",
			"product_id": unavailable.ProductID,
		}
	case errors.As(err, &short):
		return http.StatusConflict, map[string]any{
			"error":      "insufficient stock",
			"product_id": short.ProductID,
			"requested":  short.Requested,
			"available":  short.Available,
		}
	case errors.As(err, &transient):
		return http.StatusServiceUnavailable, map[string]any{"error": "store unavailable, retry the order"}
	default:
		return http.StatusInternalServerError, map[string]any{"error": err.Error()}
	}
}
