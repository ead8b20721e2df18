package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sarahchiu0928/paganini-server/internal/kafka"
	"github.com/sarahchiu0928/paganini-server/internal/orders"
	"github.com/sarahchiu0928/paganini-server/internal/redisx"
)

// CheckoutService is the slice of the orders repo the handler consumes.
type CheckoutService interface {
	Checkout(ctx context.Context, memberID int64, req orders.CheckoutRequest) (orders.Confirmation, error)
	ReconcileDeliveryStatus(ctx context.Context) (int64, error)
	ListOrders(ctx context.Context, memberID int64, filter orders.ListFilter) ([]orders.OrderSummary, error)
	LastOrder(ctx context.Context, memberID int64) (orders.OrderSummary, error)
	ListOrderItems(ctx context.Context, memberID, orderID int64) ([]orders.OrderItemView, error)
}

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

var _ Publisher = (*kafkax.Producer)(nil)

type OrdersHandler struct {
	Service  CheckoutService
	Producer Publisher
	Redis    *redis.Client
	Name     string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(MemberAuth)
		r.Post("/orders", h.checkout)
		r.Get("/orders", h.listOrders(orders.FilterAll))
		r.Get("/orders/last", h.lastOrder)
		r.Get("/orders/ongoing", h.listOrders(orders.FilterOngoing))
		r.Get("/orders/history", h.listOrders(orders.FilterHistory))
		r.Get("/orders/{order_id}/items", h.listOrderItems)
	})
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	member := memberID(r)

	var req orders.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	conf, err := h.Service.Checkout(ctx, member, req)
	if err != nil {
		code, msg := checkoutStatus(err)
		if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
			log.Printf("checkout failed for member %d: %v", member, err)
		}
		writeError(w, code, msg)
		return
	}

	// The cached "last order" is stale now; the next read refills it.
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyLastOrder, member)).Err()

	h.publishPlaced(member, conf, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":       "success",
		"order_id":     conf.OrderID,
		"order_code":   conf.OrderCode,
		"total_amount": conf.TotalAmount,
	})
}

func (h *OrdersHandler) publishPlaced(member int64, conf orders.Confirmation, trace string) {
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.Name,
		TraceID:      trace,
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:     conf.OrderID,
			OrderCode:   conf.OrderCode,
			MemberID:    member,
			TotalAmount: conf.TotalAmount,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(conf.OrderCode), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// checkoutStatus maps the checkout error taxonomy onto HTTP. Business errors
// travel to the caller verbatim; storage detail never does.
func checkoutStatus(err error) (int, string) {
	var vErr *orders.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, vErr.Error()
	}
	var sErr *orders.InsufficientStockError
	if errors.As(err, &sErr) {
		return http.StatusBadRequest, sErr.Error()
	}
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return http.StatusBadRequest, orders.ErrEmptyCart.Error()
	case errors.Is(err, orders.ErrCouponUnavailable):
		return http.StatusBadRequest, orders.ErrCouponUnavailable.Error()
	case errors.Is(err, orders.ErrTooManyConflicts):
		return http.StatusServiceUnavailable, "checkout is busy, please retry"
	default:
		return http.StatusInternalServerError, "checkout failed"
	}
}

// reconcile runs the lazy delivery-status sweep, throttled so bursts of reads
// don't hammer the table. Best effort: a redis outage just means we sweep.
func (h *OrdersHandler) reconcile(ctx context.Context) {
	ok, err := redisx.TryAcquire(ctx, h.Redis, redisx.KeyReconcileDelivery, redisx.TTLReconcile)
	if err == nil && !ok {
		return
	}
	if n, err := h.Service.ReconcileDeliveryStatus(ctx); err != nil {
		log.Printf("delivery reconcile: %v", err)
	} else if n > 0 {
		log.Printf("delivery reconcile: advanced %d orders", n)
	}
}

func (h *OrdersHandler) listOrders(filter orders.ListFilter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		h.reconcile(ctx)

		out, err := h.Service.ListOrders(ctx, memberID(r), filter)
		if err != nil {
			log.Printf("list orders: %v", err)
			writeError(w, http.StatusInternalServerError, "could not load orders")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": out})
	}
}

func (h *OrdersHandler) lastOrder(w http.ResponseWriter, r *http.Request) {
	member := memberID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyLastOrder, member)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": json.RawMessage(s)})
		return
	}

	h.reconcile(ctx)

	last, err := h.Service.LastOrder(ctx, member)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "no orders yet")
			return
		}
		log.Printf("last order: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	if b, err := json.Marshal(last); err == nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLLastOrder).Err()
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": last})
}

func (h *OrdersHandler) listOrderItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.reconcile(ctx)

	items, err := h.Service.ListOrderItems(ctx, memberID(r), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("list order items: %v", err)
		writeError(w, http.StatusInternalServerError, "could not load order items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": items})
}
