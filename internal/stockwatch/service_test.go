package stockwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGetter struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
	calls    int
	err      error
}

func (f *fakeGetter) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type publishedEvent struct {
	key     []byte
	value   []byte
	headers []kafkago.Header
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{key: key, value: value, headers: headers})
}

func newTestService(t *testing.T) (*Service, *fakeGetter, *fakePublisher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	getter := &fakeGetter{products: map[string]*catalog.Product{
		"prod-low":  {ID: "prod-low", EstablishmentID: "est-1", Name: "Kopi Susu", Price: decimal.RequireFromString("10.00"), StockQty: 3, Available: true},
		"prod-full": {ID: "prod-full", EstablishmentID: "est-1", Name: "Roti Bakar", Price: decimal.RequireFromString("2.50"), StockQty: 50, Available: true},
	}}
	pub := &fakePublisher{}
	svc := &Service{
		Catalog:     getter,
		Redis:       rdb,
		Producer:    pub,
		ServiceName: "stockwatch-test",
		Threshold:   5,
	}
	return svc, getter, pub, rdb
}

func placedMessage(eventID string, items ...orders.PlacedItem) kafkago.Message {
	env := orders.Envelope{
		EventID:       eventID,
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Producer:      "checkout-api-test",
		CorrelationID: "order-1",
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:         "order-1",
			EstablishmentID: "est-1",
			CustomerID:      "cust-1",
			Items:           items,
			Total:           decimal.RequireFromString("30.00"),
		}),
	}
	return kafkago.Message{Key: orders.PartitionKey("order-1"), Value: kafkax.MustMarshal(env)}
}

func TestHandleOrderPlacedLowStock(t *testing.T) {
	svc, _, pub, rdb := newTestService(t)
	ctx := context.Background()

	err := svc.HandleOrderPlaced(ctx, placedMessage("ev-1", orders.PlacedItem{ProductID: "prod-low", Qty: 2}))
	require.NoError(t, err)

	// produk masuk set lowstock per establishment
	member, err := rdb.SIsMember(ctx, fmt.Sprintf(redisx.KeyLowStock, "est-1"), "prod-low").Result()
	require.NoError(t, err)
	assert.True(t, member)

	// satu event LowStock terbit dengan payload lengkap
	require.Len(t, pub.events, 1)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.events[0].value, &env))
	assert.Equal(t, orders.EventLowStock, env.EventType)
	assert.Equal(t, "prod-low", env.CorrelationID)
	assert.Equal(t, []byte("prod-low"), pub.events[0].key)

	p, err := kafkax.UnwrapPayload[orders.LowStockPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "est-1", p.EstablishmentID)
	assert.Equal(t, "prod-low", p.ProductID)
	assert.Equal(t, 3, p.StockQty)
	assert.Equal(t, 5, p.Threshold)
}

func TestHandleOrderPlacedAboveThreshold(t *testing.T) {
	svc, _, pub, rdb := newTestService(t)
	ctx := context.Background()

	err := svc.HandleOrderPlaced(ctx, placedMessage("ev-1", orders.PlacedItem{ProductID: "prod-full", Qty: 2}))
	require.NoError(t, err)

	member, err := rdb.SIsMember(ctx, fmt.Sprintf(redisx.KeyLowStock, "est-1"), "prod-full").Result()
	require.NoError(t, err)
	assert.False(t, member)
	assert.Empty(t, pub.events)
}

func TestHandleOrderPlacedDedup(t *testing.T) {
	svc, getter, pub, _ := newTestService(t)
	ctx := context.Background()

	msg := placedMessage("ev-dup", orders.PlacedItem{ProductID: "prod-low", Qty: 1})
	require.NoError(t, svc.HandleOrderPlaced(ctx, msg))
	callsAfterFirst := getter.calls
	require.Len(t, pub.events, 1)

	// event_id sama -> no-op total
	require.NoError(t, svc.HandleOrderPlaced(ctx, msg))
	assert.Equal(t, callsAfterFirst, getter.calls)
	assert.Len(t, pub.events, 1)
}

func TestHandleOrderPlacedIgnoresOtherEvents(t *testing.T) {
	svc, getter, pub, _ := newTestService(t)

	env := orders.Envelope{
		EventID:   "ev-other",
		EventType: orders.EventLowStock, // bukan OrderPlaced
		Payload:   json.RawMessage(`{}`),
	}
	err := svc.HandleOrderPlaced(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(env)})
	require.NoError(t, err)
	assert.Zero(t, getter.calls)
	assert.Empty(t, pub.events)
}

func TestHandleOrderPlacedSkipsDeletedProduct(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	err := svc.HandleOrderPlaced(context.Background(), placedMessage("ev-1", orders.PlacedItem{ProductID: "prod-gone", Qty: 1}))
	require.NoError(t, err)
	assert.Empty(t, pub.events)
}

// Gagal transient tidak boleh menandai dedup: event harus tetap bisa
// diproses ulang saat redelivery.
func TestHandleOrderPlacedTransientFailureRedelivered(t *testing.T) {
	svc, getter, pub, rdb := newTestService(t)
	ctx := context.Background()

	getter.err = errors.New("db down")
	msg := placedMessage("ev-retry", orders.PlacedItem{ProductID: "prod-low", Qty: 1})
	require.Error(t, svc.HandleOrderPlaced(ctx, msg))

	exists, err := redisx.Exists(ctx, rdb, fmt.Sprintf(redisx.KeyDedup, "stockwatch", "ev-retry"))
	require.NoError(t, err)
	assert.False(t, exists, "dedup key must not be set on failure")

	// redelivery setelah store pulih
	getter.mu.Lock()
	getter.err = nil
	getter.mu.Unlock()
	require.NoError(t, svc.HandleOrderPlaced(ctx, msg))
	require.Len(t, pub.events, 1)
}
