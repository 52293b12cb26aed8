package stockwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"
)

type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service memantau event order.placed dan mencatat produk yang stoknya
// sudah di bawah ambang, supaya seller bisa restock sebelum kehabisan.
type Service struct {
	Catalog     ProductGetter
	Redis       *redis.Client
	Producer    Publisher // publish catalog.stock.low
	ServiceName string
	Threshold   int
}

// HandleOrderPlaced: dipasang sebagai handler consumer.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	for _, it := range p.Items {
		prod, err := s.Catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				continue // produk sudah dihapus, tidak ada yang perlu dipantau
			}
			return err
		}
		if prod.StockQty > s.Threshold {
			continue
		}

		key := fmt.Sprintf(redisx.KeyLowStock, prod.EstablishmentID)
		if err := s.Redis.SAdd(ctx, key, prod.ID).Err(); err != nil {
			return err
		}
		log.Warn().
			Str("product_id", prod.ID).
			Str("establishment_id", prod.EstablishmentID).
			Int("stock_qty", prod.StockQty).
			Int("threshold", s.Threshold).
			Msg("low stock")

		s.publishLowStock(prod, env.TraceID)
	}

	// tandai sukses paling akhir: kalau gagal di tengah, redelivery
	// masih diproses ulang (idempotent, SAdd aman diulang)
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return nil
}

func (s *Service) publishLowStock(p *catalog.Product, trace string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventLowStock,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: p.ID,
		Payload: kafkax.MustMarshal(orders.LowStockPayload{
			EstablishmentID: p.EstablishmentID,
			ProductID:       p.ID,
			StockQty:        p.StockQty,
			Threshold:       s.Threshold,
		}),
	}
	s.Producer.Publish([]byte(p.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventLowStock)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
