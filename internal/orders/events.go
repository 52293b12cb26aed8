package orders

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced = "OrderPlaced"
	EventLowStock    = "LowStock"
)

const (
	TopicOrderPlaced = "order.placed"
	TopicLowStock    = "catalog.stock.low"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "checkout-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`
}

type PlacedItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderPlacedPayload struct {
	OrderID         string          `json:"order_id"`
	EstablishmentID string          `json:"establishment_id"`
	CustomerID      string          `json:"customer_id"`
	Items           []PlacedItem    `json:"items"`
	Total           decimal.Decimal `json:"total"`
}

type LowStockPayload struct {
	EstablishmentID string `json:"establishment_id"`
	ProductID       string `json:"product_id"`
	StockQty        int    `json:"stock_qty"`
	Threshold       int    `json:"threshold"`
}
