package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `json:"id"`
	EstablishmentID string          `json:"establishment_id"`
	CustomerID      string          `json:"customer_id"`
	AddressID       string          `json:"address_id"`
	PaymentMethod   string          `json:"payment_method"`
	Items           []LineItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LineItem: salinan denormalisasi saat order dibuat. Edit produk
// setelahnya tidak pernah mengubah order yang sudah tersimpan.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}
