package placement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/accounts"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/shopspring/decimal"
)

type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

type AccountStore interface {
	GetAddress(ctx context.Context, id string) (*accounts.Address, error)
	GetEstablishment(ctx context.Context, id string) (*accounts.Establishment, error)
}

type Ledger interface {
	Begin(ctx context.Context) (orders.Tx, error)
}

type ItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type Request struct {
	CustomerID      string
	EstablishmentID string
	AddressID       string
	PaymentMethod   string
	Items           []ItemRequest
}

// Engine mengorkestrasi satu placement attempt: validasi, pricing,
// reservasi stok, dan commit order sebagai satu unit atomik.
type Engine struct {
	Catalog   CatalogStore
	Accounts  AccountStore
	Ledger    Ledger
	Precision int32

	nowFunc func() time.Time
}

func NewEngine(cat CatalogStore, acc AccountStore, led Ledger, precision int32) *Engine {
	return &Engine{Catalog: cat, Accounts: acc, Ledger: led, Precision: precision, nowFunc: time.Now}
}

func (e *Engine) now() time.Time {
	if e.nowFunc != nil {
		return e.nowFunc()
	}
	return time.Now()
}

// PlaceOrder memproses satu order: fail fast saat validasi (tanpa menyentuh
// state), lalu commit decrement stok + insert order dalam satu transaksi.
// Dua attempt yang balapan memperebutkan unit stok terakhir: tepat satu
// yang sukses, satunya dapat InsufficientStockError.
func (e *Engine) PlaceOrder(ctx context.Context, req Request) (*orders.Order, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// ownership checks
	addr, err := e.Accounts.GetAddress(ctx, req.AddressID)
	if err != nil {
		if errors.Is(err, accounts.ErrAddressNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, &TransientError{Err: err}
	}
	if addr.CustomerID != req.CustomerID {
		return nil, ErrAddressNotFound
	}

	est, err := e.Accounts.GetEstablishment(ctx, req.EstablishmentID)
	if err != nil {
		if errors.Is(err, accounts.ErrEstablishmentNotFound) {
			return nil, ErrEstablishmentNotFound
		}
		return nil, &TransientError{Err: err}
	}

	// resolve + price tiap item, urut sesuai request (read-only, belum
	// ada mutasi apa pun sampai fase commit)
	items := make([]orders.LineItem, 0, len(req.Items))
	subtotals := make([]decimal.Decimal, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := e.Catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, &ProductUnavailableError{ProductID: it.ProductID}
			}
			return nil, &TransientError{Err: err}
		}
		if p.EstablishmentID != est.ID || !p.Available {
			return nil, &ProductUnavailableError{ProductID: it.ProductID}
		}
		if it.Qty > p.StockQty {
			return nil, &InsufficientStockError{ProductID: it.ProductID, Requested: it.Qty, Available: p.StockQty}
		}

		// harga di-snapshot sekarang; edit harga produk belakangan tidak
		// pernah mengubah order yang sudah ada
		sub := Subtotal(p.Price, it.Qty, e.Precision)
		items = append(items, orders.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Qty:         it.Qty,
			UnitPrice:   p.Price,
			Subtotal:    sub,
		})
		subtotals = append(subtotals, sub)
	}
	total := SumTotal(subtotals, e.Precision)

	// fase commit: decrement semua + insert order, sukses/batal bersama
	tx, err := e.Ledger.Begin(ctx)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range req.Items {
		if err := tx.DecrementStock(ctx, it.ProductID, it.Qty); err != nil {
			var short *orders.StockShortError
			switch {
			case errors.As(err, &short):
				// kalah balapan: hasil re-check saat decrement yang berlaku,
				// bukan hasil read validasi tadi
				return nil, &InsufficientStockError{ProductID: short.ProductID, Requested: short.Requested, Available: short.Available}
			case errors.Is(err, orders.ErrProductGone):
				return nil, &ProductUnavailableError{ProductID: it.ProductID}
			default:
				return nil, &TransientError{Err: err}
			}
		}
	}

	o := &orders.Order{
		EstablishmentID: est.ID,
		CustomerID:      req.CustomerID,
		AddressID:       addr.ID,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
		Total:           total,
		CreatedAt:       e.now().UTC(),
	}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, &TransientError{Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, &TransientError{Err: err}
	}
	return o, nil
}

func validate(req Request) error {
	switch {
	case req.CustomerID == "":
		return fmt.Errorf("%w: customer_id is required", ErrInvalidRequest)
	case req.EstablishmentID == "":
		return fmt.Errorf("%w: establishment_id is required", ErrInvalidRequest)
	case req.AddressID == "":
		return fmt.Errorf("%w: address_id is required", ErrInvalidRequest)
	case req.PaymentMethod == "":
		return fmt.Errorf("%w: payment_method is required", ErrInvalidRequest)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: items must not be empty", ErrInvalidRequest)
	}
	for _, it := range req.Items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: item product_id is required", ErrInvalidRequest)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: qty for product %s must be positive", ErrInvalidRequest, it.ProductID)
		}
	}
	return nil
}
