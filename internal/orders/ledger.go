package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrProductGone: produk hilang di tengah commit (dihapus / id salah).
	ErrProductGone = errors.New("product gone during commit")
)

// StockShortError dikembalikan DecrementStock kalau stok tidak cukup
// pada saat decrement (bukan pada saat read sebelumnya).
type StockShortError struct {
	ProductID string
	Requested int
	Available int
}

func (e *StockShortError) Error() string {
	return fmt.Sprintf("stock short for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// Tx adalah unit-of-work satu placement attempt: semua decrement stok
// dan insert order sukses bersama atau batal bersama.
type Tx interface {
	// DecrementStock kurangi stok secara kondisional; error *StockShortError
	// kalau stok < qty pada saat decrement.
	DecrementStock(ctx context.Context, productID string, qty int) error
	InsertOrder(ctx context.Context, o *Order) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Ledger struct{ DB *pgxpool.Pool }

func (l *Ledger) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct{ tx pgx.Tx }

// Lock baris (FOR UPDATE) -> re-check stok -> guarded update.
// Guard `stock_qty >= $2` menutup check-then-act race: nilai pre-read
// di luar transaksi tidak pernah dipercaya untuk write.
func (t *pgTx) DecrementStock(ctx context.Context, productID string, qty int) error {
	var stock int
	err := t.tx.QueryRow(ctx, `SELECT stock_qty FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductGone
	}
	if err != nil {
		return err
	}
	if stock < qty {
		return &StockShortError{ProductID: productID, Requested: qty, Available: stock}
	}

	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock_qty = stock_qty - $2, updated_at = now()
		WHERE id=$1 AND stock_qty >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return &StockShortError{ProductID: productID, Requested: qty, Available: stock}
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO orders(id, establishment_id, customer_id, address_id, payment_method, items, total, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.EstablishmentID, o.CustomerID, o.AddressID, o.PaymentMethod, items, o.Total, o.CreatedAt)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func (l *Ledger) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	var items []byte
	err := l.DB.QueryRow(ctx, `
		SELECT id, establishment_id, customer_id, address_id, payment_method, items, total, created_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.EstablishmentID, &o.CustomerID, &o.AddressID, &o.PaymentMethod, &items, &o.Total, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}
	return &o, nil
}

func (l *Ledger) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT id, establishment_id, customer_id, address_id, payment_method, items, total, created_at
		FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		var items []byte
		if err := rows.Scan(&o.ID, &o.EstablishmentID, &o.CustomerID, &o.AddressID, &o.PaymentMethod, &items, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode line items: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
