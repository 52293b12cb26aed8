package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, establishment_id, name, COALESCE(description,''), price, stock_qty, available, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.EstablishmentID, &p.Name, &p.Description, &p.Price, &p.StockQty, &p.Available, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) ListByEstablishment(ctx context.Context, establishmentID string) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, establishment_id, name, COALESCE(description,''), price, stock_qty, available, created_at, updated_at
		FROM products WHERE establishment_id=$1 ORDER BY name`, establishmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.EstablishmentID, &p.Name, &p.Description, &p.Price, &p.StockQty, &p.Available, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Restock: tambah stok lewat lock baris yang sama dgn jalur reservasi,
// supaya tidak balapan dengan decrement saat checkout.
func (r *Repo) Restock(ctx context.Context, productID string, qty int) (newStock int, err error) {
	if qty <= 0 {
		return 0, fmt.Errorf("restock qty must be positive, got %d", qty)
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	if err := tx.QueryRow(ctx, `SELECT stock_qty FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if err := tx.QueryRow(ctx, `
		UPDATE products SET stock_qty = stock_qty + $2, updated_at = now()
		WHERE id=$1 RETURNING stock_qty`, productID, qty).Scan(&newStock); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newStock, nil
}

func (r *Repo) SetAvailability(ctx context.Context, productID string, available bool) error {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET available=$2, updated_at=now() WHERE id=$1`, productID, available)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
