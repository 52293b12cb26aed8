package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAddressNotFound       = errors.New("address not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) GetAddress(ctx context.Context, id string) (*Address, error) {
	var a Address
	err := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, street, number, district, city, state, postal_code, COALESCE(complement,'')
		FROM addresses WHERE id=$1`, id).
		Scan(&a.ID, &a.CustomerID, &a.Street, &a.Number, &a.District, &a.City, &a.State, &a.PostalCode, &a.Complement)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) CreateAddress(ctx context.Context, a *Address) (string, error) {
	a.ID = uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO addresses(id, customer_id, street, number, district, city, state, postal_code, complement)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''))`,
		a.ID, a.CustomerID, a.Street, a.Number, a.District, a.City, a.State, a.PostalCode, a.Complement)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (r *Repo) ListAddresses(ctx context.Context, customerID string) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, street, number, district, city, state, postal_code, COALESCE(complement,'')
		FROM addresses WHERE customer_id=$1 ORDER BY id`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Street, &a.Number, &a.District, &a.City, &a.State, &a.PostalCode, &a.Complement); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) GetEstablishment(ctx context.Context, id string) (*Establishment, error) {
	var e Establishment
	err := r.DB.QueryRow(ctx, `SELECT id, seller_id, name FROM establishments WHERE id=$1`, id).
		Scan(&e.ID, &e.SellerID, &e.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEstablishmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListEstablishments(ctx context.Context) ([]Establishment, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, seller_id, name FROM establishments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Establishment
	for rows.Next() {
		var e Establishment
		if err := rows.Scan(&e.ID, &e.SellerID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
