package placement

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest: field wajib kosong, items kosong, atau qty <= 0.
	ErrInvalidRequest = errors.New("invalid order request")

	// ErrAddressNotFound juga dipakai kalau alamat ada tapi bukan milik
	// customer yang terautentikasi (jangan bocorkan alamat orang lain).
	ErrAddressNotFound = errors.New("delivery address not found")

	ErrEstablishmentNotFound = errors.New("establishment not found")
)

// ProductUnavailableError: produk tidak ada, tidak available, atau
// milik establishment lain dari target order.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s not available", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// TransientError: store gagal menyelesaikan commit (timeout, conflict).
// Aman untuk retry seluruh placement dari awal.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient store failure: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }
