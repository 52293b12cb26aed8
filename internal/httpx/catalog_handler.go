package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/accounts"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
)

type CatalogReader interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	ListByEstablishment(ctx context.Context, establishmentID string) ([]catalog.Product, error)
	Restock(ctx context.Context, productID string, qty int) (int, error)
	SetAvailability(ctx context.Context, productID string, available bool) error
}

type EstablishmentReader interface {
	GetEstablishment(ctx context.Context, id string) (*accounts.Establishment, error)
	ListEstablishments(ctx context.Context) ([]accounts.Establishment, error)
}

type CatalogHandler struct {
	Catalog  CatalogReader
	Accounts EstablishmentReader
	Redis    *redis.Client // optional; dipakai buat bersihin flag lowstock
	Validate *validatorv10.Validate
}

type RestockReq struct {
	Qty int `json:"qty" validate:"required,min=1"`
}

type AvailabilityReq struct {
	Available *bool `json:"available" validate:"required"`
}

func (h *CatalogHandler) Register(r chi.Router, v TokenVerifier) {
	// listing publik
	r.Get("/establishments", h.listEstablishments)
	r.Get("/establishments/{id}/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)

	// surface seller
	r.Group(func(r chi.Router) {
		r.Use(RequireSeller(v))
		r.Post("/products/{id}/restock", h.restock)
		r.Put("/products/{id}/availability", h.setAvailability)
	})
}

func (h *CatalogHandler) listEstablishments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Accounts.ListEstablishments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []accounts.Establishment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	establishmentID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Accounts.GetEstablishment(ctx, establishmentID); err != nil {
		if errors.Is(err, accounts.ErrEstablishmentNotFound) {
			writeError(w, http.StatusNotFound, "establishment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list, err := h.Catalog.ListByEstablishment(ctx, establishmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Restock seller: jalur lock baris yang sama dengan decrement checkout,
// jadi tidak pernah balapan dengan placement.
func (h *CatalogHandler) restock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req RestockReq
	if err := decodeAndValidate(r, h.Validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.checkOwnership(ctx, w, productID)
	if err != nil {
		return
	}

	newStock, err := h.Catalog.Restock(ctx, productID, req.Qty)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// habis restock manual, flag lowstock dicabut; kalau masih menipis,
	// stockwatch akan menandai lagi di order berikutnya
	if h.Redis != nil {
		_ = h.Redis.SRem(ctx, fmt.Sprintf(redisx.KeyLowStock, p.EstablishmentID), p.ID).Err()
	}

	writeJSON(w, http.StatusOK, map[string]any{"product_id": productID, "stock_qty": newStock})
}

func (h *CatalogHandler) setAvailability(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req AvailabilityReq
	if err := decodeAndValidate(r, h.Validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.checkOwnership(ctx, w, productID); err != nil {
		return
	}

	if err := h.Catalog.SetAvailability(ctx, productID, *req.Available); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": productID, "available": *req.Available})
}

// checkOwnership: produk harus milik establishment si seller. Kalau tidak,
// balas 404 (jangan konfirmasi keberadaan produk orang lain) dan return error.
func (h *CatalogHandler) checkOwnership(ctx context.Context, w http.ResponseWriter, productID string) (*catalog.Product, error) {
	p, err := h.Catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return nil, err
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, err
	}
	est, err := h.Accounts.GetEstablishment(ctx, p.EstablishmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, err
	}
	if est.SellerID != SellerID(ctx) {
		writeError(w, http.StatusNotFound, "product not found")
		return nil, errors.New("not owner")
	}
	return p, nil
}
