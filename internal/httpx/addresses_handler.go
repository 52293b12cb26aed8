package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/accounts"
	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
)

type AddressStore interface {
	CreateAddress(ctx context.Context, a *accounts.Address) (string, error)
	ListAddresses(ctx context.Context, customerID string) ([]accounts.Address, error)
}

type AddressesHandler struct {
	Store    AddressStore
	Validate *validatorv10.Validate
}

type CreateAddressReq struct {
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	District   string `json:"district" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required,len=2"`
	PostalCode string `json:"postal_code" validate:"required"`
	Complement string `json:"complement"`
}

func (h *AddressesHandler) Register(r chi.Router, v TokenVerifier) {
	r.Group(func(r chi.Router) {
		r.Use(RequireCustomer(v))
		r.Post("/addresses", h.createAddress)
		r.Get("/addresses", h.listAddresses)
	})
}

func (h *AddressesHandler) createAddress(w http.ResponseWriter, r *http.Request) {
	var req CreateAddressReq
	if err := decodeAndValidate(r, h.Validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// ownership selalu si caller, bukan dari body
	a := &accounts.Address{
		CustomerID: CustomerID(ctx),
		Street:     req.Street,
		Number:     req.Number,
		District:   req.District,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Complement: req.Complement,
	}
	id, err := h.Store.CreateAddress(ctx, a)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *AddressesHandler) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListAddresses(ctx, CustomerID(ctx))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []accounts.Address{}
	}
	writeJSON(w, http.StatusOK, list)
}
