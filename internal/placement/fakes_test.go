package placement

import (
	"context"
	"sync"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/accounts"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/catalog"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/orders"
	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the pgx repos: it implements
// CatalogStore, AccountStore and Ledger with the same conditional-decrement
// semantics as the real ledger (re-check under lock at decrement time).
type fakeStore struct {
	mu             sync.Mutex
	products       map[string]*catalog.Product
	addresses      map[string]*accounts.Address
	establishments map[string]*accounts.Establishment
	orders         map[string]*orders.Order

	failBegin  error
	failInsert error
	failCommit error

	// beforeBegin runs right before a tx starts; tests use it to mutate
	// stock between the validation read and the commit-time decrement.
	beforeBegin func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:       map[string]*catalog.Product{},
		addresses:      map[string]*accounts.Address{},
		establishments: map[string]*accounts.Establishment{},
		orders:         map[string]*orders.Order{},
	}
}

func (s *fakeStore) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetAddress(_ context.Context, id string) (*accounts.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.addresses[id]
	if !ok {
		return nil, accounts.ErrAddressNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) GetEstablishment(_ context.Context, id string) (*accounts.Establishment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.establishments[id]
	if !ok {
		return nil, accounts.ErrEstablishmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Begin(_ context.Context) (orders.Tx, error) {
	if s.failBegin != nil {
		return nil, s.failBegin
	}
	if s.beforeBegin != nil {
		s.beforeBegin()
	}
	return &fakeTx{store: s}, nil
}

func (s *fakeStore) stock(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].StockQty
}

type staged struct {
	productID string
	qty       int
}

// fakeTx applies decrements immediately under the store lock (standing in
// for the row lock) and undoes them on Rollback; the order only becomes
// visible on Commit.
type fakeTx struct {
	store     *fakeStore
	applied   []staged
	pending   *orders.Order
	committed bool
}

func (t *fakeTx) DecrementStock(_ context.Context, productID string, qty int) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	p, ok := t.store.products[productID]
	if !ok {
		return orders.ErrProductGone
	}
	if p.StockQty < qty {
		return &orders.StockShortError{ProductID: productID, Requested: qty, Available: p.StockQty}
	}
	p.StockQty -= qty
	t.applied = append(t.applied, staged{productID: productID, qty: qty})
	return nil
}

func (t *fakeTx) InsertOrder(_ context.Context, o *orders.Order) error {
	if t.store.failInsert != nil {
		return t.store.failInsert
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	t.pending = o
	return nil
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.store.failCommit != nil {
		return t.store.failCommit
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.pending != nil {
		cp := *t.pending
		t.store.orders[cp.ID] = &cp
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.committed {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, d := range t.applied {
		if p, ok := t.store.products[d.productID]; ok {
			p.StockQty += d.qty
		}
	}
	t.applied = nil
	t.pending = nil
	t.committed = true // idempotent: no double-restore
	return nil
}
