package checkout

import (
	"context"
	"sync"

	"github.com/qwinza/tani-web/models"
)

// MemoryStore is an in-process Store used by tests and local runs without a
// database. A single mutex serializes transactions, which models the
// row-locked critical section: one writer at a time per store.
type MemoryStore struct {
	mu       sync.Mutex
	products map[uint]*models.Product
	orders   map[uint]*models.Order

	nextOrderID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[uint]*models.Product),
		orders:      make(map[uint]*models.Order),
		nextOrderID: 1,
	}
}

// AddProduct seeds the store.
func (s *MemoryStore) AddProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

// Stock reads the current stock outside any transaction.
func (s *MemoryStore) Stock(productID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		return p.Stock
	}
	return 0
}

// Orders returns a snapshot of all committed orders.
func (s *MemoryStore) Orders() []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		cp := *o
		res = append(res, &cp)
	}
	return res
}

// Transact holds the store lock for the whole unit of work. The snapshot is
// restored on error so a failed batch leaves no partial writes behind.
func (s *MemoryStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.snapshot()
	if err := fn(&memoryTx{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

type memState struct {
	products    map[uint]models.Product
	orders      map[uint]models.Order
	nextOrderID uint
}

func (s *MemoryStore) snapshot() memState {
	st := memState{
		products:    make(map[uint]models.Product, len(s.products)),
		orders:      make(map[uint]models.Order, len(s.orders)),
		nextOrderID: s.nextOrderID,
	}
	for id, p := range s.products {
		st.products[id] = *p
	}
	for id, o := range s.orders {
		st.orders[id] = *o
	}
	return st
}

func (s *MemoryStore) restore(st memState) {
	s.products = make(map[uint]*models.Product, len(st.products))
	for id := range st.products {
		p := st.products[id]
		s.products[id] = &p
	}
	s.orders = make(map[uint]*models.Order, len(st.orders))
	for id := range st.orders {
		o := st.orders[id]
		s.orders[id] = &o
	}
	s.nextOrderID = st.nextOrderID
}

func (s *MemoryStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getProduct(id)
}

func (s *MemoryStore) getProduct(id uint) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// LockProduct outside a transaction takes the store lock per call.
func (s *MemoryStore) LockProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.GetProduct(ctx, id)
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createOrder(order)
	return nil
}

func (s *MemoryStore) createOrder(order *models.Order) {
	order.ID = s.nextOrderID
	s.nextOrderID++
	cp := *order
	s.orders[order.ID] = &cp
}

func (s *MemoryStore) SetStock(ctx context.Context, productID uint, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStock(productID, stock)
}

func (s *MemoryStore) setStock(productID uint, stock int) error {
	p, ok := s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = stock
	return nil
}

// GetOrder returns a committed order by id.
func (s *MemoryStore) GetOrder(id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// FindByExternalID looks an order up by the gateway-facing reference.
func (s *MemoryStore) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ExternalID == externalID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

// Save overwrites a committed order.
func (s *MemoryStore) Save(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

// memoryTx is the view handed to Transact callbacks. The store lock is
// already held, so calls go straight to the unlocked internals.
type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) Transact(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return t.store.getProduct(id)
}

func (t *memoryTx) LockProduct(ctx context.Context, id uint) (*models.Product, error) {
	return t.store.getProduct(id)
}

func (t *memoryTx) CreateOrder(ctx context.Context, order *models.Order) error {
	t.store.createOrder(order)
	return nil
}

func (t *memoryTx) SetStock(ctx context.Context, productID uint, stock int) error {
	return t.store.setStock(productID, stock)
}
