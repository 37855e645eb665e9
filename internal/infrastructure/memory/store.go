package memory

import (
	"context"
	"sync"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/application/placement"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/cart"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/order"
	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/domain/stock"
	"github.com/shopspring/decimal"
)

type catalogEntry struct {
	option      *stock.Option
	productName string
	unitPrice   decimal.Decimal
}

// Store is an in-memory placement store for demos and tests. It honours the
// same transactional contract as the MySQL store: staged writes become visible
// together or not at all, under the configured lock mode.
type Store struct {
	mode placement.LockMode

	mu       sync.Mutex
	catalog  map[string]*catalogEntry
	orders   map[string]*order.Order
	carts    map[string]map[string]cart.Line
	rowLocks map[string]*sync.Mutex
}

func NewStore(mode placement.LockMode) *Store {
	if mode == "" {
		mode = placement.LockPessimistic
	}
	return &Store{
		mode:     mode,
		catalog:  make(map[string]*catalogEntry),
		orders:   make(map[string]*order.Order),
		carts:    make(map[string]map[string]cart.Line),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

// AddOption seeds a sellable option with its product snapshot data.
func (s *Store) AddOption(opt *stock.Option, productName string, unitPrice decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[opt.ID] = &catalogEntry{
		option:      opt.Clone(),
		productName: productName,
		unitPrice:   unitPrice,
	}
}

// Quantity reports the current stored quantity for an option.
func (s *Store) Quantity(optionID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.catalog[optionID]
	if !ok {
		return 0, false
	}
	return entry.option.Quantity, true
}

// OrderCount reports how many orders have been persisted.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Store) WithinPlacement(ctx context.Context, fn func(tx placement.Tx) error) error {
	t := &tx{store: s}
	defer t.releaseRowLock()

	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) FindOrder(ctx context.Context, orderID string) (*order.Order, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	found, ok := s.orders[orderID]
	if !ok {
		return nil, order.ErrNotFound
	}
	return found.Clone(), nil
}

// ListByBuyer implements cart.Repository.
func (s *Store) ListByBuyer(ctx context.Context, buyerID string) ([]cart.Line, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]cart.Line, 0, len(s.carts[buyerID]))
	for _, line := range s.carts[buyerID] {
		lines = append(lines, line)
	}
	return lines, nil
}

// Put implements cart.Repository.
func (s *Store) Put(ctx context.Context, line cart.Line) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[line.BuyerID] == nil {
		s.carts[line.BuyerID] = make(map[string]cart.Line)
	}
	s.carts[line.BuyerID][line.OptionID] = line
	return nil
}

func (s *Store) rowLock(optionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rowLocks[optionID]; !ok {
		s.rowLocks[optionID] = &sync.Mutex{}
	}
	return s.rowLocks[optionID]
}

type tx struct {
	store *Store

	held        *sync.Mutex
	optionID    string
	readVersion int64

	stagedStock *stock.Option
	stagedOrder *order.Order
	cartBuyer   string
	cartOption  string
}

func (t *tx) LockOption(ctx context.Context, optionID string) (*placement.PricedOption, error) {
	_ = ctx
	if t.store.mode == placement.LockPessimistic && t.held == nil {
		// Exclusive row hold until the enclosing transaction ends; concurrent
		// competitors for the same option block here.
		lock := t.store.rowLock(optionID)
		lock.Lock()
		t.held = lock
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	entry, ok := t.store.catalog[optionID]
	if !ok {
		return nil, stock.ErrNotFound
	}
	t.optionID = optionID
	t.readVersion = entry.option.Version
	return &placement.PricedOption{
		Option:      entry.option.Clone(),
		ProductName: entry.productName,
		UnitPrice:   entry.unitPrice,
	}, nil
}

func (t *tx) SaveStock(ctx context.Context, opt *stock.Option) error {
	_ = ctx
	t.stagedStock = opt.Clone()
	return nil
}

func (t *tx) InsertOrder(ctx context.Context, o *order.Order) error {
	_ = ctx
	t.stagedOrder = o.Clone()
	return nil
}

func (t *tx) RemoveCartLine(ctx context.Context, buyerID, optionID string) error {
	_ = ctx
	t.cartBuyer = buyerID
	t.cartOption = optionID
	return nil
}

// commit applies the staged writes in one critical section, so readers never
// observe an order without its stock decrement or vice versa.
func (t *tx) commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.stagedStock != nil {
		entry, ok := t.store.catalog[t.stagedStock.ID]
		if !ok {
			return stock.ErrNotFound
		}
		if t.store.mode == placement.LockOptimistic && entry.option.Version != t.readVersion {
			return stock.ErrConcurrentModification
		}
		entry.option = t.stagedStock.Clone()
	}
	if t.stagedOrder != nil {
		t.store.orders[t.stagedOrder.ID] = t.stagedOrder.Clone()
	}
	if t.cartBuyer != "" {
		if lines, ok := t.store.carts[t.cartBuyer]; ok {
			delete(lines, t.cartOption)
		}
	}
	return nil
}

func (t *tx) releaseRowLock() {
	if t.held != nil {
		t.held.Unlock()
		t.held = nil
	}
}
