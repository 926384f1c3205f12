package orders_test

// An in-memory stand-in for the pgstore implementation. Products carry a
// mutex that plays the part of the row lock: LockAndCheck acquires it and the
// unit of work holds it until commit or rollback, so the concurrency tests
// exercise the same lock discipline the Postgres ledger relies on.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-retail-api.git/internal/orders"
)

type memProduct struct {
	mu    sync.Mutex
	name  string
	price decimal.Decimal
	stock int
}

type memOrder struct {
	mu  sync.Mutex
	ord orders.Order
}

type memDB struct {
	mu        sync.Mutex
	buyers    map[int64]orders.Buyer
	products  map[int64]*memProduct
	orders    map[int64]*memOrder
	nextOrder int64
	trace     []string // "lock <id>" / "line <id>" in execution order
}

func newMemDB() *memDB {
	return &memDB{
		buyers:   map[int64]orders.Buyer{},
		products: map[int64]*memProduct{},
		orders:   map[int64]*memOrder{},
	}
}

func (db *memDB) addBuyer(id int64, name string) {
	db.buyers[id] = orders.Buyer{ID: id, Name: name, Email: fmt.Sprintf("%s@example.com", name)}
}

func (db *memDB) addProduct(id int64, name, price string, stock int) {
	db.products[id] = &memProduct{name: name, price: decimal.RequireFromString(price), stock: stock}
}

func (db *memDB) stock(id int64) int {
	p := db.products[id]
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stock
}

func (db *memDB) orderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

type memUoW struct {
	db          *memDB
	prodLocked  map[int64]*memProduct
	orderLocked map[int64]*memOrder
	undo        []func()
	done        bool
}

func (u *memUoW) Commit(ctx context.Context) error {
	if u.done {
		return orders.ErrNoActiveTransaction
	}
	u.finish()
	return nil
}

func (u *memUoW) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.finish()
	return nil
}

func (u *memUoW) finish() {
	for _, p := range u.prodLocked {
		p.mu.Unlock()
	}
	for _, o := range u.orderLocked {
		o.mu.Unlock()
	}
	u.done = true
}

type memTxManager struct{ db *memDB }

func (m *memTxManager) Begin(ctx context.Context) (orders.UnitOfWork, error) {
	return &memUoW{
		db:          m.db,
		prodLocked:  map[int64]*memProduct{},
		orderLocked: map[int64]*memOrder{},
	}, nil
}

func live(uow orders.UnitOfWork) (*memUoW, error) {
	u, ok := uow.(*memUoW)
	if !ok || u == nil || u.done {
		return nil, orders.ErrNoActiveTransaction
	}
	return u, nil
}

type memLedger struct{ db *memDB }

func (l *memLedger) LockAndCheck(ctx context.Context, uow orders.UnitOfWork, productID int64) (orders.StockSnapshot, error) {
	u, err := live(uow)
	if err != nil {
		return orders.StockSnapshot{}, err
	}
	l.db.mu.Lock()
	p := l.db.products[productID]
	l.db.mu.Unlock()
	if p == nil {
		return orders.StockSnapshot{}, &orders.ProductNotFoundError{ProductID: productID}
	}
	if _, held := u.prodLocked[productID]; !held {
		p.mu.Lock()
		u.prodLocked[productID] = p
		l.db.mu.Lock()
		l.db.trace = append(l.db.trace, fmt.Sprintf("lock %d", productID))
		l.db.mu.Unlock()
	}
	return orders.StockSnapshot{Stock: p.stock, Price: p.price}, nil
}

func (l *memLedger) Decrement(ctx context.Context, uow orders.UnitOfWork, productID int64, qty int) error {
	u, err := live(uow)
	if err != nil {
		return err
	}
	p, held := u.prodLocked[productID]
	if !held {
		return fmt.Errorf("decrement without lock on product %d", productID)
	}
	if p.stock < qty {
		return orders.ErrStockUnderflow
	}
	p.stock -= qty
	u.undo = append(u.undo, func() { p.stock += qty })
	return nil
}

func (l *memLedger) Restore(ctx context.Context, uow orders.UnitOfWork, productID int64, qty int) error {
	u, err := live(uow)
	if err != nil {
		return err
	}
	p, held := u.prodLocked[productID]
	if !held {
		return fmt.Errorf("restore without lock on product %d", productID)
	}
	p.stock += qty
	u.undo = append(u.undo, func() { p.stock -= qty })
	return nil
}

type memStore struct{ db *memDB }

func (s *memStore) Create(ctx context.Context, uow orders.UnitOfWork, o *orders.Order) (int64, error) {
	u, err := live(uow)
	if err != nil {
		return 0, err
	}
	s.db.mu.Lock()
	s.db.nextOrder++
	id := s.db.nextOrder
	stored := *o
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.Lines = make([]orders.OrderLine, len(o.Lines))
	copy(stored.Lines, o.Lines)
	for i := range stored.Lines {
		stored.Lines[i].OrderID = id
	}
	s.db.orders[id] = &memOrder{ord: stored}
	s.db.mu.Unlock()

	u.undo = append(u.undo, func() {
		s.db.mu.Lock()
		delete(s.db.orders, id)
		s.db.mu.Unlock()
	})
	return id, nil
}

// AddLine mirrors the FK discipline of the Postgres store: a line insert
// without the product's row lock already held is a workflow bug.
func (s *memStore) AddLine(ctx context.Context, uow orders.UnitOfWork, orderID int64, line orders.OrderLine) error {
	u, err := live(uow)
	if err != nil {
		return err
	}
	if _, held := u.prodLocked[line.ProductID]; !held {
		return fmt.Errorf("line insert before lock on product %d", line.ProductID)
	}
	s.db.mu.Lock()
	mo := s.db.orders[orderID]
	s.db.trace = append(s.db.trace, fmt.Sprintf("line %d", line.ProductID))
	s.db.mu.Unlock()
	if mo == nil {
		return orders.ErrOrderNotFound
	}
	line.OrderID = orderID
	mo.ord.Lines = append(mo.ord.Lines, line)
	u.undo = append(u.undo, func() { mo.ord.Lines = mo.ord.Lines[:len(mo.ord.Lines)-1] })
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	s.db.mu.Lock()
	mo := s.db.orders[id]
	s.db.mu.Unlock()
	if mo == nil {
		return nil, orders.ErrOrderNotFound
	}
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return copyOrder(&mo.ord), nil
}

func (s *memStore) GetForUpdate(ctx context.Context, uow orders.UnitOfWork, id int64) (*orders.Order, error) {
	u, err := live(uow)
	if err != nil {
		return nil, err
	}
	s.db.mu.Lock()
	mo := s.db.orders[id]
	s.db.mu.Unlock()
	if mo == nil {
		return nil, orders.ErrOrderNotFound
	}
	if _, held := u.orderLocked[id]; !held {
		mo.mu.Lock()
		u.orderLocked[id] = mo
	}
	return copyOrder(&mo.ord), nil
}

func (s *memStore) UpdateStatus(ctx context.Context, uow orders.UnitOfWork, id int64, status orders.Status) error {
	u, err := live(uow)
	if err != nil {
		return err
	}
	mo, held := u.orderLocked[id]
	if !held {
		s.db.mu.Lock()
		mo = s.db.orders[id]
		s.db.mu.Unlock()
		if mo == nil {
			return orders.ErrOrderNotFound
		}
		mo.mu.Lock()
		u.orderLocked[id] = mo
	}
	prev := mo.ord.Status
	mo.ord.Status = status
	u.undo = append(u.undo, func() { mo.ord.Status = prev })
	return nil
}

func (s *memStore) Delete(ctx context.Context, uow orders.UnitOfWork, id int64) (bool, error) {
	u, err := live(uow)
	if err != nil {
		return false, err
	}
	s.db.mu.Lock()
	mo := s.db.orders[id]
	if mo == nil {
		s.db.mu.Unlock()
		return false, nil
	}
	delete(s.db.orders, id)
	s.db.mu.Unlock()

	u.undo = append(u.undo, func() {
		s.db.mu.Lock()
		s.db.orders[id] = mo
		s.db.mu.Unlock()
	})
	return true, nil
}

func (s *memStore) List(ctx context.Context) ([]orders.Order, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []orders.Order
	for _, mo := range s.db.orders {
		out = append(out, *copyOrder(&mo.ord))
	}
	return out, nil
}

func (s *memStore) ListByBuyer(ctx context.Context, buyerID int64) ([]orders.Order, error) {
	all, _ := s.List(ctx)
	var out []orders.Order
	for _, o := range all {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) Stats(ctx context.Context) (*orders.Stats, error) {
	all, _ := s.List(ctx)
	stats := &orders.Stats{StatusCounts: map[orders.Status]int{}, TotalSales: decimal.Zero}
	for _, o := range all {
		stats.StatusCounts[o.Status]++
		if o.Status != orders.StatusCancelled {
			stats.TotalSales = stats.TotalSales.Add(o.Total)
		}
	}
	return stats, nil
}

type memBuyers struct{ db *memDB }

func (r *memBuyers) GetBuyer(ctx context.Context, id int64) (*orders.Buyer, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.buyers[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type memProducts struct{ db *memDB }

func (r *memProducts) GetProduct(ctx context.Context, id int64) (*orders.Product, error) {
	r.db.mu.Lock()
	p := r.db.products[id]
	r.db.mu.Unlock()
	if p == nil {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return &orders.Product{ID: id, Name: p.name, Price: p.price, Stock: p.stock}, nil
}

func copyOrder(o *orders.Order) *orders.Order {
	out := *o
	out.Lines = make([]orders.OrderLine, len(o.Lines))
	copy(out.Lines, o.Lines)
	return &out
}

// captureSink records emitted audit events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	Operation string
	Failed    bool
	Reason    string
}

func (c *captureSink) Emit(ctx context.Context, operationType string, payload any, opErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := capturedEvent{Operation: operationType}
	if opErr != nil {
		ev.Failed = true
		ev.Reason = opErr.Error()
	}
	c.events = append(c.events, ev)
}

func (c *captureSink) all() []capturedEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]capturedEvent, len(c.events))
	copy(out, c.events)
	return out
}
