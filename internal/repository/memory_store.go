package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
)

// MemoryStore keeps everything in process. A transaction holds the store lock for its
// whole duration and restores a snapshot when fn fails, so it serialises all writers.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) Orders() OrderRepository {
	return &memOrders{lock: &s.mu, st: s.state}
}

func (s *MemoryStore) Products() ProductRepository {
	return &memProducts{lock: &s.mu, st: s.state}
}

func (s *MemoryStore) Messages() MessageRepository {
	return &memMessages{lock: &s.mu, st: s.state}
}

func (s *MemoryStore) Notifications() NotificationRepository {
	return &memNotifications{lock: &s.mu, st: s.state}
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	tx := &memTx{st: s.state}
	committed := false
	defer func() {
		if !committed {
			*s.state = *snapshot
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

type memTx struct {
	st *memState
}

func (t *memTx) Orders() OrderRepository     { return &memOrders{lock: noopLocker{}, st: t.st} }
func (t *memTx) Products() ProductRepository { return &memProducts{lock: noopLocker{}, st: t.st} }
func (t *memTx) Messages() MessageRepository { return &memMessages{lock: noopLocker{}, st: t.st} }

type memState struct {
	orders        []model.Order // most recent first
	products      map[string]model.Product
	messages      []model.Message
	notifications []model.Notification
	nextNotifID   uint64
}

func newMemState() *memState {
	return &memState{products: map[string]model.Product{}}
}

func (st *memState) clone() *memState {
	c := &memState{
		orders:        make([]model.Order, len(st.orders)),
		products:      make(map[string]model.Product, len(st.products)),
		messages:      append([]model.Message(nil), st.messages...),
		notifications: make([]model.Notification, len(st.notifications)),
		nextNotifID:   st.nextNotifID,
	}
	for i, o := range st.orders {
		c.orders[i] = o.Clone()
	}
	for id, p := range st.products {
		c.products[id] = cloneProduct(p)
	}
	for i, n := range st.notifications {
		c.notifications[i] = cloneNotification(n)
	}
	return c
}

func cloneProduct(p model.Product) model.Product {
	c := p
	c.Images = append(c.Images[:0:0], p.Images...)
	if p.SoldAt != nil {
		v := *p.SoldAt
		c.SoldAt = &v
	}
	return c
}

func cloneNotification(n model.Notification) model.Notification {
	c := n
	if n.OrderID != nil {
		v := *n.OrderID
		c.OrderID = &v
	}
	if n.ReadAt != nil {
		v := *n.ReadAt
		c.ReadAt = &v
	}
	return c
}

type memOrders struct {
	lock sync.Locker
	st   *memState
}

func (r *memOrders) Create(_ context.Context, o *model.Order) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	r.st.orders = append([]model.Order{o.Clone()}, r.st.orders...)
	return nil
}

func (r *memOrders) FindByID(_ context.Context, id string) (*model.Order, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i := range r.st.orders {
		if r.st.orders[i].ID == id {
			o := r.st.orders[i].Clone()
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *memOrders) Update(_ context.Context, o *model.Order) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i := range r.st.orders {
		if r.st.orders[i].ID == o.ID {
			o.CreatedAt = r.st.orders[i].CreatedAt
			r.st.orders[i] = o.Clone()
			return nil
		}
	}
	return ErrNotFound
}

func (r *memOrders) ListByBuyer(_ context.Context, username string) ([]model.Order, error) {
	return r.filter(func(o *model.Order) bool { return o.Buyer.Username == username }), nil
}

func (r *memOrders) ListBySeller(_ context.Context, username string) ([]model.Order, error) {
	return r.filter(func(o *model.Order) bool { return o.Seller.Username == username }), nil
}

func (r *memOrders) filter(keep func(o *model.Order) bool) []model.Order {
	r.lock.Lock()
	defer r.lock.Unlock()
	list := make([]model.Order, 0)
	for i := range r.st.orders {
		if keep(&r.st.orders[i]) {
			list = append(list, r.st.orders[i].Clone())
		}
	}
	return list
}

type memProducts struct {
	lock sync.Locker
	st   *memState
}

func (r *memProducts) Create(_ context.Context, p *model.Product) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.st.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *memProducts) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneProduct(p)
	return &c, nil
}

func (r *memProducts) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memProducts) List(_ context.Context, limit, offset int, status model.ProductStatus) ([]model.Product, int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	all := make([]model.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		if status == "" || p.Status == status {
			all = append(all, cloneProduct(p))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []model.Product{}, total, nil
	}
	end := offset + clampLimit(limit, 20, 100)
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memProducts) Reserve(_ context.Context, id string) error {
	return r.transition(id, model.ProductStatusReserved, nil, model.ProductStatusAvailable)
}

func (r *memProducts) Release(_ context.Context, id string) error {
	return r.transition(id, model.ProductStatusAvailable, nil, model.ProductStatusReserved)
}

func (r *memProducts) MarkSold(_ context.Context, id string, at time.Time) error {
	return r.transition(id, model.ProductStatusSold, &at, model.ProductStatusAvailable, model.ProductStatusReserved)
}

func (r *memProducts) transition(id string, to model.ProductStatus, soldAt *time.Time, from ...model.ProductStatus) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return ErrConflict
	}
	for _, f := range from {
		if p.Status == f {
			p.Status = to
			if soldAt != nil {
				v := *soldAt
				p.SoldAt = &v
			}
			p.UpdatedAt = time.Now()
			r.st.products[id] = p
			return nil
		}
	}
	return ErrConflict
}

type memMessages struct {
	lock sync.Locker
	st   *memState
}

func (r *memMessages) Create(_ context.Context, m *model.Message) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.st.messages = append(r.st.messages, *m)
	return nil
}

func (r *memMessages) ListByOrder(_ context.Context, orderID string) ([]model.Message, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	list := make([]model.Message, 0)
	for _, m := range r.st.messages {
		if m.OrderID == orderID {
			list = append(list, m)
		}
	}
	return list, nil
}

type memNotifications struct {
	lock sync.Locker
	st   *memState
}

func (r *memNotifications) Create(_ context.Context, n *model.Notification) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.st.nextNotifID++
	n.ID = r.st.nextNotifID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.st.notifications = append(r.st.notifications, cloneNotification(*n))
	return nil
}

func (r *memNotifications) ListByUser(_ context.Context, username string, unreadOnly bool, limit int) ([]model.Notification, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	limit = clampLimit(limit, 20, 50)
	list := make([]model.Notification, 0)
	for i := len(r.st.notifications) - 1; i >= 0 && len(list) < limit; i-- {
		n := r.st.notifications[i]
		if n.Username != username || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		list = append(list, cloneNotification(n))
	}
	return list, nil
}

func (r *memNotifications) MarkAllRead(_ context.Context, username string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	now := time.Now()
	for i := range r.st.notifications {
		if r.st.notifications[i].Username == username && r.st.notifications[i].ReadAt == nil {
			r.st.notifications[i].ReadAt = &now
		}
	}
	return nil
}

func (r *memNotifications) CountUnread(_ context.Context, username string) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	var cnt int64
	for _, n := range r.st.notifications {
		if n.Username == username && n.ReadAt == nil {
			cnt++
		}
	}
	return cnt, nil
}
