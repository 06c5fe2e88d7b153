package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update matched no row.
	ErrConflict = errors.New("conflicting update")
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	ListByBuyer(ctx context.Context, username string) ([]model.Order, error)
	ListBySeller(ctx context.Context, username string) ([]model.Order, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, limit, offset int, status model.ProductStatus) ([]model.Product, int64, error)
	// Reserve moves AVAILABLE -> RESERVED.
	Reserve(ctx context.Context, id string) error
	// Release moves RESERVED -> AVAILABLE.
	Release(ctx context.Context, id string) error
	// MarkSold moves AVAILABLE or RESERVED -> SOLD.
	MarkSold(ctx context.Context, id string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *model.Message) error
	ListByOrder(ctx context.Context, orderID string) ([]model.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, username string, unreadOnly bool, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, username string) error
	CountUnread(ctx context.Context, username string) (int64, error)
}

// Tx is the set of repositories bound to one transaction.
type Tx interface {
	Orders() OrderRepository
	Products() ProductRepository
	Messages() MessageRepository
}

// Store is the persistence port. Repositories returned directly by the Store run outside
// any transaction; Transaction commits when fn returns nil and rolls back otherwise.
type Store interface {
	Tx
	Notifications() NotificationRepository
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 || limit > max {
		return def
	}
	return limit
}
