package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *MemoryStore, id string) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &model.Product{
		ID:     id,
		Seller: model.Party{Username: "bob", Campus: "South"},
		Title:  "Calculator",
		Status: model.ProductStatusAvailable,
	}))
}

func newOrder(id string, createdAt time.Time) *model.Order {
	return &model.Order{
		ID:        id,
		Product:   model.ProductSnapshot{ID: "p-1"},
		Buyer:     model.Party{Username: "alice"},
		Seller:    model.Party{Username: "bob"},
		Status:    model.OrderStatusPending,
		CreatedAt: createdAt,
	}
}

func TestMemoryOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Now()
	require.NoError(t, s.Orders().Create(ctx, newOrder("o-1", base)))
	require.NoError(t, s.Orders().Create(ctx, newOrder("o-2", base.Add(time.Second))))

	list, err := s.Orders().ListByBuyer(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "o-2", list[0].ID)
	assert.Equal(t, "o-1", list[1].ID)

	empty, err := s.Orders().ListBySeller(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryOrdersNoAliasing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	o := newOrder("o-1", time.Now())
	require.NoError(t, s.Orders().Create(ctx, o))

	o.Status = model.OrderStatusCancelled
	got, err := s.Orders().FindByID(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, got.Status)

	_, err = s.Orders().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProduct(t, s, "p-1")
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Tx) error {
		require.NoError(t, tx.Orders().Create(ctx, newOrder("o-1", time.Now())))
		require.NoError(t, tx.Products().Reserve(ctx, "p-1"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Orders().FindByID(ctx, "o-1")
	assert.ErrorIs(t, err, ErrNotFound)
	p, err := s.Products().FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusAvailable, p.Status)
}

func TestMemoryTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProduct(t, s, "p-1")

	assert.Panics(t, func() {
		_ = s.Transaction(ctx, func(tx Tx) error {
			_ = tx.Products().Reserve(ctx, "p-1")
			panic("boom")
		})
	})
	p, err := s.Products().FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusAvailable, p.Status)
}

func TestMemoryTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProduct(t, s, "p-1")

	require.NoError(t, s.Transaction(ctx, func(tx Tx) error {
		if err := tx.Orders().Create(ctx, newOrder("o-1", time.Now())); err != nil {
			return err
		}
		return tx.Products().Reserve(ctx, "p-1")
	}))

	_, err := s.Orders().FindByID(ctx, "o-1")
	require.NoError(t, err)
	p, err := s.Products().FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusReserved, p.Status)
}

func TestMemoryProductTransitions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProduct(t, s, "p-1")
	products := s.Products()

	assert.ErrorIs(t, products.Release(ctx, "p-1"), ErrConflict)
	require.NoError(t, products.Reserve(ctx, "p-1"))
	assert.ErrorIs(t, products.Reserve(ctx, "p-1"), ErrConflict)
	require.NoError(t, products.Release(ctx, "p-1"))
	require.NoError(t, products.Reserve(ctx, "p-1"))

	soldAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, products.MarkSold(ctx, "p-1", soldAt))
	assert.ErrorIs(t, products.MarkSold(ctx, "p-1", soldAt), ErrConflict)
	assert.ErrorIs(t, products.Reserve(ctx, "missing"), ErrConflict)

	p, err := products.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusSold, p.Status)
	require.NotNil(t, p.SoldAt)
	assert.True(t, soldAt.Equal(*p.SoldAt))
}

func TestMemoryProductList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"p-1", "p-2", "p-3"} {
		seedProduct(t, s, id)
	}
	require.NoError(t, s.Products().Reserve(ctx, "p-2"))

	all, total, err := s.Products().List(ctx, 10, 0, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	avail, total, err := s.Products().List(ctx, 10, 0, model.ProductStatusAvailable)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, avail, 2)

	page, _, err := s.Products().List(ctx, 10, 5, "")
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryMessagesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Messages().Create(ctx, &model.Message{ID: "m-1", OrderID: "o-1", Sender: "alice", Text: "hi"}))
	require.NoError(t, s.Messages().Create(ctx, &model.Message{ID: "m-2", OrderID: "o-2", Sender: "bob", Text: "other"}))
	require.NoError(t, s.Messages().Create(ctx, &model.Message{ID: "m-3", OrderID: "o-1", Sender: "bob", Text: "hello"}))

	list, err := s.Messages().ListByOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hi", list[0].Text)
	assert.Equal(t, "hello", list[1].Text)
}

func TestMemoryNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	repo := s.Notifications()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Notification{Username: "alice", Type: model.NotificationOrderPlaced}))
	}
	require.NoError(t, repo.Create(ctx, &model.Notification{Username: "bob", Type: model.NotificationOrderPlaced}))

	cnt, err := repo.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)

	list, err := repo.ListByUser(ctx, "alice", true, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Greater(t, list[0].ID, list[1].ID)

	require.NoError(t, repo.MarkAllRead(ctx, "alice"))
	cnt, err = repo.CountUnread(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, cnt)
	unread, err := repo.ListByUser(ctx, "alice", true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
	cnt, err = repo.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
}
