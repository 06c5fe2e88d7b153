package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/otp"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.Identity{Username: "alice", Campus: "North", Verified: true}
	bob   = model.Identity{Username: "bob", Campus: "South", Verified: true}
	carol = model.Identity{Username: "carol", Campus: "North", Verified: true}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu         sync.Mutex
	events     []OrderEvent
	deliveries []OTPDelivery
	eventErr   error
	otpErr     error
}

func (n *recordingNotifier) OrderChanged(_ context.Context, evt OrderEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.eventErr
}

func (n *recordingNotifier) DeliverOTP(_ context.Context, d OTPDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	return n.otpErr
}

func (n *recordingNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.deliveries) == 0 {
		return ""
	}
	return n.deliveries[len(n.deliveries)-1].Code
}

type fixture struct {
	store    repository.Store
	mem      *repository.MemoryStore
	orders   OrderStore
	coord    DeliveryCoordinator
	notifier *recordingNotifier
	limiter  otp.AttemptLimiter
	clock    *fakeClock
	hook     *test.Hook
}

type fixtureConfig struct {
	length      int
	hashed      bool
	ttl         time.Duration
	maxAttempts int
	echo        bool
	wrap        func(repository.Store) repository.Store
}

func newFixture(t *testing.T, mutators ...func(*fixtureConfig)) *fixture {
	t.Helper()
	cfg := fixtureConfig{length: 4, ttl: 15 * time.Minute, maxAttempts: 5}
	for _, m := range mutators {
		m(&cfg)
	}
	engine, err := otp.NewEngine(cfg.length, cfg.hashed)
	require.NoError(t, err)

	mem := repository.NewMemoryStore()
	var store repository.Store = mem
	if cfg.wrap != nil {
		store = cfg.wrap(mem)
	}
	clock := newFakeClock()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	orders := NewOrderStore(store.Orders(), engine, WithOTPTTL(cfg.ttl), WithClock(clock.Now))
	limiter := otp.NewMemoryLimiter(cfg.maxAttempts)
	notifier := &recordingNotifier{}
	coord := NewDeliveryCoordinator(store, orders, limiter, notifier, log, WithOTPEcho(cfg.echo))
	return &fixture{
		store:    store,
		mem:      mem,
		orders:   orders,
		coord:    coord,
		notifier: notifier,
		limiter:  limiter,
		clock:    clock,
		hook:     hook,
	}
}

func (f *fixture) addProduct(t *testing.T, id string, seller model.Identity) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:        id,
		Seller:    seller.Party(),
		Title:     "Graphing calculator",
		Price:     decimal.RequireFromString("45.50"),
		Images:    []string{"https://img.example/calc.jpg"},
		Condition: "good",
		Status:    model.ProductStatusAvailable,
	}
	require.NoError(t, f.mem.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) product(t *testing.T, id string) *model.Product {
	t.Helper()
	p, err := f.mem.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) order(t *testing.T, id string) *model.Order {
	t.Helper()
	o, err := f.mem.Orders().FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

// placeAndIssue drives an order to OTP_GENERATED and returns it with the delivered code.
func (f *fixture) placeAndIssue(t *testing.T, productID string) (*model.Order, string) {
	t.Helper()
	ctx := context.Background()
	placed, err := f.coord.PlaceOrder(ctx, productID, alice)
	require.NoError(t, err)
	issued, err := f.coord.InitiateDelivery(ctx, placed.Order.ID, bob)
	require.NoError(t, err)
	return issued.Order, f.notifier.lastCode()
}
