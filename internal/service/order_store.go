package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/otp"
	"github.com/shinyyama/unimart-backend/internal/repository"
)

// OrderStore is the only writer of order status, otp and lifecycle timestamps.
// It never touches products; cross-entity work belongs to the DeliveryCoordinator.
type OrderStore interface {
	CreateOrder(ctx context.Context, product *model.Product, buyer model.Party) (*model.Order, error)
	AcceptOrder(ctx context.Context, orderID, actor string) (*model.Order, error)
	// GenerateOtp returns the plain code; only its sealed form is stored.
	GenerateOtp(ctx context.Context, orderID, actor string) (*model.Order, string, error)
	VerifyOtp(ctx context.Context, orderID, candidate string) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, actor string) (*model.Order, error)
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByBuyer(ctx context.Context, username string) ([]model.Order, error)
	GetOrdersBySeller(ctx context.Context, username string) ([]model.Order, error)
	// OTPExpiresAt is nil when no code is outstanding or no TTL is configured.
	OTPExpiresAt(o *model.Order) *time.Time
	// WithRepository returns a copy bound to r, typically a transaction-scoped repository.
	WithRepository(r repository.OrderRepository) OrderStore
}

type OrderStoreOption func(*orderStore)

func WithOTPTTL(ttl time.Duration) OrderStoreOption {
	return func(s *orderStore) { s.ttl = ttl }
}

func WithClock(now func() time.Time) OrderStoreOption {
	return func(s *orderStore) { s.now = now }
}

type orderStore struct {
	orders repository.OrderRepository
	engine *otp.Engine
	ttl    time.Duration
	now    func() time.Time
}

func NewOrderStore(orders repository.OrderRepository, engine *otp.Engine, opts ...OrderStoreOption) OrderStore {
	s := &orderStore{orders: orders, engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *orderStore) WithRepository(r repository.OrderRepository) OrderStore {
	c := *s
	c.orders = r
	return &c
}

func (s *orderStore) CreateOrder(ctx context.Context, product *model.Product, buyer model.Party) (*model.Order, error) {
	if product == nil {
		return nil, ErrNotFound
	}
	if buyer.Username == "" {
		return nil, ErrUnauthorized
	}
	if !product.IsAvailable() {
		return nil, ErrProductUnavailable
	}
	if buyer.Username == product.Seller.Username {
		return nil, fmt.Errorf("%w: cannot order your own product", ErrInvalidActor)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	now := s.now()
	o := &model.Order{
		ID:        id.String(),
		Product:   product.Snapshot(),
		Buyer:     buyer,
		Seller:    product.Seller,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderStore) AcceptOrder(ctx context.Context, orderID, actor string) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Seller.Username != actor {
		return nil, ErrUnauthorized
	}
	if err := checkTransition(o, model.OrderStatusAccepted); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatusAccepted
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderStore) GenerateOtp(ctx context.Context, orderID, actor string) (*model.Order, string, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if o.Seller.Username != actor {
		return nil, "", ErrUnauthorized
	}
	if err := checkTransition(o, model.OrderStatusOTPGenerated); err != nil {
		return nil, "", err
	}
	code, err := s.engine.Generate()
	if err != nil {
		return nil, "", err
	}
	sealed, err := s.engine.Seal(code)
	if err != nil {
		return nil, "", err
	}
	issuedAt := s.now()
	o.Status = model.OrderStatusOTPGenerated
	o.OTP = &sealed
	o.OTPIssuedAt = &issuedAt
	if err := s.save(ctx, o); err != nil {
		return nil, "", err
	}
	return o, code, nil
}

func (s *orderStore) VerifyOtp(ctx context.Context, orderID, candidate string) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(o, model.OrderStatusDelivered); err != nil {
		return nil, err
	}
	if exp := s.OTPExpiresAt(o); exp != nil && s.now().After(*exp) {
		return nil, ErrOtpExpired
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, fmt.Errorf("%w: otp is required", ErrValidation)
	}
	if o.OTP == nil || !s.engine.Verify(*o.OTP, candidate) {
		return nil, ErrOtpMismatch
	}
	now := s.now()
	o.Status = model.OrderStatusDelivered
	o.DeliveredAt = &now
	o.OTP = nil
	o.OTPIssuedAt = nil
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderStore) CancelOrder(ctx context.Context, orderID, actor string) (*model.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParticipant(actor) {
		return nil, ErrUnauthorized
	}
	if err := checkTransition(o, model.OrderStatusCancelled); err != nil {
		return nil, err
	}
	now := s.now()
	o.Status = model.OrderStatusCancelled
	o.CancelledAt = &now
	if err := s.save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *orderStore) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *orderStore) GetOrdersByBuyer(ctx context.Context, username string) ([]model.Order, error) {
	return s.orders.ListByBuyer(ctx, username)
}

func (s *orderStore) GetOrdersBySeller(ctx context.Context, username string) ([]model.Order, error) {
	return s.orders.ListBySeller(ctx, username)
}

func (s *orderStore) OTPExpiresAt(o *model.Order) *time.Time {
	if s.ttl <= 0 || o.OTPIssuedAt == nil {
		return nil
	}
	exp := o.OTPIssuedAt.Add(s.ttl)
	return &exp
}

func (s *orderStore) load(ctx context.Context, orderID string) (*model.Order, error) {
	o, err := s.orders.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (s *orderStore) save(ctx context.Context, o *model.Order) error {
	o.UpdatedAt = s.now()
	if err := o.Validate(); err != nil {
		return err
	}
	return s.orders.Update(ctx, o)
}

func checkTransition(o *model.Order, next model.OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	return nil
}
