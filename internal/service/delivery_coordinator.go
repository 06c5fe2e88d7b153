package service

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/otp"
	"github.com/shinyyama/unimart-backend/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	WarningNotifyFailed    = "notification_failed"
	WarningOTPDeliveryFail = "otp_delivery_failed"
)

type OrderRole string

const (
	RoleBuyer  OrderRole = "buyer"
	RoleSeller OrderRole = "seller"
)

// Result carries a committed order plus side-channel outcomes. Code is only set
// when OTP echo is enabled.
type Result struct {
	Order     *model.Order
	Code      string
	ExpiresAt *time.Time
	Warnings  []string
}

type DeliveryCoordinator interface {
	PlaceOrder(ctx context.Context, productID string, buyer model.Identity) (*Result, error)
	AcceptOrder(ctx context.Context, orderID string, actor model.Identity) (*Result, error)
	InitiateDelivery(ctx context.Context, orderID string, actor model.Identity) (*Result, error)
	ConfirmDelivery(ctx context.Context, orderID string, actor model.Identity, candidate string) (*Result, error)
	CancelOrder(ctx context.Context, orderID string, actor model.Identity) (*Result, error)
	GetOrder(ctx context.Context, orderID string, actor model.Identity) (*model.Order, error)
	ListOrders(ctx context.Context, actor model.Identity, role OrderRole) ([]model.Order, error)
}

type CoordinatorOption func(*deliveryCoordinator)

// WithOTPEcho returns the plain code to the initiating seller. Demo deployments only.
func WithOTPEcho(on bool) CoordinatorOption {
	return func(c *deliveryCoordinator) { c.echoOTP = on }
}

type deliveryCoordinator struct {
	store    repository.Store
	orders   OrderStore
	limiter  otp.AttemptLimiter
	notifier Notifier
	log      logrus.FieldLogger
	echoOTP  bool
}

func NewDeliveryCoordinator(store repository.Store, orders OrderStore, limiter otp.AttemptLimiter, notifier Notifier, log logrus.FieldLogger, opts ...CoordinatorOption) DeliveryCoordinator {
	if limiter == nil {
		limiter = otp.NewMemoryLimiter(0)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	c := &deliveryCoordinator{store: store, orders: orders, limiter: limiter, notifier: notifier, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *deliveryCoordinator) PlaceOrder(ctx context.Context, productID string, buyer model.Identity) (*Result, error) {
	if buyer.Username == "" {
		return nil, ErrUnauthorized
	}
	if !buyer.Verified {
		return nil, ErrUnverified
	}
	var order *model.Order
	err := c.store.Transaction(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().FindByIDForUpdate(ctx, productID)
		if err != nil {
			return notFound(err)
		}
		o, err := c.orders.WithRepository(tx.Orders()).CreateOrder(ctx, product, buyer.Party())
		if err != nil {
			return err
		}
		if err := tx.Products().Reserve(ctx, product.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrProductUnavailable
			}
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger(order).WithField("buyer", buyer.Username).Info("order placed")
	res := &Result{Order: order}
	c.publish(ctx, res, EventOrderPlaced, buyer.Username)
	return res, nil
}

func (c *deliveryCoordinator) AcceptOrder(ctx context.Context, orderID string, actor model.Identity) (*Result, error) {
	var order *model.Order
	err := c.store.Transaction(ctx, func(tx repository.Tx) error {
		o, err := c.orders.WithRepository(tx.Orders()).AcceptOrder(ctx, orderID, actor.Username)
		order = o
		return err
	})
	if err != nil {
		return nil, err
	}
	c.logger(order).Info("order accepted")
	res := &Result{Order: order}
	c.publish(ctx, res, EventOrderAccepted, actor.Username)
	return res, nil
}

func (c *deliveryCoordinator) InitiateDelivery(ctx context.Context, orderID string, actor model.Identity) (*Result, error) {
	var (
		order *model.Order
		code  string
	)
	err := c.store.Transaction(ctx, func(tx repository.Tx) error {
		o, cd, err := c.orders.WithRepository(tx.Orders()).GenerateOtp(ctx, orderID, actor.Username)
		order, code = o, cd
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Reset(ctx, order.ID); err != nil {
		c.logger(order).WithError(err).Warn("reset otp attempts failed")
	}

	res := &Result{Order: order, ExpiresAt: c.orders.OTPExpiresAt(order)}
	if c.echoOTP {
		res.Code = code
	}
	c.logger(order).Info("otp issued")

	delivery := OTPDelivery{
		OrderID:   order.ID,
		Buyer:     order.Buyer.Username,
		Seller:    order.Seller.Username,
		Code:      code,
		ExpiresAt: res.ExpiresAt,
	}
	if err := c.notifier.DeliverOTP(ctx, delivery); err != nil {
		c.logger(order).WithError(err).Warn("otp delivery failed")
		res.Warnings = append(res.Warnings, WarningOTPDeliveryFail)
	}
	return res, nil
}

func (c *deliveryCoordinator) ConfirmDelivery(ctx context.Context, orderID string, actor model.Identity, candidate string) (*Result, error) {
	var order *model.Order
	err := c.store.Transaction(ctx, func(tx repository.Tx) error {
		current, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err)
		}
		if current.Seller.Username != actor.Username {
			return ErrUnauthorized
		}
		if current.Status == model.OrderStatusOTPGenerated && c.locked(ctx, current) {
			return ErrOtpLocked
		}
		o, err := c.orders.WithRepository(tx.Orders()).VerifyOtp(ctx, orderID, candidate)
		if err != nil {
			return err
		}
		if err := tx.Products().MarkSold(ctx, o.Product.ID, *o.DeliveredAt); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrProductUnavailable
			}
			return err
		}
		order = o
		return nil
	})
	if errors.Is(err, ErrOtpMismatch) {
		attempts, ferr := c.limiter.Fail(ctx, orderID)
		entry := c.log.WithFields(logrus.Fields{"order_id": orderID, "attempts": attempts})
		if ferr != nil {
			entry = entry.WithError(ferr)
		}
		entry.Warn("otp mismatch")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Reset(ctx, order.ID); err != nil {
		c.logger(order).WithError(err).Warn("reset otp attempts failed")
	}
	c.logger(order).Info("order delivered")
	res := &Result{Order: order}
	c.publish(ctx, res, EventOrderDelivered, actor.Username)
	return res, nil
}

func (c *deliveryCoordinator) CancelOrder(ctx context.Context, orderID string, actor model.Identity) (*Result, error) {
	var order *model.Order
	err := c.store.Transaction(ctx, func(tx repository.Tx) error {
		o, err := c.orders.WithRepository(tx.Orders()).CancelOrder(ctx, orderID, actor.Username)
		if err != nil {
			return err
		}
		if err := tx.Products().Release(ctx, o.Product.ID); err != nil && !errors.Is(err, repository.ErrConflict) {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logger(order).WithField("actor", actor.Username).Info("order cancelled")
	res := &Result{Order: order}
	c.publish(ctx, res, EventOrderCancelled, actor.Username)
	return res, nil
}

func (c *deliveryCoordinator) GetOrder(ctx context.Context, orderID string, actor model.Identity) (*model.Order, error) {
	o, err := c.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParticipant(actor.Username) {
		return nil, ErrUnauthorized
	}
	return o, nil
}

func (c *deliveryCoordinator) ListOrders(ctx context.Context, actor model.Identity, role OrderRole) ([]model.Order, error) {
	if actor.Username == "" {
		return nil, ErrUnauthorized
	}
	switch role {
	case RoleBuyer:
		return c.orders.GetOrdersByBuyer(ctx, actor.Username)
	case RoleSeller:
		return c.orders.GetOrdersBySeller(ctx, actor.Username)
	}
	return nil, ErrValidation
}

// locked fails open: a limiter outage must not block hand-offs.
func (c *deliveryCoordinator) locked(ctx context.Context, o *model.Order) bool {
	locked, err := c.limiter.Locked(ctx, o.ID)
	if err != nil {
		c.logger(o).WithError(err).Warn("otp limiter unavailable")
		return false
	}
	return locked
}

func (c *deliveryCoordinator) publish(ctx context.Context, res *Result, typ, actor string) {
	evt := OrderEvent{Type: typ, Actor: actor, Order: res.Order.Clone()}
	if err := c.notifier.OrderChanged(ctx, evt); err != nil {
		c.logger(res.Order).WithError(err).WithField("event", typ).Warn("notify failed")
		res.Warnings = append(res.Warnings, WarningNotifyFailed)
	}
}

func (c *deliveryCoordinator) logger(o *model.Order) *logrus.Entry {
	return c.log.WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
	})
}
