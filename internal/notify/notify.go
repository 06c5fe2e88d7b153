// Package notify holds the side channels the delivery coordinator reports to after commit.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/unimart-backend/internal/events"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/service"
)

// Kafka publishes lifecycle events and OTP delivery requests.
type Kafka struct {
	pub      events.Publisher
	producer string
}

func NewKafka(pub events.Publisher, producer string) *Kafka {
	return &Kafka{pub: pub, producer: producer}
}

func (k *Kafka) OrderChanged(_ context.Context, evt service.OrderEvent) error {
	o := evt.Order
	env, err := events.NewEnvelope(evt.Type, k.producer, o.ID, events.OrderChangedPayload{
		OrderID:     o.ID,
		ProductID:   o.Product.ID,
		Buyer:       o.Buyer.Username,
		Seller:      o.Seller.Username,
		Status:      string(o.Status),
		Actor:       evt.Actor,
		DeliveredAt: o.DeliveredAt,
		CancelledAt: o.CancelledAt,
	})
	if err != nil {
		return err
	}
	return k.pub.Publish(events.TopicOrderLifecycle, env)
}

func (k *Kafka) DeliverOTP(_ context.Context, d service.OTPDelivery) error {
	env, err := events.NewEnvelope(service.EventOTPIssued, k.producer, d.OrderID, events.OTPDeliveryPayload{
		OrderID:   d.OrderID,
		Buyer:     d.Buyer,
		Code:      d.Code,
		ExpiresAt: d.ExpiresAt,
	})
	if err != nil {
		return err
	}
	return k.pub.Publish(events.TopicOTPDelivery, env)
}

// Inbox writes in-app notifications. It never stores the code itself.
type Inbox struct {
	svc service.NotificationService
}

func NewInbox(svc service.NotificationService) *Inbox {
	return &Inbox{svc: svc}
}

func (n *Inbox) OrderChanged(ctx context.Context, evt service.OrderEvent) error {
	o := evt.Order
	title := o.Product.Title
	switch evt.Type {
	case service.EventOrderPlaced:
		return n.send(ctx, o.Seller.Username, model.NotificationOrderPlaced, title,
			fmt.Sprintf("%s placed an order.", o.Buyer.Username), o.ID)
	case service.EventOrderAccepted:
		return n.send(ctx, o.Buyer.Username, model.NotificationOrderAccepted, title,
			"The seller accepted your order.", o.ID)
	case service.EventOrderDelivered:
		return errors.Join(
			n.send(ctx, o.Seller.Username, model.NotificationOrderDelivered, title, "Hand-off confirmed. The sale is complete.", o.ID),
			n.send(ctx, o.Buyer.Username, model.NotificationOrderDelivered, title, "Delivery confirmed. Enjoy your purchase!", o.ID),
		)
	case service.EventOrderCancelled:
		recipient := o.Seller.Username
		if evt.Actor == o.Seller.Username {
			recipient = o.Buyer.Username
		}
		return n.send(ctx, recipient, model.NotificationOrderCancelled, title,
			fmt.Sprintf("%s cancelled the order.", evt.Actor), o.ID)
	}
	return nil
}

func (n *Inbox) DeliverOTP(ctx context.Context, d service.OTPDelivery) error {
	return n.send(ctx, d.Buyer, model.NotificationOTPIssued, "Delivery code issued",
		"A delivery code was sent to you. Share it with the seller only at hand-off.", d.OrderID)
}

func (n *Inbox) send(ctx context.Context, username, typ, title, body, orderID string) error {
	return n.svc.Notify(ctx, username, typ, title, body, &orderID)
}

// Multi fans out to every notifier and joins their errors.
type Multi []service.Notifier

func (m Multi) OrderChanged(ctx context.Context, evt service.OrderEvent) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.OrderChanged(ctx, evt))
	}
	return errors.Join(errs...)
}

func (m Multi) DeliverOTP(ctx context.Context, d service.OTPDelivery) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.DeliverOTP(ctx, d))
	}
	return errors.Join(errs...)
}
