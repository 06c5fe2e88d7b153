package service

import (
	"context"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderAccepted  = "OrderAccepted"
	EventOTPIssued      = "OTPIssued"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
)

// OrderEvent describes a committed transition.
type OrderEvent struct {
	Type  string
	Actor string
	Order model.Order
}

// OTPDelivery asks a side channel to hand the code to the buyer. Contact resolution
// (email, push) belongs to whoever consumes it.
type OTPDelivery struct {
	OrderID   string
	Buyer     string
	Seller    string
	Code      string
	ExpiresAt *time.Time
}

// Notifier is called after commit. Its errors never undo a transition.
type Notifier interface {
	OrderChanged(ctx context.Context, evt OrderEvent) error
	DeliverOTP(ctx context.Context, d OTPDelivery) error
}

type nopNotifier struct{}

func (nopNotifier) OrderChanged(context.Context, OrderEvent) error { return nil }
func (nopNotifier) DeliverOTP(context.Context, OTPDelivery) error  { return nil }
