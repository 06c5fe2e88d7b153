package model

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusAccepted     OrderStatus = "ACCEPTED"
	OrderStatusOTPGenerated OrderStatus = "OTP_GENERATED"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

// AllOrderStatuses lists every status in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAccepted,
	OrderStatusOTPGenerated,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusOTPGenerated, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled:
		return true
	case OrderStatusPending, OrderStatusAccepted, OrderStatusOTPGenerated:
		return false
	}
	panic(fmt.Sprintf("model: unknown order status %q", string(s)))
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// OTP_GENERATED -> OTP_GENERATED is a re-issue of the delivery code.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusAccepted || next == OrderStatusOTPGenerated || next == OrderStatusCancelled
	case OrderStatusAccepted:
		return next == OrderStatusOTPGenerated || next == OrderStatusCancelled
	case OrderStatusOTPGenerated:
		return next == OrderStatusOTPGenerated || next == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	panic(fmt.Sprintf("model: unknown order status %q", string(s)))
}

// Party is the identity snapshot of a buyer or seller taken when the order is placed.
type Party struct {
	Username string `gorm:"column:username;size:128;index"`
	Campus   string `gorm:"column:campus;size:128"`
}

type Order struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Product     ProductSnapshot `gorm:"embedded;embeddedPrefix:product_"`
	Buyer       Party           `gorm:"embedded;embeddedPrefix:buyer_"`
	Seller      Party           `gorm:"embedded;embeddedPrefix:seller_"`
	Status      OrderStatus     `gorm:"column:status;size:32;index;not null"`
	OTP         *string         `gorm:"column:otp;size:72" json:"-"`
	OTPIssuedAt *time.Time      `gorm:"column:otp_issued_at"`
	DeliveredAt *time.Time      `gorm:"column:delivered_at"`
	CancelledAt *time.Time      `gorm:"column:cancelled_at"`
	CreatedAt   time.Time       `gorm:"column:created_at;index"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

var ErrInvalidOrder = errors.New("invalid order")

// Validate checks the record-level invariants that must hold after every write.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, o.Status)
	}
	if o.Product.ID == "" {
		return fmt.Errorf("%w: missing product snapshot", ErrInvalidOrder)
	}
	if o.Buyer.Username == "" || o.Seller.Username == "" {
		return fmt.Errorf("%w: missing party", ErrInvalidOrder)
	}
	if o.Buyer.Username == o.Seller.Username {
		return fmt.Errorf("%w: buyer and seller are the same user", ErrInvalidOrder)
	}
	otpState := o.Status == OrderStatusOTPGenerated
	if (o.OTP != nil) != otpState || (o.OTPIssuedAt != nil) != otpState {
		return fmt.Errorf("%w: otp present in status %s", ErrInvalidOrder, o.Status)
	}
	if (o.DeliveredAt != nil) != (o.Status == OrderStatusDelivered) {
		return fmt.Errorf("%w: deliveredAt inconsistent with status %s", ErrInvalidOrder, o.Status)
	}
	if (o.CancelledAt != nil) != (o.Status == OrderStatusCancelled) {
		return fmt.Errorf("%w: cancelledAt inconsistent with status %s", ErrInvalidOrder, o.Status)
	}
	return nil
}

func (o *Order) IsParticipant(username string) bool {
	return username != "" && (o.Buyer.Username == username || o.Seller.Username == username)
}

// Clone returns a deep copy so callers never share pointer fields.
func (o Order) Clone() Order {
	c := o
	c.Product.Images = append(c.Product.Images[:0:0], o.Product.Images...)
	c.OTP = cloneString(o.OTP)
	c.OTPIssuedAt = cloneTime(o.OTPIssuedAt)
	c.DeliveredAt = cloneTime(o.DeliveredAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
