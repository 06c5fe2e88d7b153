// Package chatgate decides whether an order's conversation still accepts messages.
package chatgate

import "github.com/shinyyama/unimart-backend/internal/model"

// IsReadOnly is true once the order reached a terminal status. Both parties are gated alike.
func IsReadOnly(o *model.Order) bool {
	switch o.Status {
	case model.OrderStatusDelivered, model.OrderStatusCancelled:
		return true
	case model.OrderStatusPending, model.OrderStatusAccepted, model.OrderStatusOTPGenerated:
		return false
	}
	return true
}

func CanSend(o *model.Order) bool {
	return !IsReadOnly(o)
}
