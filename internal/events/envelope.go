package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TopicOrderLifecycle = "unimart.order.lifecycle"
	// TopicOTPDelivery carries plain codes; restrict consumers accordingly.
	TopicOTPDelivery = "unimart.order.otp-delivery"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderChangedPayload struct {
	OrderID     string     `json:"order_id"`
	ProductID   string     `json:"product_id"`
	Buyer       string     `json:"buyer"`
	Seller      string     `json:"seller"`
	Status      string     `json:"status"`
	Actor       string     `json:"actor,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type OTPDeliveryPayload struct {
	OrderID   string     `json:"order_id"`
	Buyer     string     `json:"buyer"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewEnvelope wraps payload; the order id doubles as correlation id and partition key.
func NewEnvelope(eventType, producer, orderID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       id.String(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       raw,
	}, nil
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
