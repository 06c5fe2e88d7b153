package chatgate

import (
	"testing"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGateByStatus(t *testing.T) {
	tests := []struct {
		status   model.OrderStatus
		readOnly bool
	}{
		{model.OrderStatusPending, false},
		{model.OrderStatusAccepted, false},
		{model.OrderStatusOTPGenerated, false},
		{model.OrderStatusDelivered, true},
		{model.OrderStatusCancelled, true},
		{model.OrderStatus("UNKNOWN"), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			o := &model.Order{Status: tt.status}
			assert.Equal(t, tt.readOnly, IsReadOnly(o))
			assert.Equal(t, !tt.readOnly, CanSend(o))
		})
	}
}
