package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "p-1", bob)

	o, err := f.orders.CreateOrder(ctx, p, alice.Party())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "Graphing calculator", o.Product.Title)
	assert.True(t, o.Product.Price.Equal(p.Price))
	assert.Equal(t, model.Party{Username: "alice", Campus: "North"}, o.Buyer)
	assert.Equal(t, model.Party{Username: "bob", Campus: "South"}, o.Seller)
	assert.Nil(t, o.OTP)
	assert.Nil(t, o.DeliveredAt)

	p.Title = "Renamed"
	stored := f.order(t, o.ID)
	assert.Equal(t, "Graphing calculator", stored.Product.Title)
}

func TestCreateOrderRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "p-1", bob)

	_, err := f.orders.CreateOrder(ctx, p, bob.Party())
	assert.ErrorIs(t, err, ErrInvalidActor)

	for _, st := range []model.ProductStatus{model.ProductStatusReserved, model.ProductStatusSold} {
		p.Status = st
		_, err = f.orders.CreateOrder(ctx, p, alice.Party())
		assert.ErrorIs(t, err, ErrProductUnavailable, string(st))
	}

	_, err = f.orders.CreateOrder(ctx, nil, alice.Party())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrderMostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct(t, "p-1", bob)
	p2 := f.addProduct(t, "p-2", bob)

	first, err := f.orders.CreateOrder(ctx, p1, alice.Party())
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	second, err := f.orders.CreateOrder(ctx, p2, alice.Party())
	require.NoError(t, err)

	list, err := f.orders.GetOrdersByBuyer(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	none, err := f.orders.GetOrdersBySeller(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAcceptOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)

	_, err = f.orders.AcceptOrder(ctx, "missing", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.orders.AcceptOrder(ctx, o.ID, "alice")
	assert.ErrorIs(t, err, ErrUnauthorized)

	accepted, err := f.orders.AcceptOrder(ctx, o.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAccepted, accepted.Status)

	_, err = f.orders.AcceptOrder(ctx, o.ID, "bob")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGenerateOtpStoresSealedCode(t *testing.T) {
	f := newFixture(t, func(c *fixtureConfig) { c.hashed = true })
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)

	_, _, err = f.orders.GenerateOtp(ctx, o.ID, "alice")
	assert.ErrorIs(t, err, ErrUnauthorized)

	issued, code, err := f.orders.GenerateOtp(ctx, o.ID, "bob")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9]{4}$`, code)
	assert.Equal(t, model.OrderStatusOTPGenerated, issued.Status)

	stored := f.order(t, o.ID)
	require.NotNil(t, stored.OTP)
	assert.NotEqual(t, code, *stored.OTP)
	require.NotNil(t, stored.OTPIssuedAt)
	assert.Equal(t, f.clock.Now(), *stored.OTPIssuedAt)

	exp := f.orders.OTPExpiresAt(stored)
	require.NotNil(t, exp)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), *exp)
}

func TestVerifyOtp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)

	_, err = f.orders.VerifyOtp(ctx, o.ID, "1234")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.orders.VerifyOtp(ctx, "missing", "1234")
	assert.ErrorIs(t, err, ErrNotFound)

	_, code, err := f.orders.GenerateOtp(ctx, o.ID, "bob")
	require.NoError(t, err)

	_, err = f.orders.VerifyOtp(ctx, o.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.orders.VerifyOtp(ctx, o.ID, wrongCode(code))
	assert.ErrorIs(t, err, ErrOtpMismatch)
	assert.Equal(t, model.OrderStatusOTPGenerated, f.order(t, o.ID).Status)

	delivered, err := f.orders.VerifyOtp(ctx, o.ID, code)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Nil(t, delivered.OTP)
	assert.Nil(t, delivered.OTPIssuedAt)

	_, err = f.orders.VerifyOtp(ctx, o.ID, code)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVerifyOtpExpired(t *testing.T) {
	f := newFixture(t, func(c *fixtureConfig) { c.ttl = time.Minute })
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)
	_, code, err := f.orders.GenerateOtp(ctx, o.ID, "bob")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.orders.VerifyOtp(ctx, o.ID, code)
	assert.ErrorIs(t, err, ErrOtpExpired)
	assert.Equal(t, model.OrderStatusOTPGenerated, f.order(t, o.ID).Status)

	_, code, err = f.orders.GenerateOtp(ctx, o.ID, "bob")
	require.NoError(t, err)
	_, err = f.orders.VerifyOtp(ctx, o.ID, code)
	assert.NoError(t, err)
}

func TestNoTTLNeverExpires(t *testing.T) {
	f := newFixture(t, func(c *fixtureConfig) { c.ttl = 0 })
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)
	issued, code, err := f.orders.GenerateOtp(ctx, o.ID, "bob")
	require.NoError(t, err)
	assert.Nil(t, f.orders.OTPExpiresAt(issued))

	f.clock.Advance(72 * time.Hour)
	_, err = f.orders.VerifyOtp(ctx, o.ID, code)
	assert.NoError(t, err)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(id string)
		actor   string
		wantErr error
	}{
		{"buyer cancels pending", func(string) {}, "alice", nil},
		{"seller cancels accepted", func(id string) {
			_, err := f.orders.AcceptOrder(ctx, id, "bob")
			require.NoError(t, err)
		}, "bob", nil},
		{"stranger", func(string) {}, "carol", ErrUnauthorized},
		{"mid handshake", func(id string) {
			_, _, err := f.orders.GenerateOtp(ctx, id, "bob")
			require.NoError(t, err)
		}, "alice", ErrInvalidTransition},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.addProduct(t, "p-cancel-"+string(rune('a'+i)), bob)
			o, err := f.orders.CreateOrder(ctx, p, alice.Party())
			require.NoError(t, err)
			tt.prepare(o.ID)

			got, err := f.orders.CancelOrder(ctx, o.ID, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusCancelled, got.Status)
			assert.NotNil(t, got.CancelledAt)
		})
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o, err := f.orders.CreateOrder(ctx, f.addProduct(t, "p-1", bob), alice.Party())
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(ctx, o.ID, "alice")
	require.NoError(t, err)

	_, err = f.orders.AcceptOrder(ctx, o.ID, "bob")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, _, err = f.orders.GenerateOtp(ctx, o.ID, "bob")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.orders.CancelOrder(ctx, o.ID, "alice")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.orders.VerifyOtp(ctx, o.ID, "1234")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusCancelled, f.order(t, o.ID).Status)
}

func wrongCode(code string) string {
	b := []byte(code)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	return string(b)
}
