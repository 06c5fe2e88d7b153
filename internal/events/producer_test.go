package events

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope("OrderPlaced", "unimart-api", "o-1", OrderChangedPayload{OrderID: "o-1", Status: "PENDING"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "o-1", env.CorrelationID)

	payload, err := UnwrapPayload[OrderChangedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", payload.Status)
}

func TestPublishQueueAndClose(t *testing.T) {
	log, _ := test.NewNullLogger()
	p := NewProducer([]string{"localhost:9092"}, "test", 1, log)
	env, err := NewEnvelope("OrderPlaced", "unimart-api", "o-1", OrderChangedPayload{OrderID: "o-1"})
	require.NoError(t, err)

	require.NoError(t, p.Publish(TopicOrderLifecycle, env))
	assert.ErrorIs(t, p.Publish(TopicOrderLifecycle, env), ErrQueueFull)

	p.Close()
	p.Close()
	assert.ErrorIs(t, p.Publish(TopicOrderLifecycle, env), ErrProducerClosed)

	m, ok := <-p.inbox
	require.True(t, ok)
	assert.Equal(t, TopicOrderLifecycle, m.Topic)
	assert.Equal(t, []byte("o-1"), m.Key)
}
