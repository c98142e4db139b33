package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishWrapsPayloadInEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := NewPublisher(w, "printdesk-test", nil)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.Publish(context.Background(), "order-1", "order.status", map[string]string{"status": "in_design"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "order-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.status", string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "order.status", env.EventType)
	assert.Equal(t, EventVersion, env.EventVersion)
	assert.Equal(t, "printdesk-test", env.Producer)
	assert.Equal(t, "order-1", env.CorrelationID)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.JSONEq(t, `{"status":"in_design"}`, string(env.Payload))
}

func TestPublishSurfacesWriterErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewPublisher(w, "", nil)

	err := p.Publish(context.Background(), "k", "order.create", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisherRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "orders", "", nil)
	assert.Error(t, err)
	_, err = NewKafkaPublisher([]string{"localhost:9092"}, "", "", nil)
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "orders", "", nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))
}
