package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 100*time.Millisecond, time.Second
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		assert.LessOrEqual(t, d, max, "attempt %d", attempt)
		assert.Greater(t, d, time.Duration(0), "attempt %d", attempt)
	}
	// first attempt stays within [min/2, min]
	d := backoffWithJitter(min, max, 1)
	assert.GreaterOrEqual(t, d, min/2)
	assert.LessOrEqual(t, d, min)
}

func TestPermanentUnwraps(t *testing.T) {
	base := errors.New("bad payload")
	err := fmt.Errorf("handle: %w", Permanent(base))

	var perm *PermanentError
	require.True(t, errors.As(err, &perm))
	assert.ErrorIs(t, err, base)
	assert.Nil(t, Permanent(nil))
}

func TestToKafkaMessage(t *testing.T) {
	km, err := toKafkaMessage("statistics.calculated", Message{
		Key:     []byte("42"),
		Value:   map[string]int{"match_id": 42},
		Headers: map[string]string{HeaderEventID: "e-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "statistics.calculated", km.Topic)
	assert.JSONEq(t, `{"match_id":42}`, string(km.Value))
	assert.Equal(t, "e-1", Header(km, HeaderEventID))

	raw, err := toKafkaMessage("t", Message{Value: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), raw.Value)
}

type panicky struct{}

func (panicky) Topic() string                        { return "t" }
func (panicky) Handle(context.Context, []byte) error { panic("boom") }

func TestSafeHandleRecoversPanics(t *testing.T) {
	err := safeHandle(context.Background(), panicky{}, nil)
	var perm *PermanentError
	assert.True(t, errors.As(err, &perm))
}

func TestLoggingHookPropagatesTraceID(t *testing.T) {
	h := LoggingHook{}
	msg := kafka.Message{Headers: []kafka.Header{{Key: HeaderTraceID, Value: []byte("trace-7")}}}

	ctx, _, _, err := h.BeforeHandle(context.Background(), "t", msg, nil)
	require.NoError(t, err)
	assert.Equal(t, "trace-7", TraceID(ctx))

	ctx, _, _, err = h.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, TraceID(ctx))
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
	_, err = NewProducer()
	assert.Error(t, err)
}
