package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recalcPayload struct {
	MatchIDs []int64 `json:"match_ids"`
	Version  string  `json:"version"`
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload[recalcPayload](json.RawMessage(`{"match_ids":[1,2],"version":"v2"}`))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, p.MatchIDs)
	assert.Equal(t, "v2", p.Version)

	_, err = ParsePayload[recalcPayload](nil)
	assert.Error(t, err)

	_, err = ParsePayload[recalcPayload](json.RawMessage(`{"match_ids":"x"}`))
	assert.Error(t, err)
}

func TestMessageEnvelopeKeepsPayloadVerbatim(t *testing.T) {
	msg := Message{
		ID:        "id-1",
		Type:      "recalculate",
		Payload:   json.RawMessage(`{"match_ids":[7]}`),
		Attempts:  2,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var back Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.JSONEq(t, `{"match_ids":[7]}`, string(back.Payload))
	assert.Equal(t, 2, back.Attempts)
}

func TestNewRedisQueueDefaults(t *testing.T) {
	q := NewRedisQueue(nil, Config{}, nil, WithKeyPrefix("tips:test"))
	assert.Equal(t, 1, q.config.Workers)
	assert.Equal(t, 10*time.Second, q.config.RetryDelay)
	assert.Equal(t, "tips:test:messages", q.queueKey())
	assert.Equal(t, "tips:test:retry", q.retryKey())
	assert.Equal(t, "tips:test:dlq", q.deadLetterKey())
}
