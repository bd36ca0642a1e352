package queue

import (
	"context"
	"encoding/json"
)

// Job handles one message type taken off the queue.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type the job consumes.
	Type() string

	// Handle processes a payload. Returning an error schedules a retry until
	// the retry limit is reached.
	Handle(ctx context.Context, payload json.RawMessage) error
}
