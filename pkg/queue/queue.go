package queue

import (
	"context"
	"time"
)

// Job defines a queue job handler.
type Job interface {
	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given raw payload.
	Handle(ctx context.Context, payload []byte) error
}

// Config contains the worker configuration for a consumer queue.
type Config struct {
	Workers    int           // number of worker goroutines
	RetryLimit int           // max delivery attempts per message
	RetryDelay time.Duration // delay before requeueing a failed message
}

// Message is the wire envelope stored in the queue.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   []byte    `json:"payload"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}
