package repository

import (
	"context"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// VectorStore is the append-only state vector history. Vectors are never
// updated or deleted; per-asset timestamps are strictly increasing.
type VectorStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Insert(ctx context.Context, v *models.StateVector) error
	Latest(ctx context.Context, assetID string) (*models.StateVector, error)
	// Before returns the newest vector strictly older than ts, used as the
	// previous-tick context during replay.
	Before(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error)
	At(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error)
	Range(ctx context.Context, assetID string, from, to time.Time, limit int) ([]*models.StateVector, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher streams sealed vectors to the rendering consumers.
type Publisher interface {
	Publish(ctx context.Context, v *models.StateVector) error
	Close() error
}

// Metrics records synthesis observability counters.
type Metrics interface {
	RecordTick(assetID, outcome string)
	RecordEvent(eventType, severity string)
	RecordDegradedFields(assetID string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
