package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// ErrVectorNotFound marks a replay request against a point in history that
// holds no published vector.
type ErrVectorNotFound struct {
	AssetID   string
	Timestamp time.Time
}

func (e *ErrVectorNotFound) Error() string {
	return fmt.Sprintf("no vector for %s at %s", e.AssetID, e.Timestamp.UTC().Format(time.RFC3339Nano))
}

// ErrVersionMismatch marks a replay request whose version tag does not match
// the one recorded on the target vector. Replaying under a different table
// cannot reproduce the digest, so the request is rejected up front.
type ErrVersionMismatch struct {
	Requested string
	Recorded  string
}

func (e *ErrVersionMismatch) Error() string {
	return fmt.Sprintf("replay version %s does not match recorded %s", e.Requested, e.Recorded)
}

// Replay re-derives a historical vector from its recorded inputs: the two
// upstream snapshot ids, the recorded safety level, mapping version and
// identity. The replayed canonical bytes must reproduce the recorded digest
// byte for byte; a mismatch is an IntegrityError, surfaced loudly and never
// auto-corrected. Version may be empty to mean "the recorded version".
func (s *Synthesizer) Replay(ctx context.Context, assetID string, ts time.Time, version string) (*models.StateVector, error) {
	rec, err := s.store.At(ctx, assetID, ts)
	if err != nil {
		return nil, fmt.Errorf("load recorded vector: %w", err)
	}
	if rec == nil {
		return nil, &ErrVectorNotFound{AssetID: assetID, Timestamp: ts}
	}
	if version != "" && version != rec.MappingVersion {
		return nil, &ErrVersionMismatch{Requested: version, Recorded: rec.MappingVersion}
	}

	snap, err := s.snapshots.At(ctx, assetID, rec.MarketSnapshotID, rec.IndicatorSetID)
	if err != nil {
		return nil, fmt.Errorf("refetch recorded inputs for vector %s: %w", rec.ID, err)
	}

	prev, err := s.store.Before(ctx, assetID, rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("load prior vector: %w", err)
	}

	engine, err := s.registry.Engine(rec.MappingVersion)
	if err != nil {
		return nil, fmt.Errorf("resolve recorded mapping version: %w", err)
	}

	replayed := s.compose(snap, rec.SafetyLevel, prev, engine, identity{ID: rec.ID, Timestamp: rec.Timestamp})

	digest := verify.Digest(replayed)
	if digest != rec.Digest {
		s.metrics.RecordError("integrity")
		s.logger.Error("replay digest mismatch",
			applogger.String("asset", assetID),
			applogger.String("vector", rec.ID),
			applogger.String("recorded", rec.Digest),
			applogger.String("replayed", digest),
		)
		return nil, &verify.IntegrityError{VectorID: rec.ID, RecordedDigest: rec.Digest, ReplayDigest: digest}
	}

	// The recorded signature covers the same digest, so it carries over to
	// the replayed record unchanged.
	replayed.Digest = digest
	replayed.Signature = rec.Signature
	replayed.SignerID = rec.SignerID
	return replayed, nil
}
