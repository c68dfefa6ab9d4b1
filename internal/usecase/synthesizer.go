package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	domrepo "github.com/MetaStark/vision-IoS-sub013/internal/domain/repository"
	domsvc "github.com/MetaStark/vision-IoS-sub013/internal/domain/service"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/degrade"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/events"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/mapping"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// VectorCache is the optional hot read path for the latest sealed vector.
type VectorCache interface {
	SetLatest(ctx context.Context, v *models.StateVector) error
	GetLatest(ctx context.Context, assetID string) (*models.StateVector, bool, error)
}

// ErrStaleSnapshot marks a tick whose upstream snapshot is not newer than
// the last published vector. The tick is skipped; per-asset history stays
// strictly increasing.
type ErrStaleSnapshot struct {
	AssetID      string
	SnapshotTime time.Time
	LatestTime   time.Time
}

func (e *ErrStaleSnapshot) Error() string {
	return fmt.Sprintf("stale snapshot for %s: %s not after %s",
		e.AssetID, e.SnapshotTime.UTC().Format(time.RFC3339Nano), e.LatestTime.UTC().Format(time.RFC3339Nano))
}

// Synthesizer orchestrates one synthesis per invocation: fetch inputs, run
// the pure layers, seal, persist, publish. Each invocation is single
// threaded and owns all its state, so independent assets synthesize
// concurrently without locking.
type Synthesizer struct {
	snapshots domsvc.SnapshotProvider
	safety    domsvc.SafetyProvider
	registry  *mapping.Registry
	detector  *events.Detector
	assembler *verify.Assembler
	store     domrepo.VectorStore
	pub       domrepo.Publisher
	cache     VectorCache
	metrics   domrepo.Metrics
	logger    *applogger.Logger
}

func NewSynthesizer(
	snapshots domsvc.SnapshotProvider,
	safety domsvc.SafetyProvider,
	registry *mapping.Registry,
	assembler *verify.Assembler,
	store domrepo.VectorStore,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	logger *applogger.Logger,
) *Synthesizer {
	return &Synthesizer{
		snapshots: snapshots,
		safety:    safety,
		registry:  registry,
		detector:  events.NewDetector(),
		assembler: assembler,
		store:     store,
		pub:       pub,
		metrics:   metrics,
		logger:    logger,
	}
}

// SetCache injects the latest-vector cache.
func (s *Synthesizer) SetCache(c VectorCache) { s.cache = c }

// identity pins the non-derived fields of a vector. Live ticks mint a fresh
// one; replay reuses the recorded identity so canonical bytes reproduce.
type identity struct {
	ID        string
	Timestamp time.Time
}

// Tick runs one full synthesis for one asset and returns the sealed,
// persisted vector. Signing faults and persistence faults fail the tick
// closed: nothing partial is ever published.
func (s *Synthesizer) Tick(ctx context.Context, assetID string) (*models.StateVector, error) {
	start := time.Now()

	snap, err := s.snapshots.Latest(ctx, assetID)
	if err != nil {
		s.metrics.RecordTick(assetID, "input_error")
		return nil, fmt.Errorf("fetch snapshot for %s: %w", assetID, err)
	}

	level, err := s.safety.Current(ctx)
	if err != nil {
		// An unreachable safety provider degrades to the terminal level
		// rather than guessing an operational one.
		s.logger.Warn("safety provider unavailable, forcing shutdown level", applogger.Error(err))
		s.metrics.RecordError("safety_provider")
		level = models.SafetyShutdown
	}

	prev, err := s.store.Latest(ctx, assetID)
	if err != nil {
		s.metrics.RecordTick(assetID, "store_error")
		return nil, fmt.Errorf("load previous vector for %s: %w", assetID, err)
	}
	if prev != nil && !snap.Timestamp.After(prev.Timestamp) {
		s.metrics.RecordTick(assetID, "stale")
		return nil, &ErrStaleSnapshot{AssetID: assetID, SnapshotTime: snap.Timestamp, LatestTime: prev.Timestamp}
	}

	engine, err := s.registry.Engine("")
	if err != nil {
		s.metrics.RecordTick(assetID, "config_error")
		return nil, fmt.Errorf("resolve mapping version: %w", err)
	}

	vec := s.compose(snap, level, prev, engine, identity{ID: uuid.NewString(), Timestamp: snap.Timestamp})

	if err := s.assembler.Seal(ctx, vec); err != nil {
		s.metrics.RecordTick(assetID, "signing_error")
		return nil, err
	}

	if err := s.store.Insert(ctx, vec); err != nil {
		s.metrics.RecordTick(assetID, "store_error")
		return nil, fmt.Errorf("persist vector %s: %w", vec.ID, err)
	}

	if s.cache != nil {
		if cerr := s.cache.SetLatest(ctx, vec); cerr != nil {
			s.logger.Warn("latest-vector cache update failed", applogger.Error(cerr))
		}
	}

	// Publication happens after the vector is sealed and persisted; a
	// broker fault never rolls a tick back.
	if s.pub != nil {
		if perr := s.pub.Publish(ctx, vec); perr != nil {
			s.logger.Error("vector publish failed",
				applogger.String("asset", assetID),
				applogger.String("vector", vec.ID),
				applogger.Error(perr),
			)
			s.metrics.RecordError("publish")
		}
	}

	for _, ev := range vec.Events {
		s.metrics.RecordEvent(string(ev.Type), string(ev.Severity))
	}
	s.metrics.RecordDegradedFields(assetID, len(vec.DegradedFields))
	s.metrics.RecordTick(assetID, "ok")
	s.metrics.RecordLatency("tick", time.Since(start).Seconds())

	s.logger.Info("vector synthesized",
		applogger.String("asset", assetID),
		applogger.String("vector", vec.ID),
		applogger.String("safety", string(level)),
		applogger.Int("events", len(vec.Events)),
	)
	return vec, nil
}

// compose runs the pure layers in order: mapping, event detection,
// degradation, assembly of the unsigned vector. It never fails.
func (s *Synthesizer) compose(
	snap *models.IndicatorSnapshot,
	level models.SafetyLevel,
	prev *models.StateVector,
	engine *mapping.Engine,
	id identity,
) *models.StateVector {
	flow, pulse, weather, force, visual := engine.MapAll(snap)

	detected := s.detector.Detect(events.Input{
		Snapshot: snap,
		Weather:  weather,
		Safety:   level,
		Prev:     prev,
	})

	payload, degradedFields := degrade.Apply(degrade.Payload{
		Flow:    flow,
		Pulse:   pulse,
		Weather: weather,
		Force:   force,
		Visual:  visual,
		Events:  detected,
	}, level)

	return &models.StateVector{
		ID:               id.ID,
		AssetID:          snap.AssetID,
		Timestamp:        id.Timestamp,
		MarketSnapshotID: snap.MarketSnapshotID,
		IndicatorSetID:   snap.IndicatorSetID,
		Flow:             payload.Flow,
		Pulse:            payload.Pulse,
		Weather:          payload.Weather,
		Force:            payload.Force,
		Visual:           payload.Visual,
		Events:           payload.Events,
		SafetyLevel:      level,
		DegradedFields:   degradedFields,
		MappingVersion:   engine.Version(),
	}
}
