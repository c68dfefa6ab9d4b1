package usecase

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/mapping"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/verify"
	applogger "github.com/MetaStark/vision-IoS-sub013/pkg/logger"
)

// --- fakes ---

type fakeSnapshots struct {
	byID map[string]*models.IndicatorSnapshot // keyed by market snapshot id
	next *models.IndicatorSnapshot
	err  error
}

func (f *fakeSnapshots) Latest(ctx context.Context, assetID string) (*models.IndicatorSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.next, nil
}

func (f *fakeSnapshots) At(ctx context.Context, assetID, marketID, indicatorID string) (*models.IndicatorSnapshot, error) {
	snap, ok := f.byID[marketID]
	if !ok {
		return nil, errors.New("historical snapshot not found")
	}
	return snap, nil
}

type fakeSafety struct {
	level models.SafetyLevel
	err   error
}

func (f *fakeSafety) Current(ctx context.Context) (models.SafetyLevel, error) {
	return f.level, f.err
}

type fakeSigner struct {
	err   error
	calls int
}

func (f *fakeSigner) Sign(ctx context.Context, digest string) (string, string, error) {
	f.calls++
	if f.err != nil {
		return "", "", f.err
	}
	return "sig-" + digest[:8], "authority-test", nil
}

type memStore struct {
	vectors []*models.StateVector
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) Insert(ctx context.Context, v *models.StateVector) error {
	m.vectors = append(m.vectors, v)
	return nil
}

func (m *memStore) Latest(ctx context.Context, assetID string) (*models.StateVector, error) {
	var out *models.StateVector
	for _, v := range m.vectors {
		if v.AssetID == assetID && (out == nil || v.Timestamp.After(out.Timestamp)) {
			out = v
		}
	}
	return out, nil
}

func (m *memStore) Before(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error) {
	var out *models.StateVector
	for _, v := range m.vectors {
		if v.AssetID == assetID && v.Timestamp.Before(ts) && (out == nil || v.Timestamp.After(out.Timestamp)) {
			out = v
		}
	}
	return out, nil
}

func (m *memStore) At(ctx context.Context, assetID string, ts time.Time) (*models.StateVector, error) {
	for _, v := range m.vectors {
		if v.AssetID == assetID && v.Timestamp.Equal(ts) {
			return v, nil
		}
	}
	return nil, nil
}

func (m *memStore) Range(ctx context.Context, assetID string, from, to time.Time, limit int) ([]*models.StateVector, error) {
	var out []*models.StateVector
	for _, v := range m.vectors {
		if v.AssetID == assetID && !v.Timestamp.Before(from) && !v.Timestamp.After(to) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Health(ctx context.Context) error { return nil }
func (m *memStore) Close() error                     { return nil }

type fakePublisher struct {
	published []*models.StateVector
}

func (f *fakePublisher) Publish(ctx context.Context, v *models.StateVector) error {
	f.published = append(f.published, v)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordTick(string, string)        {}
func (nopMetrics) RecordEvent(string, string)       {}
func (nopMetrics) RecordDegradedFields(string, int) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLatency(string, float64)    {}

// --- helpers ---

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testSnapshot(ts time.Time, marketID string) *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		AssetID:            "BTC-USD",
		Timestamp:          ts,
		MarketSnapshotID:   marketID,
		IndicatorSetID:     "is-" + marketID,
		TrendStrength:      0.9,
		DirectionalBias:    0.5,
		SecondarySignal:    1,
		OscillatorFast:     0.7,
		OscillatorSlow:     0.6,
		RateOfChange:       0.2,
		VolPercentileShort: 0.4,
		VolPercentileLong:  0.3,
		VolRegime:          models.VolNormal,
		VolumeRatio:        1.2,
		VolumeStrength:     0.4,
		Regime:             models.RegimeBull,
		RegimeConfidence:   0.95,
	}
}

type fixture struct {
	synth     *Synthesizer
	snapshots *fakeSnapshots
	safety    *fakeSafety
	signer    *fakeSigner
	store     *memStore
	pub       *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := mapping.NewRegistry(mapping.VersionV1)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	f := &fixture{
		snapshots: &fakeSnapshots{byID: map[string]*models.IndicatorSnapshot{}},
		safety:    &fakeSafety{level: models.SafetyNormal},
		signer:    &fakeSigner{},
		store:     &memStore{},
		pub:       &fakePublisher{},
	}
	f.synth = NewSynthesizer(
		f.snapshots, f.safety, reg,
		verify.NewAssembler(f.signer, time.Second),
		f.store, f.pub, nopMetrics{}, testLogger(t),
	)
	return f
}

func (f *fixture) feed(snap *models.IndicatorSnapshot) {
	f.snapshots.next = snap
	f.snapshots.byID[snap.MarketSnapshotID] = snap
}

// --- tests ---

func TestTickProducesSealedVector(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.feed(testSnapshot(ts, "ms-1"))

	vec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if vec.Digest == "" || vec.Signature == "" || vec.SignerID != "authority-test" {
		t.Fatalf("vector not sealed: %+v", vec)
	}
	if vec.Flow == nil || vec.Flow.Speed < 1.80 || vec.Flow.Speed > 1.82 {
		t.Fatalf("flow speed = %+v, want ~1.81", vec.Flow)
	}
	if vec.Visual.Palette.Primary != "#1faa59" {
		t.Fatalf("palette = %+v, want unmodified bull primary", vec.Visual.Palette)
	}
	if len(vec.Events) != 0 {
		t.Fatalf("events = %+v, want none on a quiet first tick", vec.Events)
	}
	if len(f.store.vectors) != 1 || len(f.pub.published) != 1 {
		t.Fatalf("store=%d published=%d, want 1/1", len(f.store.vectors), len(f.pub.published))
	}
	if err := verify.Verify(vec); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestTickFailsClosedOnSigningFault(t *testing.T) {
	f := newFixture(t)
	f.signer.err = errors.New("authority timeout")
	f.feed(testSnapshot(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), "ms-1"))

	_, err := f.synth.Tick(context.Background(), "BTC-USD")
	var serr *verify.SigningError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SigningError", err)
	}
	if len(f.store.vectors) != 0 || len(f.pub.published) != 0 {
		t.Fatalf("unsigned vector leaked: store=%d published=%d", len(f.store.vectors), len(f.pub.published))
	}
}

func TestTickRejectsStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.feed(testSnapshot(ts, "ms-1"))
	if _, err := f.synth.Tick(context.Background(), "BTC-USD"); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	// Same timestamp again: history must stay strictly increasing.
	f.feed(testSnapshot(ts, "ms-2"))
	_, err := f.synth.Tick(context.Background(), "BTC-USD")
	var stale *ErrStaleSnapshot
	if !errors.As(err, &stale) {
		t.Fatalf("err = %v, want ErrStaleSnapshot", err)
	}
	if len(f.store.vectors) != 1 {
		t.Fatalf("stale tick was persisted")
	}
}

func TestTickLockdownNullsPayload(t *testing.T) {
	f := newFixture(t)
	f.safety.level = models.SafetyLockdown
	f.feed(testSnapshot(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), "ms-1"))

	vec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if vec.Flow != nil || vec.Pulse != nil || vec.Weather != nil || vec.Force != nil {
		t.Fatalf("dimensions survived lockdown: %+v", vec)
	}
	if len(vec.DegradedFields) != 1 || vec.DegradedFields[0] != models.DegradedAll {
		t.Fatalf("degraded = %v, want [all]", vec.DegradedFields)
	}
	if vec.Visual == nil || vec.Visual.Overlay == "" {
		t.Fatalf("missing overlay: %+v", vec.Visual)
	}
	// Lockdown vectors are still sealed and published.
	if vec.Signature == "" || len(f.pub.published) != 1 {
		t.Fatalf("lockdown vector not sealed/published")
	}
}

func TestTickUnavailableSafetyProviderForcesShutdown(t *testing.T) {
	f := newFixture(t)
	f.safety.err = errors.New("provider down")
	f.feed(testSnapshot(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), "ms-1"))

	vec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if vec.SafetyLevel != models.SafetyShutdown {
		t.Fatalf("safety = %s, want SHUTDOWN", vec.SafetyLevel)
	}
}

func TestReplayReproducesDigest(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Two ticks so the replayed one has a previous-vector context.
	f.feed(testSnapshot(base, "ms-1"))
	if _, err := f.synth.Tick(context.Background(), "BTC-USD"); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	snap2 := testSnapshot(base.Add(5*time.Second), "ms-2")
	snap2.Regime = models.RegimeBear
	snap2.RegimeConfidence = 0.85
	snap2.VolumeRatio = 3.5
	f.feed(snap2)
	rec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if len(rec.Events) == 0 {
		t.Fatalf("expected events on tick 2")
	}

	replayed, err := f.synth.Replay(context.Background(), "BTC-USD", rec.Timestamp, rec.MappingVersion)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Digest != rec.Digest {
		t.Fatalf("replay digest %s != recorded %s", replayed.Digest, rec.Digest)
	}
	if replayed.ID != rec.ID || !replayed.Timestamp.Equal(rec.Timestamp) {
		t.Fatalf("replay identity differs: %s@%s vs %s@%s", replayed.ID, replayed.Timestamp, rec.ID, rec.Timestamp)
	}
	if replayed.Signature != rec.Signature {
		t.Fatalf("recorded signature should carry over")
	}
}

func TestReplayVersionMismatch(t *testing.T) {
	f := newFixture(t)
	f.feed(testSnapshot(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), "ms-1"))
	rec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	_, err = f.synth.Replay(context.Background(), "BTC-USD", rec.Timestamp, mapping.VersionV1_1)
	var verr *ErrVersionMismatch
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ErrVersionMismatch", err)
	}
}

func TestReplayDetectsTamperedHistory(t *testing.T) {
	f := newFixture(t)
	f.feed(testSnapshot(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), "ms-1"))
	rec, err := f.synth.Tick(context.Background(), "BTC-USD")
	if err != nil {
		t.Fatalf("tick: %v", err)
	}

	// Simulate history tampering behind the store's back.
	rec.Digest = "0000000000000000000000000000000000000000000000000000000000000000"

	_, err = f.synth.Replay(context.Background(), "BTC-USD", rec.Timestamp, "")
	var ierr *verify.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
}

func TestReplayNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.synth.Replay(context.Background(), "BTC-USD", time.Now(), "")
	var nerr *ErrVectorNotFound
	if !errors.As(err, &nerr) {
		t.Fatalf("err = %v, want ErrVectorNotFound", err)
	}
}
