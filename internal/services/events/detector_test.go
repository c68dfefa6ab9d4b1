package events

import (
	"testing"
	"time"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

func baseSnapshot() *models.IndicatorSnapshot {
	return &models.IndicatorSnapshot{
		AssetID:          "BTC-USD",
		Timestamp:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TrendStrength:    0.5,
		RateOfChange:     0.1,
		VolRegime:        models.VolNormal,
		VolumeRatio:      1.0,
		Regime:           models.RegimeBull,
		RegimeConfidence: 0.9,
	}
}

func prevVector() *models.StateVector {
	return &models.StateVector{
		ID:          "prev",
		AssetID:     "BTC-USD",
		SafetyLevel: models.SafetyNormal,
		Flow:        &models.FlowParams{Speed: 0.1 + 1.9*0.5, Direction: 0.6},
		Weather:     &models.WeatherParams{Density: 0.4, Turbulence: 0.3},
		Visual:      &models.VisualProps{Label: "Bull"},
	}
}

func TestFirstTickOnlyThresholdRules(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.VolumeRatio = 3.5
	snap.Regime = models.RegimeBear // would be a shift if prev existed
	snap.TrendStrength = 0.95

	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: nil})
	if len(got) != 1 {
		t.Fatalf("events = %d, want 1 (threshold-only): %+v", len(got), got)
	}
	if got[0].Type != models.EventVolumeSurge {
		t.Fatalf("type = %s, want VOLUME_SURGE", got[0].Type)
	}
}

func TestVolumeSurgeSeverity(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.VolumeRatio = 3.5
	snap.VolumeStrength = 0.5
	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal})
	if len(got) != 1 || got[0].Severity != models.SeverityMedium {
		t.Fatalf("want MEDIUM surge, got %+v", got)
	}

	snap.VolumeStrength = 0.95
	got = d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal})
	if len(got) != 1 || got[0].Severity != models.SeverityHigh {
		t.Fatalf("want HIGH surge at top decile, got %+v", got)
	}
}

func TestRegimeShiftConfidenceGate(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.Regime = models.RegimeBear
	snap.RegimeConfidence = 0.5

	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 0 {
		t.Fatalf("low-confidence shift fired: %+v", got)
	}

	snap.RegimeConfidence = 0.85
	got = d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 1 || got[0].Type != models.EventRegimeShift || got[0].Severity != models.SeverityHigh {
		t.Fatalf("want HIGH regime shift, got %+v", got)
	}
	if got[0].Params["previous"] != "Bull" || got[0].Params["next"] != "Bear" {
		t.Fatalf("params = %v", got[0].Params)
	}
}

func TestRegimeShiftIntoCrisisIsCritical(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.Regime = models.RegimeCrisis
	snap.RegimeConfidence = 0.9
	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 1 || got[0].Severity != models.SeverityCritical {
		t.Fatalf("want CRITICAL crisis shift, got %+v", got)
	}
}

func TestVolatilityStormRequiresTransition(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.VolRegime = models.VolExtreme
	weather := &models.WeatherParams{Density: 0.9, Turbulence: 0.9}

	got := d.Detect(Input{Snapshot: snap, Weather: weather, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 1 || got[0].Type != models.EventVolatilityStorm || got[0].Severity != models.SeverityCritical {
		t.Fatalf("want CRITICAL storm, got %+v", got)
	}

	// Already EXTREME last tick: no re-fire.
	prev := prevVector()
	prev.Weather = &models.WeatherParams{Density: 0.9, Turbulence: 0.9}
	got = d.Detect(Input{Snapshot: snap, Weather: weather, Safety: models.SafetyNormal, Prev: prev})
	if len(got) != 0 {
		t.Fatalf("storm re-fired while already extreme: %+v", got)
	}
}

func TestSafetyChangeSeverities(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		next models.SafetyLevel
		want models.Severity
	}{
		{models.SafetyElevated, models.SeverityMedium},
		{models.SafetyRestricted, models.SeverityHigh},
		{models.SafetyLockdown, models.SeverityCritical},
		{models.SafetyShutdown, models.SeverityCritical},
	}
	for _, c := range cases {
		got := d.Detect(Input{Snapshot: baseSnapshot(), Safety: c.next, Prev: prevVector()})
		if len(got) != 1 || got[0].Type != models.EventSafetyChange || got[0].Severity != c.want {
			t.Fatalf("level %s: got %+v, want %s", c.next, got, c.want)
		}
	}
}

func TestMomentumReversal(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.RateOfChange = -0.7 // against recorded positive flow direction
	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 1 || got[0].Type != models.EventMomentumReversal {
		t.Fatalf("want reversal, got %+v", got)
	}

	snap.RateOfChange = -0.2 // too weak
	got = d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 0 {
		t.Fatalf("weak reversal fired: %+v", got)
	}
}

func TestTrendBreakout(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.TrendStrength = 0.9
	got := d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prevVector()})
	if len(got) != 1 || got[0].Type != models.EventTrendBreakout {
		t.Fatalf("want breakout, got %+v", got)
	}

	// Previous tick already trending strongly: no breakout.
	prev := prevVector()
	prev.Flow.Speed = 0.1 + 1.9*0.8
	got = d.Detect(Input{Snapshot: snap, Safety: models.SafetyNormal, Prev: prev})
	if len(got) != 0 {
		t.Fatalf("breakout fired without a jump: %+v", got)
	}
}

func TestFixedOrderAndOnePerType(t *testing.T) {
	d := NewDetector()
	snap := baseSnapshot()
	snap.Regime = models.RegimeCrisis
	snap.RegimeConfidence = 0.95
	snap.VolRegime = models.VolExtreme
	snap.VolumeRatio = 4.0
	snap.VolumeStrength = 0.95
	snap.TrendStrength = 0.95
	snap.RateOfChange = -0.8
	weather := &models.WeatherParams{Density: 0.92, Turbulence: 0.9}

	got := d.Detect(Input{Snapshot: snap, Weather: weather, Safety: models.SafetyRestricted, Prev: prevVector()})
	wantOrder := []models.EventType{
		models.EventSafetyChange,
		models.EventRegimeShift,
		models.EventVolatilityStorm,
		models.EventVolumeSurge,
		models.EventMomentumReversal,
		models.EventTrendBreakout,
	}
	if len(got) != len(wantOrder) {
		t.Fatalf("events = %d, want %d: %+v", len(got), len(wantOrder), got)
	}
	seen := map[models.EventType]bool{}
	for i, ev := range got {
		if ev.Type != wantOrder[i] {
			t.Fatalf("order[%d] = %s, want %s", i, ev.Type, wantOrder[i])
		}
		if seen[ev.Type] {
			t.Fatalf("type fired twice: %s", ev.Type)
		}
		seen[ev.Type] = true
		if ev.ID == "" {
			t.Fatalf("event missing id: %+v", ev)
		}
	}
}
