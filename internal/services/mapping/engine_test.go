package mapping

import (
	"math"
	"testing"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg, err := NewRegistry(VersionV1)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	e, err := reg.Engine("")
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestMapTrendKnownValues(t *testing.T) {
	e := newTestEngine(t)

	f := e.MapTrend(0.9, 0.5, 1.2)
	if math.Abs(f.Speed-1.81) > 1e-9 {
		t.Fatalf("speed = %v, want 1.81", f.Speed)
	}
	if math.Abs(f.Direction-0.7) > 1e-9 {
		t.Fatalf("direction = %v, want 0.7", f.Direction)
	}

	// Direction saturates at the declared bounds.
	f = e.MapTrend(0.5, 1.0, 100)
	if f.Direction != 1.0 {
		t.Fatalf("direction = %v, want 1.0", f.Direction)
	}
}

func TestMapTrendMonotonicInStrength(t *testing.T) {
	e := newTestEngine(t)
	prev := -1.0
	for s := 0.0; s <= 1.0; s += 0.05 {
		f := e.MapTrend(s, 0.2, -0.3)
		if f.Speed < prev {
			t.Fatalf("speed decreased at strength %v: %v < %v", s, f.Speed, prev)
		}
		prev = f.Speed
	}
}

func TestMapMomentumBounds(t *testing.T) {
	e := newTestEngine(t)
	cases := []struct{ fast, slow, roc float64 }{
		{0, 0, 0}, {1, 1, 1}, {0.5, 0.5, 0}, {1, 0, -1},
		{math.NaN(), math.Inf(1), math.NaN()},
		{-5, 99, -42},
	}
	for _, c := range cases {
		p := e.MapMomentum(c.fast, c.slow, c.roc)
		if p.Amplitude < 0 || p.Amplitude > 1 {
			t.Fatalf("amplitude out of range for %+v: %v", c, p.Amplitude)
		}
		if p.Frequency < 0.5 || p.Frequency > 4.0 {
			t.Fatalf("frequency out of range for %+v: %v", c, p.Frequency)
		}
	}
}

func TestMapMomentumNeutralOscillators(t *testing.T) {
	e := newTestEngine(t)
	p := e.MapMomentum(0.5, 0.5, 0)
	if p.Amplitude != 0 {
		t.Fatalf("amplitude = %v, want 0 at neutral", p.Amplitude)
	}
	if p.Frequency != 0.5 {
		t.Fatalf("frequency = %v, want 0.5 at zero roc", p.Frequency)
	}
}

func TestMapVolatilityTurbulenceLookup(t *testing.T) {
	e := newTestEngine(t)
	want := map[models.VolatilityRegime]float64{
		models.VolLow:     0.1,
		models.VolNormal:  0.3,
		models.VolHigh:    0.6,
		models.VolExtreme: 0.9,
	}
	for regime, turb := range want {
		w := e.MapVolatility(0.5, 0.5, regime)
		if w.Turbulence != turb {
			t.Fatalf("turbulence[%s] = %v, want %v", regime, w.Turbulence, turb)
		}
	}
	// Undeclared bucket maps to the most restrictive value.
	if w := e.MapVolatility(0.5, 0.5, "WEIRD"); w.Turbulence != 0.9 {
		t.Fatalf("unknown bucket turbulence = %v, want 0.9", w.Turbulence)
	}
}

func TestMapVolatilityStormGating(t *testing.T) {
	e := newTestEngine(t)
	if w := e.MapVolatility(0.95, 0.95, models.VolNormal); w.Storm != 0 {
		t.Fatalf("storm = %v, want 0 outside HIGH/EXTREME", w.Storm)
	}
	w := e.MapVolatility(1, 1, models.VolExtreme)
	if w.Storm != 1 {
		t.Fatalf("storm = %v, want 1 at full density", w.Storm)
	}
	lo := e.MapVolatility(0.5, 0.5, models.VolHigh)
	hi := e.MapVolatility(0.8, 0.8, models.VolHigh)
	if hi.Storm < lo.Storm {
		t.Fatalf("storm not monotonic in density: %v < %v", hi.Storm, lo.Storm)
	}
}

func TestMapVolumeShock(t *testing.T) {
	e := newTestEngine(t)

	f := e.MapVolume(3.5, 0.5)
	if math.Abs(f.Shock-0.5) > 1e-9 {
		t.Fatalf("shock = %v, want 0.5 at ratio 3.5", f.Shock)
	}
	if f := e.MapVolume(1.0, 0.5); f.Shock != 0 {
		t.Fatalf("shock = %v, want 0 at baseline ratio", f.Shock)
	}
	if f := e.MapVolume(50, 0.5); f.Shock != 1 {
		t.Fatalf("shock = %v, want cap 1", f.Shock)
	}
	if f := e.MapVolume(math.NaN(), math.NaN()); f.Shock != 0 || f.Density != 0.5 {
		t.Fatalf("degenerate volume mapped to %+v, want baseline", f)
	}
}

func TestMapRegimeConfidenceBlend(t *testing.T) {
	e := newTestEngine(t)

	v := e.MapRegime(models.RegimeBull, 0.95)
	if v.Palette.Primary != "#1faa59" {
		t.Fatalf("high-confidence primary = %s, want unmodified bull color", v.Palette.Primary)
	}
	if v.Saturation != 1.0 {
		t.Fatalf("saturation = %v, want 1.0", v.Saturation)
	}

	v = e.MapRegime(models.RegimeBull, 0)
	if v.Palette.Primary != "#808080" {
		t.Fatalf("zero-confidence primary = %s, want neutral gray", v.Palette.Primary)
	}

	// The blend is proportional: mid-deficit sits strictly between.
	mid := e.MapRegime(models.RegimeBull, 0.3)
	if mid.Palette.Primary == "#1faa59" || mid.Palette.Primary == "#808080" {
		t.Fatalf("mid-confidence primary = %s, want a blended color", mid.Palette.Primary)
	}
	if v := e.MapRegime("MYSTERY", 0.9); v.Label != "Unknown" {
		t.Fatalf("unknown regime label = %s", v.Label)
	}
}

func TestMapAllTotalOverGarbage(t *testing.T) {
	e := newTestEngine(t)
	snap := &models.IndicatorSnapshot{
		TrendStrength:      math.NaN(),
		DirectionalBias:    math.Inf(-1),
		SecondarySignal:    math.NaN(),
		OscillatorFast:     -3,
		OscillatorSlow:     9,
		RateOfChange:       math.Inf(1),
		VolPercentileShort: math.NaN(),
		VolPercentileLong:  2,
		VolRegime:          "junk",
		VolumeRatio:        -1,
		VolumeStrength:     math.NaN(),
		Regime:             "junk",
		RegimeConfidence:   math.NaN(),
	}
	flow, pulse, weather, force, visual := e.MapAll(snap)
	if flow.Speed < 0.1 || flow.Speed > 2.0 || flow.Direction < -1 || flow.Direction > 1 {
		t.Fatalf("flow out of bounds: %+v", flow)
	}
	if pulse.Amplitude < 0 || pulse.Amplitude > 1 || pulse.Frequency < 0.5 || pulse.Frequency > 4 {
		t.Fatalf("pulse out of bounds: %+v", pulse)
	}
	if weather.Density < 0 || weather.Density > 1 || weather.Storm < 0 || weather.Storm > 1 {
		t.Fatalf("weather out of bounds: %+v", weather)
	}
	if force.Density < 0 || force.Density > 1 || force.Shock < 0 || force.Shock > 1 {
		t.Fatalf("force out of bounds: %+v", force)
	}
	if visual.Saturation < 0 || visual.Saturation > 1 {
		t.Fatalf("visual out of bounds: %+v", visual)
	}
}

func TestRegistryUnknownVersion(t *testing.T) {
	reg, err := NewRegistry(VersionV1)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if _, err := reg.Engine("vmap-9.9.9"); err == nil {
		t.Fatalf("expected unknown version error")
	}
	if err := reg.Activate(VersionV1_1); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if reg.Active() != VersionV1_1 {
		t.Fatalf("active = %s", reg.Active())
	}
}
