package degrade

import (
	"reflect"
	"testing"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

func fullPayload() Payload {
	return Payload{
		Flow:    &models.FlowParams{Speed: 1.8, Direction: 0.7},
		Pulse:   &models.PulseParams{Amplitude: 0.8, Frequency: 3.2},
		Weather: &models.WeatherParams{Density: 0.9, Turbulence: 0.6, Storm: 0.8},
		Force:   &models.ForceParams{Density: 0.95, Shock: 0.7},
		Visual:  &models.VisualProps{Label: "Bull", Saturation: 1.0},
		Events: []models.EventRecord{
			{ID: "a", Type: models.EventVolumeSurge, Severity: models.SeverityLow},
			{ID: "b", Type: models.EventRegimeShift, Severity: models.SeverityHigh},
			{ID: "c", Type: models.EventVolatilityStorm, Severity: models.SeverityCritical},
		},
	}
}

func TestApplyNormalPassthrough(t *testing.T) {
	p := fullPayload()
	out, degraded := Apply(p, models.SafetyNormal)
	if len(degraded) != 0 {
		t.Fatalf("degraded = %v, want empty", degraded)
	}
	if !reflect.DeepEqual(out, p) {
		t.Fatalf("payload changed under NORMAL")
	}
}

func TestApplyElevatedCapsSpikes(t *testing.T) {
	out, degraded := Apply(fullPayload(), models.SafetyElevated)
	if out.Weather.Storm != 0.5 || out.Force.Shock != 0.5 {
		t.Fatalf("spikes not capped: storm=%v shock=%v", out.Weather.Storm, out.Force.Shock)
	}
	want := []string{"weather.storm", "force.shock"}
	if !reflect.DeepEqual(degraded, want) {
		t.Fatalf("degraded = %v, want %v", degraded, want)
	}
	// LOW events dropped, the rest survive.
	if len(out.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(out.Events))
	}
	// Untouched fields stay untouched.
	if out.Flow.Speed != 1.8 || out.Pulse.Frequency != 3.2 {
		t.Fatalf("unrelated fields altered: %+v %+v", out.Flow, out.Pulse)
	}
}

func TestApplyRestricted(t *testing.T) {
	out, degraded := Apply(fullPayload(), models.SafetyRestricted)
	if out.Weather.Density != 0.5 || out.Force.Density != 0.5 {
		t.Fatalf("densities not capped: %+v %+v", out.Weather, out.Force)
	}
	if out.Pulse.Frequency != 0.5 {
		t.Fatalf("frequency = %v, want frozen 0.5", out.Pulse.Frequency)
	}
	if out.Visual.Saturation != 0.5 {
		t.Fatalf("saturation = %v, want 0.5", out.Visual.Saturation)
	}
	for _, ev := range out.Events {
		if ev.Severity != models.SeverityCritical {
			t.Fatalf("non-critical event survived: %+v", ev)
		}
	}
	if len(degraded) == 0 {
		t.Fatalf("expected degraded fields")
	}
}

func TestApplyLockdownNullsDimensions(t *testing.T) {
	out, degraded := Apply(fullPayload(), models.SafetyLockdown)
	if out.Flow != nil || out.Pulse != nil || out.Weather != nil || out.Force != nil {
		t.Fatalf("dimensions not nulled: %+v", out)
	}
	if out.Visual == nil || out.Visual.Overlay != OverlayLockdown {
		t.Fatalf("missing lockdown overlay: %+v", out.Visual)
	}
	if out.Visual.Palette.Primary != "#808080" {
		t.Fatalf("palette not neutral: %+v", out.Visual.Palette)
	}
	if len(out.Events) != 0 {
		t.Fatalf("events survived lockdown")
	}
	if !reflect.DeepEqual(degraded, []string{models.DegradedAll}) {
		t.Fatalf("degraded = %v, want [all]", degraded)
	}
}

func TestApplyShutdownOverlayOnly(t *testing.T) {
	out, degraded := Apply(fullPayload(), models.SafetyShutdown)
	if out.Visual == nil || out.Visual.Overlay != OverlayShutdown {
		t.Fatalf("missing shutdown overlay: %+v", out.Visual)
	}
	if out.Visual.Palette.Primary != "" || out.Visual.Label != "" {
		t.Fatalf("shutdown carries visual data: %+v", out.Visual)
	}
	if !reflect.DeepEqual(degraded, []string{models.DegradedAll}) {
		t.Fatalf("degraded = %v, want [all]", degraded)
	}
}

func TestApplyUnknownLevelIsTerminal(t *testing.T) {
	out, _ := Apply(fullPayload(), "DEFCON9")
	if out.Flow != nil || out.Visual == nil || out.Visual.Overlay != OverlayShutdown {
		t.Fatalf("unknown level did not map to shutdown: %+v", out)
	}
}

func TestApplyIdempotent(t *testing.T) {
	levels := []models.SafetyLevel{
		models.SafetyNormal, models.SafetyElevated, models.SafetyRestricted,
		models.SafetyLockdown, models.SafetyShutdown,
	}
	for _, level := range levels {
		once, degOnce := Apply(fullPayload(), level)
		twice, _ := Apply(once, level)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("level %s not idempotent:\nonce:  %+v\ntwice: %+v", level, once, twice)
		}
		_, degAgain := Apply(once, level)
		if level != models.SafetyLockdown && level != models.SafetyShutdown && len(degAgain) != 0 {
			t.Fatalf("level %s re-degraded already-degraded payload: %v (first pass %v)", level, degAgain, degOnce)
		}
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	p := fullPayload()
	_, _ = Apply(p, models.SafetyRestricted)
	if p.Weather.Storm != 0.8 || p.Force.Shock != 0.7 || p.Pulse.Frequency != 3.2 {
		t.Fatalf("input payload mutated: %+v %+v %+v", p.Weather, p.Force, p.Pulse)
	}
}
