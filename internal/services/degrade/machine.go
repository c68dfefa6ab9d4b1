// Package degrade implements the safety-level degradation transform applied
// to already-mapped parameter sets before assembly.
package degrade

import (
	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
	"github.com/MetaStark/vision-IoS-sub013/internal/services/mapping"
)

// Overlay messages attached by the restrictive levels. The rendering
// consumer displays them verbatim.
const (
	OverlayLockdown = "MARKET SAFEGUARDS ACTIVE - DISPLAY FROZEN"
	OverlayShutdown = "SYSTEM SHUTDOWN - NO LIVE DATA"
)

// Payload is the degradable portion of a state vector: the four dimension
// parameter sets, the visual properties and the candidate events.
type Payload struct {
	Flow    *models.FlowParams
	Pulse   *models.PulseParams
	Weather *models.WeatherParams
	Force   *models.ForceParams
	Visual  *models.VisualProps
	Events  []models.EventRecord
}

// Apply runs the fixed per-level transformation and returns the transformed
// payload plus the authoritative list of degraded field names. The transform
// is pure and idempotent: attenuation uses caps and fixed values only, so a
// second application at the same level changes nothing. Undeclared levels
// receive the SHUTDOWN behavior.
func Apply(p Payload, level models.SafetyLevel) (Payload, []string) {
	switch level {
	case models.SafetyNormal:
		return p, nil
	case models.SafetyElevated:
		return applyElevated(p)
	case models.SafetyRestricted:
		return applyRestricted(p)
	case models.SafetyLockdown:
		return applyLockdown(p)
	default: // SHUTDOWN and any undeclared level
		return applyShutdown(p)
	}
}

// applyElevated caps the two spike outputs and drops LOW-severity events.
// Inputs are copied before capping; the caller's structs are never mutated.
func applyElevated(p Payload) (Payload, []string) {
	var degraded []string
	if p.Weather != nil && p.Weather.Storm > 0.5 {
		w := *p.Weather
		w.Storm = 0.5
		p.Weather = &w
		degraded = append(degraded, "weather.storm")
	}
	if p.Force != nil && p.Force.Shock > 0.5 {
		f := *p.Force
		f.Shock = 0.5
		p.Force = &f
		degraded = append(degraded, "force.shock")
	}
	p.Events = filterEvents(p.Events, models.SeverityMedium)
	return p, degraded
}

// applyRestricted additionally caps the density fields, freezes the pulse
// frequency at its floor, half-desaturates the palette, and keeps only
// CRITICAL events.
func applyRestricted(p Payload) (Payload, []string) {
	p, degraded := applyElevated(p)
	if p.Weather != nil && p.Weather.Density > 0.5 {
		w := *p.Weather
		w.Density = 0.5
		p.Weather = &w
		degraded = append(degraded, "weather.density")
	}
	if p.Force != nil && p.Force.Density > 0.5 {
		f := *p.Force
		f.Density = 0.5
		p.Force = &f
		degraded = append(degraded, "force.density")
	}
	if p.Pulse != nil && p.Pulse.Frequency != 0.5 {
		p.Pulse = &models.PulseParams{Amplitude: p.Pulse.Amplitude, Frequency: 0.5}
		degraded = append(degraded, "pulse.frequency")
	}
	if p.Visual != nil && p.Visual.Saturation > 0.5 {
		v := *p.Visual
		v.Saturation = 0.5
		p.Visual = &v
		degraded = append(degraded, "visual.saturation")
	}
	p.Events = filterEvents(p.Events, models.SeverityCritical)
	return p, degraded
}

// applyLockdown nulls every dimension set, forces the neutral palette with
// the lockdown overlay and suppresses all events.
func applyLockdown(p Payload) (Payload, []string) {
	out := Payload{
		Visual: &models.VisualProps{
			Palette:    mapping.NeutralPalette(),
			Label:      "Locked",
			Saturation: 0,
			Overlay:    OverlayLockdown,
		},
	}
	return out, []string{models.DegradedAll}
}

// applyShutdown is the terminal level: nothing survives but the overlay.
func applyShutdown(p Payload) (Payload, []string) {
	out := Payload{
		Visual: &models.VisualProps{
			Overlay: OverlayShutdown,
		},
	}
	return out, []string{models.DegradedAll}
}

func filterEvents(events []models.EventRecord, atLeast models.Severity) []models.EventRecord {
	if len(events) == 0 {
		return events
	}
	kept := make([]models.EventRecord, 0, len(events))
	for _, ev := range events {
		if ev.Severity.Rank() >= atLeast.Rank() {
			kept = append(kept, ev)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
