// Package events detects typed occurrences from consecutive synthesis ticks.
package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// Thresholds used by the firing rules. Fixed per build; rule behavior
// changes ship with a mapping-version bump because detected events are part
// of the signed payload.
const (
	regimeShiftMinConfidence = 0.7
	stormMinDensity          = 0.8
	surgeMinRatio            = 3.0
	surgeTopDecile           = 0.9
	reversalMinROC           = 0.5
	breakoutMinStrength      = 0.85
	breakoutPrevCeiling      = 0.7
)

// Input is everything one detection pass sees: the current snapshot, the
// freshly mapped weather parameters, the active safety level and the
// previous vector (nil on the first tick).
type Input struct {
	Snapshot *models.IndicatorSnapshot
	Weather  *models.WeatherParams
	Safety   models.SafetyLevel
	Prev     *models.StateVector
}

// Detector evaluates the fixed rule table. It is pure over its input except
// for event id generation, which is reference identity only and excluded
// from the content digest.
type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

// Detect runs the rules in their fixed declaration order, which is also the
// precedence order when several rules touch the same display channel:
// safety change, regime shift, volatility storm, volume surge, momentum
// reversal, trend breakout. Each rule fires at most once per tick. Rules
// that compare against the previous vector are skipped when there is none.
func (d *Detector) Detect(in Input) []models.EventRecord {
	if in.Snapshot == nil {
		return nil
	}
	var out []models.EventRecord
	add := func(ev *models.EventRecord) {
		if ev != nil {
			out = append(out, *ev)
		}
	}
	add(d.safetyChange(in))
	add(d.regimeShift(in))
	add(d.volatilityStorm(in))
	add(d.volumeSurge(in))
	add(d.momentumReversal(in))
	add(d.trendBreakout(in))
	return out
}

// safetyChange fires when the safety level differs from the previous tick.
// Severity tracks how restrictive the new level is.
func (d *Detector) safetyChange(in Input) *models.EventRecord {
	if in.Prev == nil || in.Prev.SafetyLevel == in.Safety {
		return nil
	}
	sev := models.SeverityMedium
	switch {
	case in.Safety.Rank() >= models.SafetyLockdown.Rank():
		sev = models.SeverityCritical
	case in.Safety.Rank() >= models.SafetyRestricted.Rank():
		sev = models.SeverityHigh
	}
	return d.record(models.EventSafetyChange, sev, in.Snapshot.Timestamp, 0, map[string]string{
		"previous": string(in.Prev.SafetyLevel),
		"next":     string(in.Safety),
	})
}

// regimeShift fires when the regime changed and the new regime is confident
// enough to show. Entering CRISIS is always CRITICAL.
func (d *Detector) regimeShift(in Input) *models.EventRecord {
	if in.Prev == nil || in.Prev.Visual == nil {
		return nil
	}
	prevLabel := in.Prev.Visual.Label
	_, curLabel := regimeLabel(in.Snapshot.Regime)
	// Degraded labels ("Locked" etc.) are not regimes; a recovery from
	// lockdown is a safety change, not a regime shift.
	if !isRegimeLabel(prevLabel) {
		return nil
	}
	if prevLabel == curLabel || in.Snapshot.RegimeConfidence < regimeShiftMinConfidence {
		return nil
	}
	sev := models.SeverityHigh
	if in.Snapshot.Regime == models.RegimeCrisis {
		sev = models.SeverityCritical
	}
	return d.record(models.EventRegimeShift, sev, in.Snapshot.Timestamp, 8*time.Second, map[string]string{
		"previous":   prevLabel,
		"next":       curLabel,
		"confidence": formatFloat(in.Snapshot.RegimeConfidence),
	})
}

// volatilityStorm fires on the transition into EXTREME while weather density
// is already past the storm ceiling. Delta rule: needs a previous vector.
func (d *Detector) volatilityStorm(in Input) *models.EventRecord {
	if in.Prev == nil || in.Weather == nil {
		return nil
	}
	prevExtreme := in.Prev.Weather != nil && in.Prev.Weather.Turbulence >= 0.9
	if prevExtreme || in.Snapshot.VolRegime != models.VolExtreme || in.Weather.Density <= stormMinDensity {
		return nil
	}
	return d.record(models.EventVolatilityStorm, models.SeverityCritical, in.Snapshot.Timestamp, 12*time.Second, map[string]string{
		"density": formatFloat(in.Weather.Density),
	})
}

// volumeSurge is threshold-only and may fire on the first tick. Top-decile
// strength upgrades the severity.
func (d *Detector) volumeSurge(in Input) *models.EventRecord {
	if in.Snapshot.VolumeRatio <= surgeMinRatio {
		return nil
	}
	sev := models.SeverityMedium
	if in.Snapshot.VolumeStrength >= surgeTopDecile {
		sev = models.SeverityHigh
	}
	return d.record(models.EventVolumeSurge, sev, in.Snapshot.Timestamp, 5*time.Second, map[string]string{
		"ratio":    formatFloat(in.Snapshot.VolumeRatio),
		"strength": formatFloat(in.Snapshot.VolumeStrength),
	})
}

// momentumReversal fires when the rate of change strongly opposes the
// previously published flow direction.
func (d *Detector) momentumReversal(in Input) *models.EventRecord {
	if in.Prev == nil {
		return nil
	}
	prevDir := in.Prev.Flow
	if prevDir == nil {
		return nil
	}
	cur := in.Snapshot.RateOfChange
	if absFloat(cur) < reversalMinROC {
		return nil
	}
	if (cur > 0) == (prevDir.Direction > 0) || prevDir.Direction == 0 {
		return nil
	}
	return d.record(models.EventMomentumReversal, models.SeverityMedium, in.Snapshot.Timestamp, 4*time.Second, map[string]string{
		"rate_of_change": formatFloat(cur),
	})
}

// trendBreakout fires on a jump into strong-trend territory from below the
// prior ceiling. Delta rule.
func (d *Detector) trendBreakout(in Input) *models.EventRecord {
	if in.Prev == nil || in.Prev.Flow == nil {
		return nil
	}
	// Recover the previous strength from the recorded speed mapping.
	prevStrength := (in.Prev.Flow.Speed - 0.1) / 1.9
	if in.Snapshot.TrendStrength < breakoutMinStrength || prevStrength >= breakoutPrevCeiling {
		return nil
	}
	return d.record(models.EventTrendBreakout, models.SeverityHigh, in.Snapshot.Timestamp, 6*time.Second, map[string]string{
		"strength": formatFloat(in.Snapshot.TrendStrength),
	})
}

func (d *Detector) record(t models.EventType, sev models.Severity, ts time.Time, dur time.Duration, params map[string]string) *models.EventRecord {
	return &models.EventRecord{
		ID:           uuid.NewString(),
		Type:         t,
		Severity:     sev,
		Timestamp:    ts,
		DurationHint: dur,
		Params:       params,
	}
}

func regimeLabel(r models.MarketRegime) (models.MarketRegime, string) {
	switch r {
	case models.RegimeBull:
		return r, "Bull"
	case models.RegimeBear:
		return r, "Bear"
	case models.RegimeSideways:
		return r, "Sideways"
	case models.RegimeVolatile:
		return r, "Volatile"
	case models.RegimeCrisis:
		return r, "Crisis"
	default:
		return r, "Unknown"
	}
}

func isRegimeLabel(label string) bool {
	switch label {
	case "Bull", "Bear", "Sideways", "Volatile", "Crisis":
		return true
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
