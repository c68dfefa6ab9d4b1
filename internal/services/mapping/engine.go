package mapping

import (
	"math"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// Engine converts bounded indicator inputs into bounded visual parameters.
// Every mapper is pure, total and monotonic in its dominant input; clamping
// at the declared interval is the only nonlinearity. The engine never
// returns an error: malformed inputs are sanitized, never rejected, because
// it sits on the real-time synthesis path.
type Engine struct {
	version string
	coef    Coefficients
}

// Coefficients is the versioned mapping table. Values are fixed per version;
// any behavioral change ships as a new version tag.
type Coefficients struct {
	FlowSpeedBase  float64 // speed = base + gain*strength
	FlowSpeedGain  float64
	FlowBiasWeight float64 // direction = clamp(bw*bias + sw*sign(secondary))
	FlowSignWeight float64

	PulseFreqBase float64 // frequency = clamp(base + gain*|roc|, base, freqCap)
	PulseFreqGain float64
	PulseFreqCap  float64

	WeatherShortWeight float64 // density = sw*pShort + lw*pLong
	WeatherLongWeight  float64
	StormFloor         float64 // storm ramps linearly above this density

	ForceRatioScale float64 // density = clamp(ratio*scale, 0, 1)
	ShockThreshold  float64 // shock = clamp((ratio-threshold)/span, 0, 1)
	ShockSpan       float64

	ConfidenceFloor float64 // palette desaturates below this confidence
}

// NewEngine builds an engine for a registered mapping version. Unknown
// versions return ErrUnknownVersion from the registry; callers resolve the
// version before a tick starts so the engine itself stays error-free.
func NewEngine(version string, coef Coefficients) *Engine {
	return &Engine{version: version, coef: coef}
}

// Version returns the mapping-logic version tag this engine was built for.
func (e *Engine) Version() string { return e.version }

// MapAll runs the four dimension mappers plus the palette mapper over one
// snapshot and returns a fully populated, undegraded parameter payload.
func (e *Engine) MapAll(snap *models.IndicatorSnapshot) (*models.FlowParams, *models.PulseParams, *models.WeatherParams, *models.ForceParams, *models.VisualProps) {
	flow := e.MapTrend(snap.TrendStrength, snap.DirectionalBias, snap.SecondarySignal)
	pulse := e.MapMomentum(snap.OscillatorFast, snap.OscillatorSlow, snap.RateOfChange)
	weather := e.MapVolatility(snap.VolPercentileShort, snap.VolPercentileLong, snap.VolRegime)
	force := e.MapVolume(snap.VolumeRatio, snap.VolumeStrength)
	visual := e.MapRegime(snap.Regime, snap.RegimeConfidence)
	return &flow, &pulse, &weather, &force, &visual
}

// clamp bounds v to the closed interval [lo,hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sane replaces NaN and infinities with the documented safe default.
// Undefined values must never propagate past the mapping boundary.
func sane(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// sign returns -1, 0 or 1. NaN maps to 0 (neutral).
func sign(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
