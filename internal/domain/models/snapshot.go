package models

import "time"

// MarketRegime is the fixed five-entry regime enumeration produced upstream.
type MarketRegime string

const (
	RegimeBull     MarketRegime = "BULL"
	RegimeBear     MarketRegime = "BEAR"
	RegimeSideways MarketRegime = "SIDEWAYS"
	RegimeVolatile MarketRegime = "VOLATILE"
	RegimeCrisis   MarketRegime = "CRISIS"
)

// KnownRegime reports whether r is one of the declared regimes.
func KnownRegime(r MarketRegime) bool {
	switch r {
	case RegimeBull, RegimeBear, RegimeSideways, RegimeVolatile, RegimeCrisis:
		return true
	}
	return false
}

// VolatilityRegime buckets realized volatility for the turbulence lookup.
type VolatilityRegime string

const (
	VolLow     VolatilityRegime = "LOW"
	VolNormal  VolatilityRegime = "NORMAL"
	VolHigh    VolatilityRegime = "HIGH"
	VolExtreme VolatilityRegime = "EXTREME"
)

// SafetyLevel is the ordered operational safety enumeration. Higher rank is
// more restrictive; comparisons go through Rank, never string order.
type SafetyLevel string

const (
	SafetyNormal     SafetyLevel = "NORMAL"
	SafetyElevated   SafetyLevel = "ELEVATED"
	SafetyRestricted SafetyLevel = "RESTRICTED"
	SafetyLockdown   SafetyLevel = "LOCKDOWN"
	SafetyShutdown   SafetyLevel = "SHUTDOWN"
)

// Rank returns the restrictiveness order of a safety level. Unknown levels
// rank above SHUTDOWN so they always degrade to the terminal behavior.
func (s SafetyLevel) Rank() int {
	switch s {
	case SafetyNormal:
		return 0
	case SafetyElevated:
		return 1
	case SafetyRestricted:
		return 2
	case SafetyLockdown:
		return 3
	case SafetyShutdown:
		return 4
	default:
		return 5
	}
}

// IndicatorSnapshot is the immutable per-asset input produced by the upstream
// indicator/regime collaborator for one tick. All scalar fields are bounded at
// the source; the mapping engine still clamps defensively.
type IndicatorSnapshot struct {
	AssetID   string    `json:"asset_id"`
	Timestamp time.Time `json:"timestamp"`

	// Two upstream snapshot ids, one per data domain. Recorded on the
	// resulting state vector so replay can refetch the exact inputs.
	MarketSnapshotID    string `json:"market_snapshot_id"`
	IndicatorSetID      string `json:"indicator_set_id"`

	// Trend block.
	TrendStrength   float64 `json:"trend_strength"`   // [0,1]
	DirectionalBias float64 `json:"directional_bias"` // [-1,1]
	SecondarySignal float64 `json:"secondary_signal"` // sign only is used

	// Momentum block: two [0,1] oscillators (0.5 = neutral) and a signed
	// rate of change in [-1,1].
	OscillatorFast float64 `json:"oscillator_fast"`
	OscillatorSlow float64 `json:"oscillator_slow"`
	RateOfChange   float64 `json:"rate_of_change"`

	// Volatility block: two volatility percentiles in [0,1] plus the bucket.
	VolPercentileShort float64          `json:"vol_percentile_short"`
	VolPercentileLong  float64          `json:"vol_percentile_long"`
	VolRegime          VolatilityRegime `json:"vol_regime"`

	// Volume block: ratio of current to baseline volume (1.0 = baseline)
	// and a percentile strength in [0,1].
	VolumeRatio    float64 `json:"volume_ratio"`
	VolumeStrength float64 `json:"volume_strength"`

	// Regime block.
	Regime           MarketRegime `json:"regime"`
	RegimeConfidence float64      `json:"regime_confidence"` // [0,1]
}
