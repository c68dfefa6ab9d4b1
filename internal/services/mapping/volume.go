package mapping

import "github.com/MetaStark/vision-IoS-sub013/internal/domain/models"

// MapVolume converts volume inputs into force parameters.
//
// Density is a linear ratio mapping anchored so the baseline ratio 1.0 lands
// mid-range, bounded to [0,1]. Shock is zero at or below the shock threshold
// and then scales linearly over the shock span up to the cap of 1.0
// (v1: clamp((ratio-2.0)/3.0, 0, 1)). Monotonic in ratio.
func (e *Engine) MapVolume(ratio, strength float64) models.ForceParams {
	ratio = sane(ratio, 1)
	if ratio < 0 {
		ratio = 0
	}
	_ = clamp(sane(strength, 0), 0, 1) // strength feeds event detection, not force

	density := clamp(ratio*e.coef.ForceRatioScale, 0, 1)

	var shock float64
	if ratio > e.coef.ShockThreshold && e.coef.ShockSpan > 0 {
		shock = clamp((ratio-e.coef.ShockThreshold)/e.coef.ShockSpan, 0, 1)
	}

	return models.ForceParams{
		Density: density,
		Shock:   shock,
	}
}
