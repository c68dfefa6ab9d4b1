package mapping

import (
	"math"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// MapMomentum converts oscillator inputs into pulse parameters.
//
// Amplitude is the 0.5/0.5 weighted distance-from-neutral of the two
// oscillators (neutral = 0.5, distance scaled so a pinned oscillator
// contributes 1.0), bounded to [0,1]. Frequency is linear in |rateOfChange|
// and bounded to [0.5,4.0]. Monotonic in distance-from-neutral and in |roc|.
func (e *Engine) MapMomentum(oscFast, oscSlow, roc float64) models.PulseParams {
	oscFast = clamp(sane(oscFast, 0.5), 0, 1)
	oscSlow = clamp(sane(oscSlow, 0.5), 0, 1)
	roc = clamp(sane(roc, 0), -1, 1)

	distFast := math.Abs(oscFast-0.5) * 2
	distSlow := math.Abs(oscSlow-0.5) * 2
	amp := clamp(0.5*distFast+0.5*distSlow, 0, 1)

	freq := e.coef.PulseFreqBase + e.coef.PulseFreqGain*math.Abs(roc)

	return models.PulseParams{
		Amplitude: amp,
		Frequency: clamp(freq, e.coef.PulseFreqBase, e.coef.PulseFreqCap),
	}
}
