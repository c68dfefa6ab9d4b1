package mapping

import "github.com/MetaStark/vision-IoS-sub013/internal/domain/models"

// MapTrend converts trend inputs into flow parameters.
//
// Speed is linear in strength and bounded to [base, base+gain] ([0.1,2.0] in
// v1). Direction blends the directional bias with the sign of the secondary
// signal and is clamped to [-1,1]. Monotonic in strength and in bias.
func (e *Engine) MapTrend(strength, bias, secondary float64) models.FlowParams {
	strength = clamp(sane(strength, 0), 0, 1)
	bias = clamp(sane(bias, 0), -1, 1)

	speed := e.coef.FlowSpeedBase + e.coef.FlowSpeedGain*strength
	speed = clamp(speed, e.coef.FlowSpeedBase, e.coef.FlowSpeedBase+e.coef.FlowSpeedGain)

	dir := e.coef.FlowBiasWeight*bias + e.coef.FlowSignWeight*sign(secondary)

	return models.FlowParams{
		Speed:     speed,
		Direction: clamp(dir, -1, 1),
	}
}
