package mapping

import "github.com/MetaStark/vision-IoS-sub013/internal/domain/models"

// MapVolatility converts volatility inputs into weather parameters.
//
// Density is a weighted blend of the short and long volatility percentiles,
// bounded to [0,1]. Turbulence is an exhaustive 4-bucket lookup. Storm is
// zero unless the bucket is HIGH or EXTREME and then ramps linearly with
// density above the storm floor, bounded to [0,1]. Monotonic in both
// percentiles.
func (e *Engine) MapVolatility(pShort, pLong float64, regime models.VolatilityRegime) models.WeatherParams {
	pShort = clamp(sane(pShort, 0), 0, 1)
	pLong = clamp(sane(pLong, 0), 0, 1)

	density := clamp(e.coef.WeatherShortWeight*pShort+e.coef.WeatherLongWeight*pLong, 0, 1)

	var storm float64
	switch regime {
	case models.VolHigh, models.VolExtreme:
		span := 1 - e.coef.StormFloor
		if span > 0 {
			storm = clamp((density-e.coef.StormFloor)/span, 0, 1)
		}
	}

	return models.WeatherParams{
		Density:    density,
		Turbulence: turbulenceFor(regime),
		Storm:      storm,
	}
}

// turbulenceFor is the fixed volatility-bucket lookup. An undeclared bucket
// is a configuration fault and maps to the EXTREME value, never to a silent
// default below it.
func turbulenceFor(regime models.VolatilityRegime) float64 {
	switch regime {
	case models.VolLow:
		return 0.1
	case models.VolNormal:
		return 0.3
	case models.VolHigh:
		return 0.6
	case models.VolExtreme:
		return 0.9
	default:
		return 0.9
	}
}
