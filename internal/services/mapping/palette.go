package mapping

import (
	"fmt"
	"strconv"

	"github.com/MetaStark/vision-IoS-sub013/internal/domain/models"
)

// neutralGray is the desaturation target for low-confidence palettes and the
// forced palette under heavy degradation.
const neutralGray = "#808080"

// MapRegime converts the regime and its confidence into visual properties.
//
// The palette is an exhaustive five-entry lookup. When confidence is below
// the confidence floor every color blends toward neutral gray proportionally
// to the confidence deficit; at confidence 0 the palette is fully gray. The
// blend is pure and order-independent (per-channel linear interpolation).
func (e *Engine) MapRegime(regime models.MarketRegime, confidence float64) models.VisualProps {
	confidence = clamp(sane(confidence, 0), 0, 1)

	pal, label := paletteFor(regime)

	saturation := 1.0
	if e.coef.ConfidenceFloor > 0 && confidence < e.coef.ConfidenceFloor {
		deficit := (e.coef.ConfidenceFloor - confidence) / e.coef.ConfidenceFloor
		saturation = clamp(1-deficit, 0, 1)
		pal = models.Palette{
			Primary:    blendToward(pal.Primary, neutralGray, deficit),
			Secondary:  blendToward(pal.Secondary, neutralGray, deficit),
			Accent:     blendToward(pal.Accent, neutralGray, deficit),
			Background: blendToward(pal.Background, neutralGray, deficit),
		}
	}

	return models.VisualProps{
		Palette:    pal,
		Label:      label,
		Saturation: saturation,
	}
}

// NeutralPalette returns the all-gray palette used by degraded levels.
func NeutralPalette() models.Palette {
	return models.Palette{
		Primary:    neutralGray,
		Secondary:  "#6e6e6e",
		Accent:     "#9a9a9a",
		Background: "#1c1c1c",
	}
}

// paletteFor is the fixed regime lookup. An undeclared regime is a
// configuration fault and maps to the crisis palette, the most defensive
// presentation, never to an undefined state.
func paletteFor(regime models.MarketRegime) (models.Palette, string) {
	switch regime {
	case models.RegimeBull:
		return models.Palette{Primary: "#1faa59", Secondary: "#36c97d", Accent: "#b4f1c6", Background: "#06140b"}, "Bull"
	case models.RegimeBear:
		return models.Palette{Primary: "#d9322e", Secondary: "#f05a4f", Accent: "#ffc2b8", Background: "#160706"}, "Bear"
	case models.RegimeSideways:
		return models.Palette{Primary: "#4a7fd4", Secondary: "#7ba3e8", Accent: "#cfdffb", Background: "#080d16"}, "Sideways"
	case models.RegimeVolatile:
		return models.Palette{Primary: "#e0a62e", Secondary: "#f2c45f", Accent: "#ffe8b0", Background: "#171105"}, "Volatile"
	case models.RegimeCrisis:
		return models.Palette{Primary: "#8e24aa", Secondary: "#b04fc4", Accent: "#e5baf0", Background: "#120616"}, "Crisis"
	default:
		p, _ := paletteFor(models.RegimeCrisis)
		return p, "Unknown"
	}
}

// blendToward linearly interpolates each channel of a #rrggbb color toward
// the target by t in [0,1]. Invalid colors collapse to the target.
func blendToward(hex, target string, t float64) string {
	t = clamp(t, 0, 1)
	r1, g1, b1, ok1 := parseHex(hex)
	r2, g2, b2, ok2 := parseHex(target)
	if !ok1 || !ok2 {
		return target
	}
	mix := func(a, b int64) int64 {
		return int64(float64(a) + (float64(b)-float64(a))*t)
	}
	return fmt.Sprintf("#%02x%02x%02x", mix(r1, r2), mix(g1, g2), mix(b1, b2))
}

func parseHex(s string) (r, g, b int64, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	var err error
	if r, err = strconv.ParseInt(s[1:3], 16, 32); err != nil {
		return 0, 0, 0, false
	}
	if g, err = strconv.ParseInt(s[3:5], 16, 32); err != nil {
		return 0, 0, 0, false
	}
	if b, err = strconv.ParseInt(s[5:7], 16, 32); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}
