package models

import "time"

// FlowParams drives the trend flow layer. Speed is bounded to [0.1,2.0],
// Direction to [-1,1].
type FlowParams struct {
	Speed     float64 `json:"speed"`
	Direction float64 `json:"direction"`
}

// PulseParams drives the momentum pulse layer. Amplitude is bounded to [0,1],
// Frequency to [0.5,4.0] (0.5 is also the frozen value under degradation).
type PulseParams struct {
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency"`
}

// WeatherParams drives the volatility weather layer. Density and Storm are
// bounded to [0,1], Turbulence takes the four lookup values only.
type WeatherParams struct {
	Density    float64 `json:"density"`
	Turbulence float64 `json:"turbulence"`
	Storm      float64 `json:"storm"`
}

// ForceParams drives the volume force layer. Density and Shock are bounded
// to [0,1].
type ForceParams struct {
	Density float64 `json:"density"`
	Shock   float64 `json:"shock"`
}

// Palette is a regime color quadruple. Colors are lowercase #rrggbb strings.
type Palette struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

// VisualProps is the regime-derived presentation block. Overlay is empty
// unless degradation forces a message; Saturation is bounded to [0,1].
type VisualProps struct {
	Palette    Palette `json:"palette"`
	Label      string  `json:"label"`
	Saturation float64 `json:"saturation"`
	Overlay    string  `json:"overlay,omitempty"`
}

// DegradedAll is the sentinel entry used when the whole payload is degraded.
const DegradedAll = "all"

// StateVector is the signed, versioned output of one synthesis tick. It is
// immutable once assembled; corrections are new vectors with new ids. The
// digest and signature cover every other field in a fixed canonical order.
type StateVector struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	Timestamp time.Time `json:"timestamp"`

	MarketSnapshotID string `json:"market_snapshot_id"`
	IndicatorSetID   string `json:"indicator_set_id"`

	// Dimension parameter sets. Nil means nulled by degradation.
	Flow    *FlowParams    `json:"flow"`
	Pulse   *PulseParams   `json:"pulse"`
	Weather *WeatherParams `json:"weather"`
	Force   *ForceParams   `json:"force"`

	Visual *VisualProps `json:"visual"`

	Events []EventRecord `json:"events"`

	SafetyLevel    SafetyLevel `json:"safety_level"`
	DegradedFields []string    `json:"degraded_fields"`

	MappingVersion string `json:"mapping_version"`

	Digest    string `json:"digest"`
	Signature string `json:"signature"`
	SignerID  string `json:"signer_id"`
}
