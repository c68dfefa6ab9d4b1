package models

import "time"

// EventType enumerates the six detectable occurrences.
type EventType string

const (
	EventSafetyChange     EventType = "SAFETY_CHANGE"
	EventRegimeShift      EventType = "REGIME_SHIFT"
	EventVolatilityStorm  EventType = "VOLATILITY_STORM"
	EventVolumeSurge      EventType = "VOLUME_SURGE"
	EventMomentumReversal EventType = "MOMENTUM_REVERSAL"
	EventTrendBreakout    EventType = "TREND_BREAKOUT"
)

// Severity is the ordered event severity. Ordering goes through Rank.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// EventRecord is one typed occurrence emitted by the detector. Immutable.
// The ID is reference identity only; the content digest of the enclosing
// vector covers the event content, not the random id.
type EventRecord struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	// DurationHint tells the rendering consumer how long to animate.
	DurationHint time.Duration `json:"duration_hint"`
	// Params carries typed string parameters (previous/next labels,
	// magnitudes preformatted by the detector) for display.
	Params map[string]string `json:"params,omitempty"`
}
