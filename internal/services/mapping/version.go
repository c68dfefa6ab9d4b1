package mapping

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the declared mapping versions and the process-wide active
// tag. It is initialized once at startup and reloaded only by an out-of-band
// deployment event; an in-flight tick resolves its engine before any work
// starts and never observes a mid-tick change.
type Registry struct {
	mu       sync.RWMutex
	active   string
	versions map[string]Coefficients
}

// ErrUnknownVersion marks a replay or activation request against a version
// tag this build does not declare.
type ErrUnknownVersion struct {
	Version string
}

func (e *ErrUnknownVersion) Error() string {
	return fmt.Sprintf("unknown mapping version: %s", e.Version)
}

// VersionV1 is the initial mapping table. Any behavioral change to a mapper
// must land as a new tag, never by editing an existing table.
const VersionV1 = "vmap-1.0.0"

// VersionV1_1 adjusts the storm floor and confidence floor; kept so replay
// of vectors recorded under it stays byte-exact.
const VersionV1_1 = "vmap-1.1.0"

func declaredVersions() map[string]Coefficients {
	v1 := Coefficients{
		FlowSpeedBase:      0.1,
		FlowSpeedGain:      1.9,
		FlowBiasWeight:     0.6,
		FlowSignWeight:     0.4,
		PulseFreqBase:      0.5,
		PulseFreqGain:      3.5,
		PulseFreqCap:       4.0,
		WeatherShortWeight: 0.6,
		WeatherLongWeight:  0.4,
		StormFloor:         0.4,
		ForceRatioScale:    0.5,
		ShockThreshold:     2.0,
		ShockSpan:          3.0,
		ConfidenceFloor:    0.6,
	}
	v11 := v1
	v11.StormFloor = 0.35
	v11.ConfidenceFloor = 0.65
	return map[string]Coefficients{
		VersionV1:   v1,
		VersionV1_1: v11,
	}
}

// NewRegistry builds the registry with all declared versions and activates
// the given tag.
func NewRegistry(active string) (*Registry, error) {
	r := &Registry{versions: declaredVersions()}
	if err := r.Activate(active); err != nil {
		return nil, err
	}
	return r, nil
}

// Activate switches the process-wide active version. Ticks already in flight
// keep the engine they resolved at tick start.
func (r *Registry) Activate(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[version]; !ok {
		return &ErrUnknownVersion{Version: version}
	}
	r.active = version
	return nil
}

// Active returns the current active version tag.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Versions returns all registered version tags sorted ascending.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.versions))
	for v := range r.versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Engine returns an engine for the requested tag, or the active one when the
// tag is empty. Used by replay to pin a historical version.
func (r *Registry) Engine(version string) (*Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" {
		version = r.active
	}
	coef, ok := r.versions[version]
	if !ok {
		return nil, &ErrUnknownVersion{Version: version}
	}
	return NewEngine(version, coef), nil
}
