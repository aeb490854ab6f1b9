// Package preset implements the read-only preset registry (C8): named
// parameter bundles for platform distribution channels, with
// caller-override merge semantics falling back to a built-in baseline.
//
// The registry itself is a straightforward generalization of
// codec/registry.go's name-keyed, RWMutex-guarded map — the same pattern
// applied here to parameter bundles instead of Codec implementations,
// since both are "read-only mapping from name to behavior, safe to share"
// (spec.md section 5, "Shared resources").
package preset

import (
	"sort"
	"sync"

	"github.com/klyvo/iwm/wmerr"
)

// Params is an overridable parameter bundle. Nil fields mean "not set by
// this bundle" during a merge; Resolve() fills any still-nil field from the
// built-in baseline (spec.md section 4.8).
type Params struct {
	LongEdge    *int
	JPEGQuality *int
	TargetFPS   *float64
	CRF         *int
	X264Preset  *string
	QimStep     *float64
	Repetition  *int
	Parity      *int
	UseY        *bool
	FrameStep   *int
}

// Resolved is a fully-specified parameter bundle, every field defaulted.
type Resolved struct {
	LongEdge    int
	JPEGQuality int
	TargetFPS   float64
	CRF         int
	X264Preset  string
	QimStep     float64
	Repetition  int
	Parity      int
	UseY        bool
	FrameStep   int
}

// Baseline values used when neither the preset nor the caller's overrides
// specify a field (spec.md section 4.8).
const (
	baselineQimStep    = 18.0
	baselineRepetition = 120
	baselineParity     = 32
	baselineUseY       = true
)

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string    { return &v }
func boolPtr(v bool) *bool       { return &v }

// Merge returns a new Params with every field in overrides that is non-nil
// taking precedence over p's corresponding field.
func (p Params) Merge(overrides Params) Params {
	merged := p
	if overrides.LongEdge != nil {
		merged.LongEdge = overrides.LongEdge
	}
	if overrides.JPEGQuality != nil {
		merged.JPEGQuality = overrides.JPEGQuality
	}
	if overrides.TargetFPS != nil {
		merged.TargetFPS = overrides.TargetFPS
	}
	if overrides.CRF != nil {
		merged.CRF = overrides.CRF
	}
	if overrides.X264Preset != nil {
		merged.X264Preset = overrides.X264Preset
	}
	if overrides.QimStep != nil {
		merged.QimStep = overrides.QimStep
	}
	if overrides.Repetition != nil {
		merged.Repetition = overrides.Repetition
	}
	if overrides.Parity != nil {
		merged.Parity = overrides.Parity
	}
	if overrides.UseY != nil {
		merged.UseY = overrides.UseY
	}
	if overrides.FrameStep != nil {
		merged.FrameStep = overrides.FrameStep
	}
	return merged
}

// Resolve fills any unset field from the built-in baseline.
func (p Params) Resolve() Resolved {
	r := Resolved{
		QimStep:    baselineQimStep,
		Repetition: baselineRepetition,
		Parity:     baselineParity,
		UseY:       baselineUseY,
	}
	if p.LongEdge != nil {
		r.LongEdge = *p.LongEdge
	}
	if p.JPEGQuality != nil {
		r.JPEGQuality = *p.JPEGQuality
	}
	if p.TargetFPS != nil {
		r.TargetFPS = *p.TargetFPS
	}
	if p.CRF != nil {
		r.CRF = *p.CRF
	}
	if p.X264Preset != nil {
		r.X264Preset = *p.X264Preset
	}
	if p.QimStep != nil {
		r.QimStep = *p.QimStep
	}
	if p.Repetition != nil {
		r.Repetition = *p.Repetition
	}
	if p.Parity != nil {
		r.Parity = *p.Parity
	}
	if p.UseY != nil {
		r.UseY = *p.UseY
	}
	if p.FrameStep != nil {
		r.FrameStep = *p.FrameStep
	}
	return r
}

type registry struct {
	mu      sync.RWMutex
	presets map[string]Params
}

var defaultRegistry = &registry{presets: make(map[string]Params)}

func register(name string, p Params) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.presets[name] = p
}

// Get retrieves a preset's parameter bundle by name.
func Get(name string) (Params, error) {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	p, ok := defaultRegistry.presets[name]
	if !ok {
		return Params{}, wmerr.New(wmerr.InvalidInput, "unknown preset: "+name)
	}
	return p, nil
}

// Names returns the closed set of registered preset names, sorted.
func Names() []string {
	defaultRegistry.mu.RLock()
	defer defaultRegistry.mu.RUnlock()
	names := make([]string, 0, len(defaultRegistry.presets))
	for n := range defaultRegistry.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve looks up name and merges overrides on top of it, falling back to
// the built-in baseline for anything still unset.
func Resolve(name string, overrides Params) (Resolved, error) {
	base, err := Get(name)
	if err != nil {
		return Resolved{}, err
	}
	return base.Merge(overrides).Resolve(), nil
}

func init() {
	register("original", Params{
		JPEGQuality: intPtr(95),
		QimStep:     floatPtr(10),
		Repetition:  intPtr(40),
		Parity:      intPtr(24),
		UseY:        boolPtr(true),
	})
	register("facebook", Params{
		LongEdge:    intPtr(1280),
		JPEGQuality: intPtr(85),
		TargetFPS:   floatPtr(30),
		CRF:         intPtr(23),
		X264Preset:  strPtr("medium"),
		QimStep:     floatPtr(16),
		Repetition:  intPtr(80),
		Parity:      intPtr(48),
		UseY:        boolPtr(true),
		FrameStep:   intPtr(2),
	})
	register("whatsapp", Params{
		LongEdge:    intPtr(960),
		JPEGQuality: intPtr(75),
		TargetFPS:   floatPtr(30),
		CRF:         intPtr(28),
		X264Preset:  strPtr("fast"),
		QimStep:     floatPtr(20),
		Repetition:  intPtr(100),
		Parity:      intPtr(48),
		UseY:        boolPtr(true),
		FrameStep:   intPtr(3),
	})
	register("instagram", Params{
		LongEdge:    intPtr(1080),
		JPEGQuality: intPtr(85),
		TargetFPS:   floatPtr(30),
		CRF:         intPtr(23),
		X264Preset:  strPtr("medium"),
		QimStep:     floatPtr(18),
		Repetition:  intPtr(90),
		Parity:      intPtr(48),
		UseY:        boolPtr(true),
		FrameStep:   intPtr(2),
	})
	register("x_twitter", Params{
		LongEdge:    intPtr(1280),
		JPEGQuality: intPtr(82),
		TargetFPS:   floatPtr(30),
		CRF:         intPtr(25),
		X264Preset:  strPtr("medium"),
		QimStep:     floatPtr(16),
		Repetition:  intPtr(80),
		Parity:      intPtr(48),
		UseY:        boolPtr(true),
		FrameStep:   intPtr(2),
	})
}
