package supervise

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultEventsEstimate is used when a phase declares no explicit event
// estimate and no usable capture-group value can be extracted.
const DefaultEventsEstimate = 50

// SubPhaseConfig declares a strictly-ordered division inside a phase.
type SubPhaseConfig struct {
	// Label is shown while this sub-phase is the active one.
	Label string `mapstructure:"label" yaml:"label"`

	// EnterPattern is a regular expression matched by substring search
	// against each output line; a match enters this sub-phase.
	EnterPattern string `mapstructure:"enter-pattern" yaml:"enter-pattern"`

	// Weight is this sub-phase's share of the parent phase (0-100).
	Weight int `mapstructure:"weight" yaml:"weight"`
}

// PhaseConfig declares a named, weighted stretch of execution entered and
// exited by matching patterns against streamed output lines.
type PhaseConfig struct {
	Label string `mapstructure:"label" yaml:"label"`

	// EnterPattern activates the phase. Required.
	EnterPattern string `mapstructure:"enter-pattern" yaml:"enter-pattern"`

	// ExitPattern completes the phase. Optional; a phase without an exit
	// pattern completes when the command finishes.
	ExitPattern string `mapstructure:"exit-pattern" yaml:"exit-pattern"`

	// ProgressPattern counts one progress event per matching line while
	// the phase is active. Optional.
	ProgressPattern string `mapstructure:"progress-pattern" yaml:"progress-pattern"`

	// Weight is this phase's share of the command (0-100). The remainder
	// after all declared phases implicitly belongs to the default phase.
	Weight int `mapstructure:"weight" yaml:"weight"`

	// Phases are optional ordered sub-phases sharing this phase's budget.
	Phases []SubPhaseConfig `mapstructure:"phases" yaml:"phases"`

	// ProgressEventsEstimate is the expected number of progress events.
	// Zero means unset.
	ProgressEventsEstimate int `mapstructure:"progress-events-estimate" yaml:"progress-events-estimate"`

	// ProgressEventsEstimateCaptureGroup extracts the estimate from the
	// numbered capture group of EnterPattern on activation. Zero means
	// unset; group numbering starts at 1.
	ProgressEventsEstimateCaptureGroup int `mapstructure:"progress-events-estimate-capture-group" yaml:"progress-events-estimate-capture-group"`
}

// DefaultPhaseConfig declares the floor state that is active whenever no
// declared phase is.
type DefaultPhaseConfig struct {
	Label string `mapstructure:"label" yaml:"label"`

	// ProgressPattern counts one progress event per matching line.
	ProgressPattern string `mapstructure:"progress-pattern" yaml:"progress-pattern"`

	// ProgressEventsEstimate is the expected number of progress events.
	// Zero means unset.
	ProgressEventsEstimate int `mapstructure:"progress-events-estimate" yaml:"progress-events-estimate"`

	// ProgressEventsEstimateDynamicSource names an externally computed
	// value (e.g. "plan.to_mutate") injected as the estimate before the
	// command starts. Resolution happens in the engine factory; the state
	// machine only ever sees the resolved override.
	ProgressEventsEstimateDynamicSource string `mapstructure:"progress-events-estimate-dynamic-source" yaml:"progress-events-estimate-dynamic-source"`
}

// SubPhase is the runtime state of one SubPhaseConfig.
type SubPhase struct {
	cfg     SubPhaseConfig
	enterRe *regexp.Regexp

	// share is the fraction of the parent phase granted on completion.
	share float64
}

// Label returns the sub-phase display label.
func (s *SubPhase) Label() string { return s.cfg.Label }

// EvaluateEnter reports whether line enters this sub-phase.
func (s *SubPhase) EvaluateEnter(line string) bool {
	return s.enterRe.MatchString(line)
}

// Phase is the runtime state of one PhaseConfig. A Phase is mutated only by
// the single goroutine driving the output parse loop; it needs no locking.
//
// All rewards are returned as percentage points on the command-local 0-100
// scale, already multiplied by the scale factor supplied at construction.
type Phase struct {
	cfg         PhaseConfig
	scaleFactor float64

	// barRatio converts a phase-internal fraction (0..1) into
	// command-local percentage points.
	barRatio float64

	enterRe    *regexp.Regexp
	exitRe     *regexp.Regexp
	progressRe *regexp.Regexp

	subPhases      []*SubPhase
	totalSubWeight int

	// eventFraction is the phase-internal fraction granted per counted
	// progress event. Recomputed once on activation when a capture-group
	// estimate is configured.
	eventFraction float64

	active    bool
	completed bool
	subIndex  int

	// progress is the earned fraction of this phase, clamped to [0,1].
	progress float64
}

// NewPhase compiles the configured patterns and returns the runtime phase.
// scaleFactor scales every granted reward; pass 1 for a standalone command.
func NewPhase(cfg PhaseConfig, scaleFactor float64) (*Phase, error) {
	if cfg.EnterPattern == "" {
		return nil, fmt.Errorf("phase %q: %w: enter pattern is required", cfg.Label, ErrInvalidConfig)
	}

	p := &Phase{
		cfg:         cfg,
		scaleFactor: scaleFactor,
		barRatio:    float64(min(cfg.Weight, 100)) / 100 * scaleFactor,
		subIndex:    -1,
	}

	var err error
	if p.enterRe, err = regexp.Compile(cfg.EnterPattern); err != nil {
		return nil, fmt.Errorf("phase %q: %w: enter pattern: %v", cfg.Label, ErrInvalidConfig, err)
	}
	if cfg.ExitPattern != "" {
		if p.exitRe, err = regexp.Compile(cfg.ExitPattern); err != nil {
			return nil, fmt.Errorf("phase %q: %w: exit pattern: %v", cfg.Label, ErrInvalidConfig, err)
		}
	}
	if cfg.ProgressPattern != "" {
		if p.progressRe, err = regexp.Compile(cfg.ProgressPattern); err != nil {
			return nil, fmt.Errorf("phase %q: %w: progress pattern: %v", cfg.Label, ErrInvalidConfig, err)
		}
	}

	for _, sc := range cfg.Phases {
		p.totalSubWeight += sc.Weight
	}
	if p.totalSubWeight > 100 {
		return nil, fmt.Errorf("phase %q: %w: sub-phase weights sum to %d, must be <= 100",
			cfg.Label, ErrInvalidConfig, p.totalSubWeight)
	}
	for _, sc := range cfg.Phases {
		re, err := regexp.Compile(sc.EnterPattern)
		if err != nil {
			return nil, fmt.Errorf("sub-phase %q: %w: enter pattern: %v", sc.Label, ErrInvalidConfig, err)
		}
		p.subPhases = append(p.subPhases, &SubPhase{
			cfg:     sc,
			enterRe: re,
			share:   float64(sc.Weight) / 100,
		})
	}

	p.eventFraction = p.fractionPerEvent(cfg.ProgressEventsEstimate)
	return p, nil
}

// fractionPerEvent divides the budget left after sub-phases across the
// estimated event count. A non-positive estimate falls back to the default.
func (p *Phase) fractionPerEvent(estimate int) float64 {
	if estimate <= 0 {
		estimate = DefaultEventsEstimate
	}
	return float64(100-p.totalSubWeight) / (100 * float64(estimate))
}

// Label returns the active sub-phase label when one is active, otherwise the
// phase label.
func (p *Phase) Label() string {
	if p.subIndex >= 0 && p.subIndex < len(p.subPhases) {
		return p.subPhases[p.subIndex].Label()
	}
	return p.cfg.Label
}

// Weight returns the declared weight.
func (p *Phase) Weight() int { return p.cfg.Weight }

// IsActive reports whether the phase has entered and not yet completed.
func (p *Phase) IsActive() bool { return p.active }

// IsCompleted reports whether the phase has completed.
func (p *Phase) IsCompleted() bool { return p.completed }

// FullReward returns the total points this phase grants over its lifetime.
func (p *Phase) FullReward() float64 { return p.barRatio * 100 }

// AccumulatedReward returns the points granted so far. It never exceeds
// FullReward.
func (p *Phase) AccumulatedReward() float64 { return p.progress * p.barRatio * 100 }

// RewardPerEvent returns the points granted per counted progress event,
// before the phase weight is applied.
func (p *Phase) RewardPerEvent() float64 {
	return p.eventFraction * 100 * p.scaleFactor
}

// EvaluateEnter fires at most once: it reports whether line activates the
// phase. On activation, a configured capture-group estimate is resolved from
// the match; an out-of-range group or a non-numeric capture degrades to the
// default estimate rather than failing the run.
func (p *Phase) EvaluateEnter(line string) bool {
	if p.active || p.completed {
		return false
	}
	m := p.enterRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.active = true

	if p.cfg.ProgressEventsEstimate == 0 && p.cfg.ProgressEventsEstimateCaptureGroup > 0 {
		estimate := 0
		if g := p.cfg.ProgressEventsEstimateCaptureGroup; g < len(m) {
			if n, err := strconv.Atoi(m[g]); err == nil {
				estimate = n
			}
		}
		p.eventFraction = p.fractionPerEvent(estimate)
	}
	return true
}

// EvaluateExit reports whether line exits the phase. Only fires while active.
func (p *Phase) EvaluateExit(line string) bool {
	return p.active && p.exitRe != nil && p.exitRe.MatchString(line)
}

// EvaluateProgress reports whether line counts as one progress event. Only
// fires while active.
func (p *Phase) EvaluateProgress(line string) bool {
	return p.active && p.progressRe != nil && p.progressRe.MatchString(line)
}

// EvaluateNextSubPhase reports whether line enters the next sub-phase in
// declaration order. Sub-phases are strictly ordered: only the immediate
// successor of the current one is ever tested.
func (p *Phase) EvaluateNextSubPhase(line string) bool {
	if !p.active || len(p.subPhases) == 0 {
		return false
	}
	next := p.subIndex + 1
	if next >= len(p.subPhases) {
		return false
	}
	return p.subPhases[next].EvaluateEnter(line)
}

// grant adds frac to the earned fraction, clamped to 1, and returns the
// resulting reward delta in command-local points.
func (p *Phase) grant(frac float64) float64 {
	before := p.progress
	p.progress += frac
	if p.progress > 1 {
		p.progress = 1
	}
	return (p.progress - before) * 100 * p.barRatio
}

// CompleteProgressEvent grants exactly one event reward and returns it.
func (p *Phase) CompleteProgressEvent() float64 {
	return p.grant(p.eventFraction)
}

// CompleteSubPhase grants the full reward of the current sub-phase and
// advances to the next one. When no sub-phase is active yet the call is a
// reward no-op that still advances the index once, so the first sub-phase
// entry costs nothing.
func (p *Phase) CompleteSubPhase() float64 {
	if p.subIndex < 0 || p.subIndex >= len(p.subPhases) {
		p.subIndex++
		return 0
	}
	delta := p.grant(p.subPhases[p.subIndex].share)
	p.subIndex++
	return delta
}

// Complete marks the phase inactive and completed and returns the top-up
// needed to reach FullReward exactly. The result is never negative.
func (p *Phase) Complete() float64 {
	if p.completed {
		return 0
	}
	p.active = false
	p.completed = true
	return p.grant(1 - p.progress)
}

// DefaultPhase tracks progress while no declared phase is active. It exposes
// the same progress and completion surface as Phase but has no enter, exit,
// or sub-phase concept.
type DefaultPhase struct {
	cfg        DefaultPhaseConfig
	barRatio   float64
	progressRe *regexp.Regexp

	eventFraction float64
	progress      float64
}

// NewDefaultPhase builds the runtime default phase. weight is the share of
// the command not claimed by declared phases (0-100). overrideEstimate, when
// positive, wins over the configured estimate; it carries a value computed by
// an earlier pipeline step (for example a plan's resource count).
func NewDefaultPhase(cfg DefaultPhaseConfig, weight int, overrideEstimate int) (*DefaultPhase, error) {
	if cfg.ProgressPattern == "" {
		return nil, fmt.Errorf("default phase %q: %w: progress pattern is required", cfg.Label, ErrInvalidConfig)
	}
	re, err := regexp.Compile(cfg.ProgressPattern)
	if err != nil {
		return nil, fmt.Errorf("default phase %q: %w: progress pattern: %v", cfg.Label, ErrInvalidConfig, err)
	}

	estimate := DefaultEventsEstimate
	switch {
	case overrideEstimate > 0:
		estimate = overrideEstimate
	case cfg.ProgressEventsEstimate > 0:
		estimate = cfg.ProgressEventsEstimate
	}

	return &DefaultPhase{
		cfg:           cfg,
		barRatio:      float64(min(weight, 100)) / 100,
		progressRe:    re,
		eventFraction: 1 / float64(estimate),
	}, nil
}

// Label returns the default phase display label.
func (d *DefaultPhase) Label() string { return d.cfg.Label }

// FullReward returns the total points the default phase can grant.
func (d *DefaultPhase) FullReward() float64 { return d.barRatio * 100 }

// AccumulatedReward returns the points granted so far.
func (d *DefaultPhase) AccumulatedReward() float64 { return d.progress * d.barRatio * 100 }

// EvaluateProgress reports whether line counts as one progress event.
func (d *DefaultPhase) EvaluateProgress(line string) bool {
	return d.progressRe.MatchString(line)
}

// CompleteProgressEvent grants one event reward and returns it.
func (d *DefaultPhase) CompleteProgressEvent() float64 {
	before := d.progress
	d.progress += d.eventFraction
	if d.progress > 1 {
		d.progress = 1
	}
	return (d.progress - before) * 100 * d.barRatio
}

// Complete returns the top-up needed to reach FullReward exactly.
func (d *DefaultPhase) Complete() float64 {
	before := d.progress
	d.progress = 1
	return (1 - before) * 100 * d.barRatio
}
