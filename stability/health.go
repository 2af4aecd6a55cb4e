package stability

// HealthStatus classifies the bounded EMA a HealthReport tracks.
type HealthStatus int

const (
	Healthy HealthStatus = iota
	Degraded
	Unhealthy
)

func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// HealthReport is a rolling EMA of the GC pipeline's retained/processed
// ratio: a healthy engine keeps most of what it scans, so a falling
// ratio is itself a leading indicator, well before the lineage's own
// observable energy decays. engine.Engine.Tick folds each GC pass into
// it; the engine does not restimulate _system.health from the report
// and does not use PulseTracker. Grounded on
// original_source/src/stability/health.rs.
type HealthReport struct {
	Alpha       float64 // EMA smoothing factor, in (0, 1]
	PulseAmount float64
	ratio       float64
	seen        bool
}

// NewHealthReport builds a report with the given EMA alpha and the
// self-stimulation pulse amount applied to _system.health on each pulse.
func NewHealthReport(alpha, pulseAmount float64) *HealthReport {
	return &HealthReport{Alpha: alpha, PulseAmount: pulseAmount}
}

// Observe folds one GC pass's retained/processed ratio into the EMA.
// A pass with zero processed lineages is ignored (nothing to learn).
func (h *HealthReport) Observe(retained, processed int) {
	if processed == 0 {
		return
	}
	sample := float64(retained) / float64(processed)
	if !h.seen {
		h.ratio = sample
		h.seen = true
		return
	}
	h.ratio += h.Alpha * (sample - h.ratio)
}

// Ratio returns the current EMA retained/processed ratio.
func (h *HealthReport) Ratio() float64 { return h.ratio }

// Status derives a HealthStatus from the current ratio, mirroring
// HealthStatus::from_energy's thresholds in the Rust original.
func (h *HealthReport) Status() HealthStatus {
	switch {
	case h.ratio > 0.7:
		return Healthy
	case h.ratio > 0.3:
		return Degraded
	default:
		return Unhealthy
	}
}

// PulseTracker times periodic self-stimulation of _system.health,
// firing every interval ticks.
type PulseTracker struct {
	Interval uint64
	counter  uint64
}

// NewPulseTracker builds a tracker firing every interval ticks.
func NewPulseTracker(interval uint64) *PulseTracker {
	return &PulseTracker{Interval: interval}
}

// ShouldPulse advances the internal counter and reports whether this
// tick should fire a self-stimulation pulse, resetting the counter
// when it does.
func (p *PulseTracker) ShouldPulse() bool {
	p.counter++
	if p.counter >= p.Interval {
		p.counter = 0
		return true
	}
	return false
}
