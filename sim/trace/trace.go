package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelHops captures every forwarding decision and packet outcome.
	TraceLevelHops TraceLevel = "hops"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone: true,
	TraceLevelHops: true,
	"":             true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a packet simulation.
type SimulationTrace struct {
	Config   TraceConfig
	Hops     []HopRecord
	Outcomes []OutcomeRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:   config,
		Hops:     make([]HopRecord, 0),
		Outcomes: make([]OutcomeRecord, 0),
	}
}

// Enabled reports whether records are kept. Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelHops
}

// RecordHop appends a forwarding decision record.
func (st *SimulationTrace) RecordHop(record HopRecord) {
	if !st.Enabled() {
		return
	}
	st.Hops = append(st.Hops, record)
}

// RecordOutcome appends a terminal packet record.
func (st *SimulationTrace) RecordOutcome(record OutcomeRecord) {
	if !st.Enabled() {
		return
	}
	st.Outcomes = append(st.Outcomes, record)
}
