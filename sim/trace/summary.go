package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int
	Delivered      int
	Failed         int
	MeanHops       float64 // over delivered packets
	MaxHops        int
	ErrorKinds     map[string]int // error kind → count of failed packets
	DeviceTraffic  map[string]int // device ID → forwarding decisions taken there
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ErrorKinds:    make(map[string]int),
		DeviceTraffic: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Hops)
	for _, h := range st.Hops {
		summary.DeviceTraffic[h.DeviceID]++
	}

	totalHops := 0
	for _, o := range st.Outcomes {
		if o.Status == "received" {
			summary.Delivered++
			totalHops += o.Hops()
			if o.Hops() > summary.MaxHops {
				summary.MaxHops = o.Hops()
			}
		} else {
			summary.Failed++
			summary.ErrorKinds[o.Error]++
		}
	}
	if summary.Delivered > 0 {
		summary.MeanHops = float64(totalHops) / float64(summary.Delivered)
	}

	return summary
}
