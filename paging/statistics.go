package paging

// Statistics holds the counters of one run. All counters only grow until the
// run is reset.
type Statistics struct {
	Hits          uint64 `json:"hits"`
	Faults        uint64 `json:"faults"`
	SwapOuts      uint64 `json:"swap_outs"`
	SwapIns       uint64 `json:"swap_ins"`
	TotalAccesses uint64 `json:"total_accesses"`
}

// Record counts one resolved reference. A miss is always a swap-in; it is
// also a swap-out when an occupied frame had to be reclaimed.
func (s *Statistics) Record(outcome Outcome, evicted bool) {
	s.TotalAccesses++

	switch outcome {
	case Hit:
		s.Hits++
	case Miss:
		s.Faults++
		s.SwapIns++

		if evicted {
			s.SwapOuts++
		}
	}
}

// HitRatePercent returns hits over total accesses in percent, or 0 when
// nothing has been accessed.
func (s Statistics) HitRatePercent() float64 {
	return percent(s.Hits, s.TotalAccesses)
}

// FaultRatePercent returns faults over total accesses in percent.
func (s Statistics) FaultRatePercent() float64 {
	return percent(s.Faults, s.TotalAccesses)
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}

	return float64(n) / float64(total) * 100
}
