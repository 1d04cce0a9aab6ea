package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/sarchlab/swapstore/sim"
)

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// WriteStatistics writes the configuration and the counters of a snapshot as
// Metric,Value rows.
func WriteStatistics(w io.Writer, s sim.Snapshot) error {
	stats := s.Statistics

	rows := [][]string{
		{"Metric", "Value"},
		{"RAM Size (KB)", formatUint(s.RAMCapacityBytes / 1024)},
		{"Number of Frames", strconv.Itoa(len(s.Frames))},
		{"Algorithm", s.Policy.String()},
		{"Total Page Accesses", formatUint(stats.TotalAccesses)},
		{"Page Faults", formatUint(stats.Faults)},
		{"Page Hits", formatUint(stats.Hits)},
		{"Hit Rate (%)", formatPercent(stats.HitRatePercent())},
		{"Fault Rate (%)", formatPercent(stats.FaultRatePercent())},
		{"Swap Outs", formatUint(stats.SwapOuts)},
		{"Swap Ins", formatUint(stats.SwapIns)},
		{"Files Loaded", strconv.Itoa(len(s.Descriptors))},
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}

	return cw.Error()
}

// WriteComparison writes one row per summary.
func WriteComparison(w io.Writer, summaries []sim.Summary) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{
		"Policy", "Page Faults", "Page Hits", "Swap Outs", "Swap Ins",
		"Total Page Accesses", "Hit Rate (%)", "Duration (us)",
	})
	if err != nil {
		return err
	}

	for _, s := range summaries {
		err = cw.Write([]string{
			s.Policy.String(),
			formatUint(s.Faults),
			formatUint(s.Hits),
			formatUint(s.SwapOuts),
			formatUint(s.SwapIns),
			formatUint(s.TotalAccesses),
			formatPercent(s.HitRatePercent),
			strconv.FormatInt(s.Duration.Microseconds(), 10),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// FileName returns the name an export made at t is saved under.
func FileName(kind string, ext string, c Compression, t time.Time) string {
	return "swapstore-" + kind + "-" +
		strconv.FormatInt(t.UnixMilli(), 10) + ext + c.Extension()
}
