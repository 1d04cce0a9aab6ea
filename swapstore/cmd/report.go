package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sarchlab/swapstore/kvstore"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/tracing"
)

func printSnapshot(w io.Writer, s sim.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Simulation:\t%s\n", s.ID)
	fmt.Fprintf(tw, "State:\t%s\n", s.State)
	fmt.Fprintf(tw, "Policy:\t%s\n", s.Policy)
	fmt.Fprintf(tw, "Frames:\t%d\n", len(s.Frames))
	fmt.Fprintf(tw, "Progress:\t%d/%d\n", s.Cursor, s.WorkloadLength)
	fmt.Fprintf(tw, "Page Faults:\t%d\n", s.Statistics.Faults)
	fmt.Fprintf(tw, "Page Hits:\t%d\n", s.Statistics.Hits)
	fmt.Fprintf(tw, "Hit Rate:\t%.2f%%\n", s.HitRatePercent)
	fmt.Fprintf(tw, "Fault Rate:\t%.2f%%\n", s.FaultRatePercent)
	fmt.Fprintf(tw, "Swap Outs:\t%d\n", s.Statistics.SwapOuts)
	fmt.Fprintf(tw, "Swap Ins:\t%d\n", s.Statistics.SwapIns)
	fmt.Fprintf(tw, "RAM Used:\t%d/%d bytes\n",
		s.UsedBytes, s.RAMCapacityBytes)

	tw.Flush()
}

func printOwnerCounts(w io.Writer, counts []tracing.OwnerCount) {
	if len(counts) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "\nOwner\tHits\tFaults\tEvictions")
	for _, c := range counts {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n",
			c.Owner, c.Hits, c.Faults, c.Evictions)
	}

	tw.Flush()
}

func printStep(w io.Writer, r sim.StepResult) {
	fmt.Fprintf(w, "%4d  %-4s  owner %d page %d -> frame %d",
		r.Index, r.Outcome, r.Reference.OwnerID, r.Reference.PageNumber,
		r.Slot)

	if r.HasEvicted {
		fmt.Fprintf(w, "  evicted %s", r.Evicted)
	}

	fmt.Fprintln(w)
}

// allMetrics are the metrics a comparison reports a winner for by default.
var allMetrics = []sim.Metric{
	sim.MetricFaults, sim.MetricHitRate, sim.MetricDuration,
}

func printComparison(
	w io.Writer,
	summaries []sim.Summary,
	metrics []sim.Metric,
) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Policy\tFaults\tHits\tSwap Outs\tHit Rate\tDuration")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\t%s\n",
			s.Policy, s.Faults, s.Hits, s.SwapOuts, s.HitRatePercent,
			s.Duration)
	}

	tw.Flush()

	for _, m := range metrics {
		if best, ok := sim.Best(summaries, m); ok {
			fmt.Fprintf(w, "Best by %s: %s\n", m, best.Policy)
		}
	}
}

func printKVStatus(w io.Writer, st kvstore.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Policy:\t%s\n", st.Policy)
	fmt.Fprintf(tw, "Primary:\t%d/%d pages\n", st.PrimaryUsed, st.PrimaryCapacity)
	fmt.Fprintf(tw, "Secondary:\t%d pages\n", st.SecondaryUsed)
	fmt.Fprintf(tw, "Operations:\t%d\n", st.TotalOperations)
	fmt.Fprintf(tw, "Page Faults:\t%d\n", st.PageFaults)
	fmt.Fprintf(tw, "Hit Rate:\t%.2f%%\n", st.HitRatePercent)
	fmt.Fprintf(tw, "Swap Outs:\t%d\n", st.SwapOuts)

	if len(st.PrimaryPages)+len(st.SecondaryPages) > 0 {
		fmt.Fprintln(tw, "\nTier\tID\tKey\tSize\tAccesses")

		for _, p := range st.PrimaryPages {
			fmt.Fprintf(tw, "primary\t%d\t%s\t%d\t%d\n",
				p.ID, p.Key, p.Size, p.AccessCount)
		}

		for _, p := range st.SecondaryPages {
			fmt.Fprintf(tw, "secondary\t%d\t%s\t%d\t%d\n",
				p.ID, p.Key, p.Size, p.AccessCount)
		}
	}

	tw.Flush()
}

func printRecording(w io.Writer, rec tracing.Recording) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Run\tSession\tPolicy\tSteps\tHits\tFaults\tEvictions")
	for _, s := range rec.Sessions {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\n",
			s.RunID, s.Session, s.Policy, s.Steps, s.Hits, s.Faults,
			s.Evictions)
	}

	tw.Flush()

	for _, b := range rec.Comparisons {
		fmt.Fprintf(w, "\nComparison %d of %s\n", b.Batch, b.RunID)

		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "Policy\tFaults\tHits\tSwap Outs\tHit Rate\tDuration")

		for _, r := range b.Rows {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\t%s\n",
				r.Policy, r.Faults, r.Hits, r.SwapOuts, r.HitRatePercent,
				time.Duration(r.DurationNS))
		}

		tw.Flush()
	}

	fmt.Fprintf(w, "\nTransitions: %d\n", rec.Transitions)
}
