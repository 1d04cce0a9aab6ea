package sim

import (
	"fmt"
	"strings"
	"time"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
)

// A Summary is the result of replaying the whole workload under one policy.
type Summary struct {
	Policy         replacement.Kind `json:"policy"`
	Faults         uint64           `json:"faults"`
	Hits           uint64           `json:"hits"`
	SwapOuts       uint64           `json:"swap_outs"`
	SwapIns        uint64           `json:"swap_ins"`
	TotalAccesses  uint64           `json:"total_accesses"`
	HitRatePercent float64          `json:"hit_rate_percent"`
	Duration       time.Duration    `json:"duration"`
}

func summarize(
	kind replacement.Kind,
	stats paging.Statistics,
	d time.Duration,
) Summary {
	return Summary{
		Policy:         kind,
		Faults:         stats.Faults,
		Hits:           stats.Hits,
		SwapOuts:       stats.SwapOuts,
		SwapIns:        stats.SwapIns,
		TotalAccesses:  stats.TotalAccesses,
		HitRatePercent: stats.HitRatePercent(),
		Duration:       d,
	}
}

type checkpoint struct {
	frames *paging.FrameTable
	swap   *paging.SecondaryStore
	stats  paging.Statistics
	policy replacement.Policy
	cursor int
	clock  uint64
}

func (c *Controller) save() checkpoint {
	return checkpoint{
		frames: c.frames,
		swap:   c.swap,
		stats:  c.stats,
		policy: c.policy,
		cursor: c.cursor,
		clock:  c.clock,
	}
}

func (c *Controller) restore(cp checkpoint) {
	c.frames = cp.frames
	c.swap = cp.swap
	c.stats = cp.stats
	c.policy = cp.policy
	c.cursor = cp.cursor
	c.clock = cp.clock
}

// Compare replays the whole workload once per kind, in order and without
// delay, each time from an empty frame table. With no kinds, every policy is
// compared. The simulation in progress is restored afterwards, also when an
// error occurs. A running loop waits until the comparison is done.
func (c *Controller) Compare(kinds ...replacement.Kind) ([]Summary, error) {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.state == Uninitialized {
		return nil, ErrNotInitialized
	}

	if len(kinds) == 0 {
		kinds = replacement.AllKinds()
	}

	cp := c.save()
	defer c.restore(cp)

	summaries := make([]Summary, 0, len(kinds))

	for _, kind := range kinds {
		s, err := c.replayWith(kind)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	c.notify(HookPosAfterCompare, append([]Summary(nil), summaries...))

	return summaries, nil
}

func (c *Controller) replayWith(kind replacement.Kind) (Summary, error) {
	policy, err := replacement.New(kind)
	if err != nil {
		return Summary{}, &ConfigurationError{
			Field:  "policy",
			Reason: err.Error(),
		}
	}

	c.frames = paging.NewFrameTable(c.config.NumFrames())
	c.swap = paging.NewSecondaryStore()
	c.stats = paging.Statistics{}
	c.policy = policy
	c.cursor = 0
	c.clock = 0

	start := time.Now()

	for c.cursor < len(c.workload) {
		if _, err := c.advance(); err != nil {
			return Summary{}, err
		}
	}

	return summarize(kind, c.stats, time.Since(start)), nil
}

// Metric selects what Best optimizes.
type Metric int

// The metrics that Best understands.
const (
	MetricFaults Metric = iota
	MetricHitRate
	MetricDuration
)

func (m Metric) String() string {
	switch m {
	case MetricFaults:
		return "faults"
	case MetricHitRate:
		return "hit-rate"
	case MetricDuration:
		return "duration"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// ParseMetric converts a metric name to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "faults", "page-faults":
		return MetricFaults, nil
	case "hit-rate", "hitrate":
		return MetricHitRate, nil
	case "duration", "time":
		return MetricDuration, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Best returns the summary that does best on m: fewest faults, highest hit
// rate, or shortest duration. The earliest summary wins a tie. It returns
// false for an empty list.
func Best(summaries []Summary, m Metric) (Summary, bool) {
	if len(summaries) == 0 {
		return Summary{}, false
	}

	best := summaries[0]

	for _, s := range summaries[1:] {
		if better(s, best, m) {
			best = s
		}
	}

	return best, true
}

func better(a, b Summary, m Metric) bool {
	switch m {
	case MetricHitRate:
		return a.HitRatePercent > b.HitRatePercent
	case MetricDuration:
		return a.Duration < b.Duration
	default:
		return a.Faults < b.Faults
	}
}
