// Package tracing turns controller hook invocations into records.
package tracing

import (
	"sync"
	"time"

	"github.com/sarchlab/swapstore/datarecording"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/sim/hooking"
	"github.com/tebeka/atexit"
)

// Table names used by the DBTracer.
const (
	StepTable       = "steps"
	SwapTable       = "swaps"
	TransitionTable = "transitions"
	ComparisonTable = "comparisons"
)

// StepEntry is one row of the steps table.
type StepEntry struct {
	RunID        string
	Session      int
	StepIndex    int
	Time         uint64
	Policy       string
	Owner        int
	Page         int
	Outcome      string
	Slot         int
	HasEvicted   bool
	EvictedOwner int
	EvictedPage  int
}

// SwapEntry is one row of the swaps table. It mirrors an entry appended to
// the secondary store.
type SwapEntry struct {
	RunID     string
	Session   int
	EvictedAt uint64
	Owner     int
	Page      int
}

// TransitionEntry is one row of the transitions table.
type TransitionEntry struct {
	RunID    string
	Session  int
	From     string
	To       string
	UnixNano int64
}

// ComparisonEntry is one row of the comparisons table. Rows of the same
// comparison share a Batch.
type ComparisonEntry struct {
	RunID          string
	Batch          int
	Policy         string
	Faults         uint64
	Hits           uint64
	SwapOuts       uint64
	SwapIns        uint64
	TotalAccesses  uint64
	HitRatePercent float64
	DurationNS     int64
}

// DBTracer is a hook that stores what a controller does into a
// DataRecorder. A new session starts every time the workload is replayed from
// its first reference.
type DBTracer struct {
	mu      sync.Mutex
	runID   string
	backend datarecording.DataRecorder

	isTracingFlag bool
	session       int
	batch         int
}

// NewDBTracer creates a DBTracer that is tracing from the start. The backend
// is flushed when the program exits.
func NewDBTracer(
	runID string,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(StepTable, StepEntry{})
	dataRecorder.CreateTable(SwapTable, SwapEntry{})
	dataRecorder.CreateTable(TransitionTable, TransitionEntry{})
	dataRecorder.CreateTable(ComparisonTable, ComparisonEntry{})

	t := &DBTracer{
		runID:         runID,
		backend:       dataRecorder,
		isTracingFlag: true,
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// IsTracing tells if hook invocations are being recorded.
func (t *DBTracer) IsTracing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.isTracingFlag
}

// EnableTracing resumes recording.
func (t *DBTracer) EnableTracing() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.isTracingFlag = true
}

// StopTracing stops recording and flushes what has been recorded.
func (t *DBTracer) StopTracing() {
	t.mu.Lock()
	t.isTracingFlag = false
	t.mu.Unlock()

	t.backend.Flush()
}

// Func records the hook invocation.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.isTracingFlag {
		return
	}

	switch ctx.Pos {
	case sim.HookPosAfterStep:
		t.recordStep(ctx.Item.(sim.StepResult))
	case sim.HookPosStateChange:
		t.recordTransition(ctx.Item.(sim.Transition))
	case sim.HookPosAfterCompare:
		t.recordComparison(ctx.Item.([]sim.Summary))
	}
}

func (t *DBTracer) recordStep(r sim.StepResult) {
	if r.Index == 0 {
		t.session++
	}

	entry := StepEntry{
		RunID:      t.runID,
		Session:    t.session,
		StepIndex:  r.Index,
		Time:       r.Time,
		Policy:     r.Policy.String(),
		Owner:      int(r.Reference.OwnerID),
		Page:       r.Reference.PageNumber,
		Outcome:    r.Outcome.String(),
		Slot:       r.Slot,
		HasEvicted: r.HasEvicted,
	}

	if r.HasEvicted {
		entry.EvictedOwner = int(r.Evicted.OwnerID)
		entry.EvictedPage = r.Evicted.PageNumber

		t.backend.InsertData(SwapTable, SwapEntry{
			RunID:     t.runID,
			Session:   t.session,
			EvictedAt: r.Time,
			Owner:     int(r.Evicted.OwnerID),
			Page:      r.Evicted.PageNumber,
		})
	}

	t.backend.InsertData(StepTable, entry)
}

func (t *DBTracer) recordTransition(tr sim.Transition) {
	t.backend.InsertData(TransitionTable, TransitionEntry{
		RunID:    t.runID,
		Session:  t.session,
		From:     tr.From.String(),
		To:       tr.To.String(),
		UnixNano: time.Now().UnixNano(),
	})
}

func (t *DBTracer) recordComparison(summaries []sim.Summary) {
	t.batch++

	for _, s := range summaries {
		t.backend.InsertData(ComparisonTable, ComparisonEntry{
			RunID:          t.runID,
			Batch:          t.batch,
			Policy:         s.Policy.String(),
			Faults:         s.Faults,
			Hits:           s.Hits,
			SwapOuts:       s.SwapOuts,
			SwapIns:        s.SwapIns,
			TotalAccesses:  s.TotalAccesses,
			HitRatePercent: s.HitRatePercent,
			DurationNS:     s.Duration.Nanoseconds(),
		})
	}
}

// Terminate flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.Flush()
}
