package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/sim/hooking"
)

// OwnerCount holds the counters of the references made by one owner.
type OwnerCount struct {
	Owner     paging.OwnerID `json:"owner"`
	Hits      uint64         `json:"hits"`
	Faults    uint64         `json:"faults"`
	Evictions uint64         `json:"evictions"`
}

// OwnerCountTracer counts hits and faults per owner, and how often the pages
// of each owner were evicted. The counts restart whenever the workload is
// replayed from its first reference.
type OwnerCountTracer struct {
	lock   sync.Mutex
	counts map[paging.OwnerID]*OwnerCount
}

// NewOwnerCountTracer creates a new OwnerCountTracer.
func NewOwnerCountTracer() *OwnerCountTracer {
	return &OwnerCountTracer{
		counts: make(map[paging.OwnerID]*OwnerCount),
	}
}

// Func counts a step.
func (t *OwnerCountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != sim.HookPosAfterStep {
		return
	}

	r := ctx.Item.(sim.StepResult)

	t.lock.Lock()
	defer t.lock.Unlock()

	if r.Index == 0 {
		clear(t.counts)
	}

	c := t.count(r.Reference.OwnerID)
	switch r.Outcome {
	case paging.Hit:
		c.Hits++
	case paging.Miss:
		c.Faults++
	}

	if r.HasEvicted {
		t.count(r.Evicted.OwnerID).Evictions++
	}
}

func (t *OwnerCountTracer) count(owner paging.OwnerID) *OwnerCount {
	c, ok := t.counts[owner]
	if !ok {
		c = &OwnerCount{Owner: owner}
		t.counts[owner] = c
	}

	return c
}

// Counts returns the counters of every owner seen, ordered by owner.
func (t *OwnerCountTracer) Counts() []OwnerCount {
	t.lock.Lock()
	defer t.lock.Unlock()

	counts := make([]OwnerCount, 0, len(t.counts))
	for _, c := range t.counts {
		counts = append(counts, *c)
	}

	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Owner < counts[j].Owner
	})

	return counts
}
