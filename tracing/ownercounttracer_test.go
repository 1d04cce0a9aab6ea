package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/sim/hooking"
	"github.com/sarchlab/swapstore/workload"
)

var _ = Describe("OwnerCountTracer", func() {
	var t *OwnerCountTracer

	feed := func(index int, owner paging.OwnerID, outcome paging.Outcome,
		evicted *paging.PageKey) {
		r := sim.StepResult{
			Index:     index,
			Reference: workload.Reference{OwnerID: owner},
			Outcome:   outcome,
		}

		if evicted != nil {
			r.Evicted = *evicted
			r.HasEvicted = true
		}

		t.Func(hooking.HookCtx{Pos: sim.HookPosAfterStep, Item: r})
	}

	BeforeEach(func() {
		t = NewOwnerCountTracer()
	})

	It("should count per owner", func() {
		victim := paging.MakePageKey(0, 1)

		feed(0, 1, paging.Miss, nil)
		feed(1, 0, paging.Miss, nil)
		feed(2, 1, paging.Hit, nil)
		feed(3, 1, paging.Miss, &victim)

		Expect(t.Counts()).To(Equal([]OwnerCount{
			{Owner: 0, Faults: 1, Evictions: 1},
			{Owner: 1, Hits: 1, Faults: 2},
		}))
	})

	It("should restart with the workload", func() {
		feed(0, 1, paging.Miss, nil)
		feed(1, 1, paging.Hit, nil)
		feed(0, 2, paging.Miss, nil)

		Expect(t.Counts()).To(Equal([]OwnerCount{{Owner: 2, Faults: 1}}))
	})

	It("should ignore other hook positions", func() {
		t.Func(hooking.HookCtx{
			Pos:  sim.HookPosStateChange,
			Item: sim.Transition{From: sim.Initialized, To: sim.Running},
		})

		Expect(t.Counts()).To(BeEmpty())
	})
})
