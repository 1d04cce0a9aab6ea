package sim

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim/hooking"
	"github.com/sarchlab/swapstore/workload"
	"go.uber.org/mock/gomock"
)

const pageSize = 4096

func newTestController(seed int64) *Controller {
	return NewController(
		"test",
		rand.New(rand.NewSource(seed)),
		log.New(GinkgoWriter, "", 0),
	)
}

func testConfig(frames int, kind replacement.Kind) Config {
	return Config{
		RAMCapacityBytes: uint64(frames) * pageSize,
		PageSizeBytes:    pageSize,
		Policy:           kind,
		Descriptors: []workload.Descriptor{
			{ID: 0, Name: "editor", PageCount: 7},
			{ID: 1, Name: "shell", PageCount: 3},
			{ID: 2, Name: "browser", PageCount: 12},
		},
	}
}

func trace(pages ...int) []workload.Reference {
	refs := make([]workload.Reference, len(pages))
	for i, p := range pages {
		refs[i] = workload.Reference{PageNumber: p}
	}

	return refs
}

func stepToEnd(c *Controller) {
	for {
		_, err := c.Step()
		if errors.Is(err, ErrCompleted) {
			return
		}

		Expect(err).NotTo(HaveOccurred())
	}
}

func expectCounterInvariants(s paging.Statistics) {
	Expect(s.TotalAccesses).To(Equal(s.Hits + s.Faults))
	Expect(s.SwapIns).To(Equal(s.Faults))
	Expect(s.SwapOuts).To(BeNumerically("<=", s.Faults))
}

var _ = Describe("Controller", func() {
	var c *Controller

	BeforeEach(func() {
		c = newTestController(1)
	})

	Context("before initialization", func() {
		It("should reject control calls", func() {
			_, err := c.Step()
			Expect(err).To(MatchError(ErrNotInitialized))

			_, err = c.Run(context.Background(), 0)
			Expect(err).To(MatchError(ErrNotInitialized))

			_, err = c.Compare()
			Expect(err).To(MatchError(ErrNotInitialized))

			Expect(c.Reset()).To(MatchError(ErrNotInitialized))
			Expect(c.Pause()).To(MatchError(ErrNotInitialized))
			Expect(c.State()).To(Equal(Uninitialized))
		})

		It("should report only the id and the state", func() {
			s := c.Snapshot()

			Expect(s.ID).To(Equal("test"))
			Expect(s.State).To(Equal(Uninitialized))
			Expect(s.Frames).To(BeNil())
		})
	})

	Context("when initializing", func() {
		DescribeTable("should reject invalid configurations",
			func(mutate func(cfg *Config), field string) {
				cfg := testConfig(3, replacement.FIFO)
				mutate(&cfg)

				err := c.Initialize(cfg)

				var cfgErr *ConfigurationError
				Expect(errors.As(err, &cfgErr)).To(BeTrue())
				Expect(cfgErr.Field).To(Equal(field))
				Expect(c.State()).To(Equal(Uninitialized))
			},
			Entry("no descriptors",
				func(cfg *Config) { cfg.Descriptors = nil }, "descriptors"),
			Entry("no pages at all",
				func(cfg *Config) {
					cfg.Descriptors = []workload.Descriptor{{ID: 0}}
				}, "descriptors"),
			Entry("negative page count",
				func(cfg *Config) { cfg.Descriptors[1].PageCount = -1 },
				"descriptors"),
			Entry("duplicated descriptor id",
				func(cfg *Config) { cfg.Descriptors[1].ID = 0 },
				"descriptors"),
			Entry("zero capacity",
				func(cfg *Config) { cfg.RAMCapacityBytes = 0 },
				"ram_capacity_bytes"),
			Entry("zero page size",
				func(cfg *Config) { cfg.PageSizeBytes = 0 }, "page_size_bytes"),
			Entry("capacity below one page",
				func(cfg *Config) { cfg.RAMCapacityBytes = pageSize - 1 },
				"ram_capacity_bytes"),
			Entry("unknown policy",
				func(cfg *Config) { cfg.Policy = replacement.Kind(7) },
				"policy"),
		)

		It("should keep the previous run when rejecting a configuration", func() {
			Expect(c.Initialize(testConfig(3, replacement.LRU))).To(Succeed())
			_, err := c.Step()
			Expect(err).NotTo(HaveOccurred())

			before := c.Snapshot()
			err = c.Initialize(Config{})

			Expect(err).To(HaveOccurred())
			Expect(c.Snapshot()).To(Equal(before))
		})

		It("should build an empty frame table", func() {
			cfg := testConfig(5, replacement.FIFO)
			cfg.RAMCapacityBytes = pageSize * 5

			Expect(c.Initialize(cfg)).To(Succeed())

			s := c.Snapshot()
			Expect(s.State).To(Equal(Initialized))
			Expect(s.Frames).To(HaveLen(5))
			for _, f := range s.Frames {
				Expect(f.Occupied).To(BeFalse())
			}
			Expect(s.Statistics).To(Equal(paging.Statistics{}))
			Expect(s.HitRatePercent).To(BeZero())
			Expect(s.FaultRatePercent).To(BeZero())
			Expect(s.UsedBytes).To(BeZero())
			Expect(s.FreeBytes).To(Equal(uint64(pageSize * 5)))
			Expect(s.Cursor).To(BeZero())
			Expect(s.WorkloadLength).To(Equal(
				workload.Length(cfg.Descriptors)))
		})

		It("should round down a partial frame", func() {
			cfg := testConfig(3, replacement.FIFO)
			cfg.RAMCapacityBytes += pageSize / 2

			Expect(c.Initialize(cfg)).To(Succeed())
			Expect(c.Snapshot().Frames).To(HaveLen(3))
		})

		It("should generate the same workload from the same seed", func() {
			other := newTestController(1)

			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())
			Expect(other.Initialize(testConfig(3, replacement.FIFO))).
				To(Succeed())

			Expect(c.Workload()).To(Equal(other.Workload()))
		})

		It("should reject an empty trace", func() {
			err := c.InitializeTrace(testConfig(3, replacement.FIFO), nil)

			var cfgErr *ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
		})

		It("should accept a trace without descriptors", func() {
			cfg := testConfig(3, replacement.FIFO)
			cfg.Descriptors = nil

			Expect(c.InitializeTrace(cfg, trace(1, 2, 3))).To(Succeed())
			Expect(c.Workload()).To(Equal(trace(1, 2, 3)))
		})
	})

	Context("when stepping", func() {
		It("should fault on every reference with a single frame", func() {
			for _, kind := range replacement.AllKinds() {
				c = newTestController(1)
				Expect(c.InitializeTrace(
					testConfig(1, kind), trace(0, 1, 2, 3, 4))).To(Succeed())

				stepToEnd(c)

				s := c.Snapshot()
				Expect(s.Statistics.Faults).To(Equal(uint64(5)), kind.String())
				Expect(s.Statistics.Hits).To(BeZero())
				Expect(s.Statistics.SwapOuts).To(Equal(uint64(4)))
				Expect(s.SwapEntries).To(Equal(4))
				Expect(s.State).To(Equal(Completed))
			}
		})

		It("should return the outcome of each step", func() {
			Expect(c.InitializeTrace(
				testConfig(2, replacement.FIFO), trace(0, 1, 0, 2))).To(Succeed())

			results := make([]StepResult, 0, 4)
			for i := 0; i < 4; i++ {
				r, err := c.Step()
				Expect(err).NotTo(HaveOccurred())
				results = append(results, r)
			}

			Expect(results[0].Outcome).To(Equal(paging.Miss))
			Expect(results[0].Time).To(Equal(uint64(1)))
			Expect(results[2].Outcome).To(Equal(paging.Hit))
			Expect(results[2].Slot).To(Equal(0))
			Expect(results[3].HasEvicted).To(BeTrue())
			Expect(results[3].Evicted).To(Equal(paging.MakePageKey(0, 0)))
			Expect(results[3].Index).To(Equal(3))
			Expect(results[3].Statistics.TotalAccesses).To(Equal(uint64(4)))
		})

		It("should fill frames one per distinct page", func() {
			Expect(c.InitializeTrace(testConfig(4, replacement.LRU),
				trace(0, 1, 2, 3, 4, 5, 6, 7, 8, 9))).To(Succeed())

			for cursor := 1; cursor <= 10; cursor++ {
				_, err := c.Step()
				Expect(err).NotTo(HaveOccurred())

				occupied := 0
				for _, f := range c.Snapshot().Frames {
					if f.Occupied {
						occupied++
					}
				}

				Expect(occupied).To(Equal(min(cursor, 4)))
			}
		})

		It("should keep the counters consistent", func() {
			Expect(c.Initialize(testConfig(4, replacement.LRU))).To(Succeed())

			for {
				_, err := c.Step()
				if err != nil {
					Expect(err).To(MatchError(ErrCompleted))
					break
				}

				expectCounterInvariants(c.Snapshot().Statistics)
			}
		})

		It("should not change anything after completion", func() {
			Expect(c.InitializeTrace(
				testConfig(2, replacement.FIFO), trace(0, 1))).To(Succeed())
			stepToEnd(c)
			before := c.Snapshot()

			_, err := c.Step()

			Expect(err).To(MatchError(ErrCompleted))
			Expect(c.Snapshot()).To(Equal(before))
		})

		It("should show the textbook FIFO counts", func() {
			refs := trace(0, 1, 2, 3, 0, 1, 4, 0, 1, 2)

			Expect(c.InitializeTrace(
				testConfig(3, replacement.FIFO), refs)).To(Succeed())
			stepToEnd(c)
			Expect(c.Snapshot().Statistics.Faults).To(Equal(uint64(8)))

			Expect(c.InitializeTrace(
				testConfig(4, replacement.FIFO), refs)).To(Succeed())
			stepToEnd(c)
			Expect(c.Snapshot().Statistics.Faults).To(Equal(uint64(8)))
		})
	})

	Context("when resetting", func() {
		It("should clear the run and keep the workload", func() {
			Expect(c.Initialize(testConfig(3, replacement.LRU))).To(Succeed())
			refs := c.Workload()

			for i := 0; i < 10; i++ {
				_, err := c.Step()
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(c.Reset()).To(Succeed())

			s := c.Snapshot()
			Expect(s.State).To(Equal(Initialized))
			Expect(s.Cursor).To(BeZero())
			Expect(s.Time).To(BeZero())
			Expect(s.Swap).To(BeEmpty())
			Expect(s.Statistics).To(Equal(paging.Statistics{}))
			for _, f := range s.Frames {
				Expect(f.Occupied).To(BeFalse())
			}
			Expect(c.Workload()).To(Equal(refs))
		})

		It("should be idempotent", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())
			stepToEnd(c)

			Expect(c.Reset()).To(Succeed())
			once := c.Snapshot()
			Expect(c.Reset()).To(Succeed())

			Expect(c.Snapshot()).To(Equal(once))
		})

		It("should replay the same run after a reset", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())
			stepToEnd(c)
			first := c.Snapshot()

			Expect(c.Reset()).To(Succeed())
			stepToEnd(c)

			Expect(c.Snapshot()).To(Equal(first))
		})
	})

	Context("when comparing", func() {
		It("should summarize every policy in order", func() {
			Expect(c.Initialize(testConfig(4, replacement.FIFO))).To(Succeed())

			summaries, err := c.Compare()

			Expect(err).NotTo(HaveOccurred())
			Expect(summaries).To(HaveLen(3))
			Expect(summaries[0].Policy).To(Equal(replacement.FIFO))
			Expect(summaries[1].Policy).To(Equal(replacement.LRU))
			Expect(summaries[2].Policy).To(Equal(replacement.Optimal))

			n := uint64(len(c.Workload()))
			for _, s := range summaries {
				Expect(s.TotalAccesses).To(Equal(n))
				Expect(s.SwapIns).To(Equal(s.Faults))
			}
		})

		It("should never see Optimal fault more than the others", func() {
			for seed := int64(0); seed < 10; seed++ {
				c = newTestController(seed)
				Expect(c.Initialize(testConfig(5, replacement.LRU))).
					To(Succeed())

				summaries, err := c.Compare()
				Expect(err).NotTo(HaveOccurred())

				Expect(summaries[2].Faults).To(
					BeNumerically("<=", summaries[0].Faults))
				Expect(summaries[2].Faults).To(
					BeNumerically("<=", summaries[1].Faults))
			}
		})

		It("should show Belady's anomaly under FIFO", func() {
			refs := trace(1, 2, 3, 4, 1, 2, 5, 1, 2, 3, 4, 5)

			Expect(c.InitializeTrace(
				testConfig(3, replacement.FIFO), refs)).To(Succeed())
			three, err := c.Compare(replacement.FIFO)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.InitializeTrace(
				testConfig(4, replacement.FIFO), refs)).To(Succeed())
			four, err := c.Compare(replacement.FIFO)
			Expect(err).NotTo(HaveOccurred())

			Expect(three[0].Faults).To(Equal(uint64(9)))
			Expect(four[0].Faults).To(Equal(uint64(10)))
		})

		It("should leave the simulation in progress untouched", func() {
			control := newTestController(1)
			Expect(c.Initialize(testConfig(3, replacement.LRU))).To(Succeed())
			Expect(control.Initialize(testConfig(3, replacement.LRU))).
				To(Succeed())

			for i := 0; i < 7; i++ {
				_, err := c.Step()
				Expect(err).NotTo(HaveOccurred())
				_, err = control.Step()
				Expect(err).NotTo(HaveOccurred())
			}

			before := c.Snapshot()
			_, err := c.Compare()
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Snapshot()).To(Equal(before))

			stepToEnd(c)
			stepToEnd(control)
			Expect(c.Snapshot().Statistics).To(
				Equal(control.Snapshot().Statistics))
		})

		It("should restore the simulation when a policy is unknown", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())
			_, err := c.Step()
			Expect(err).NotTo(HaveOccurred())
			before := c.Snapshot()

			_, err = c.Compare(replacement.LRU, replacement.Kind(9))

			var cfgErr *ConfigurationError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(c.Snapshot()).To(Equal(before))
		})
	})

	Context("when running", func() {
		It("should run to completion", func() {
			Expect(c.Initialize(testConfig(3, replacement.Optimal))).
				To(Succeed())

			reason, err := c.Run(context.Background(), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(StopCompleted))
			Expect(c.State()).To(Equal(Completed))

			done, total := c.Progress()
			Expect(done).To(Equal(total))
		})

		It("should refuse to run a completed simulation", func() {
			Expect(c.InitializeTrace(
				testConfig(1, replacement.FIFO), trace(0))).To(Succeed())
			stepToEnd(c)

			reason, err := c.Run(context.Background(), 0)

			Expect(err).To(MatchError(ErrCompleted))
			Expect(reason).To(Equal(StopFailed))
		})

		It("should stop when paused from a hook and resume later", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())
			c.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos != HookPosAfterStep {
					return
				}

				if ctx.Item.(StepResult).Index == 3 {
					Expect(c.Pause()).To(Succeed())
				}
			}))

			reason, err := c.Run(context.Background(), 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(StopPaused))
			Expect(c.State()).To(Equal(Paused))
			done, _ := c.Progress()
			Expect(done).To(Equal(4))

			reason, err = c.Resume(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(reason).To(Equal(StopCompleted))
			Expect(c.State()).To(Equal(Completed))
		})

		Context("with a long delay", func() {
			var stopped chan StopReason

			BeforeEach(func() {
				Expect(c.Initialize(testConfig(3, replacement.FIFO))).
					To(Succeed())

				stopped = make(chan StopReason, 1)
			})

			start := func(ctx context.Context) {
				go func() {
					defer GinkgoRecover()

					reason, err := c.Run(ctx, time.Hour)
					Expect(err).NotTo(HaveOccurred())
					stopped <- reason
				}()

				Eventually(func() int {
					done, _ := c.Progress()
					return done
				}).Should(Equal(1))
			}

			It("should reject manual steps and pause", func() {
				start(context.Background())

				_, err := c.Step()
				Expect(err).To(MatchError(ErrInvalidTransition))

				var tErr *TransitionError
				Expect(errors.As(err, &tErr)).To(BeTrue())
				Expect(tErr.From).To(Equal(Running))

				Expect(c.Pause()).To(Succeed())
				Eventually(stopped).Should(Receive(Equal(StopPaused)))

				done, _ := c.Progress()
				Expect(done).To(Equal(1))
			})

			It("should be cancelled by a reset", func() {
				start(context.Background())

				Expect(c.Reset()).To(Succeed())

				Eventually(stopped).Should(Receive(Equal(StopCancelled)))
				Expect(c.State()).To(Equal(Initialized))
				done, _ := c.Progress()
				Expect(done).To(BeZero())
			})

			It("should be cancelled by a new initialization", func() {
				start(context.Background())

				Expect(c.Initialize(testConfig(2, replacement.LRU))).
					To(Succeed())

				Eventually(stopped).Should(Receive(Equal(StopCancelled)))
				Expect(c.State()).To(Equal(Initialized))
			})

			It("should pause when the context ends", func() {
				ctx, cancel := context.WithCancel(context.Background())
				start(ctx)

				cancel()

				Eventually(stopped).Should(Receive(Equal(StopContextDone)))
				Expect(c.State()).To(Equal(Paused))
			})

			It("should refuse a second run", func() {
				start(context.Background())

				_, err := c.Run(context.Background(), 0)

				Expect(err).To(MatchError(ErrInvalidTransition))
				Expect(c.Pause()).To(Succeed())
				Eventually(stopped).Should(Receive())
			})
		})

		It("should start in the background and report the end", func() {
			Expect(c.Initialize(testConfig(3, replacement.LRU))).To(Succeed())

			done, err := c.Start(context.Background(), 0)
			Expect(err).NotTo(HaveOccurred())

			var res RunResult
			Eventually(done).Should(Receive(&res))
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(StopCompleted))
			Expect(done).To(BeClosed())
			Expect(c.State()).To(Equal(Completed))
		})

		It("should let only one of two quick starts run", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())

			first, err := c.Start(context.Background(), time.Hour)
			Expect(err).NotTo(HaveOccurred())

			second, err := c.Start(context.Background(), time.Hour)
			Expect(err).To(MatchError(ErrInvalidTransition))
			Expect(second).To(BeNil())

			_, err = c.StartResume(context.Background())
			Expect(err).To(MatchError(ErrInvalidTransition))

			Expect(c.Pause()).To(Succeed())

			var res RunResult
			Eventually(first).Should(Receive(&res))
			Expect(res.Reason).To(Equal(StopPaused))

			resumed, err := c.StartResume(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Pause()).To(Succeed())
			Eventually(resumed).Should(Receive(&res))
			Expect(res.Reason).To(Equal(StopPaused))
		})

		It("should refuse to start a completed simulation", func() {
			Expect(c.InitializeTrace(
				testConfig(1, replacement.FIFO), trace(0))).To(Succeed())
			stepToEnd(c)

			_, err := c.Start(context.Background(), 0)

			Expect(err).To(MatchError(ErrCompleted))
		})

		It("should refuse to pause or resume from the wrong state", func() {
			Expect(c.Initialize(testConfig(3, replacement.FIFO))).To(Succeed())

			Expect(c.Pause()).To(MatchError(ErrInvalidTransition))

			_, err := c.Resume(context.Background())
			Expect(err).To(MatchError(ErrInvalidTransition))
			Expect(c.State()).To(Equal(Initialized))
		})
	})

	Context("with hooks", func() {
		var (
			mockCtrl  *gomock.Controller
			hook      *MockHook
			positions []*hooking.HookPos
			items     []any
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			positions = nil
			items = nil

			hook.EXPECT().Func(gomock.Any()).
				Do(func(ctx hooking.HookCtx) {
					Expect(ctx.Domain).To(BeIdenticalTo(c))
					positions = append(positions, ctx.Pos)
					items = append(items, ctx.Item)
				}).
				AnyTimes()

			c.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should report state changes and steps", func() {
			Expect(c.InitializeTrace(
				testConfig(1, replacement.FIFO), trace(0))).To(Succeed())
			_, err := c.Step()
			Expect(err).NotTo(HaveOccurred())

			Expect(positions).To(Equal([]*hooking.HookPos{
				HookPosStateChange,
				HookPosAfterStep,
				HookPosStateChange,
			}))
			Expect(items[0]).To(Equal(
				Transition{From: Uninitialized, To: Initialized}))
			Expect(items[2]).To(Equal(
				Transition{From: Initialized, To: Completed}))
		})

		It("should report warnings", func() {
			Expect(c.Initialize(testConfig(1, replacement.FIFO))).To(Succeed())
			positions = nil

			err := c.Pause()

			Expect(positions).To(Equal([]*hooking.HookPos{HookPosWarning}))
			Expect(items[len(items)-1]).To(Equal(err))
		})

		It("should report comparisons but not their steps", func() {
			Expect(c.Initialize(testConfig(2, replacement.FIFO))).To(Succeed())
			positions = nil

			summaries, err := c.Compare(replacement.LRU)

			Expect(err).NotTo(HaveOccurred())
			Expect(positions).To(Equal([]*hooking.HookPos{HookPosAfterCompare}))
			Expect(items[len(items)-1]).To(Equal(summaries))
		})
	})
})

var _ = Describe("Best", func() {
	summaries := []Summary{
		{Policy: replacement.FIFO, Faults: 9, HitRatePercent: 10,
			Duration: 3 * time.Millisecond},
		{Policy: replacement.LRU, Faults: 7, HitRatePercent: 30,
			Duration: time.Millisecond},
		{Policy: replacement.Optimal, Faults: 7, HitRatePercent: 30,
			Duration: 2 * time.Millisecond},
	}

	It("should pick the first summary with the fewest faults", func() {
		best, ok := Best(summaries, MetricFaults)

		Expect(ok).To(BeTrue())
		Expect(best.Policy).To(Equal(replacement.LRU))
	})

	It("should pick the highest hit rate", func() {
		best, _ := Best(summaries, MetricHitRate)
		Expect(best.Policy).To(Equal(replacement.LRU))
	})

	It("should pick the shortest duration", func() {
		best, _ := Best(summaries, MetricDuration)
		Expect(best.Policy).To(Equal(replacement.LRU))
	})

	It("should report an empty list", func() {
		_, ok := Best(nil, MetricFaults)
		Expect(ok).To(BeFalse())
	})

	It("should parse metric names", func() {
		m, err := ParseMetric("hit-rate")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(MetricHitRate))

		_, err = ParseMetric("speed")
		Expect(err).To(HaveOccurred())
	})
})
