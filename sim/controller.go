// Package sim provides the simulation controller that replays a page
// reference workload against a frame table under one replacement policy.
package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim/hooking"
	"github.com/sarchlab/swapstore/workload"
)

// Hook positions of a Controller. Hooks run after the controller has
// released its lock, so a hook may call back into the controller.
var (
	// HookPosAfterStep is invoked with a StepResult after every step.
	HookPosAfterStep = &hooking.HookPos{Name: "AfterStep"}

	// HookPosStateChange is invoked with a Transition.
	HookPosStateChange = &hooking.HookPos{Name: "StateChange"}

	// HookPosAfterCompare is invoked with the []Summary of a comparison.
	HookPosAfterCompare = &hooking.HookPos{Name: "AfterCompare"}

	// HookPosWarning is invoked with the error of a rejected control call.
	HookPosWarning = &hooking.HookPos{Name: "Warning"}
)

// A StepResult describes one processed reference.
type StepResult struct {
	Index      int                `json:"index"`
	Time       uint64             `json:"time"`
	Policy     replacement.Kind   `json:"policy"`
	Reference  workload.Reference `json:"reference"`
	Outcome    paging.Outcome     `json:"outcome"`
	Slot       int                `json:"slot"`
	Evicted    paging.PageKey     `json:"evicted"`
	HasEvicted bool               `json:"has_evicted"`

	// Statistics are the counters after the step.
	Statistics paging.Statistics `json:"statistics"`
}

type notice struct {
	pos  *hooking.HookPos
	item any
}

// runHandle identifies one run loop. The loop stops as soon as the
// controller no longer holds its handle.
type runHandle struct {
	stop   chan struct{}
	reason StopReason
}

// A Controller owns all the mutable state of one simulation. All methods are
// safe to call from multiple goroutines.
type Controller struct {
	hooking.HookableBase

	id        string
	logger    *log.Logger
	generator *workload.Generator

	lock    sync.Mutex
	pending []notice

	state    State
	config   Config
	frames   *paging.FrameTable
	swap     *paging.SecondaryStore
	stats    paging.Statistics
	policy   replacement.Policy
	workload []workload.Reference
	cursor   int
	clock    uint64

	run       *runHandle
	lastDelay time.Duration
}

// NewController creates an uninitialized Controller. Workloads are drawn from
// rng. Warnings are written to logger, or to stderr if logger is nil.
func NewController(id string, rng *rand.Rand, logger *log.Logger) *Controller {
	if rng == nil {
		panic("controller requires a random source")
	}

	if logger == nil {
		logger = log.New(os.Stderr, "swapstore: ", log.LstdFlags)
	}

	return &Controller{
		id:        id,
		logger:    logger,
		generator: workload.NewGenerator(rng),
	}
}

// ID returns the ID of the controller.
func (c *Controller) ID() string {
	return c.id
}

// Logger returns the logger that receives warnings.
func (c *Controller) Logger() *log.Logger {
	return c.logger
}

// Initialize validates cfg, generates a workload from its descriptors, and
// prepares an empty frame table. Any active run is cancelled. On error the
// controller is left as it was.
func (c *Controller) Initialize(cfg Config) error {
	if err := cfg.validate(true); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.unlockAndNotify()

	refs := c.generator.Generate(cfg.Descriptors)
	if len(refs) == 0 {
		return &ConfigurationError{
			Field:  "descriptors",
			Reason: "do not reference any page",
		}
	}

	c.install(cfg, refs)

	return nil
}

// InitializeTrace works like Initialize but replays refs instead of
// generating a workload. Descriptors are optional.
func (c *Controller) InitializeTrace(
	cfg Config,
	refs []workload.Reference,
) error {
	if err := cfg.validate(false); err != nil {
		return err
	}

	if len(refs) == 0 {
		return &ConfigurationError{Field: "trace", Reason: "is empty"}
	}

	c.lock.Lock()
	defer c.unlockAndNotify()

	c.install(cfg, slices.Clone(refs))

	return nil
}

func (c *Controller) install(cfg Config, refs []workload.Reference) {
	policy, err := replacement.New(cfg.Policy)
	if err != nil {
		panic(err)
	}

	c.cancelRun(StopCancelled)

	c.config = cfg.clone()
	c.frames = paging.NewFrameTable(cfg.NumFrames())
	c.swap = paging.NewSecondaryStore()
	c.stats = paging.Statistics{}
	c.policy = policy
	c.workload = refs
	c.cursor = 0
	c.clock = 0

	c.setState(Initialized)
}

// Step processes the next reference. It returns ErrCompleted, without
// changing anything, once the workload is exhausted.
func (c *Controller) Step() (StepResult, error) {
	c.lock.Lock()
	defer c.unlockAndNotify()

	switch c.state {
	case Uninitialized:
		return StepResult{}, ErrNotInitialized
	case Running:
		return StepResult{}, c.warn(&TransitionError{Op: "step", From: c.state})
	}

	return c.step()
}

func (c *Controller) step() (StepResult, error) {
	if c.cursor >= len(c.workload) {
		c.setState(Completed)
		return StepResult{}, ErrCompleted
	}

	res, err := c.advance()
	if err != nil {
		return StepResult{}, err
	}

	c.notify(HookPosAfterStep, res)

	if c.cursor >= len(c.workload) {
		c.setState(Completed)
	}

	return res, nil
}

// advance resolves workload[cursor] and updates the counters. It does not
// look at the state and does not notify hooks.
func (c *Controller) advance() (StepResult, error) {
	ref := c.workload[c.cursor]
	now := c.clock + 1

	d, err := c.policy.Resolve(ref.Key(), replacement.Context{
		Now:       now,
		Frames:    c.frames,
		Swap:      c.swap,
		Lookahead: c.workload[c.cursor+1:],
	})
	if err != nil {
		return StepResult{}, fmt.Errorf("step %d: %w", c.cursor, err)
	}

	c.clock = now
	c.stats.Record(d.Outcome, d.HasEvicted)

	res := StepResult{
		Index:      c.cursor,
		Time:       now,
		Policy:     c.policy.Kind(),
		Reference:  ref,
		Outcome:    d.Outcome,
		Slot:       d.Slot,
		Evicted:    d.Evicted,
		HasEvicted: d.HasEvicted,
		Statistics: c.stats,
	}

	c.cursor++

	return res, nil
}

// Run steps through the workload, waiting delay between steps, until the
// workload is exhausted, the run is paused or cancelled, or ctx ends. It
// blocks until the loop stops.
func (c *Controller) Run(
	ctx context.Context,
	delay time.Duration,
) (StopReason, error) {
	h, err := c.beginRun("run", delay, false, Initialized, Paused)
	if err != nil {
		return StopFailed, err
	}

	return c.loop(ctx, h, delay)
}

// Resume continues a paused run with the delay of the previous run. Like
// Run, it blocks until the loop stops.
func (c *Controller) Resume(ctx context.Context) (StopReason, error) {
	c.lock.Lock()
	delay := c.lastDelay
	c.lock.Unlock()

	h, err := c.beginRun("resume", delay, true, Paused)
	if err != nil {
		return StopFailed, err
	}

	return c.loop(ctx, h, delay)
}

// A RunResult is how a background run ended.
type RunResult struct {
	Reason StopReason
	Err    error
}

// Start begins a run like Run but returns as soon as the run is underway.
// An error means the run never started. Otherwise the result is sent on the
// returned channel once the loop stops.
func (c *Controller) Start(
	ctx context.Context,
	delay time.Duration,
) (<-chan RunResult, error) {
	h, err := c.beginRun("run", delay, false, Initialized, Paused)
	if err != nil {
		return nil, err
	}

	return c.background(ctx, h, delay), nil
}

// StartResume resumes a paused run like Resume but returns as soon as the
// run is underway.
func (c *Controller) StartResume(ctx context.Context) (<-chan RunResult, error) {
	c.lock.Lock()
	delay := c.lastDelay
	c.lock.Unlock()

	h, err := c.beginRun("resume", delay, true, Paused)
	if err != nil {
		return nil, err
	}

	return c.background(ctx, h, delay), nil
}

func (c *Controller) background(
	ctx context.Context,
	h *runHandle,
	delay time.Duration,
) <-chan RunResult {
	done := make(chan RunResult, 1)

	go func() {
		reason, err := c.loop(ctx, h, delay)
		done <- RunResult{Reason: reason, Err: err}
		close(done)
	}()

	return done
}

func (c *Controller) beginRun(
	op string,
	delay time.Duration,
	keepDelay bool,
	from ...State,
) (*runHandle, error) {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.state == Uninitialized {
		return nil, ErrNotInitialized
	}

	if !slices.Contains(from, c.state) {
		if c.state == Completed && op == "run" {
			return nil, ErrCompleted
		}

		return nil, c.warn(&TransitionError{Op: op, From: c.state})
	}

	if !keepDelay {
		c.lastDelay = delay
	}

	h := &runHandle{stop: make(chan struct{})}
	c.run = h
	c.setState(Running)

	return h, nil
}

func (c *Controller) loop(
	ctx context.Context,
	h *runHandle,
	delay time.Duration,
) (StopReason, error) {
	for {
		if reason, stopped := c.checkRun(ctx, h); stopped {
			return reason, nil
		}

		done, err := c.runStep(h)
		if err != nil {
			return StopFailed, err
		}

		if done {
			return StopCompleted, nil
		}

		if reason, stopped := c.checkRun(ctx, h); stopped {
			return reason, nil
		}

		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-h.stop:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
		}
	}
}

// checkRun tells if the loop that owns h must stop.
func (c *Controller) checkRun(
	ctx context.Context,
	h *runHandle,
) (StopReason, bool) {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.run != h {
		return h.reason, true
	}

	if ctx.Err() != nil {
		c.cancelRun(StopContextDone)
		c.setState(Paused)

		return StopContextDone, true
	}

	return 0, false
}

func (c *Controller) runStep(h *runHandle) (bool, error) {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.run != h {
		return false, nil
	}

	_, err := c.step()

	switch {
	case c.state == Completed:
		c.cancelRun(StopCompleted)
		return true, nil
	case err != nil:
		c.cancelRun(StopFailed)
		c.setState(Paused)

		return false, err
	}

	return false, nil
}

func (c *Controller) cancelRun(reason StopReason) {
	if c.run == nil {
		return
	}

	c.run.reason = reason
	close(c.run.stop)
	c.run = nil
}

// Pause stops a running loop. The loop returns StopPaused and a pending
// delay is abandoned.
func (c *Controller) Pause() error {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.state == Uninitialized {
		return ErrNotInitialized
	}

	if c.state != Running {
		return c.warn(&TransitionError{Op: "pause", From: c.state})
	}

	c.cancelRun(StopPaused)
	c.setState(Paused)

	return nil
}

// Reset cancels any run and clears the frames, the secondary store, the
// counters and the policy state. The workload is kept and replays from the
// start.
func (c *Controller) Reset() error {
	c.lock.Lock()
	defer c.unlockAndNotify()

	if c.state == Uninitialized {
		return ErrNotInitialized
	}

	c.cancelRun(StopCancelled)

	c.frames.Reset()
	c.swap.Reset()
	c.stats = paging.Statistics{}
	c.policy.Reset()
	c.cursor = 0
	c.clock = 0

	c.setState(Initialized)

	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.state
}

// Config returns the configuration of the current run.
func (c *Controller) Config() Config {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.config.clone()
}

// Workload returns a copy of the reference string being replayed.
func (c *Controller) Workload() []workload.Reference {
	c.lock.Lock()
	defer c.lock.Unlock()

	return slices.Clone(c.workload)
}

// Progress returns the number of processed references and the length of
// the workload.
func (c *Controller) Progress() (done, total int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.cursor, len(c.workload)
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}

	t := Transition{From: c.state, To: s}
	c.state = s
	c.notify(HookPosStateChange, t)
}

func (c *Controller) warn(err error) error {
	c.logger.Printf("warning: %v", err)
	c.notify(HookPosWarning, err)

	return err
}

func (c *Controller) notify(pos *hooking.HookPos, item any) {
	if c.NumHooks() == 0 {
		return
	}

	c.pending = append(c.pending, notice{pos: pos, item: item})
}

// unlockAndNotify releases the lock and then delivers the notices collected
// while it was held.
func (c *Controller) unlockAndNotify() {
	pending := c.pending
	c.pending = nil
	c.lock.Unlock()

	for _, n := range pending {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    n.pos,
			Item:   n.item,
		})
	}
}
