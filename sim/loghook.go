package sim

import (
	"log"

	"github.com/sarchlab/swapstore/sim/hooking"
)

// A LogHook is a hook that is resonsible for recording information from the
// simulation
type LogHook interface {
	hooking.Hook
}

// LogHookBase proovides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// StepLogger is a hook that prints every step, state change and comparison
// of a controller.
type StepLogger struct {
	LogHookBase
}

// NewStepLogger returns a StepLogger that writes into the logger.
func NewStepLogger(logger *log.Logger) *StepLogger {
	h := new(StepLogger)
	h.Logger = logger

	return h
}

// Func writes the information carried by ctx into the logger.
func (h *StepLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosAfterStep:
		h.logStep(ctx.Item.(StepResult))
	case HookPosStateChange:
		t := ctx.Item.(Transition)
		h.Printf("state %s -> %s", t.From, t.To)
	case HookPosAfterCompare:
		for _, s := range ctx.Item.([]Summary) {
			h.Printf("compare %s: %d faults, %d hits, %.2f%% hit rate, %s",
				s.Policy, s.Faults, s.Hits, s.HitRatePercent, s.Duration)
		}
	}
}

func (h *StepLogger) logStep(r StepResult) {
	if r.HasEvicted {
		h.Printf("step %d @%d: %s owner %d page %d -> frame %d (evicted %s)",
			r.Index, r.Time, r.Outcome,
			r.Reference.OwnerID, r.Reference.PageNumber, r.Slot, r.Evicted)

		return
	}

	h.Printf("step %d @%d: %s owner %d page %d -> frame %d",
		r.Index, r.Time, r.Outcome,
		r.Reference.OwnerID, r.Reference.PageNumber, r.Slot)
}
