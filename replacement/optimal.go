package replacement

import (
	"errors"
	"math"

	"github.com/sarchlab/swapstore/paging"
)

// OptimalPolicy evicts the resident page whose next use lies farthest in the
// future. It needs the rest of the workload, passed as Context.Lookahead.
type OptimalPolicy struct{}

// NewOptimal creates an OptimalPolicy.
func NewOptimal() *OptimalPolicy {
	return &OptimalPolicy{}
}

// Kind returns Optimal.
func (p *OptimalPolicy) Kind() Kind {
	return Optimal
}

// Resolve resolves one reference.
func (p *OptimalPolicy) Resolve(
	key paging.PageKey,
	ctx Context,
) (Decision, error) {
	return resolve(key, ctx, p.victim, func(int) {})
}

func (p *OptimalPolicy) victim(_ paging.PageKey, ctx Context) (int, error) {
	nextUse := p.nextUses(ctx)

	victim := -1
	farthest := -1

	for slot, f := range ctx.Frames.View() {
		if !f.Occupied {
			continue
		}

		distance, ok := nextUse[f.Key]
		if !ok {
			distance = math.MaxInt
		}

		if distance > farthest {
			victim = slot
			farthest = distance
		}
	}

	if victim < 0 {
		return 0, errors.New("optimal: no resident page to evict")
	}

	return victim, nil
}

// nextUses maps every resident key that appears in the lookahead to the
// index of its first appearance. Keys that never appear are left out.
func (p *OptimalPolicy) nextUses(ctx Context) map[paging.PageKey]int {
	resident := ctx.Frames.Occupied()
	nextUse := make(map[paging.PageKey]int, resident)

	for i, ref := range ctx.Lookahead {
		if len(nextUse) == resident {
			break
		}

		k := ref.Key()
		if _, seen := nextUse[k]; seen {
			continue
		}

		if _, ok := ctx.Frames.Lookup(k); ok {
			nextUse[k] = i
		}
	}

	return nextUse
}

// Reset does nothing. The policy keeps no state.
func (p *OptimalPolicy) Reset() {}

// Clone returns a new OptimalPolicy.
func (p *OptimalPolicy) Clone() Policy {
	return &OptimalPolicy{}
}
