// Package replacement implements the page replacement policies that decide
// which frame to reclaim when primary memory is full.
package replacement

import (
	"fmt"
	"strings"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/workload"
)

// Kind names a replacement policy.
type Kind int

// The supported replacement policies.
const (
	FIFO Kind = iota
	LRU
	Optimal
)

// AllKinds lists every policy in presentation order.
func AllKinds() []Kind {
	return []Kind{FIFO, LRU, Optimal}
}

func (k Kind) String() string {
	switch k {
	case FIFO:
		return "FIFO"
	case LRU:
		return "LRU"
	case Optimal:
		return "OPTIMAL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// ParseKind converts a policy name to a Kind. Names are case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return FIFO, nil
	case "lru":
		return LRU, nil
	case "optimal", "opt", "belady":
		return Optimal, nil
	default:
		return 0, fmt.Errorf("unknown replacement policy %q", s)
	}
}

// Context carries everything a policy may read or write while resolving one
// reference.
type Context struct {
	// Now is the logical time of the reference being resolved.
	Now uint64

	Frames *paging.FrameTable
	Swap   *paging.SecondaryStore

	// Lookahead is the part of the workload after the current reference.
	// Only the optimal policy reads it.
	Lookahead []workload.Reference
}

// A Decision is the result of resolving one reference.
type Decision struct {
	Outcome    paging.Outcome
	Slot       int
	Evicted    paging.PageKey
	HasEvicted bool
}

// A Policy resolves references against a frame table.
type Policy interface {
	// Kind returns which policy this is.
	Kind() Kind

	// Resolve finds or loads the referenced page, evicting another page if
	// the frame table is full.
	Resolve(key paging.PageKey, ctx Context) (Decision, error)

	// Reset forgets all bookkeeping.
	Reset()

	// Clone returns an independent copy, bookkeeping included.
	Clone() Policy
}

// New creates a policy of the given kind.
func New(kind Kind) (Policy, error) {
	switch kind {
	case FIFO:
		return NewFIFO(), nil
	case LRU:
		return NewLRU(), nil
	case Optimal:
		return NewOptimal(), nil
	default:
		return nil, fmt.Errorf("unknown replacement policy %s", kind)
	}
}

// victimFinder picks the slot to reclaim from a full frame table.
type victimFinder func(key paging.PageKey, ctx Context) (int, error)

// resolve implements the parts that every policy shares. onLoad is called
// after the page lands in a slot; it is not called on a hit.
func resolve(
	key paging.PageKey,
	ctx Context,
	findVictim victimFinder,
	onLoad func(slot int),
) (Decision, error) {
	if slot, ok := ctx.Frames.Lookup(key); ok {
		return Decision{Outcome: paging.Hit, Slot: slot}, nil
	}

	if slot, ok := ctx.Frames.FirstEmpty(); ok {
		err := ctx.Frames.PlaceIntoEmpty(slot, key, ctx.Now)
		if err != nil {
			return Decision{}, err
		}

		onLoad(slot)

		return Decision{Outcome: paging.Miss, Slot: slot}, nil
	}

	slot, err := findVictim(key, ctx)
	if err != nil {
		return Decision{}, err
	}

	evicted, err := ctx.Frames.EvictAndReplace(slot, key, ctx.Now)
	if err != nil {
		return Decision{}, err
	}

	ctx.Swap.Append(evicted, ctx.Now)
	onLoad(slot)

	return Decision{
		Outcome:    paging.Miss,
		Slot:       slot,
		Evicted:    evicted,
		HasEvicted: true,
	}, nil
}
