package replacement

import (
	"errors"
	"math"

	"github.com/sarchlab/swapstore/paging"
)

// LRUPolicy evicts the page whose last access is the oldest.
type LRUPolicy struct {
	lastAccess map[paging.PageKey]uint64
}

// NewLRU creates an LRUPolicy.
func NewLRU() *LRUPolicy {
	return &LRUPolicy{
		lastAccess: make(map[paging.PageKey]uint64),
	}
}

// Kind returns LRU.
func (p *LRUPolicy) Kind() Kind {
	return LRU
}

// LastAccess returns the recorded access time of a page. Pages without a
// record report time 0.
func (p *LRUPolicy) LastAccess(key paging.PageKey) uint64 {
	return p.lastAccess[key]
}

// Resolve resolves one reference.
func (p *LRUPolicy) Resolve(
	key paging.PageKey,
	ctx Context,
) (Decision, error) {
	d, err := resolve(key, ctx, p.victim, func(int) {
		p.lastAccess[key] = ctx.Now
	})
	if err != nil {
		return d, err
	}

	if d.Outcome == paging.Hit {
		p.lastAccess[key] = ctx.Now
		ctx.Frames.Touch(d.Slot, ctx.Now)
	}

	if d.HasEvicted {
		delete(p.lastAccess, d.Evicted)
	}

	return d, nil
}

// victim scans the frames in slot order and keeps the first one with the
// smallest access time.
func (p *LRUPolicy) victim(_ paging.PageKey, ctx Context) (int, error) {
	victim := -1
	oldest := uint64(math.MaxUint64)

	for slot, f := range ctx.Frames.View() {
		if !f.Occupied {
			continue
		}

		t := p.lastAccess[f.Key]
		if victim < 0 || t < oldest {
			victim = slot
			oldest = t
		}
	}

	if victim < 0 {
		return 0, errors.New("lru: no resident page to evict")
	}

	return victim, nil
}

// Reset forgets all access times.
func (p *LRUPolicy) Reset() {
	clear(p.lastAccess)
}

// Clone copies the policy and its access times.
func (p *LRUPolicy) Clone() Policy {
	c := NewLRU()
	for k, v := range p.lastAccess {
		c.lastAccess[k] = v
	}

	return c
}
