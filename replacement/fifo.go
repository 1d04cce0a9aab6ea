package replacement

import (
	"errors"

	"github.com/sarchlab/swapstore/paging"
)

// FIFOPolicy evicts the page that has been resident the longest.
type FIFOPolicy struct {
	queue []int
}

// NewFIFO creates a FIFOPolicy.
func NewFIFO() *FIFOPolicy {
	return &FIFOPolicy{}
}

// Kind returns FIFO.
func (p *FIFOPolicy) Kind() Kind {
	return FIFO
}

// Queue returns the slots in admission order, oldest first.
func (p *FIFOPolicy) Queue() []int {
	q := make([]int, len(p.queue))
	copy(q, p.queue)

	return q
}

// Resolve resolves one reference.
func (p *FIFOPolicy) Resolve(
	key paging.PageKey,
	ctx Context,
) (Decision, error) {
	return resolve(key, ctx, p.victim, p.admit)
}

func (p *FIFOPolicy) victim(_ paging.PageKey, _ Context) (int, error) {
	if len(p.queue) == 0 {
		return 0, errors.New("fifo: admission queue is empty")
	}

	slot := p.queue[0]
	p.queue = p.queue[1:]

	return slot, nil
}

func (p *FIFOPolicy) admit(slot int) {
	p.queue = append(p.queue, slot)
}

// Reset empties the admission queue.
func (p *FIFOPolicy) Reset() {
	p.queue = nil
}

// Clone copies the policy and its queue.
func (p *FIFOPolicy) Clone() Policy {
	return &FIFOPolicy{queue: p.Queue()}
}
