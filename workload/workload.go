// Package workload builds the page reference strings that a simulation
// replays.
package workload

import (
	"math/rand"

	"github.com/sarchlab/swapstore/paging"
)

// maxRandomAccesses caps the number of extra random references emitted per
// descriptor.
const maxRandomAccesses = 20

// A Descriptor describes a process whose pages are referenced.
type Descriptor struct {
	ID        paging.OwnerID `json:"id"`
	Name      string         `json:"name"`
	PageCount int            `json:"page_count"`

	// SizeBytes is the size of the file the descriptor was built from, if
	// any.
	SizeBytes int64 `json:"size_bytes,omitempty"`
}

// A Reference is one page access in a workload.
type Reference struct {
	OwnerID    paging.OwnerID `json:"owner_id"`
	PageNumber int            `json:"page_number"`
}

// Key returns the page that the reference accesses.
func (r Reference) Key() paging.PageKey {
	return paging.MakePageKey(r.OwnerID, r.PageNumber)
}

// A Generator turns descriptors into a shuffled reference string.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator that draws from rng. Two generators with
// identically seeded sources produce identical workloads.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		panic("workload generator requires a random source")
	}

	return &Generator{rng: rng}
}

// Length returns the number of references that Generate emits for the
// descriptors.
func Length(descriptors []Descriptor) int {
	n := 0
	for _, d := range descriptors {
		if d.PageCount <= 0 {
			continue
		}

		n += d.PageCount + randomAccesses(d.PageCount)
	}

	return n
}

// Generate emits, for each descriptor, a sequential scan over its pages
// followed by a few random re-accesses, and then shuffles the whole string.
func (g *Generator) Generate(descriptors []Descriptor) []Reference {
	refs := make([]Reference, 0, Length(descriptors))

	for _, d := range descriptors {
		if d.PageCount <= 0 {
			continue
		}

		for page := 0; page < d.PageCount; page++ {
			refs = append(refs, Reference{OwnerID: d.ID, PageNumber: page})
		}

		for i := 0; i < randomAccesses(d.PageCount); i++ {
			refs = append(refs, Reference{
				OwnerID:    d.ID,
				PageNumber: g.rng.Intn(d.PageCount),
			})
		}
	}

	g.shuffle(refs)

	return refs
}

func (g *Generator) shuffle(refs []Reference) {
	for i := len(refs) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		refs[i], refs[j] = refs[j], refs[i]
	}
}

func randomAccesses(pageCount int) int {
	return min(maxRandomAccesses, pageCount*2)
}
