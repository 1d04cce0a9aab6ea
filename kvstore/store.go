// Package kvstore implements a key-value store whose entries live in pages.
// A small number of pages fit in primary memory. The rest are swapped out to
// secondary storage and swapped back in when they are accessed again.
package kvstore

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
)

// DefaultCapacity is the number of pages that fit in primary memory when no
// capacity is given.
const DefaultCapacity = 5

// owner is the owner of every page of the store.
const owner paging.OwnerID = 0

// ErrEmptyKey is returned when a key is empty.
var ErrEmptyKey = errors.New("kvstore: empty key")

// ErrNeedsLookahead is returned for policies that need the future reference
// string, which a store serving live requests never has.
var ErrNeedsLookahead = errors.New(
	"kvstore: policy needs the future reference string")

// A Page holds one entry. Times are logical and count operations.
type Page struct {
	ID          int
	Key         string
	Value       []byte
	AccessCount uint64
	CreatedAt   uint64
	LastAccess  uint64
}

// PageInfo describes a page without its value.
type PageInfo struct {
	ID           int    `json:"id"`
	Key          string `json:"key"`
	Size         int    `json:"size"`
	AccessCount  uint64 `json:"access_count"`
	LastAccessed uint64 `json:"last_accessed"`
	CreatedAt    uint64 `json:"created_at"`
}

func (p *Page) info() PageInfo {
	return PageInfo{
		ID:           p.ID,
		Key:          p.Key,
		Size:         len(p.Value),
		AccessCount:  p.AccessCount,
		LastAccessed: p.LastAccess,
		CreatedAt:    p.CreatedAt,
	}
}

// Status is a copy of the state of a Store.
type Status struct {
	Policy          replacement.Kind `json:"policy"`
	PrimaryPages    []PageInfo       `json:"primary_pages"`
	SecondaryPages  []PageInfo       `json:"secondary_pages"`
	PrimaryUsed     int              `json:"primary_used"`
	SecondaryUsed   int              `json:"secondary_used"`
	PrimaryCapacity int              `json:"primary_capacity"`
	PageFaults      uint64           `json:"page_faults"`
	TotalOperations uint64           `json:"total_operations"`
	HitRatePercent  float64          `json:"hit_rate"`
	SwapOuts        int              `json:"swap_outs"`
}

// Store is a paged key-value store. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	frames *paging.FrameTable
	swap   *paging.SecondaryStore
	policy replacement.Policy

	pages  map[int]*Page
	ids    map[string]int
	nextID int
	clock  uint64

	faults     uint64
	operations uint64
}

// New creates an empty Store with capacity pages of primary memory.
func New(capacity int, kind replacement.Kind) (*Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("kvstore: capacity %d is not positive", capacity)
	}

	if kind == replacement.Optimal {
		return nil, fmt.Errorf("%w: %s", ErrNeedsLookahead, kind)
	}

	policy, err := replacement.New(kind)
	if err != nil {
		return nil, err
	}

	return &Store{
		frames: paging.NewFrameTable(capacity),
		swap:   paging.NewSecondaryStore(),
		policy: policy,
		pages:  make(map[int]*Page),
		ids:    make(map[string]int),
	}, nil
}

// Put stores value under key. Updating a swapped-out entry swaps it back in
// and counts as a page fault. Creating an entry never does.
func (s *Store) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations++

	if id, ok := s.ids[key]; ok {
		page := s.pages[id]

		if err := s.access(page); err != nil {
			return err
		}

		page.Value = slices.Clone(value)

		return nil
	}

	page := &Page{
		ID:        s.nextID,
		Key:       key,
		Value:     slices.Clone(value),
		CreatedAt: s.clock + 1,
	}

	if err := s.load(page); err != nil {
		return err
	}

	s.nextID++
	s.pages[page.ID] = page
	s.ids[key] = page.ID

	return nil
}

// Get returns the value stored under key. Reading a swapped-out entry swaps
// it back in and counts as a page fault.
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operations++

	id, ok := s.ids[key]
	if !ok {
		return nil, false, nil
	}

	page := s.pages[id]
	if err := s.access(page); err != nil {
		return nil, false, err
	}

	return slices.Clone(page.Value), true, nil
}

func (s *Store) access(page *Page) error {
	d, err := s.resolve(page)
	if err != nil {
		return err
	}

	page.AccessCount++

	if d.Outcome == paging.Miss {
		s.faults++
	}

	return nil
}

func (s *Store) load(page *Page) error {
	_, err := s.resolve(page)
	return err
}

func (s *Store) resolve(page *Page) (replacement.Decision, error) {
	s.clock++

	d, err := s.policy.Resolve(
		paging.MakePageKey(owner, page.ID),
		replacement.Context{
			Now:    s.clock,
			Frames: s.frames,
			Swap:   s.swap,
		},
	)
	if err != nil {
		return d, err
	}

	page.LastAccess = s.clock

	return d, nil
}

// Status returns the pages in each tier, ordered by ID, and the counters.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Policy:          s.policy.Kind(),
		PrimaryPages:    []PageInfo{},
		SecondaryPages:  []PageInfo{},
		PrimaryCapacity: s.frames.Len(),
		PageFaults:      s.faults,
		TotalOperations: s.operations,
		SwapOuts:        s.swap.Len(),
	}

	ids := make([]int, 0, len(s.pages))
	for id := range s.pages {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	for _, id := range ids {
		page := s.pages[id]

		if _, resident := s.frames.Lookup(paging.MakePageKey(owner, id)); resident {
			st.PrimaryPages = append(st.PrimaryPages, page.info())
		} else {
			st.SecondaryPages = append(st.SecondaryPages, page.info())
		}
	}

	st.PrimaryUsed = len(st.PrimaryPages)
	st.SecondaryUsed = len(st.SecondaryPages)

	if s.operations > 0 {
		st.HitRatePercent = float64(s.operations-s.faults) /
			float64(s.operations) * 100
	}

	return st
}

// Clear drops every entry and resets the counters. The capacity and the
// policy are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames.Reset()
	s.swap.Reset()
	s.policy.Reset()

	clear(s.pages)
	clear(s.ids)

	s.nextID = 0
	s.clock = 0
	s.faults = 0
	s.operations = 0
}
