package paging

// A SwapEntry records a page that was evicted from primary memory.
type SwapEntry struct {
	Key       PageKey `json:"key"`
	EvictedAt uint64  `json:"evicted_at"`
}

// A SecondaryStore is an append-only log of evicted pages. Entries stay in
// the log even after the same page is loaded back into a frame.
type SecondaryStore struct {
	entries []SwapEntry
}

// NewSecondaryStore creates an empty SecondaryStore.
func NewSecondaryStore() *SecondaryStore {
	return &SecondaryStore{}
}

// Append adds an eviction record to the end of the log.
func (s *SecondaryStore) Append(key PageKey, now uint64) {
	s.entries = append(s.entries, SwapEntry{Key: key, EvictedAt: now})
}

// Len returns the number of entries.
func (s *SecondaryStore) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the log, oldest first.
func (s *SecondaryStore) Entries() []SwapEntry {
	view := make([]SwapEntry, len(s.entries))
	copy(view, s.entries)

	return view
}

// Reset drops every entry.
func (s *SecondaryStore) Reset() {
	s.entries = nil
}

// Clone returns a deep copy of the log.
func (s *SecondaryStore) Clone() *SecondaryStore {
	return &SecondaryStore{entries: s.Entries()}
}
