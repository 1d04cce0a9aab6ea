// Package paging defines the primary-memory model of the simulator: the
// frames that hold pages, the swap log that records evictions, and the
// counters derived from both.
package paging

import "fmt"

// OwnerID identifies the process that owns a page.
type OwnerID int

// A PageKey identifies a page in the union of all simulated address spaces.
type PageKey struct {
	OwnerID    OwnerID `json:"owner_id"`
	PageNumber int     `json:"page_number"`
}

// MakePageKey creates a PageKey.
func MakePageKey(owner OwnerID, page int) PageKey {
	return PageKey{OwnerID: owner, PageNumber: page}
}

// String formats the key as owner:page.
func (k PageKey) String() string {
	return fmt.Sprintf("%d:%d", k.OwnerID, k.PageNumber)
}

// Outcome tells if a reference found its page resident.
type Outcome int

// Possible outcomes of resolving one reference.
const (
	Hit Outcome = iota
	Miss
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "HIT"
	case Miss:
		return "MISS"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome as HIT or MISS.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// A Frame is one slot of primary memory. LoadedAt and LastAccess are logical
// times and are only meaningful when the frame is occupied.
type Frame struct {
	Occupied   bool    `json:"occupied"`
	Key        PageKey `json:"key"`
	LoadedAt   uint64  `json:"loaded_at"`
	LastAccess uint64  `json:"last_access"`
}
