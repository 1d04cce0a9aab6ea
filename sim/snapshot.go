package sim

import (
	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/workload"
)

// A Snapshot is a consistent copy of the state of a Controller.
type Snapshot struct {
	ID    string `json:"id"`
	State State  `json:"state"`

	Policy           replacement.Kind      `json:"policy"`
	RAMCapacityBytes uint64                `json:"ram_capacity_bytes"`
	PageSizeBytes    uint64                `json:"page_size_bytes"`
	Descriptors      []workload.Descriptor `json:"descriptors"`

	Frames     []paging.Frame     `json:"frames"`
	Swap       []paging.SwapEntry `json:"swap"`
	Statistics paging.Statistics  `json:"statistics"`

	HitRatePercent   float64 `json:"hit_rate_percent"`
	FaultRatePercent float64 `json:"fault_rate_percent"`
	Cursor         int     `json:"cursor"`
	WorkloadLength int     `json:"workload_length"`
	Time           uint64  `json:"time"`

	UsedBytes   uint64 `json:"used_bytes"`
	FreeBytes   uint64 `json:"free_bytes"`
	SwapEntries int    `json:"swap_entries"`
}

// Snapshot returns the current state. Before Initialize only the ID and the
// state are set.
func (c *Controller) Snapshot() Snapshot {
	c.lock.Lock()
	defer c.lock.Unlock()

	s := Snapshot{
		ID:    c.id,
		State: c.state,
	}

	if c.state == Uninitialized {
		return s
	}

	cfg := c.config.clone()
	s.Policy = cfg.Policy
	s.RAMCapacityBytes = cfg.RAMCapacityBytes
	s.PageSizeBytes = cfg.PageSizeBytes
	s.Descriptors = cfg.Descriptors

	s.Frames = c.frames.View()
	s.Swap = c.swap.Entries()
	s.Statistics = c.stats
	s.HitRatePercent = c.stats.HitRatePercent()
	s.FaultRatePercent = c.stats.FaultRatePercent()
	s.Cursor = c.cursor
	s.WorkloadLength = len(c.workload)
	s.Time = c.clock

	s.UsedBytes = uint64(c.frames.Occupied()) * cfg.PageSizeBytes
	s.FreeBytes = cfg.RAMCapacityBytes - s.UsedBytes
	s.SwapEntries = c.swap.Len()

	return s
}
