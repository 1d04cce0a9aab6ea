package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sarchlab/swapstore/paging"
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/sim"
	"github.com/sarchlab/swapstore/workload"
)

// A RunSummary is the saved form of a simulation.
type RunSummary struct {
	ID               string                `json:"id"`
	RAMCapacityBytes uint64                `json:"ram_capacity_bytes"`
	PageSizeBytes    uint64                `json:"page_size_bytes"`
	Frames           int                   `json:"frames"`
	Policy           replacement.Kind      `json:"policy"`
	Descriptors      []workload.Descriptor `json:"descriptors"`
	Statistics       paging.Statistics     `json:"statistics"`
	HitRatePercent   float64               `json:"hit_rate_percent"`
	FaultRatePercent float64               `json:"fault_rate_percent"`
	Timestamp        time.Time             `json:"timestamp"`
}

// Summarize builds the summary of a snapshot taken at t.
func Summarize(s sim.Snapshot, t time.Time) RunSummary {
	return RunSummary{
		ID:               s.ID,
		RAMCapacityBytes: s.RAMCapacityBytes,
		PageSizeBytes:    s.PageSizeBytes,
		Frames:           len(s.Frames),
		Policy:           s.Policy,
		Descriptors:      s.Descriptors,
		Statistics:       s.Statistics,
		HitRatePercent:   s.HitRatePercent,
		FaultRatePercent: s.FaultRatePercent,
		Timestamp:        t.UTC(),
	}
}

// WriteSummary encodes the summary as indented JSON framed with c.
func WriteSummary(w io.Writer, s RunSummary, c Compression) error {
	fw, err := NewWriter(w, c)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(fw)
	enc.SetIndent("", "  ")

	if err := enc.Encode(s); err != nil {
		fw.Close()
		return err
	}

	return fw.Close()
}

// ReadSummary decodes a summary written by WriteSummary.
func ReadSummary(r io.Reader, c Compression) (RunSummary, error) {
	s := RunSummary{}

	fr, err := NewReader(r, c)
	if err != nil {
		return s, err
	}

	err = json.NewDecoder(fr).Decode(&s)

	return s, err
}
