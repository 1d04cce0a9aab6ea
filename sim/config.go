package sim

import (
	"github.com/sarchlab/swapstore/replacement"
	"github.com/sarchlab/swapstore/workload"
)

// Config describes one simulation run.
type Config struct {
	RAMCapacityBytes uint64                `json:"ram_capacity_bytes"`
	PageSizeBytes    uint64                `json:"page_size_bytes"`
	Policy           replacement.Kind      `json:"policy"`
	Descriptors      []workload.Descriptor `json:"descriptors"`
}

// NumFrames returns how many whole pages fit in the RAM capacity.
func (c Config) NumFrames() int {
	if c.PageSizeBytes == 0 {
		return 0
	}

	return int(c.RAMCapacityBytes / c.PageSizeBytes)
}

func (c Config) clone() Config {
	c.Descriptors = append([]workload.Descriptor(nil), c.Descriptors...)
	return c
}

func (c Config) validate(requireDescriptors bool) error {
	if requireDescriptors && len(c.Descriptors) == 0 {
		return &ConfigurationError{Field: "descriptors", Reason: "is empty"}
	}

	if err := c.validateDescriptors(); err != nil {
		return err
	}

	if c.RAMCapacityBytes == 0 {
		return &ConfigurationError{
			Field:  "ram_capacity_bytes",
			Reason: "must be positive",
		}
	}

	if c.PageSizeBytes == 0 {
		return &ConfigurationError{
			Field:  "page_size_bytes",
			Reason: "must be positive",
		}
	}

	if c.NumFrames() == 0 {
		return &ConfigurationError{
			Field:  "ram_capacity_bytes",
			Reason: "is smaller than one page",
		}
	}

	if _, err := replacement.New(c.Policy); err != nil {
		return &ConfigurationError{Field: "policy", Reason: err.Error()}
	}

	return nil
}

func (c Config) validateDescriptors() error {
	seen := make(map[int]bool, len(c.Descriptors))

	for _, d := range c.Descriptors {
		if d.PageCount < 0 {
			return &ConfigurationError{
				Field:  "descriptors",
				Reason: "contain a negative page count for " + d.Name,
			}
		}

		if seen[int(d.ID)] {
			return &ConfigurationError{
				Field:  "descriptors",
				Reason: "contain a duplicated id",
			}
		}

		seen[int(d.ID)] = true
	}

	return nil
}
