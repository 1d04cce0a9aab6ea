// Package process keeps the table of simulated processes. It accounts for
// the swap space used by swapped-out processes and for the secondary storage
// used by loaded files.
package process

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sarchlab/swapstore/workload"
)

// FirstPID is the PID of the first process of a table.
const FirstPID = 1000

// Default capacities of a table.
const (
	DefaultSecondaryCapacity uint64 = 1 << 30
	DefaultSwapCapacity      uint64 = 512 << 20
)

// Errors returned by a Table.
var (
	ErrNotFound  = errors.New("process: no such process")
	ErrSwapFull  = errors.New("process: not enough swap space")
	ErrBadStatus = errors.New("process: invalid status change")
)

// Status is the scheduling status of a process.
type Status int

// The statuses a process can be in.
const (
	Active Status = iota
	SwappedOut
	Waiting
	Blocked
)

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case SwappedOut:
		return "swapped_out"
	case Waiting:
		return "waiting"
	case Blocked:
		return "blocked"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// ParseStatus converts a status name to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return Active, nil
	case "swapped_out", "swapped-out", "swapped":
		return SwappedOut, nil
	case "waiting":
		return Waiting, nil
	case "blocked":
		return Blocked, nil
	default:
		return 0, fmt.Errorf("unknown process status %q", s)
	}
}

// A Process is one entry of the table.
type Process struct {
	PID          int       `json:"pid"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	MemoryBytes  uint64    `json:"memory_bytes"`
	SwapBytes    uint64    `json:"swap_bytes"`
	Priority     int       `json:"priority"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// A File is a file that occupies secondary storage.
type File struct {
	Name      string `json:"name"`
	SizeBytes uint64 `json:"size_bytes"`
}

// StorageStats summarizes the use of secondary storage and swap space.
type StorageStats struct {
	SecondaryTotal     uint64 `json:"secondary_total"`
	SecondaryUsed      uint64 `json:"secondary_used"`
	SecondaryAvailable uint64 `json:"secondary_available"`
	SwapTotal          uint64 `json:"swap_total"`
	SwapUsed           uint64 `json:"swap_used"`
	SwapAvailable      uint64 `json:"swap_available"`
	FilesLoaded        int    `json:"files_loaded"`
	TotalFileSize      uint64 `json:"total_file_size"`
}

// Table holds processes and loaded files. It is safe for concurrent use.
type Table struct {
	mu sync.Mutex

	processes map[int]*Process
	files     []File
	nextPID   int

	secondaryCapacity uint64
	swapCapacity      uint64

	now func() time.Time
}

// NewTable creates an empty table with the given capacities in bytes.
func NewTable(secondaryCapacity, swapCapacity uint64) *Table {
	return &Table{
		processes:         make(map[int]*Process),
		nextPID:           FirstPID,
		secondaryCapacity: secondaryCapacity,
		swapCapacity:      swapCapacity,
		now:               time.Now,
	}
}

// Create adds an active process and returns it.
func (t *Table) Create(name string, memoryBytes uint64, priority int) Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	p := &Process{
		PID:          t.nextPID,
		Name:         name,
		Status:       Active,
		MemoryBytes:  memoryBytes,
		Priority:     priority,
		LastActivity: now,
		CreatedAt:    now,
	}

	t.processes[p.PID] = p
	t.nextPID++

	return *p
}

// Admit creates one process per descriptor, sized by its page count, and
// records the files the descriptors were built from. It returns the new
// processes in descriptor order.
func (t *Table) Admit(
	descriptors []workload.Descriptor,
	pageSize uint64,
) []Process {
	created := make([]Process, 0, len(descriptors))

	for _, d := range descriptors {
		if d.SizeBytes > 0 {
			t.LoadFile(d.Name, uint64(d.SizeBytes))
		}

		created = append(created,
			t.Create(d.Name, uint64(d.PageCount)*pageSize, 0))
	}

	return created
}

// Get returns the process with the PID.
func (t *Table) Get(pid int) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.find(pid)
	if err != nil {
		return Process{}, err
	}

	return *p, nil
}

// List returns the processes ordered by PID. When statuses are given, only
// processes in one of them are returned.
func (t *Table) List(statuses ...Status) []Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := make([]Process, 0, len(t.processes))
	for _, p := range t.processes {
		if len(statuses) > 0 && !slices.Contains(statuses, p.Status) {
			continue
		}

		list = append(list, *p)
	}

	slices.SortFunc(list, func(a, b Process) int { return a.PID - b.PID })

	return list
}

// SetStatus moves a process between the active, waiting and blocked
// statuses. Swapping goes through SwapOut and SwapIn.
func (t *Table) SetStatus(pid int, s Status) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.find(pid)
	if err != nil {
		return Process{}, err
	}

	if s == SwappedOut || p.Status == SwappedOut {
		return Process{}, fmt.Errorf("%w: %s to %s", ErrBadStatus, p.Status, s)
	}

	p.Status = s
	p.LastActivity = t.now()

	return *p, nil
}

// SwapOut moves the memory of a process into swap space.
func (t *Table) SwapOut(pid int) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.find(pid)
	if err != nil {
		return Process{}, err
	}

	if p.Status == SwappedOut {
		return Process{}, fmt.Errorf("%w: %d is already swapped out",
			ErrBadStatus, pid)
	}

	if t.swapUsed()+p.MemoryBytes > t.swapCapacity {
		return Process{}, fmt.Errorf("%w: %d needs %d bytes",
			ErrSwapFull, pid, p.MemoryBytes)
	}

	p.Status = SwappedOut
	p.SwapBytes = p.MemoryBytes
	p.LastActivity = t.now()

	return *p, nil
}

// SwapIn brings a swapped-out process back and frees its swap space.
func (t *Table) SwapIn(pid int) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.find(pid)
	if err != nil {
		return Process{}, err
	}

	if p.Status != SwappedOut {
		return Process{}, fmt.Errorf("%w: %d is %s", ErrBadStatus, pid, p.Status)
	}

	p.Status = Active
	p.SwapBytes = 0
	p.LastActivity = t.now()

	return *p, nil
}

// Remove deletes a process and returns what it was.
func (t *Table) Remove(pid int) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.find(pid)
	if err != nil {
		return Process{}, err
	}

	delete(t.processes, pid)

	return *p, nil
}

// LoadFile records a file in secondary storage.
func (t *Table) LoadFile(name string, sizeBytes uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.files = append(t.files, File{Name: name, SizeBytes: sizeBytes})
}

// Files returns the loaded files in load order.
func (t *Table) Files() []File {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Clone(t.files)
}

// StorageStats returns the use of secondary storage and swap space.
// Available space never goes below zero.
func (t *Table) StorageStats() StorageStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fileBytes uint64
	for _, f := range t.files {
		fileBytes += f.SizeBytes
	}

	swapUsed := t.swapUsed()

	return StorageStats{
		SecondaryTotal:     t.secondaryCapacity,
		SecondaryUsed:      fileBytes,
		SecondaryAvailable: saturatingSub(t.secondaryCapacity, fileBytes),
		SwapTotal:          t.swapCapacity,
		SwapUsed:           swapUsed,
		SwapAvailable:      saturatingSub(t.swapCapacity, swapUsed),
		FilesLoaded:        len(t.files),
		TotalFileSize:      fileBytes,
	}
}

// Clear removes every process and file. PIDs start over.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.processes)
	t.files = nil
	t.nextPID = FirstPID
}

func (t *Table) find(pid int) (*Process, error) {
	p, ok := t.processes[pid]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, pid)
	}

	return p, nil
}

func (t *Table) swapUsed() uint64 {
	var used uint64
	for _, p := range t.processes {
		used += p.SwapBytes
	}

	return used
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}

	return a - b
}
