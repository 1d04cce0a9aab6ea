package paging

import (
	"errors"
	"fmt"
)

// ErrSlotOutOfRange is returned when a slot index does not name a frame.
var ErrSlotOutOfRange = errors.New("paging: slot out of range")

// ErrSlotOccupied is returned when placing a page into an occupied frame.
var ErrSlotOccupied = errors.New("paging: slot is occupied")

// ErrSlotEmpty is returned when evicting from an empty frame.
var ErrSlotEmpty = errors.New("paging: slot is empty")

// ErrAlreadyResident is returned when a page would be loaded twice.
var ErrAlreadyResident = errors.New("paging: page already resident")

// A FrameTable is a fixed-size array of frames. A page key can be resident in
// at most one frame at a time.
type FrameTable struct {
	frames []Frame
	index  map[PageKey]int
}

// NewFrameTable creates a FrameTable with numFrames empty frames.
func NewFrameTable(numFrames int) *FrameTable {
	if numFrames < 0 {
		panic("negative number of frames")
	}

	return &FrameTable{
		frames: make([]Frame, numFrames),
		index:  make(map[PageKey]int, numFrames),
	}
}

// Len returns the number of frames.
func (t *FrameTable) Len() int {
	return len(t.frames)
}

// Frame returns a copy of the frame at the given slot.
func (t *FrameTable) Frame(slot int) Frame {
	return t.frames[slot]
}

// View returns a copy of all the frames.
func (t *FrameTable) View() []Frame {
	view := make([]Frame, len(t.frames))
	copy(view, t.frames)

	return view
}

// Occupied returns the number of frames that hold a page.
func (t *FrameTable) Occupied() int {
	return len(t.index)
}

// IsFull tells if every frame holds a page.
func (t *FrameTable) IsFull() bool {
	return len(t.index) == len(t.frames)
}

// Lookup returns the slot that holds the key.
func (t *FrameTable) Lookup(key PageKey) (int, bool) {
	slot, ok := t.index[key]
	return slot, ok
}

// FirstEmpty returns the lowest empty slot.
func (t *FrameTable) FirstEmpty() (int, bool) {
	if t.IsFull() {
		return 0, false
	}

	for i, f := range t.frames {
		if !f.Occupied {
			return i, true
		}
	}

	return 0, false
}

// PlaceIntoEmpty loads the key into an empty slot.
func (t *FrameTable) PlaceIntoEmpty(slot int, key PageKey, now uint64) error {
	if err := t.slotMustBeValid(slot); err != nil {
		return err
	}

	if t.frames[slot].Occupied {
		return fmt.Errorf("%w: slot %d holds %s",
			ErrSlotOccupied, slot, t.frames[slot].Key)
	}

	if err := t.keyMustNotBeResident(key); err != nil {
		return err
	}

	t.frames[slot] = Frame{
		Occupied:   true,
		Key:        key,
		LoadedAt:   now,
		LastAccess: now,
	}
	t.index[key] = slot

	return nil
}

// EvictAndReplace overwrites an occupied slot with the key and returns the
// key that used to be there.
func (t *FrameTable) EvictAndReplace(
	slot int,
	key PageKey,
	now uint64,
) (PageKey, error) {
	if err := t.slotMustBeValid(slot); err != nil {
		return PageKey{}, err
	}

	if !t.frames[slot].Occupied {
		return PageKey{}, fmt.Errorf("%w: slot %d", ErrSlotEmpty, slot)
	}

	if err := t.keyMustNotBeResident(key); err != nil {
		return PageKey{}, err
	}

	evicted := t.frames[slot].Key
	delete(t.index, evicted)

	t.frames[slot] = Frame{
		Occupied:   true,
		Key:        key,
		LoadedAt:   now,
		LastAccess: now,
	}
	t.index[key] = slot

	return evicted, nil
}

// Touch records an access to an occupied slot.
func (t *FrameTable) Touch(slot int, now uint64) {
	if t.frames[slot].Occupied {
		t.frames[slot].LastAccess = now
	}
}

// Reset empties every frame. The size of the table does not change.
func (t *FrameTable) Reset() {
	for i := range t.frames {
		t.frames[i] = Frame{}
	}

	clear(t.index)
}

// Clone returns a deep copy of the table.
func (t *FrameTable) Clone() *FrameTable {
	c := &FrameTable{
		frames: make([]Frame, len(t.frames)),
		index:  make(map[PageKey]int, len(t.index)),
	}

	copy(c.frames, t.frames)

	for k, v := range t.index {
		c.index[k] = v
	}

	return c
}

func (t *FrameTable) slotMustBeValid(slot int) error {
	if slot < 0 || slot >= len(t.frames) {
		return fmt.Errorf("%w: %d not in [0, %d)",
			ErrSlotOutOfRange, slot, len(t.frames))
	}

	return nil
}

func (t *FrameTable) keyMustNotBeResident(key PageKey) error {
	if slot, ok := t.index[key]; ok {
		return fmt.Errorf("%w: %s in slot %d", ErrAlreadyResident, key, slot)
	}

	return nil
}
