package gamefs

import (
	"bufio"
	"sync"

	"github.com/absfs/absfs"
)

// Handle identifies an open file. The zero Handle never refers to a file.
type Handle int32

type backendKind uint8

const (
	backendPlain backendKind = iota + 1
	backendArchived
)

func (k backendKind) String() string {
	switch k {
	case backendPlain:
		return "plain"
	case backendArchived:
		return "archived"
	}
	return "none"
}

// plainFile is a handle backed by a host file the handle owns exclusively.
type plainFile struct {
	f        absfs.File
	w        *bufio.Writer // nil for read handles and unbuffered handles
	size     int64         // length when opened
	writable bool
	sync     bool // flush after every write
	locked   bool
}

// archivedFile is a handle backed by an entry inside a mounted archive.
type archivedFile struct {
	archive *mountedArchive // shared reader, nil when unique
	own     Archive         // exclusively owned reader, nil when shared
	cursor  EntryCursor
	base    int64
	size    int64
	pos     int64
}

func (a *archivedFile) unique() bool {
	return a.own != nil
}

// handleSlot holds exactly one backend, selected by kind.
type handleSlot struct {
	mu       sync.Mutex
	name     string
	source   string // host path of the file or archive serving the handle
	kind     backendKind
	streamed bool
	plain    *plainFile
	archived *archivedFile
}

// handleTable is a fixed-capacity registry of open files. Index 0 is
// reserved. allocate and release are serialized by mu; operations on one
// slot are serialized by the slot's own mutex.
type handleTable struct {
	mu    sync.Mutex
	slots []*handleSlot
}

func newHandleTable(capacity int) *handleTable {
	return &handleTable{slots: make([]*handleSlot, capacity+1)}
}

// allocate binds slot to the lowest free index. A full table is fatal; the
// caller still owns the slot's backend in that case.
func (t *handleTable) allocate(slot *handleSlot) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 1; i < len(t.slots); i++ {
		if t.slots[i] == nil {
			t.slots[i] = slot
			metricHandlesOpen.Inc()
			return Handle(i), nil
		}
	}
	return 0, fatalf(ErrNoFreeHandles, "allocate %s", slot.name)
}

// get returns the live slot for h.
func (t *handleTable) get(h Handle) (*handleSlot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h <= 0 || int(h) >= len(t.slots) {
		return nil, fatalf(ErrInvalidHandle, "handle %d out of range", h)
	}
	slot := t.slots[h]
	if slot == nil {
		return nil, fatalf(ErrInvalidHandle, "handle %d not open", h)
	}
	return slot, nil
}

// release clears index h and returns the slot that occupied it.
func (t *handleTable) release(h Handle) (*handleSlot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h <= 0 || int(h) >= len(t.slots) {
		return nil, fatalf(ErrInvalidHandle, "handle %d out of range", h)
	}
	slot := t.slots[h]
	if slot == nil {
		return nil, fatalf(ErrInvalidHandle, "handle %d not open", h)
	}
	t.slots[h] = nil
	metricHandlesOpen.Dec()
	return slot, nil
}

// live returns the indices of every open handle.
func (t *handleTable) live() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Handle
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i] != nil {
			out = append(out, Handle(i))
		}
	}
	return out
}

// capacity is the number of usable slots.
func (t *handleTable) capacity() int {
	return len(t.slots) - 1
}
