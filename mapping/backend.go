package mapping

import "github.com/memkit/memmap/memory"

// MappingBackend performs the actual mapping operations against the
// caller-owned page table resource PT. The core never inspects PT itself.
//
// The backend can be different for different memory areas: for linear
// mappings the target physical address is known up front, while lazy
// mappings install empty entries to trigger faults later. A backend value
// is cloned whenever its owning area is split, so each sub-area drives
// further calls independently.
//
// All three operations return false when any part of the range cannot be
// applied; the page table may then be partially updated.
type MappingBackend[A memory.Addr, F any, PT any, B any] interface {
	// Clone returns a copy of the backend for a split-off area.
	Clone() B
	// PageSize reports the granularity the backend maps at. Areas are
	// never cut at positions that are not aligned to it. Must be a power
	// of two; 1 means no restriction.
	PageSize() uint64
	Map(start A, size uint64, flags F, pageTable PT) bool
	Unmap(start A, size uint64, pageTable PT) bool
	Protect(start A, size uint64, newFlags F, pageTable PT) bool
}
