package mapping

import (
	"fmt"

	"github.com/memkit/memmap/memory"
)

// MemoryArea is a continuous range of virtual memory with uniform flags,
// mapped through one backend instance.
type MemoryArea[A memory.Addr, F any, PT any, B MappingBackend[A, F, PT, B]] struct {
	rng     memory.AddrRange[A]
	flags   F
	backend B
}

// NewMemoryArea creates an area covering [start, start+size). Fails with
// memory.ErrAddrOverflow if the end address wraps around.
func NewMemoryArea[A memory.Addr, F any, PT any, B MappingBackend[A, F, PT, B]](start A, size uint64, flags F, backend B) (*MemoryArea[A, F, PT, B], error) {
	rng, err := memory.AddrRangeFromSize(start, size)
	if err != nil {
		return nil, err
	}
	return &MemoryArea[A, F, PT, B]{rng: rng, flags: flags, backend: backend}, nil
}

func (a *MemoryArea[A, F, PT, B]) Range() memory.AddrRange[A] {
	return a.rng
}

func (a *MemoryArea[A, F, PT, B]) Start() A {
	return a.rng.Start
}

func (a *MemoryArea[A, F, PT, B]) End() A {
	return a.rng.End
}

func (a *MemoryArea[A, F, PT, B]) Size() uint64 {
	return a.rng.Size()
}

func (a *MemoryArea[A, F, PT, B]) Flags() F {
	return a.flags
}

func (a *MemoryArea[A, F, PT, B]) Backend() B {
	return a.backend
}

func (a *MemoryArea[A, F, PT, B]) String() string {
	return fmt.Sprintf("MemoryArea(%v, flags: %v)", a.rng, a.flags)
}

func (a *MemoryArea[A, F, PT, B]) setFlags(flags F) {
	a.flags = flags
}

func (a *MemoryArea[A, F, PT, B]) setEnd(end A) {
	a.rng.End = end
}

// mapArea installs the whole area in the page table.
func (a *MemoryArea[A, F, PT, B]) mapArea(pageTable PT) error {
	if !a.backend.Map(a.Start(), a.Size(), a.flags, pageTable) {
		return ErrBadState
	}
	return nil
}

// unmapArea removes the whole area from the page table.
func (a *MemoryArea[A, F, PT, B]) unmapArea(pageTable PT) error {
	if !a.backend.Unmap(a.Start(), a.Size(), pageTable) {
		return ErrBadState
	}
	return nil
}

// shrinkLeft unmaps the leading part of the area so that newSize bytes
// remain at the end.
func (a *MemoryArea[A, F, PT, B]) shrinkLeft(newSize uint64, pageTable PT) error {
	unmapSize := a.Size() - newSize
	if !a.backend.Unmap(a.Start(), unmapSize, pageTable) {
		return ErrBadState
	}
	a.rng.Start = A(uint64(a.rng.Start) + unmapSize)
	return nil
}

// shrinkRight unmaps the trailing part of the area so that newSize bytes
// remain at the start.
func (a *MemoryArea[A, F, PT, B]) shrinkRight(newSize uint64, pageTable PT) error {
	unmapSize := a.Size() - newSize
	if !a.backend.Unmap(A(uint64(a.Start())+newSize), unmapSize, pageTable) {
		return ErrBadState
	}
	a.rng.End = A(uint64(a.rng.End) - unmapSize)
	return nil
}

// split cuts the area at pos, shrinking it to the left part and returning
// the right part with a cloned backend. Returns nil if pos is outside the
// interior of the area or not aligned to the backend page size.
func (a *MemoryArea[A, F, PT, B]) split(pos A) *MemoryArea[A, F, PT, B] {
	if a.Start() >= pos || pos >= a.End() || !memory.IsAligned(uint64(pos), a.backend.PageSize()) {
		return nil
	}
	right := &MemoryArea[A, F, PT, B]{
		rng:     memory.AddrRange[A]{Start: pos, End: a.rng.End},
		flags:   a.flags,
		backend: a.backend.Clone(),
	}
	a.rng.End = pos
	return right
}

// checkCut verifies that the positions where ov cuts into the area are
// aligned to the backend page size.
func (a *MemoryArea[A, F, PT, B]) checkCut(ov memory.AddrRange[A]) error {
	pageSize := a.backend.PageSize()
	if ov.Start > a.Start() && !memory.IsAligned(uint64(ov.Start), pageSize) {
		return ErrInvalidParam
	}
	if ov.End < a.End() && !memory.IsAligned(uint64(ov.End), pageSize) {
		return ErrInvalidParam
	}
	return nil
}
