package mapping

import (
	"cmp"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/memkit/memmap/memory"
)

// MemorySet maintains a collection of memory areas, kept sorted ascending
// by start address and never overlapping. It owns the contained areas and
// drives their backends against the caller-owned page table; it performs
// no synchronization of its own.
type MemorySet[A memory.Addr, F any, PT any, B MappingBackend[A, F, PT, B]] struct {
	areas []*MemoryArea[A, F, PT, B]
}

func NewMemorySet[A memory.Addr, F any, PT any, B MappingBackend[A, F, PT, B]]() *MemorySet[A, F, PT, B] {
	return &MemorySet[A, F, PT, B]{}
}

func (s *MemorySet[A, F, PT, B]) Len() int {
	return len(s.areas)
}

func (s *MemorySet[A, F, PT, B]) IsEmpty() bool {
	return len(s.areas) == 0
}

// Range yields the areas in ascending start order. The set must not be
// mutated during iteration.
func (s *MemorySet[A, F, PT, B]) Range(yield func(*MemoryArea[A, F, PT, B]) bool) {
	for _, area := range s.areas {
		if !yield(area) {
			return
		}
	}
}

// searchStart returns the index of the first area whose start is >= addr,
// and whether an area starts exactly at addr.
func (s *MemorySet[A, F, PT, B]) searchStart(addr A) (int, bool) {
	return slices.BinarySearchFunc(s.areas, addr, func(a *MemoryArea[A, F, PT, B], addr A) int {
		return cmp.Compare(a.Start(), addr)
	})
}

// Overlaps reports whether rng overlaps any existing area.
func (s *MemorySet[A, F, PT, B]) Overlaps(rng memory.AddrRange[A]) bool {
	i, _ := s.searchStart(rng.Start)
	if i > 0 && s.areas[i-1].Range().Overlaps(rng) {
		return true
	}
	return i < len(s.areas) && s.areas[i].Range().Overlaps(rng)
}

// Find returns the area containing addr, or nil.
func (s *MemorySet[A, F, PT, B]) Find(addr A) *MemoryArea[A, F, PT, B] {
	i, found := s.searchStart(addr)
	if found {
		return s.areas[i]
	}
	if i > 0 && s.areas[i-1].Range().Contains(addr) {
		return s.areas[i-1]
	}
	return nil
}

// FindFreeArea searches for a gap of at least size bytes, starting the
// search at hint and staying within limit. The returned start address is
// aligned to align. Reports false if no such gap exists.
func (s *MemorySet[A, F, PT, B]) FindFreeArea(hint A, size uint64, limit memory.AddrRange[A], align uint64) (A, bool) {
	lastEnd := memory.AlignUp(max(hint, limit.Start), A(align))
	i, _ := s.searchStart(lastEnd)
	if i > 0 && s.areas[i-1].End() > lastEnd {
		lastEnd = memory.AlignUp(s.areas[i-1].End(), A(align))
	}
	for ; i < len(s.areas); i++ {
		area := s.areas[i]
		if area.End() <= lastEnd {
			continue
		}
		if end, ok := memory.CheckedAdd(lastEnd, size); ok && end <= area.Start() {
			return lastEnd, true
		}
		lastEnd = memory.AlignUp(area.End(), A(align))
	}
	if end, ok := memory.CheckedAdd(lastEnd, size); ok && end <= limit.End {
		return lastEnd, true
	}
	return 0, false
}

func (s *MemorySet[A, F, PT, B]) insert(area *MemoryArea[A, F, PT, B]) {
	i, found := s.searchStart(area.Start())
	if found {
		panic(fmt.Sprintf("mapping: duplicate area start %#x", uint64(area.Start())))
	}
	s.areas = slices.Insert(s.areas, i, area)
}

// Map adds a new mapping to the set, taking ownership of area.
//
// If the new area overlaps existing areas the behavior depends on
// unmapOverlap: when true the overlapped parts are unmapped first, when
// false Map fails with ErrAlreadyExists and nothing is touched.
func (s *MemorySet[A, F, PT, B]) Map(area *MemoryArea[A, F, PT, B], pageTable PT, unmapOverlap bool) error {
	if area == nil || area.Range().IsEmpty() {
		return ErrInvalidParam
	}
	if s.Overlaps(area.Range()) {
		if !unmapOverlap {
			return ErrAlreadyExists
		}
		log.WithFields(log.Fields{"range": area.Range()}).Debug("unmapping overlapped areas")
		if err := s.Unmap(area.Start(), area.Size(), pageTable); err != nil {
			return err
		}
	}
	if err := area.mapArea(pageTable); err != nil {
		log.WithFields(log.Fields{"range": area.Range()}).Warn("backend map failed")
		return err
	}
	s.insert(area)
	return nil
}

// Unmap removes mappings within [start, start+size).
//
// Areas fully contained in the range are removed. Areas intersecting a
// boundary are shrunk, and an area strictly containing the range is split
// in two. The backend is only invoked on the removed sub-ranges. On a
// backend failure the error is returned immediately; areas already
// processed in the same call stay modified.
func (s *MemorySet[A, F, PT, B]) Unmap(start A, size uint64, pageTable PT) error {
	rng, err := memory.AddrRangeFromSize(start, size)
	if err != nil || rng.IsEmpty() {
		return ErrInvalidParam
	}
	i, _ := s.searchStart(start)
	if i > 0 && s.areas[i-1].End() > start {
		i--
	}
	for i < len(s.areas) && s.areas[i].Start() < rng.End {
		area := s.areas[i]
		ov, _ := area.Range().Intersect(rng)
		if err := area.checkCut(ov); err != nil {
			return err
		}
		switch {
		case ov == area.Range():
			if err := area.unmapArea(pageTable); err != nil {
				return err
			}
			s.areas = slices.Delete(s.areas, i, i+1)
		case ov.Start == area.Start():
			if err := area.shrinkLeft(area.Size()-ov.Size(), pageTable); err != nil {
				return err
			}
			i++
		case ov.End == area.End():
			if err := area.shrinkRight(area.Size()-ov.Size(), pageTable); err != nil {
				return err
			}
			i++
		default:
			// The range is strictly inside the area: unmap the middle
			// first, then split the record in two.
			if !area.backend.Unmap(ov.Start, ov.Size(), pageTable) {
				return ErrBadState
			}
			right := area.split(ov.End)
			area.setEnd(ov.Start)
			log.WithFields(log.Fields{"left": area.Range(), "right": right.Range()}).Debug("split area")
			s.areas = slices.Insert(s.areas, i+1, right)
			i += 2
		}
	}
	return nil
}

// Protect changes the flags of mappings within [start, start+size) to
// newFlags, splitting boundary areas so that addresses outside the range
// keep their old flags.
func (s *MemorySet[A, F, PT, B]) Protect(start A, size uint64, newFlags F, pageTable PT) error {
	return s.ProtectWith(start, size, func(F) (F, bool) { return newFlags, true }, pageTable)
}

// ProtectWith changes flags within [start, start+size). update receives
// the current flags of each affected area and returns the flags to apply;
// areas for which it reports false are skipped. The backend is invoked
// only on the intersecting sub-ranges, before any record is restructured,
// so a failing call leaves the current area untouched. Earlier areas stay
// modified, as in Unmap.
func (s *MemorySet[A, F, PT, B]) ProtectWith(start A, size uint64, update func(F) (F, bool), pageTable PT) error {
	rng, err := memory.AddrRangeFromSize(start, size)
	if err != nil || rng.IsEmpty() {
		return ErrInvalidParam
	}
	var toInsert []*MemoryArea[A, F, PT, B]
	var failed error
	for _, area := range s.areas {
		if area.Start() >= rng.End {
			break
		}
		ov, ok := area.Range().Intersect(rng)
		if !ok {
			continue
		}
		newFlags, ok := update(area.Flags())
		if !ok {
			continue
		}
		if failed = area.checkCut(ov); failed != nil {
			break
		}
		if !area.backend.Protect(ov.Start, ov.Size(), newFlags, pageTable) {
			log.WithFields(log.Fields{"range": ov}).Warn("backend protect failed")
			failed = ErrBadState
			break
		}
		switch {
		case ov == area.Range():
			area.setFlags(newFlags)
		case ov.Start == area.Start():
			right := area.split(ov.End)
			area.setFlags(newFlags)
			toInsert = append(toInsert, right)
		case ov.End == area.End():
			right := area.split(ov.Start)
			right.setFlags(newFlags)
			toInsert = append(toInsert, right)
		default:
			right := area.split(ov.End)
			middle := area.split(ov.Start)
			middle.setFlags(newFlags)
			toInsert = append(toInsert, middle, right)
		}
	}
	for _, area := range toInsert {
		s.insert(area)
	}
	return failed
}

// Clear removes every area, unmapping each through its backend. On a
// backend failure the already-cleared prefix stays cleared and the failing
// area remains in the set.
func (s *MemorySet[A, F, PT, B]) Clear(pageTable PT) error {
	for i, area := range s.areas {
		if err := area.unmapArea(pageTable); err != nil {
			s.areas = slices.Delete(s.areas, 0, i)
			return err
		}
	}
	s.areas = nil
	return nil
}
