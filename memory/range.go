package memory

import "fmt"

// AddrRange is a half-open address interval [Start, End).
type AddrRange[A Addr] struct {
	Start A
	End   A
}

// NewAddrRange creates a range from its bounds. Fails with ErrInvalidRange
// if end is less than start.
func NewAddrRange[A Addr](start, end A) (AddrRange[A], error) {
	if end < start {
		return AddrRange[A]{}, ErrInvalidRange
	}
	return AddrRange[A]{Start: start, End: end}, nil
}

// AddrRangeFromSize creates the range [start, start+size). Fails with
// ErrAddrOverflow if the end address wraps around.
func AddrRangeFromSize[A Addr](start A, size uint64) (AddrRange[A], error) {
	end, ok := CheckedAdd(start, size)
	if !ok {
		return AddrRange[A]{}, ErrAddrOverflow
	}
	return AddrRange[A]{Start: start, End: end}, nil
}

func (r AddrRange[A]) Size() uint64 {
	if r.IsEmpty() {
		return 0
	}
	return uint64(r.End) - uint64(r.Start)
}

func (r AddrRange[A]) IsEmpty() bool {
	return r.Start >= r.End
}

func (r AddrRange[A]) Contains(addr A) bool {
	return r.Start <= addr && addr < r.End
}

func (r AddrRange[A]) ContainsRange(other AddrRange[A]) bool {
	return r.Start <= other.Start && other.End <= r.End
}

func (r AddrRange[A]) ContainedIn(other AddrRange[A]) bool {
	return other.ContainsRange(r)
}

// Overlaps reports whether the two ranges share any address. Empty ranges
// overlap nothing, including themselves.
func (r AddrRange[A]) Overlaps(other AddrRange[A]) bool {
	return r.Start < other.End && other.Start < r.End
}

// Intersect returns the part shared by r and other, and whether the two
// ranges overlap at all.
func (r AddrRange[A]) Intersect(other AddrRange[A]) (AddrRange[A], bool) {
	if !r.Overlaps(other) {
		return AddrRange[A]{}, false
	}
	return AddrRange[A]{Start: max(r.Start, other.Start), End: min(r.End, other.End)}, true
}

// Subtract removes other from r, leaving zero, one or two remainders.
func (r AddrRange[A]) Subtract(other AddrRange[A]) []AddrRange[A] {
	if r.IsEmpty() {
		return nil
	}
	if !r.Overlaps(other) {
		return []AddrRange[A]{r}
	}
	var rest []AddrRange[A]
	if r.Start < other.Start {
		rest = append(rest, AddrRange[A]{Start: r.Start, End: other.Start})
	}
	if other.End < r.End {
		rest = append(rest, AddrRange[A]{Start: other.End, End: r.End})
	}
	return rest
}

func (r AddrRange[A]) String() string {
	return fmt.Sprintf("[%#x, %#x)", uint64(r.Start), uint64(r.End))
}
