package memory

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Addr is the constraint satisfied by address types.
type Addr interface {
	~uint64
}

// VirtAddr is a virtual memory address.
type VirtAddr uint64

// PhysAddr is a physical memory address.
type PhysAddr uint64

const (
	PAGE_SIZE_4K uint64 = 0x1000
	PAGE_SIZE_2M uint64 = 0x20_0000
	PAGE_SIZE_1G uint64 = 0x4000_0000
)

func checkAlign[I constraints.Integer](align I) {
	if align <= 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("memory: alignment %#x is not a power of two", uint64(align)))
	}
}

// AlignDown rounds a down to a multiple of align. The alignment must be a
// power of two.
func AlignDown[I constraints.Integer](a, align I) I {
	checkAlign(align)
	return a &^ (align - 1)
}

// AlignUp rounds a up to a multiple of align. The alignment must be a power
// of two.
func AlignUp[I constraints.Integer](a, align I) I {
	checkAlign(align)
	return (a + align - 1) &^ (align - 1)
}

// AlignOffset returns the offset of a within align, i.e. a % align.
func AlignOffset[I constraints.Integer](a, align I) I {
	checkAlign(align)
	return a & (align - 1)
}

// IsAligned reports whether a is a multiple of align.
func IsAligned[I constraints.Integer](a, align I) bool {
	return AlignOffset(a, align) == 0
}

func AlignDown4K[A Addr](a A) A { return AlignDown(a, A(PAGE_SIZE_4K)) }

func AlignUp4K[A Addr](a A) A { return AlignUp(a, A(PAGE_SIZE_4K)) }

func AlignOffset4K[A Addr](a A) A { return AlignOffset(a, A(PAGE_SIZE_4K)) }

func IsAligned4K[A Addr](a A) bool { return IsAligned(a, A(PAGE_SIZE_4K)) }

// CheckedAdd adds size to a, reporting false on wraparound.
func CheckedAdd[A Addr](a A, size uint64) (A, bool) {
	sum := uint64(a) + size
	if sum < uint64(a) {
		return 0, false
	}
	return A(sum), true
}

// SaturatingAdd adds size to a, clamping at the maximum address.
func SaturatingAdd[A Addr](a A, size uint64) A {
	if sum, ok := CheckedAdd(a, size); ok {
		return sum
	}
	return ^A(0)
}
