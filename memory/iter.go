package memory

// PageIter walks an address range page by page.
type PageIter[A Addr] struct {
	rng      AddrRange[A]
	pageSize uint64
}

// NewPageIter creates an iterator over rng with a runtime page size. Fails
// with ErrPageSize if pageSize is not a power of two.
func NewPageIter[A Addr](rng AddrRange[A], pageSize uint64) (*PageIter[A], error) {
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		return nil, ErrPageSize
	}
	return &PageIter[A]{rng: rng, pageSize: pageSize}, nil
}

// NewPageIter4K creates an iterator over rng with the fixed 4K page size.
func NewPageIter4K[A Addr](rng AddrRange[A]) *PageIter[A] {
	return &PageIter[A]{rng: rng, pageSize: PAGE_SIZE_4K}
}

func (it *PageIter[A]) PageSize() uint64 {
	return it.pageSize
}

// Range yields each page base address together with the chunk of the range
// falling on that page. The first and last chunks are clipped to the range
// bounds. Iteration restarts on every call.
func (it *PageIter[A]) Range(yield func(A, AddrRange[A]) bool) {
	for cur := it.rng.Start; cur < it.rng.End; {
		base := AlignDown(cur, A(it.pageSize))
		end := min(SaturatingAdd(base, it.pageSize), it.rng.End)
		if !yield(base, AddrRange[A]{Start: cur, End: end}) {
			return
		}
		cur = end
	}
}
