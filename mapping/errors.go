package mapping

import "errors"

var (
	// ErrInvalidParam reports a zero-size or malformed range, or a cut
	// position that is not aligned to the backend page size.
	ErrInvalidParam = errors.New("invalid param")
	// ErrAlreadyExists reports that a requested mapping overlaps an
	// existing area.
	ErrAlreadyExists = errors.New("already exists")
	// ErrBadState reports that a backend call failed; the page table may
	// have been partially updated.
	ErrBadState = errors.New("backend in bad state")
)
