package memory

import "errors"

var (
	ErrInvalidRange = errors.New("range end is less than start")
	ErrAddrOverflow = errors.New("address overflow")
	ErrPageSize     = errors.New("page size is not a power of two")
)
