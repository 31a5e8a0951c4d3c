package memsim

import "errors"

// Allocator errors.
var (
	ErrZeroSize       = errors.New("memsim: allocation size must be greater than zero")
	ErrOutOfSpace     = errors.New("memsim: no free block large enough for request")
	ErrUnknownHandle  = errors.New("memsim: unknown block handle")
	ErrDoubleFree     = errors.New("memsim: block is already free")
	ErrInvalidAddress = errors.New("memsim: address does not name a live block")
)

// Cache errors.
var (
	ErrBadGeometry = errors.New("memsim: invalid cache geometry")
)
