package linkograph

import "errors"

var (
	// ErrSealed is returned when appending to a sealed move store.
	ErrSealed = errors.New("move store is sealed")
	// ErrNotFound is returned for a move index outside the store.
	ErrNotFound = errors.New("index out of bounds")
	// ErrSelfLink is returned when a move is linked to itself.
	ErrSelfLink = errors.New("a move cannot link to itself")
	// ErrOutOfRange is returned for a link endpoint outside the move range.
	ErrOutOfRange = errors.New("link endpoint out of range")
	// ErrSaturation is returned when a link table exceeds n(n-1)/2 entries.
	ErrSaturation = errors.New("link count exceeds saturation bound")
	// ErrUnsealed is returned when a link set is built over an open store.
	ErrUnsealed = errors.New("move store must be sealed before linking")
)
