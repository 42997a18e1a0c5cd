package storage

import "errors"

// ErrUnallocated is returned by Get/Set when the address was never
// returned by Malloc (and isn't the meta address).
var ErrUnallocated = errors.New("storage: unallocated address")

// ErrBadSize is returned by Set when the payload doesn't match BlockSize.
var ErrBadSize = errors.New("storage: bad block size")

// ErrFileOpen is returned when the file-backed adapter can't open its file.
var ErrFileOpen = errors.New("storage: cannot open file")

// ErrUnaligned is returned by the file-backed adapter when an address isn't
// a multiple of BlockSize.
var ErrUnaligned = errors.New("storage: address not block-aligned")
