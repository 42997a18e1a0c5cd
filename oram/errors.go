package oram

import "errors"

// ErrBlockNotFound is returned by Access for a read of an id that was
// never written.
var ErrBlockNotFound = errors.New("oram: block not found")

// ErrStashOverflow is returned by Access when the stash still exceeds
// Config.StashLimit after a write path.
var ErrStashOverflow = errors.New("oram: stash overflow")

// ErrPathMismatch is returned by CheckConsistency when a block is absent
// from both the live stash and every bucket on its mapped path.
var ErrPathMismatch = errors.New("oram: path mismatch")

// ErrInvalidConfig is returned by Config.Validate (and so by New) for a
// nonsensical tree shape.
var ErrInvalidConfig = errors.New("oram: invalid configuration")

// ErrInvalidDataSize is returned by Put when data doesn't match the
// engine's fixed payload size.
var ErrInvalidDataSize = errors.New("oram: data size mismatch")

// ErrInvalidID is returned by Access when id falls outside
// [0, 2^Height * BucketSize).
var ErrInvalidID = errors.New("oram: invalid block id")
