package bptree

import "errors"

// ErrBlockTooSmall is returned by Build when blockSize can't fit a single
// data block's tag, next-pointer, key and value.
var ErrBlockTooSmall = errors.New("bptree: block size too small")

// ErrBlockType is returned when a block's tag byte doesn't match the
// block type expected at that position (an unknown tag, a data block read
// as a node block, or vice versa).
var ErrBlockType = errors.New("bptree: block type")

// ErrConsistency is returned by CheckConsistency when the tree violates
// one of its structural invariants (a data-block chain out of order, or a
// node key that doesn't equal the maximum key reachable through its
// child).
var ErrConsistency = errors.New("bptree: consistency violation")

// ErrNodeTooLarge is returned by Build when a node block's pair count
// would overflow blockSize.
var ErrNodeTooLarge = errors.New("bptree: node block payload too large for block size")
