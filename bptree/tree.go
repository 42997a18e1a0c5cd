package bptree

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/solidusdb/blockstore/storage"
)

// Entry is one (key, value) pair in a batch handed to Build. Entries must
// be supplied in ascending key order; duplicate keys are permitted and
// preserved.
type Entry struct {
	Key   uint64
	Value []byte
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Logger receives diagnostic messages. Defaults to a fresh
	// logrus.Logger if nil.
	Logger *logrus.Logger
}

func (o *BuildOptions) norm() *BuildOptions {
	var oo BuildOptions
	if o != nil {
		oo = *o
	}
	if oo.Logger == nil {
		oo.Logger = logrus.New()
	}
	return &oo
}

// Tree is a static, block-addressed B+ tree. It is built once from a
// sorted batch and is read-only thereafter.
type Tree struct {
	adapter   storage.Adapter
	blockSize uint64
	root      uint64
	valueSize uint64

	log *logrus.Logger
}

// metaValueSizeOffset is where Build stashes the fixed value size inside
// the meta block, alongside the root address. The meta block's remaining
// bytes are unconstrained by the wire format (spec: "remaining bytes
// arbitrary"), so reusing the second word here doesn't touch anything
// another reader cares about.
const metaValueSizeOffset = wordSize

// Open reads an existing tree from adapter's meta block. If the tree has
// no data, Open succeeds and every Search call returns an empty result.
func Open(adapter storage.Adapter, opts *BuildOptions) (*Tree, error) {
	o := opts.norm()

	meta := make([]byte, adapter.BlockSize())
	if err := adapter.Get(adapter.Meta(), meta); err != nil {
		return nil, err
	}

	root := leWord(meta, 0)
	valueSize := leWord(meta, metaValueSizeOffset)

	t := &Tree{
		adapter:   adapter,
		blockSize: adapter.BlockSize(),
		root:      root,
		valueSize: valueSize,
		log:       o.Logger,
	}
	t.log.Debugf("bptree: opened tree, root=%d valueSize=%d", root, valueSize)
	return t, nil
}

// IsEmpty reports whether the tree holds no data.
func (t *Tree) IsEmpty() bool {
	return t.root == t.adapter.Empty()
}

// descend walks from the root to the data block that would hold target:
// at each node block it follows the first pair whose key is >= target,
// falling back to the last pair if none qualifies.
func (t *Tree) descend(target uint64) (uint64, error) {
	addr := t.root
	buf := make([]byte, t.blockSize)

	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return 0, err
		}

		switch tagOf(buf) {
		case DataTag:
			return addr, nil
		case NodeTag:
			entries := decodeNode(buf)
			next := entries[len(entries)-1].child
			for _, e := range entries {
				if e.key >= target {
					next = e.child
					break
				}
			}
			addr = next
		default:
			return 0, fmt.Errorf("%w: unknown tag at address %d", ErrBlockType, addr)
		}
	}
	return addr, nil
}

// leftmostDataAddress follows the first child of every node block from
// the root until a data block is reached.
func (t *Tree) leftmostDataAddress() (uint64, error) {
	addr := t.root
	buf := make([]byte, t.blockSize)

	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return 0, err
		}
		switch tagOf(buf) {
		case DataTag:
			return addr, nil
		case NodeTag:
			entries := decodeNode(buf)
			addr = entries[0].child
		default:
			return 0, fmt.Errorf("%w: unknown tag at address %d", ErrBlockType, addr)
		}
	}
	return addr, nil
}

// Search appends every value stored under key to out, in ascending
// insertion order. A missing key leaves out unchanged.
func (t *Tree) Search(key uint64, out *[][]byte) error {
	if t.IsEmpty() {
		return nil
	}

	addr, err := t.descend(key)
	if err != nil {
		return err
	}

	buf := make([]byte, t.blockSize)
	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return err
		}
		if tagOf(buf) != DataTag {
			return fmt.Errorf("%w: expected data block at %d", ErrBlockType, addr)
		}

		next, k, value := decodeData(buf)
		if k == key {
			*out = append(*out, t.trim(value))
		} else if k > key {
			break
		}
		addr = next
	}
	return nil
}

// SearchRange appends every value whose key lies in [lo, hi] to out, in
// ascending key order, preserving duplicate-key insertion order. lo > hi
// yields an empty result.
func (t *Tree) SearchRange(lo, hi uint64, out *[][]byte) error {
	if lo > hi || t.IsEmpty() {
		return nil
	}

	addr, err := t.descend(lo)
	if err != nil {
		return err
	}

	buf := make([]byte, t.blockSize)
	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return err
		}
		if tagOf(buf) != DataTag {
			return fmt.Errorf("%w: expected data block at %d", ErrBlockType, addr)
		}

		next, k, value := decodeData(buf)
		if k > hi {
			break
		}
		if k >= lo {
			*out = append(*out, t.trim(value))
		}
		addr = next
	}
	return nil
}

// LeftmostValue returns the value of the smallest key in the tree, or nil
// if the tree is empty.
func (t *Tree) LeftmostValue() ([]byte, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	addr, err := t.leftmostDataAddress()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, t.blockSize)
	if err := t.adapter.Get(addr, buf); err != nil {
		return nil, err
	}
	_, _, value := decodeData(buf)
	return t.trim(value), nil
}

// Count walks the full data-block chain and returns the number of
// entries in the tree.
func (t *Tree) Count() (int, error) {
	if t.IsEmpty() {
		return 0, nil
	}
	addr, err := t.leftmostDataAddress()
	if err != nil {
		return 0, err
	}

	buf := make([]byte, t.blockSize)
	n := 0
	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return 0, err
		}
		if tagOf(buf) != DataTag {
			return 0, fmt.Errorf("%w: expected data block at %d", ErrBlockType, addr)
		}
		next, _, _ := decodeData(buf)
		n++
		addr = next
	}
	return n, nil
}

// trim copies a stored, padded value and cuts it back to the tree's
// fixed logical value size.
func (t *Tree) trim(padded []byte) []byte {
	out := make([]byte, t.valueSize)
	copy(out, padded[:t.valueSize])
	return out
}

func leWord(b []byte, offset int) uint64 {
	var v uint64
	for i := 0; i < wordSize; i++ {
		v |= uint64(b[offset+i]) << (8 * i)
	}
	return v
}
