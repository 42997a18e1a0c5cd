package bptree

import (
	"encoding/binary"
	"fmt"

	"github.com/solidusdb/blockstore/storage"
)

// Build constructs a new static B+ tree from data, which must already be
// sorted by ascending key (duplicate keys are permitted and kept in the
// order given). adapter supplies the block storage; its meta block is
// overwritten with the new tree's root address and value size.
//
// If data is empty, Build behaves like Open: the adapter's existing meta
// (or an Empty root, for a freshly initialized adapter) is used as-is.
func Build(adapter storage.Adapter, data []Entry, opts *BuildOptions) (*Tree, error) {
	o := opts.norm()

	if len(data) == 0 {
		return Open(adapter, opts)
	}

	blockSize := adapter.BlockSize()
	valueSize := uint64(len(data[0].Value))
	for _, e := range data {
		if uint64(len(e.Value)) != valueSize {
			return nil, fmt.Errorf("bptree: entry for key %d has value size %d, want %d", e.Key, len(e.Value), valueSize)
		}
	}

	if maxValueSize(blockSize) < int(valueSize) {
		return nil, fmt.Errorf("%w: block size %d can't hold a %d-byte value (need at least %d)",
			ErrBlockTooSmall, blockSize, valueSize, dataHeaderSize+int(valueSize))
	}

	if len(data) > 1 && fanout(blockSize) < 2 {
		return nil, fmt.Errorf("%w: block size %d can't hold a node with 2 pairs (need at least %d)",
			ErrBlockTooSmall, blockSize, nodeHeaderSize+2*2*wordSize)
	}

	o.Logger.Debugf("bptree: building tree over %d entries, blockSize=%d valueSize=%d", len(data), blockSize, valueSize)

	dataAddrs, err := writeDataLayer(adapter, blockSize, valueSize, data)
	if err != nil {
		return nil, err
	}

	root, err := writeIndexLayers(adapter, blockSize, dataAddrs, data)
	if err != nil {
		return nil, err
	}

	if err := writeMeta(adapter, root, valueSize); err != nil {
		return nil, err
	}

	t := &Tree{
		adapter:   adapter,
		blockSize: blockSize,
		root:      root,
		valueSize: valueSize,
		log:       o.Logger,
	}
	return t, nil
}

// writeDataLayer allocates and links the leaf layer right to left so each
// block's nextAddr is already known when it's written, and returns the
// address of every data block in ascending key order.
func writeDataLayer(adapter storage.Adapter, blockSize, valueSize uint64, data []Entry) ([]uint64, error) {
	addrs := make([]uint64, len(data))
	for i := range data {
		addr, err := adapter.Malloc()
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}

	padded := make([]byte, maxValueSize(blockSize))
	next := adapter.Empty()
	for i := len(data) - 1; i >= 0; i-- {
		for j := range padded {
			padded[j] = 0
		}
		copy(padded, data[i].Value)

		block, err := encodeData(blockSize, next, data[i].Key, padded)
		if err != nil {
			return nil, err
		}
		if err := adapter.Set(addrs[i], block); err != nil {
			return nil, err
		}
		next = addrs[i]
	}
	return addrs, nil
}

// writeIndexLayers builds index layers bottom-up in fanout-sized chunks
// until exactly one block remains, which becomes the root. A single data
// block collapses straight to the degenerate one-block tree.
func writeIndexLayers(adapter storage.Adapter, blockSize uint64, childAddrs []uint64, data []Entry) (uint64, error) {
	if len(childAddrs) == 1 {
		return childAddrs[0], nil
	}

	keys := make([]uint64, len(data))
	for i, e := range data {
		keys[i] = e.Key
	}

	addrs := childAddrs
	f := fanout(blockSize)

	for len(addrs) > 1 {
		var nextAddrs []uint64
		var nextKeys []uint64

		for start := 0; start < len(addrs); start += f {
			end := start + f
			if end > len(addrs) {
				end = len(addrs)
			}

			entries := make([]nodeEntry, end-start)
			for i := start; i < end; i++ {
				entries[i-start] = nodeEntry{key: keys[i], child: addrs[i]}
			}

			block, err := encodeNode(blockSize, entries)
			if err != nil {
				return 0, err
			}
			addr, err := adapter.Malloc()
			if err != nil {
				return 0, err
			}
			if err := adapter.Set(addr, block); err != nil {
				return 0, err
			}

			nextAddrs = append(nextAddrs, addr)
			nextKeys = append(nextKeys, keys[end-1])
		}

		addrs = nextAddrs
		keys = nextKeys
	}

	return addrs[0], nil
}

func writeMeta(adapter storage.Adapter, root, valueSize uint64) error {
	meta := make([]byte, adapter.BlockSize())
	binary.LittleEndian.PutUint64(meta[0:wordSize], root)
	binary.LittleEndian.PutUint64(meta[metaValueSizeOffset:metaValueSizeOffset+wordSize], valueSize)
	return adapter.Set(adapter.Meta(), meta)
}
