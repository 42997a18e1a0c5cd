package bptree

import "fmt"

// CheckType reads the block at address and returns its tag along with the
// block's payload (every byte after the tag byte), failing if address is
// out of range or unreadable.
func (t *Tree) CheckType(address uint64) (Tag, []byte, error) {
	buf := make([]byte, t.blockSize)
	if err := t.adapter.Get(address, buf); err != nil {
		return 0, nil, err
	}
	tag := tagOf(buf)
	if tag != NodeTag && tag != DataTag {
		return tag, buf[1:], fmt.Errorf("%w: unknown tag 0x%02x at address %d", ErrBlockType, byte(tag), address)
	}
	return tag, buf[1:], nil
}

// CheckConsistency walks the whole tree and verifies:
//
//  1. the root, if any, is a valid NodeBlock or DataBlock;
//  2. the data-block chain is strictly non-decreasing in key, terminated
//     by storage.Empty;
//  3. every node-block key equals the maximum key reachable through its
//     paired child.
//
// It returns nil if every invariant holds.
func (t *Tree) CheckConsistency() error {
	if t.IsEmpty() {
		return nil
	}

	if _, _, err := t.CheckType(t.root); err != nil {
		return fmt.Errorf("%w: root: %v", ErrConsistency, err)
	}

	treeMax, err := t.checkNodeKeys(t.root)
	if err != nil {
		return err
	}

	if err := t.checkChainOrder(treeMax); err != nil {
		return err
	}

	return nil
}

// checkChainOrder walks the data-block chain from the leftmost block,
// verifying it is non-decreasing in key and that it actually terminates at
// treeMax, the maximum key reachable from the root. A chain whose nextAddr
// was corrupted to storage.Empty partway through stops early without ever
// violating ascending order, so the terminal-key comparison is what catches
// it.
func (t *Tree) checkChainOrder(treeMax uint64) error {
	addr, err := t.leftmostDataAddress()
	if err != nil {
		return err
	}

	buf := make([]byte, t.blockSize)
	havePrev := false
	var prevKey, lastKey uint64

	for addr != t.adapter.Empty() {
		if err := t.adapter.Get(addr, buf); err != nil {
			return err
		}
		if tagOf(buf) != DataTag {
			return fmt.Errorf("%w: chain: expected data block at %d", ErrConsistency, addr)
		}

		next, key, _ := decodeData(buf)
		if havePrev && key < prevKey {
			return fmt.Errorf("%w: chain: key %d follows key %d out of order", ErrConsistency, key, prevKey)
		}
		prevKey, havePrev = key, true
		lastKey = key
		addr = next
	}

	if lastKey != treeMax {
		return fmt.Errorf("%w: chain: terminates at key %d, want tree max %d", ErrConsistency, lastKey, treeMax)
	}
	return nil
}

// checkNodeKeys recursively verifies every node key equals the maximum
// key reachable through its child, returning the maximum key reachable
// from address.
func (t *Tree) checkNodeKeys(address uint64) (uint64, error) {
	buf := make([]byte, t.blockSize)
	if err := t.adapter.Get(address, buf); err != nil {
		return 0, err
	}

	switch tagOf(buf) {
	case DataTag:
		_, key, _ := decodeData(buf)
		return key, nil
	case NodeTag:
		entries := decodeNode(buf)
		if len(entries) == 0 {
			return 0, fmt.Errorf("%w: node: empty node block at %d", ErrConsistency, address)
		}

		var maxKey uint64
		for i, e := range entries {
			childMax, err := t.checkNodeKeys(e.child)
			if err != nil {
				return 0, err
			}
			if childMax != e.key {
				return 0, fmt.Errorf("%w: node: pair %d at %d claims key %d, child's max key is %d",
					ErrConsistency, i, address, e.key, childMax)
			}
			maxKey = e.key
		}
		return maxKey, nil
	default:
		return 0, fmt.Errorf("%w: unknown tag at address %d", ErrBlockType, address)
	}
}
