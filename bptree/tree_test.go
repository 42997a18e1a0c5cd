package bptree_test

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/solidusdb/blockstore/bptree"
	"github.com/solidusdb/blockstore/storage"
)

// valueSizeFor returns a payload size that actually fits inside blockSize,
// per the resolution recorded in DESIGN.md: blockSize 64 can't hold the
// same 100-byte payload that 128/256 can.
func valueSizeFor(blockSize uint64) int {
	switch blockSize {
	case 64:
		return 40
	default:
		return 100
	}
}

func valueFor(key uint64, size int) []byte {
	v := make([]byte, size)
	copy(v, fmt.Sprintf("value-%d", key))
	return v
}

func entriesFor(lo, hi, size int) []bptree.Entry {
	out := make([]bptree.Entry, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		out = append(out, bptree.Entry{Key: uint64(k), Value: valueFor(uint64(k), size)})
	}
	return out
}

var _ = Describe("Tree", func() {
	for _, blockSize := range []uint64{64, 128, 256} {
		blockSize := blockSize
		It(fmt.Sprintf("builds and searches a tree at block size %d", blockSize), func() {
			size := valueSizeFor(blockSize)
			data := entriesFor(5, 15, size)

			adapter := storage.NewInMemoryAdapter(blockSize, nil)
			tree, err := bptree.Build(adapter, data, nil)
			Expect(err).NotTo(HaveOccurred())

			var out [][]byte
			Expect(tree.Search(10, &out)).To(Succeed())
			Expect(out).To(HaveLen(1))
			Expect(out[0]).To(Equal(valueFor(10, size)))

			Expect(tree.CheckConsistency()).To(Succeed())
		})
	}

	It("returns no results for a missing key", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		var out [][]byte
		Expect(tree.Search(999, &out)).To(Succeed())
		Expect(out).To(BeEmpty())
	})

	It("returns duplicate values for a duplicate key in insertion order", func() {
		data := []bptree.Entry{
			{Key: 1, Value: valueFor(100, 40)},
			{Key: 3, Value: valueFor(101, 40)},
			{Key: 3, Value: valueFor(102, 40)},
			{Key: 5, Value: valueFor(103, 40)},
		}
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		var out [][]byte
		Expect(tree.Search(3, &out)).To(Succeed())
		Expect(out).To(Equal([][]byte{valueFor(101, 40), valueFor(102, 40)}))
	})

	It("range-searches an inclusive span in ascending order", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		var out [][]byte
		Expect(tree.SearchRange(8, 11, &out)).To(Succeed())
		Expect(out).To(Equal([][]byte{
			valueFor(8, 40), valueFor(9, 40), valueFor(10, 40), valueFor(11, 40),
		}))
	})

	It("returns nothing for an inverted range", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		var out [][]byte
		Expect(tree.SearchRange(11, 8, &out)).To(Succeed())
		Expect(out).To(BeEmpty())
	})

	It("opens an empty tree over freshly initialized storage", func() {
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Open(adapter, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.IsEmpty()).To(BeTrue())

		var out [][]byte
		Expect(tree.Search(1, &out)).To(Succeed())
		Expect(out).To(BeEmpty())

		v, err := tree.LeftmostValue()
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNil())

		n, err := tree.Count()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(0))
	})

	It("persists across a reopen over the same file adapter", func() {
		dir, err := os.MkdirTemp("", "bptree-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)
		path := filepath.Join(dir, "tree.bin")
		data := entriesFor(5, 15, 40)

		built, err := storage.NewFileAdapter(path, storage.FileAdapterOptions{BlockSize: 64, Truncate: true})
		Expect(err).NotTo(HaveOccurred())
		_, err = bptree.Build(built, data, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(built.Close()).To(Succeed())

		reopened, err := storage.NewFileAdapter(path, storage.FileAdapterOptions{BlockSize: 64, Truncate: false})
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		tree, err := bptree.Open(reopened, nil)
		Expect(err).NotTo(HaveOccurred())

		var out [][]byte
		Expect(tree.Search(12, &out)).To(Succeed())
		Expect(out).To(Equal([][]byte{valueFor(12, 40)}))
	})

	It("fails with ErrBlockTooSmall when the block can't fit a value", func() {
		adapter := storage.NewInMemoryAdapter(32, nil)
		_, err := bptree.Build(adapter, entriesFor(1, 1, 40), nil)
		Expect(err).To(MatchError(bptree.ErrBlockTooSmall))
	})

	It("fails with ErrBlockTooSmall when the block can't fit a two-pair node", func() {
		adapter := storage.NewInMemoryAdapter(33, nil)
		_, err := bptree.Build(adapter, entriesFor(1, 20, 1), nil)
		Expect(err).To(MatchError(bptree.ErrBlockTooSmall))
	})

	It("returns the leftmost value in the tree", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		tree, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		leaf, err := tree.LeftmostValue()
		Expect(err).NotTo(HaveOccurred())
		Expect(leaf).To(Equal(valueFor(5, 40)))

		n, err := tree.Count()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(11))
	})

	It("rejects an unknown tag via CheckType", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		_, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 64)
		Expect(adapter.Get(1, buf)).To(Succeed())
		buf[0] = 0xFF
		Expect(adapter.Set(1, buf)).To(Succeed())

		tree, err := bptree.Open(adapter, nil)
		Expect(err).NotTo(HaveOccurred())
		_, _, err = tree.CheckType(1)
		Expect(err).To(MatchError(bptree.ErrBlockType))
	})

	It("detects a corrupted data-block chain", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		_, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		// Address 1 is the first data block allocated (key 5); stomp its
		// key field so the chain is no longer ascending.
		buf := make([]byte, 64)
		Expect(adapter.Get(1, buf)).To(Succeed())
		binary.LittleEndian.PutUint64(buf[9:17], 999)
		Expect(adapter.Set(1, buf)).To(Succeed())

		tree, err := bptree.Open(adapter, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.CheckConsistency()).To(MatchError(bptree.ErrConsistency))
	})

	It("detects a data-block chain truncated early via a corrupted nextAddr", func() {
		data := entriesFor(5, 15, 40)
		adapter := storage.NewInMemoryAdapter(64, nil)
		_, err := bptree.Build(adapter, data, nil)
		Expect(err).NotTo(HaveOccurred())

		// Address 6 is the data block for key 10 (the 6th of 11 entries);
		// rewrite its nextAddr to Empty without touching its key, so the
		// chain simply stops early instead of going out of order.
		buf := make([]byte, 64)
		Expect(adapter.Get(6, buf)).To(Succeed())
		binary.LittleEndian.PutUint64(buf[1:9], storage.Empty)
		Expect(adapter.Set(6, buf)).To(Succeed())

		tree, err := bptree.Open(adapter, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tree.CheckConsistency()).To(MatchError(bptree.ErrConsistency))
	})
})
