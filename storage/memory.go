package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// InMemoryAdapterOptions configures an InMemoryAdapter.
type InMemoryAdapterOptions struct {
	// Logger receives diagnostic messages. Defaults to a fresh
	// logrus.Logger if nil.
	Logger *logrus.Logger
}

func (o *InMemoryAdapterOptions) norm() *InMemoryAdapterOptions {
	var oo InMemoryAdapterOptions
	if o != nil {
		oo = *o
	}
	oo.Logger = defaultLogger(oo.Logger)
	return &oo
}

// InMemoryAdapter implements Adapter over a Go map. Addresses are opaque,
// monotonically increasing counters.
type InMemoryAdapter struct {
	blockSize uint64
	counter   uint64
	blocks    map[uint64][]byte

	log *logrus.Logger
}

// NewInMemoryAdapter creates an InMemoryAdapter with the given block size.
// The meta block is allocated immediately and initialized to Empty.
func NewInMemoryAdapter(blockSize uint64, opts *InMemoryAdapterOptions) *InMemoryAdapter {
	o := opts.norm()

	a := &InMemoryAdapter{
		blockSize: blockSize,
		counter:   1, // address 0 is reserved for the meta block
		blocks:    make(map[uint64][]byte),
		log:       o.Logger,
	}

	emptyMeta := make([]byte, blockSize)
	binary.LittleEndian.PutUint64(emptyMeta, Empty)
	a.blocks[a.Meta()] = emptyMeta

	a.log.Debugf("storage: in-memory adapter initialized, block size %d", blockSize)
	return a
}

// BlockSize returns the fixed block size in bytes.
func (a *InMemoryAdapter) BlockSize() uint64 { return a.blockSize }

// Malloc reserves the next address.
func (a *InMemoryAdapter) Malloc() (uint64, error) {
	address := a.counter
	a.counter++
	return address, nil
}

// Get copies BlockSize bytes from address into out.
func (a *InMemoryAdapter) Get(address uint64, out []byte) error {
	if err := a.checkLocation(address); err != nil {
		return err
	}
	copy(out, a.blocks[address])
	return nil
}

// Set writes exactly BlockSize bytes at address.
func (a *InMemoryAdapter) Set(address uint64, data []byte) error {
	if uint64(len(data)) != a.blockSize {
		return fmt.Errorf("%w: got %d, want %d", ErrBadSize, len(data), a.blockSize)
	}
	if err := a.checkLocation(address); err != nil {
		return err
	}
	buf := make([]byte, a.blockSize)
	copy(buf, data)
	a.blocks[address] = buf
	return nil
}

// Empty returns the sentinel address.
func (a *InMemoryAdapter) Empty() uint64 { return Empty }

// Meta returns the reserved meta address.
func (a *InMemoryAdapter) Meta() uint64 { return 0 }

func (a *InMemoryAdapter) checkLocation(address uint64) error {
	if address == a.Meta() {
		return nil
	}
	if address == 0 || address >= a.counter {
		return fmt.Errorf("%w: %d", ErrUnallocated, address)
	}
	return nil
}
