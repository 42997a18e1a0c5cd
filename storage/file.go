package storage

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// FileAdapterOptions configures a FileAdapter.
type FileAdapterOptions struct {
	// BlockSize is the fixed block size in bytes. Required.
	BlockSize uint64

	// Truncate creates/truncates the file. If false, the file must
	// already exist and have a size that's a multiple of BlockSize.
	Truncate bool

	// Logger receives diagnostic messages. Defaults to a fresh
	// logrus.Logger if nil.
	Logger *logrus.Logger
}

func (o FileAdapterOptions) norm() FileAdapterOptions {
	o.Logger = defaultLogger(o.Logger)
	return o
}

// FileAdapter implements Adapter over a random-access file. Addresses are
// byte offsets, always multiples of BlockSize.
//
// Layout:
//
//	[0, blockSize)        reserved, unused
//	[blockSize, 2*blockSize) meta block
//	[2*blockSize, end)     allocated blocks, in allocation order
type FileAdapter struct {
	file      *os.File
	blockSize uint64
	end       uint64 // end-of-file cursor; next Malloc returns this, then advances it

	log *logrus.Logger
}

// NewFileAdapter opens (or creates) a file-backed adapter at path.
//
// With opts.Truncate == true the file is created/truncated: the end
// cursor starts at 2*BlockSize and the meta block is initialized to
// Empty. With opts.Truncate == false the file must already exist and be a
// multiple of BlockSize; the end cursor resumes at the current file size,
// preserving earlier contents including the meta block.
func NewFileAdapter(path string, opts FileAdapterOptions) (*FileAdapter, error) {
	o := opts.norm()
	if o.BlockSize == 0 {
		return nil, fmt.Errorf("storage: BlockSize must be set")
	}

	flags := os.O_RDWR
	if o.Truncate {
		flags |= os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileOpen, path, err)
	}

	a := &FileAdapter{
		file:      f,
		blockSize: o.BlockSize,
		log:       o.Logger,
	}

	if o.Truncate {
		a.end = 2 * o.BlockSize
		emptyMeta := make([]byte, o.BlockSize)
		binary.LittleEndian.PutUint64(emptyMeta, Empty)
		if err := a.Set(a.Meta(), emptyMeta); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrFileOpen, path, err)
		}
		size := uint64(info.Size())
		if size == 0 || size%o.BlockSize != 0 {
			f.Close()
			return nil, fmt.Errorf("%w: %s: size %d is not a multiple of block size %d", ErrUnaligned, path, size, o.BlockSize)
		}
		a.end = size
	}

	a.log.Debugf("storage: file adapter opened %s, block size %d, truncate %v", path, o.BlockSize, o.Truncate)
	return a, nil
}

// Close releases the underlying file handle. It is safe to call exactly
// once; the adapter must not be used afterwards.
func (a *FileAdapter) Close() error {
	return a.file.Close()
}

// BlockSize returns the fixed block size in bytes.
func (a *FileAdapter) BlockSize() uint64 { return a.blockSize }

// Malloc reserves the next address: it captures the current end-of-file
// cursor, returns it, then advances the cursor by BlockSize. This is the
// return-then-increment convention, applied uniformly so Get/Set never
// need to shift an address before using it as a byte offset.
func (a *FileAdapter) Malloc() (uint64, error) {
	address := a.end
	a.end += a.blockSize
	return address, nil
}

// Get copies BlockSize bytes from address into out.
func (a *FileAdapter) Get(address uint64, out []byte) error {
	if err := a.checkLocation(address); err != nil {
		return err
	}
	n, err := a.file.ReadAt(out[:a.blockSize], int64(address))
	if err != nil {
		return fmt.Errorf("storage: read at %d: %v", address, err)
	}
	if uint64(n) != a.blockSize {
		return fmt.Errorf("storage: short read at %d: got %d bytes, want %d", address, n, a.blockSize)
	}
	return nil
}

// Set writes exactly BlockSize bytes at address.
func (a *FileAdapter) Set(address uint64, data []byte) error {
	if uint64(len(data)) != a.blockSize {
		return fmt.Errorf("%w: got %d, want %d", ErrBadSize, len(data), a.blockSize)
	}
	if err := a.checkLocation(address); err != nil {
		return err
	}
	n, err := a.file.WriteAt(data, int64(address))
	if err != nil {
		return fmt.Errorf("storage: write at %d: %v", address, err)
	}
	if uint64(n) != a.blockSize {
		return fmt.Errorf("storage: short write at %d: wrote %d bytes, want %d", address, n, a.blockSize)
	}
	return nil
}

// Empty returns the sentinel address.
func (a *FileAdapter) Empty() uint64 { return Empty }

// Meta returns the fixed meta address (the second block).
func (a *FileAdapter) Meta() uint64 { return a.blockSize }

func (a *FileAdapter) checkLocation(address uint64) error {
	if address%a.blockSize != 0 {
		return fmt.Errorf("%w: %d", ErrUnaligned, address)
	}
	if address == a.Meta() {
		return nil
	}
	if address < 2*a.blockSize || address >= a.end {
		return fmt.Errorf("%w: %d", ErrUnallocated, address)
	}
	return nil
}
