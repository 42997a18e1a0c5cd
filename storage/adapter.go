package storage

// Empty is the sentinel address that is never a valid allocated address.
// It marks "no next block" in a DataBlock chain and "no root yet" in the
// meta block.
const Empty = ^uint64(0)

// Adapter is the capability set both the bptree and oram packages build
// on: allocate fixed-size blocks, read/write them by address, and hold a
// reserved meta block whose payload is owned by the caller.
type Adapter interface {
	// BlockSize returns the fixed block size in bytes, constant for the
	// adapter's lifetime.
	BlockSize() uint64

	// Malloc reserves a previously unused address. Successive calls
	// return strictly increasing addresses.
	Malloc() (uint64, error)

	// Get copies BlockSize bytes from address into out. out must have
	// length BlockSize. Fails if address was never returned by Malloc
	// (Meta is always valid).
	Get(address uint64, out []byte) error

	// Set writes exactly BlockSize bytes at address. Fails if
	// len(data) != BlockSize or address is invalid.
	Set(address uint64, data []byte) error

	// Empty returns the sentinel address.
	Empty() uint64

	// Meta returns the address of the reserved meta block. Writing to
	// Meta is legal without a prior Malloc.
	Meta() uint64
}
