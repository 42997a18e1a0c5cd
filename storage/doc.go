/*
Package storage provides the block storage adapter that the bptree and
oram packages build on.

An adapter exposes fixed-size, address-indexed blocks plus a reserved meta
block whose payload is owned by the caller (the B+ tree stores its root
pointer there). Two implementations are provided:

	InMemoryAdapter - backed by a Go map, addresses are opaque counters.
	FileAdapter     - backed by a random-access file, addresses are byte
	                  offsets that are multiples of BlockSize.

File layout (FileAdapter):

	+-------------------+-------------------+----------------------------+
	| reserved (1 block)|    meta block     | allocated blocks (in order)|
	+-------------------+-------------------+----------------------------+
	0              blockSize          2*blockSize

Both adapters return addresses from Malloc in strictly increasing order and
reject Get/Set calls against any address that wasn't returned by Malloc or
Meta.
*/
package storage
