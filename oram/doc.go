/*
Package oram implements a Path-ORAM engine over a storage.Adapter: every
logical block id is mapped to a random leaf of a complete binary tree of
buckets, and every access reads/rewrites the full root-to-leaf path so no
single access reveals which id was actually touched.

Bucket numbering is 1-based: the root is bucket 1, and bucket 0 is never
used. At tree height H (root at level 0, leaves at level H-1), the bucket
on leaf l's path at level d is:

	bucket(d, l) = (l + 2^(H-1)) >> (H-1-d)

Each bucket holds Z slots; each slot is a fixed-size physical block:

	+----------+----------------+
	|   id     |     payload    |
	|   8B     | blockSize-8 B  |
	+----------+----------------+

id == ^uint64(0) marks an empty slot. Every slot is pre-allocated from the
adapter once, at construction, and its address cached — the same adapter
that backs a bptree.Tree can back an Engine.

Access performs: remap (assign a fresh leaf, keeping the old one just long
enough to find the current path) -> read path (drain every touched
bucket's occupied slots into the stash, leaving storage empty along that
path) -> mutate (add/update the stash entry) -> write path (greedily place
stash entries back into now-empty slots on the path, from the leaf level
up to the root, placing only blocks whose mapped leaf actually lies under
that bucket).
*/
package oram
