/*
Package bptree implements a static, block-addressed B+ tree over a
storage.Adapter. A tree is built once from a sorted batch of (key, value)
pairs and is read-only thereafter.

Every block is tagged by its first byte:

	NodeBlock (internal index):
	+------+-------+------------------------+------+
	| tag  | count |  (key, child) pairs... | pad  |
	| 1B   |  8B   |     n * 16B            |      |
	+------+-------+------------------------+------+

	DataBlock (leaf payload):
	+------+----------+------+----------------+
	| tag  | nextAddr | key  |     value      |
	| 1B   |   8B     |  8B  | blockSize-17 B |
	+------+----------+------+----------------+

Data blocks form a singly linked list in ascending key order, terminated
by storage.Empty. Node block keys are the maximum key reachable through
the paired child address: to search for k, descend via the first pair
whose key is >= k, falling back to the last pair.

The tree's root address lives in the adapter's meta block (storage.Empty
if the tree has no data).
*/
package bptree
