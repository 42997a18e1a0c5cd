package oram

import (
	"fmt"

	"github.com/solidusdb/blockstore/internal/randsrc"
	"github.com/solidusdb/blockstore/storage"
)

// Engine is a Path-ORAM access protocol layered over a storage.Adapter.
type Engine struct {
	adapter storage.Adapter
	cfg     Config

	numLeaves uint64
	buckets   int // size of the bucket-address table; index 0 unused

	slotAddr [][]uint64 // slotAddr[bucket][slot]

	posMap PositionMap
	stash  Stash
}

// New allocates a fresh Path-ORAM tree over adapter: every bucket*slot is
// malloc'd once and initialized to an empty, randomly padded block.
func New(adapter storage.Adapter, cfg Config, posMap PositionMap, stash Stash) (*Engine, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	numLeaves, buckets := cfg.ComputeTreeParams()

	e := &Engine{
		adapter:   adapter,
		cfg:       cfg,
		numLeaves: uint64(numLeaves),
		buckets:   buckets,
		slotAddr:  make([][]uint64, buckets),
		posMap:    posMap,
		stash:     stash,
	}

	payload := make([]byte, payloadSize(adapter.BlockSize()))
	for b := 1; b < buckets; b++ {
		e.slotAddr[b] = make([]uint64, cfg.BucketSize)
		for s := 0; s < cfg.BucketSize; s++ {
			addr, err := adapter.Malloc()
			if err != nil {
				return nil, err
			}
			e.slotAddr[b][s] = addr

			fillRandom(cfg.Rand, payload)
			if err := adapter.Set(addr, encodeSlot(adapter.BlockSize(), emptyID, payload)); err != nil {
				return nil, err
			}
		}
	}

	cfg.Logger.Debugf("oram: engine initialized, height=%d buckets=%d bucketSize=%d", cfg.Height, buckets-1, cfg.BucketSize)
	return e, nil
}

func fillRandom(r randsrc.Source, buf []byte) {
	for i := range buf {
		buf[i] = byte(r.Intn(256))
	}
}

// bucketAt returns the bucket index on leaf's path at level.
func (e *Engine) bucketAt(level int, leaf uint64) uint64 {
	return (leaf + e.numLeaves) >> uint(e.cfg.Height-1-level)
}

// pathBuckets returns the bucket index at every level, root first.
func (e *Engine) pathBuckets(leaf uint64) []uint64 {
	path := make([]uint64, e.cfg.Height)
	for level := 0; level < e.cfg.Height; level++ {
		path[level] = e.bucketAt(level, leaf)
	}
	return path
}

// Access performs an oblivious read (isRead) or write. For a write, data
// must be exactly the engine's payload size, and the returned value is
// data itself (the post-mutate stash content), not the value it replaced.
func (e *Engine) Access(isRead bool, id uint64, data []byte) ([]byte, error) {
	if id >= uint64(e.buckets)*uint64(e.cfg.BucketSize) {
		return nil, fmt.Errorf("%w: %d, want [0, %d)", ErrInvalidID, id, uint64(e.buckets)*uint64(e.cfg.BucketSize))
	}
	if !isRead && len(data) != payloadSize(e.adapter.BlockSize()) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidDataSize, len(data), payloadSize(e.adapter.BlockSize()))
	}

	leaf := e.posMap.Get(id)
	newLeaf := uint64(e.cfg.Rand.Intn(int(e.numLeaves)))
	e.posMap.Set(id, newLeaf)

	path := e.pathBuckets(leaf)
	if err := e.readPathIntoStash(path); err != nil {
		return nil, err
	}

	_, err := e.stash.Get(id)
	found := err == nil

	if !isRead {
		if found {
			e.stash.Update(id, data)
		} else {
			e.stash.Add(id, data)
		}
	}

	// result is captured after the mutate, per spec: a write's result is
	// the value just written, a read's result is whatever was already
	// there.
	result, _ := e.stash.Get(id)

	if err := e.writePath(path); err != nil {
		return nil, err
	}

	if isRead && !found {
		return nil, fmt.Errorf("%w: id %d", ErrBlockNotFound, id)
	}
	return result, nil
}

// Get reads the current payload for id.
func (e *Engine) Get(id uint64) ([]byte, error) {
	return e.Access(true, id, nil)
}

// Put stores data under id, creating it if necessary.
func (e *Engine) Put(id uint64, data []byte) error {
	_, err := e.Access(false, id, data)
	return err
}

// readPathIntoStash drains every occupied slot on path into the stash,
// leaving storage along that path entirely empty.
func (e *Engine) readPathIntoStash(path []uint64) error {
	buf := make([]byte, e.adapter.BlockSize())
	emptyPayload := make([]byte, payloadSize(e.adapter.BlockSize()))

	for _, bucket := range path {
		for _, addr := range e.slotAddr[bucket] {
			if err := e.adapter.Get(addr, buf); err != nil {
				return err
			}
			id, payload := decodeSlot(buf)
			if id != emptyID {
				e.stash.Add(id, payload)
				if err := e.adapter.Set(addr, encodeSlot(e.adapter.BlockSize(), emptyID, emptyPayload)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writePath greedily places stash entries back into the now-empty path,
// from the leaf level up to the root, then fails with ErrStashOverflow if
// the stash is still over its configured limit. Every slot is written on
// every access, whether or not a stash entry lands there: slots that stay
// unfilled get a fresh (emptyID, randomPayload) block rather than being
// left at whatever readPathIntoStash last zeroed them to, so empty slots
// don't converge to identical, distinguishable content over time.
func (e *Engine) writePath(path []uint64) error {
	emptyPayload := make([]byte, payloadSize(e.adapter.BlockSize()))

	for level := e.cfg.Height - 1; level >= 0; level-- {
		bucket := path[level]
		for slot := 0; slot < e.cfg.BucketSize; slot++ {
			id, payload := e.pickForBucket(bucket)
			if payload == nil {
				fillRandom(e.cfg.Rand, emptyPayload)
				if err := e.adapter.Set(e.slotAddr[bucket][slot], encodeSlot(e.adapter.BlockSize(), emptyID, emptyPayload)); err != nil {
					return err
				}
				continue
			}
			if err := e.adapter.Set(e.slotAddr[bucket][slot], encodeSlot(e.adapter.BlockSize(), id, payload)); err != nil {
				return err
			}
			e.stash.Remove(id)
		}
	}

	if len(e.stash.GetAll()) > e.cfg.StashLimit {
		return fmt.Errorf("%w: %d blocks, limit %d", ErrStashOverflow, len(e.stash.GetAll()), e.cfg.StashLimit)
	}
	return nil
}

// pickForBucket returns a stash entry whose mapped leaf's path includes
// bucket, or (0, nil) if none qualifies.
func (e *Engine) pickForBucket(bucket uint64) (uint64, []byte) {
	for id, payload := range e.stash.GetAll() {
		leaf := e.posMap.Get(id)
		if e.canPlaceAt(leaf, bucket) {
			return id, payload
		}
	}
	return 0, nil
}

// canPlaceAt reports whether bucket lies on leaf's root-to-leaf path.
func (e *Engine) canPlaceAt(leaf, bucket uint64) bool {
	for level := 0; level < e.cfg.Height; level++ {
		if e.bucketAt(level, leaf) == bucket {
			return true
		}
	}
	return false
}

// CheckConsistency verifies that id is recoverable: either it is
// currently held in the live stash, or it sits in one of the buckets on
// its mapped leaf's path. It performs only reads, never draining storage,
// so it is safe to call without disturbing subsequent accesses.
func (e *Engine) CheckConsistency(id uint64) error {
	if _, err := e.stash.Get(id); err == nil {
		return nil
	}

	leaf := e.posMap.Get(id)
	buf := make([]byte, e.adapter.BlockSize())
	for _, bucket := range e.pathBuckets(leaf) {
		for _, addr := range e.slotAddr[bucket] {
			if err := e.adapter.Get(addr, buf); err != nil {
				return err
			}
			if slotID, _ := decodeSlot(buf); slotID == id {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: id %d not found on its mapped path", ErrPathMismatch, id)
}
