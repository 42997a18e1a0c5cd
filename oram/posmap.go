package oram

import "github.com/solidusdb/blockstore/internal/randsrc"

// PositionMap tracks which leaf each logical block id is currently mapped
// to. A lookup for an id that has never been seen assigns and records a
// fresh random leaf, so callers never have to special-case "new" ids.
type PositionMap interface {
	// Get returns id's current leaf, assigning a fresh random one (and
	// recording it) on first lookup.
	Get(id uint64) (leaf uint64)

	// Set reassigns id to leaf.
	Set(id uint64, leaf uint64)
}

// InMemoryPositionMap implements PositionMap over a Go map.
type InMemoryPositionMap struct {
	numLeaves uint64
	rand      randsrc.Source
	m         map[uint64]uint64
}

// NewInMemoryPositionMap creates an empty position map that assigns
// leaves uniformly in [0, numLeaves) using rand.
func NewInMemoryPositionMap(numLeaves uint64, rand randsrc.Source) *InMemoryPositionMap {
	return &InMemoryPositionMap{
		numLeaves: numLeaves,
		rand:      rand,
		m:         make(map[uint64]uint64),
	}
}

func (p *InMemoryPositionMap) Get(id uint64) uint64 {
	if leaf, ok := p.m[id]; ok {
		return leaf
	}
	leaf := uint64(p.rand.Intn(int(p.numLeaves)))
	p.m[id] = leaf
	return leaf
}

func (p *InMemoryPositionMap) Set(id uint64, leaf uint64) {
	p.m[id] = leaf
}
