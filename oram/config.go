package oram

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/solidusdb/blockstore/internal/randsrc"
)

// Config configures an Engine's tree shape and bookkeeping limits.
type Config struct {
	// Height is the tree height: the root sits at level 0 and leaves at
	// level Height-1. Required, must be >= 1.
	Height int

	// BucketSize is the number of slots per bucket (the Z parameter).
	// Defaults to 4 if zero.
	BucketSize int

	// StashLimit is the maximum stash size tolerated after a write path;
	// exceeding it is a fatal ErrStashOverflow. Defaults to 100 if zero.
	StashLimit int

	// Rand supplies randomness for leaf assignment. Defaults to a
	// seeded, reproducible source if nil — production callers should
	// pass randsrc.NewSecure() explicitly.
	Rand randsrc.Source

	// Logger receives diagnostic messages. Defaults to a fresh
	// logrus.Logger if nil.
	Logger *logrus.Logger
}

func (c Config) norm() Config {
	if c.BucketSize == 0 {
		c.BucketSize = 4
	}
	if c.StashLimit == 0 {
		c.StashLimit = 100
	}
	if c.Rand == nil {
		c.Rand = randsrc.NewSeeded(1)
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return c
}

// Validate checks the configuration and returns a normalized copy.
func (c Config) Validate() (Config, error) {
	c = c.norm()
	if c.Height < 1 {
		return c, fmt.Errorf("%w: height must be >= 1, got %d", ErrInvalidConfig, c.Height)
	}
	if c.BucketSize < 1 {
		return c, fmt.Errorf("%w: bucket size must be >= 1, got %d", ErrInvalidConfig, c.BucketSize)
	}
	return c, nil
}

// ComputeTreeParams returns the number of leaves and the size of the
// bucket-address table (buckets 1..buckets-1 are used; index 0 is never
// allocated a meaning, kept only so bucket indices can be used directly).
func (c Config) ComputeTreeParams() (numLeaves, buckets int) {
	numLeaves = 1 << (c.Height - 1)
	buckets = 1 << c.Height
	return
}
