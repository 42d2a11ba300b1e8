package store

import (
	"log/slog"

	"github.com/jacentio/entrytree/graph"
	"github.com/jacentio/entrytree/internal/keyalloc"
)

// RandSource is a uniform generator over the 32-bit key space.
// *math/rand/v2.Rand satisfies it.
type RandSource interface {
	Uint32() uint32
}

// IterationPolicy selects how IterChildren treats a child that cannot be read.
type IterationPolicy int

const (
	// IterateSkip skips unreadable children.
	IterateSkip IterationPolicy = iota

	// IterateFailFast stops at the first unreadable child and reports it via Err.
	IterateFailFast
)

// Config holds configuration for a Database.
type Config struct {
	// Engine is the link graph holding the nodes.
	// Default: a new in-memory engine
	Engine graph.Engine

	// Source draws candidate keys.
	// Default: a PCG generator seeded from the runtime
	Source RandSource

	// MaxKeyAttempts bounds the draws per key allocation before
	// ErrKeySpaceExhausted is returned.
	// Default: 64
	MaxKeyAttempts int

	// Iteration selects the IterChildren policy.
	// Default: IterateSkip
	Iteration IterationPolicy

	// SnapshotPath is the file rewritten after every mutation.
	// Default: "" (no snapshots)
	SnapshotPath string

	// Logger receives mutation and snapshot logs.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns an in-memory, unbacked configuration.
func DefaultConfig() Config {
	return Config{
		MaxKeyAttempts: keyalloc.DefaultMaxAttempts,
		Iteration:      IterateSkip,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Engine == nil {
		c.Engine = graph.NewMemory()
	}
	if c.MaxKeyAttempts < 1 {
		c.MaxKeyAttempts = keyalloc.DefaultMaxAttempts
	}
	if c.Iteration != IterateFailFast {
		c.Iteration = IterateSkip
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
