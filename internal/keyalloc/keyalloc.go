// Package keyalloc draws random node keys and resolves collisions.
package keyalloc

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// DefaultMaxAttempts bounds the number of draws per allocation.
const DefaultMaxAttempts = 64

// ErrExhausted is returned when every draw of an allocation collided.
var ErrExhausted = errors.New("keyalloc: key space exhausted")

// Source is a uniform generator over the 32-bit key space.
type Source interface {
	Uint32() uint32
}

// Allocator produces keys not currently in use.
type Allocator struct {
	src         Source
	maxAttempts int
}

// New creates an Allocator. A nil src uses a PCG generator seeded from the
// runtime; maxAttempts < 1 uses DefaultMaxAttempts.
func New(src Source, maxAttempts int) *Allocator {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{src: src, maxAttempts: maxAttempts}
}

// Next draws keys until taken reports one free, at most maxAttempts times.
// An error from taken aborts the allocation.
func (a *Allocator) Next(taken func(key uint32) (bool, error)) (uint32, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		key := a.src.Uint32()
		used, err := taken(key)
		if err != nil {
			return 0, err
		}
		if !used {
			return key, nil
		}
	}
	return 0, fmt.Errorf("%w after %d attempts", ErrExhausted, a.maxAttempts)
}
