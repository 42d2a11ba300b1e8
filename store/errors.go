package store

import (
	"errors"
	"fmt"

	"github.com/jacentio/entrytree/graph"
	"github.com/jacentio/entrytree/internal/keyalloc"
)

var (
	// ErrKeyAlreadyPresent is returned when a node is created under a key already in use.
	ErrKeyAlreadyPresent = errors.New("entrytree: key already present")

	// ErrKeyNotFound is returned when a referenced key doesn't exist.
	ErrKeyNotFound = errors.New("entrytree: key not found")

	// ErrNodeNotLink is returned when a container was expected but the key holds a leaf.
	ErrNodeNotLink = errors.New("entrytree: node is not a container")

	// ErrNodeNotData is returned when a leaf was expected but the key holds a container.
	ErrNodeNotData = errors.New("entrytree: node is not a leaf")

	// ErrPathNotPresent is returned when a leaf record has no path attribute.
	ErrPathNotPresent = errors.New("entrytree: path not present")

	// ErrInvalidPath is returned when an entry path is not valid UTF-8.
	ErrInvalidPath = errors.New("entrytree: path is not valid UTF-8")

	// ErrFile is returned when reading or writing a snapshot file fails.
	ErrFile = errors.New("entrytree: snapshot file error")

	// ErrSerialize is returned when the store cannot be serialized or a snapshot cannot be decoded.
	ErrSerialize = errors.New("entrytree: serialize error")

	// ErrKeySpaceExhausted is returned when every key drawn for an allocation collided.
	ErrKeySpaceExhausted = errors.New("entrytree: key space exhausted")
)

// mapEngineError maps engine and allocator errors to package errors.
// Anything else (transport errors from a remote engine) is returned as is.
func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrKeyAlreadyPresent):
		return ErrKeyAlreadyPresent
	case errors.Is(err, graph.ErrKeyNotFound):
		return ErrKeyNotFound
	case errors.Is(err, graph.ErrNodeNotLink):
		return ErrNodeNotLink
	case errors.Is(err, graph.ErrNodeNotData):
		return ErrNodeNotData
	case errors.Is(err, keyalloc.ErrExhausted):
		return fmt.Errorf("%w: %w", ErrKeySpaceExhausted, err)
	}
	return err
}

func fileError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrFile, op, path, err)
}

func serializeError(err error) error {
	return fmt.Errorf("%w: %w", ErrSerialize, err)
}
