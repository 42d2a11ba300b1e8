package graph

import "context"

// Engine is a keyed link graph: key to attribute record, key to child list,
// and a whole-graph serialization.
type Engine interface {
	// Contains reports whether any node exists under key.
	Contains(ctx context.Context, key Key) (bool, error)

	// Insert stores a leaf. Returns ErrKeyAlreadyPresent if key is in use.
	Insert(ctx context.Context, key Key, attrs Attrs) error

	// Get returns a leaf's attributes.
	// Returns ErrKeyNotFound or ErrNodeNotData.
	Get(ctx context.Context, key Key) (Attrs, error)

	// InsertLink stores a container with the given initial children.
	// Returns ErrKeyAlreadyPresent if key is in use.
	InsertLink(ctx context.Context, key Key, children []Key) error

	// AppendLinks appends child to parent's child list.
	// Returns ErrKeyNotFound or ErrNodeNotLink.
	AppendLinks(ctx context.Context, parent, child Key) error

	// GetLinks returns a container's children in insertion order.
	// Returns ErrKeyNotFound or ErrNodeNotLink.
	GetLinks(ctx context.Context, key Key) ([]Key, error)

	// SerializeToString encodes the whole graph in the snapshot format.
	SerializeToString(ctx context.Context) (string, error)
}
