package graph

import "errors"

var (
	// ErrKeyAlreadyPresent is returned when inserting a node under a key that is in use.
	ErrKeyAlreadyPresent = errors.New("graph: key already present")

	// ErrKeyNotFound is returned when a key denotes no node.
	ErrKeyNotFound = errors.New("graph: key not found")

	// ErrNodeNotLink is returned when a container operation hits a leaf.
	ErrNodeNotLink = errors.New("graph: node is not a container")

	// ErrNodeNotData is returned when a leaf operation hits a container.
	ErrNodeNotData = errors.New("graph: node is not a leaf")
)
