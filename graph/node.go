// Package graph provides the keyed link-graph engine that backs an entry tree.
//
// An engine maps 32-bit keys to nodes. A node is either a [Container], holding
// an ordered list of child keys, or a [Leaf], holding an attribute record.
// Both kinds share one key space; asking for the wrong kind is an error, never
// an empty result.
package graph

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key identifies a node.
type Key uint32

// Attrs is the attribute record stored on a leaf.
type Attrs map[string]types.AttributeValue

// Node is either a Container or a Leaf.
type Node interface {
	node()
}

// Container is a node holding an ordered list of child keys.
type Container struct {
	Children []Key
}

// Leaf is a node holding an attribute record.
type Leaf struct {
	Attrs Attrs
}

func (Container) node() {}
func (Leaf) node()      {}

// Record is a keyed node, the unit of a snapshot.
type Record struct {
	Key  Key
	Node Node
}
