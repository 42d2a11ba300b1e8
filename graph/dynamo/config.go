package dynamo

import (
	"github.com/google/uuid"

	"github.com/jacentio/entrytree/internal/shard"
)

// Config holds configuration for the Engine.
type Config struct {
	// Table is the name of the node table.
	// The table needs a string hash key "pk" and a numeric range key "sk".
	// Default: "entrytree_nodes"
	Table string

	// Namespace isolates one entry tree from others sharing the table.
	// Default: a random UUID (a fresh, empty tree)
	Namespace string

	// NumShards is the number of partitions a namespace is spread over.
	// Higher values spread write load but serialization queries every shard.
	// Default: 1
	// Max: 256
	NumShards int
}

// DefaultConfig returns sensible defaults for a single small tree.
func DefaultConfig() Config {
	return Config{
		Table:     "entrytree_nodes",
		NumShards: 1,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "entrytree_nodes"
	}
	if c.Namespace == "" {
		c.Namespace = uuid.NewString()
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > shard.MaxShards {
		c.NumShards = shard.MaxShards
	}
}
