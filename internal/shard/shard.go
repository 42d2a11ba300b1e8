// Package shard computes partition keys for the DynamoDB node table.
package shard

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
)

// MaxShards is the largest supported shard count (two hex digits).
const MaxShards = 256

// NodePK computes the sharded partition key for a node.
// With numShards=1, every node goes to shard "00".
// With numShards>1, nodes are distributed across shards by a hash of the key.
func NodePK(namespace string, key uint32, numShards int) string {
	if numShards <= 1 {
		return PK(namespace, 0)
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], key)
	h := fnv.New32a()
	h.Write(buf[:])
	return PK(namespace, int(h.Sum32()%uint32(numShards)))
}

// PK returns the partition key for one shard of a namespace.
func PK(namespace string, shard int) string {
	return fmt.Sprintf("%s#%02x", namespace, shard)
}

// Namespace strips the shard suffix from a partition key.
// It returns "" if pk has no shard suffix.
func Namespace(pk string) string {
	i := strings.LastIndexByte(pk, '#')
	if i < 0 || len(pk)-i != 3 {
		return ""
	}
	return pk[:i]
}
