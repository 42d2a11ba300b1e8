package store

import (
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entrytree/graph"
)

// Key identifies a node.
type Key = graph.Key

// RootKey is the key of the root container.
const RootKey Key = 0

// Entry is the record stored on a leaf.
type Entry struct {
	Path string `dynamodbav:"path"`
}

// encodeEntry converts an Entry to the attribute record stored on a leaf.
// An empty path stays a string attribute rather than becoming NULL.
// Paths must be valid UTF-8.
func encodeEntry(e Entry) (graph.Attrs, error) {
	if !utf8.ValidString(e.Path) {
		return nil, ErrInvalidPath
	}
	attrs, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	return attrs, nil
}

// decodeEntry converts a leaf's attribute record back to an Entry.
// A record without a string path fails with ErrPathNotPresent.
func decodeEntry(attrs graph.Attrs) (Entry, error) {
	if _, ok := attrs["path"].(*types.AttributeValueMemberS); !ok {
		return Entry{}, ErrPathNotPresent
	}
	var e Entry
	if err := attributevalue.UnmarshalMap(attrs, &e); err != nil {
		return Entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	return e, nil
}
