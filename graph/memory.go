package graph

import (
	"cmp"
	"context"
	"slices"
)

// Memory is an in-memory Engine. It is not safe for concurrent use; callers
// serialize access.
type Memory struct {
	nodes map[Key]Node
}

// NewMemory creates an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{nodes: make(map[Key]Node)}
}

func (m *Memory) Contains(_ context.Context, key Key) (bool, error) {
	_, ok := m.nodes[key]
	return ok, nil
}

func (m *Memory) Insert(_ context.Context, key Key, attrs Attrs) error {
	if _, ok := m.nodes[key]; ok {
		return ErrKeyAlreadyPresent
	}
	m.nodes[key] = Leaf{Attrs: cloneAttrs(attrs)}
	return nil
}

func (m *Memory) Get(_ context.Context, key Key) (Attrs, error) {
	n, ok := m.nodes[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	switch n := n.(type) {
	case Leaf:
		return cloneAttrs(n.Attrs), nil
	default:
		return nil, ErrNodeNotData
	}
}

func (m *Memory) InsertLink(_ context.Context, key Key, children []Key) error {
	if _, ok := m.nodes[key]; ok {
		return ErrKeyAlreadyPresent
	}
	m.nodes[key] = Container{Children: slices.Clone(children)}
	return nil
}

func (m *Memory) AppendLinks(_ context.Context, parent, child Key) error {
	n, ok := m.nodes[parent]
	if !ok {
		return ErrKeyNotFound
	}
	c, ok := n.(Container)
	if !ok {
		return ErrNodeNotLink
	}
	c.Children = append(c.Children, child)
	m.nodes[parent] = c
	return nil
}

func (m *Memory) GetLinks(_ context.Context, key Key) ([]Key, error) {
	n, ok := m.nodes[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	switch n := n.(type) {
	case Container:
		return slices.Clone(n.Children), nil
	default:
		return nil, ErrNodeNotLink
	}
}

// Records returns every node sorted by key.
func (m *Memory) Records() []Record {
	records := make([]Record, 0, len(m.nodes))
	for k, n := range m.nodes {
		records = append(records, Record{Key: k, Node: n})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return records
}

func (m *Memory) SerializeToString(_ context.Context) (string, error) {
	return EncodeSnapshot(m.Records())
}

// cloneAttrs copies the map. Attribute values are immutable once stored.
func cloneAttrs(attrs Attrs) Attrs {
	if attrs == nil {
		return Attrs{}
	}
	out := make(Attrs, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
