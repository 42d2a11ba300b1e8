package graph

import (
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/goccy/go-yaml"
)

// SnapshotVersion is the snapshot format version written by EncodeSnapshot.
const SnapshotVersion = 1

const (
	kindContainer = "container"
	kindLeaf      = "leaf"
)

type snapshotFile struct {
	Version int            `yaml:"version"`
	Nodes   []snapshotNode `yaml:"nodes"`
}

type snapshotNode struct {
	Key      Key                     `yaml:"key"`
	Kind     string                  `yaml:"kind"`
	Children []Key                   `yaml:"children,omitempty"`
	Attrs    map[string]snapshotAttr `yaml:"attrs,omitempty"`
}

// snapshotAttr is an attribute value tagged with its DynamoDB type, so a
// string that looks like a number or a YAML keyword stays a string.
// Exactly one field is set. Binary values are base64.
type snapshotAttr struct {
	S    *string                  `yaml:"S,omitempty"`
	N    *string                  `yaml:"N,omitempty"`
	B    *string                  `yaml:"B,omitempty"`
	BOOL *bool                    `yaml:"BOOL,omitempty"`
	NULL bool                     `yaml:"NULL,omitempty"`
	L    *[]snapshotAttr          `yaml:"L,omitempty"`
	M    *map[string]snapshotAttr `yaml:"M,omitempty"`
	SS   []string                 `yaml:"SS,omitempty"`
	NS   []string                 `yaml:"NS,omitempty"`
	BS   []string                 `yaml:"BS,omitempty"`
}

var errInvalidUTF8 = errors.New("string is not valid UTF-8")

// EncodeSnapshot renders records as a YAML snapshot document.
// Records are written in the order given. Every string is written
// double-quoted, so control characters and keyword-like values survive.
func EncodeSnapshot(records []Record) (string, error) {
	file := snapshotFile{
		Version: SnapshotVersion,
		Nodes:   make([]snapshotNode, 0, len(records)),
	}
	for _, r := range records {
		sn := snapshotNode{Key: r.Key}
		switch n := r.Node.(type) {
		case Container:
			sn.Kind = kindContainer
			sn.Children = n.Children
		case Leaf:
			sn.Kind = kindLeaf
			if len(n.Attrs) > 0 {
				attrs, err := encodeAttrMap(n.Attrs)
				if err != nil {
					return "", fmt.Errorf("node %d: %w", r.Key, err)
				}
				sn.Attrs = attrs
			}
		default:
			return "", fmt.Errorf("node %d: unknown node type %T", r.Key, r.Node)
		}
		file.Nodes = append(file.Nodes, sn)
	}

	out, err := yaml.MarshalWithOptions(file, yaml.JSON())
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(out), nil
}

// DecodeSnapshot parses a document produced by EncodeSnapshot.
func DecodeSnapshot(data string) ([]Record, error) {
	var file snapshotFile
	if err := yaml.Unmarshal([]byte(data), &file); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if file.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", file.Version)
	}

	seen := make(map[Key]struct{}, len(file.Nodes))
	records := make([]Record, 0, len(file.Nodes))
	for _, sn := range file.Nodes {
		if _, dup := seen[sn.Key]; dup {
			return nil, fmt.Errorf("node %d: duplicate key", sn.Key)
		}
		seen[sn.Key] = struct{}{}

		switch sn.Kind {
		case kindContainer:
			records = append(records, Record{Key: sn.Key, Node: Container{Children: sn.Children}})
		case kindLeaf:
			attrs, err := decodeAttrMap(sn.Attrs)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", sn.Key, err)
			}
			records = append(records, Record{Key: sn.Key, Node: Leaf{Attrs: attrs}})
		default:
			return nil, fmt.Errorf("node %d: unknown kind %q", sn.Key, sn.Kind)
		}
	}
	return records, nil
}

func encodeAttrMap(m map[string]types.AttributeValue) (map[string]snapshotAttr, error) {
	out := make(map[string]snapshotAttr, len(m))
	for name, v := range m {
		if !utf8.ValidString(name) {
			return nil, fmt.Errorf("attr name %q: %w", name, errInvalidUTF8)
		}
		a, err := encodeAttr(v)
		if err != nil {
			return nil, fmt.Errorf("attr %q: %w", name, err)
		}
		out[name] = a
	}
	return out, nil
}

func encodeAttr(av types.AttributeValue) (snapshotAttr, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		if !utf8.ValidString(v.Value) {
			return snapshotAttr{}, errInvalidUTF8
		}
		s := v.Value
		return snapshotAttr{S: &s}, nil
	case *types.AttributeValueMemberN:
		n := v.Value
		return snapshotAttr{N: &n}, nil
	case *types.AttributeValueMemberB:
		b := base64.StdEncoding.EncodeToString(v.Value)
		return snapshotAttr{B: &b}, nil
	case *types.AttributeValueMemberBOOL:
		b := v.Value
		return snapshotAttr{BOOL: &b}, nil
	case *types.AttributeValueMemberNULL:
		return snapshotAttr{NULL: true}, nil
	case *types.AttributeValueMemberL:
		l := make([]snapshotAttr, 0, len(v.Value))
		for i, item := range v.Value {
			a, err := encodeAttr(item)
			if err != nil {
				return snapshotAttr{}, fmt.Errorf("[%d]: %w", i, err)
			}
			l = append(l, a)
		}
		return snapshotAttr{L: &l}, nil
	case *types.AttributeValueMemberM:
		m, err := encodeAttrMap(v.Value)
		if err != nil {
			return snapshotAttr{}, err
		}
		return snapshotAttr{M: &m}, nil
	case *types.AttributeValueMemberSS:
		for _, s := range v.Value {
			if !utf8.ValidString(s) {
				return snapshotAttr{}, errInvalidUTF8
			}
		}
		return snapshotAttr{SS: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return snapshotAttr{NS: v.Value}, nil
	case *types.AttributeValueMemberBS:
		bs := make([]string, 0, len(v.Value))
		for _, b := range v.Value {
			bs = append(bs, base64.StdEncoding.EncodeToString(b))
		}
		return snapshotAttr{BS: bs}, nil
	default:
		return snapshotAttr{}, fmt.Errorf("unsupported attribute type %T", av)
	}
}

func decodeAttrMap(m map[string]snapshotAttr) (Attrs, error) {
	out := make(Attrs, len(m))
	for name, a := range m {
		v, err := a.decode()
		if err != nil {
			return nil, fmt.Errorf("attr %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (a snapshotAttr) decode() (types.AttributeValue, error) {
	set := 0
	for _, ok := range []bool{
		a.S != nil, a.N != nil, a.B != nil, a.BOOL != nil, a.NULL,
		a.L != nil, a.M != nil, len(a.SS) > 0, len(a.NS) > 0, len(a.BS) > 0,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("attribute has %d types, want 1", set)
	}

	switch {
	case a.S != nil:
		return &types.AttributeValueMemberS{Value: *a.S}, nil
	case a.N != nil:
		return &types.AttributeValueMemberN{Value: *a.N}, nil
	case a.B != nil:
		b, err := base64.StdEncoding.DecodeString(*a.B)
		if err != nil {
			return nil, fmt.Errorf("decode binary: %w", err)
		}
		return &types.AttributeValueMemberB{Value: b}, nil
	case a.BOOL != nil:
		return &types.AttributeValueMemberBOOL{Value: *a.BOOL}, nil
	case a.NULL:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case a.L != nil:
		l := make([]types.AttributeValue, 0, len(*a.L))
		for i, item := range *a.L {
			v, err := item.decode()
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l = append(l, v)
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	case a.M != nil:
		m, err := decodeAttrMap(*a.M)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case len(a.SS) > 0:
		return &types.AttributeValueMemberSS{Value: a.SS}, nil
	case len(a.NS) > 0:
		return &types.AttributeValueMemberNS{Value: a.NS}, nil
	default:
		bs := make([][]byte, 0, len(a.BS))
		for _, s := range a.BS {
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("decode binary set: %w", err)
			}
			bs = append(bs, b)
		}
		return &types.AttributeValueMemberBS{Value: bs}, nil
	}
}
