package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entrytree/graph"
	"github.com/jacentio/entrytree/internal/keyalloc"
)

// --- Entry Codec Tests ---

func TestEncodeEntry(t *testing.T) {
	attrs, err := encodeEntry(Entry{Path: "foo"})
	if err != nil {
		t.Fatalf("encodeEntry failed: %v", err)
	}
	if len(attrs) != 1 {
		t.Errorf("expected exactly one attribute, got %v", attrs)
	}
	s, ok := attrs["path"].(*types.AttributeValueMemberS)
	if !ok || s.Value != "foo" {
		t.Errorf("expected path S 'foo', got %#v", attrs["path"])
	}
}

func TestEncodeEntry_EmptyPathStaysString(t *testing.T) {
	attrs, err := encodeEntry(Entry{})
	if err != nil {
		t.Fatalf("encodeEntry failed: %v", err)
	}
	if _, ok := attrs["path"].(*types.AttributeValueMemberS); !ok {
		t.Errorf("expected string attribute for empty path, got %#v", attrs["path"])
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		name    string
		attrs   graph.Attrs
		want    Entry
		wantErr error
	}{
		{
			name:  "path present",
			attrs: graph.Attrs{"path": &types.AttributeValueMemberS{Value: "a/b"}},
			want:  Entry{Path: "a/b"},
		},
		{
			name: "extra attributes ignored",
			attrs: graph.Attrs{
				"path":  &types.AttributeValueMemberS{Value: "x"},
				"owner": &types.AttributeValueMemberS{Value: "root"},
			},
			want: Entry{Path: "x"},
		},
		{
			name:    "path missing",
			attrs:   graph.Attrs{"name": &types.AttributeValueMemberS{Value: "x"}},
			wantErr: ErrPathNotPresent,
		},
		{
			name:    "path not a string",
			attrs:   graph.Attrs{"path": &types.AttributeValueMemberN{Value: "5"}},
			wantErr: ErrPathNotPresent,
		},
		{
			name:    "path null",
			attrs:   graph.Attrs{"path": &types.AttributeValueMemberNULL{Value: true}},
			wantErr: ErrPathNotPresent,
		},
		{
			name:    "empty record",
			attrs:   graph.Attrs{},
			wantErr: ErrPathNotPresent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEntry(tt.attrs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeEntry failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

// --- Error Mapper Tests ---

func TestMapEngineError(t *testing.T) {
	transport := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"already present", graph.ErrKeyAlreadyPresent, ErrKeyAlreadyPresent},
		{"not found", graph.ErrKeyNotFound, ErrKeyNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", graph.ErrKeyNotFound), ErrKeyNotFound},
		{"not link", graph.ErrNodeNotLink, ErrNodeNotLink},
		{"not data", graph.ErrNodeNotData, ErrNodeNotData},
		{"exhausted", fmt.Errorf("%w after 3 attempts", keyalloc.ErrExhausted), ErrKeySpaceExhausted},
		{"transport", transport, transport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapEngineError(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMapEngineError_PackageErrorsPassThrough(t *testing.T) {
	for _, err := range []error{ErrKeyNotFound, ErrPathNotPresent, ErrFile} {
		if got := mapEngineError(err); got != err {
			t.Errorf("expected %v unchanged, got %v", err, got)
		}
	}
}

// --- Snapshot Writer Tests ---

func TestSnapshotWriter_Disabled(t *testing.T) {
	var w snapshotWriter
	if w.enabled() {
		t.Error("expected zero writer to be disabled")
	}
	if err := w.write(context.Background(), brokenEngine{}); err != nil {
		t.Errorf("expected disabled writer to skip serialization, got %v", err)
	}
}

func TestSnapshotWriter_Write(t *testing.T) {
	ctx := context.Background()
	m := graph.NewMemory()
	_ = m.InsertLink(ctx, 0, nil)

	w := snapshotWriter{path: filepath.Join(t.TempDir(), "snap.yaml")}
	if err := w.write(ctx, m); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	records, err := readSnapshot(w.path)
	if err != nil {
		t.Fatalf("readSnapshot failed: %v", err)
	}
	if len(records) != 1 || records[0].Key != 0 {
		t.Errorf("expected single root record, got %+v", records)
	}
}

// --- Link Graph Adapter Tests ---

func TestLinkGraph_CreateContainerNilChildren(t *testing.T) {
	ctx := context.Background()
	g := linkGraph{engine: graph.NewMemory()}

	if err := g.createContainer(ctx, 3, nil); err != nil {
		t.Fatalf("createContainer failed: %v", err)
	}
	children, err := g.getChildren(ctx, 3)
	if err != nil {
		t.Fatalf("getChildren failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("expected no children, got %v", children)
	}
	if err := g.createLeaf(ctx, 3, graph.Attrs{}); !errors.Is(err, ErrKeyAlreadyPresent) {
		t.Errorf("expected ErrKeyAlreadyPresent, got %v", err)
	}
}

// brokenEngine fails every call.
type brokenEngine struct{}

var errBroken = errors.New("broken engine")

func (brokenEngine) Contains(context.Context, graph.Key) (bool, error)        { return false, errBroken }
func (brokenEngine) Insert(context.Context, graph.Key, graph.Attrs) error     { return errBroken }
func (brokenEngine) Get(context.Context, graph.Key) (graph.Attrs, error)      { return nil, errBroken }
func (brokenEngine) InsertLink(context.Context, graph.Key, []graph.Key) error { return errBroken }
func (brokenEngine) AppendLinks(context.Context, graph.Key, graph.Key) error  { return errBroken }
func (brokenEngine) GetLinks(context.Context, graph.Key) ([]graph.Key, error) { return nil, errBroken }
func (brokenEngine) SerializeToString(context.Context) (string, error)        { return "", errBroken }

func TestLinkGraph_TransportErrors(t *testing.T) {
	ctx := context.Background()
	g := linkGraph{engine: brokenEngine{}}

	if _, err := g.nodeExists(ctx, 1); !errors.Is(err, errBroken) {
		t.Errorf("nodeExists: expected engine error, got %v", err)
	}
	if _, err := g.getLeaf(ctx, 1); !errors.Is(err, errBroken) {
		t.Errorf("getLeaf: expected engine error, got %v", err)
	}
	if err := g.appendChild(ctx, 1, 2); !errors.Is(err, errBroken) {
		t.Errorf("appendChild: expected engine error, got %v", err)
	}
}
