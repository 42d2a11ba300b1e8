package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jacentio/entrytree/graph"
	"github.com/jacentio/entrytree/internal/keyalloc"
)

// Database is a hierarchical entry store.
// Mutations hold an exclusive lock; reads share a lock.
type Database struct {
	mu     sync.RWMutex
	links  linkGraph
	alloc  *keyalloc.Allocator
	snap   snapshotWriter
	config Config
	logger *slog.Logger
}

func newDatabase(config Config) *Database {
	config.validate()
	return &Database{
		links:  linkGraph{engine: config.Engine},
		alloc:  keyalloc.New(config.Source, config.MaxKeyAttempts),
		snap:   snapshotWriter{path: config.SnapshotPath},
		config: config,
		logger: config.Logger,
	}
}

// New creates a Database with an empty root container at RootKey.
// If config.SnapshotPath is set, the initial snapshot is written.
func New(ctx context.Context, config Config) (*Database, error) {
	d := newDatabase(config)
	if err := d.links.createContainer(ctx, RootKey, nil); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	if err := d.snap.write(ctx, d.links.engine); err != nil {
		return nil, err
	}
	return d, nil
}

// NewBacked creates a Database that rewrites path after every mutation.
func NewBacked(ctx context.Context, path string, config Config) (*Database, error) {
	config.SnapshotPath = path
	return New(ctx, config)
}

// Open attaches to an engine that already holds a root container, such as a
// DynamoDB namespace written by another process. No snapshot is written.
func Open(ctx context.Context, config Config) (*Database, error) {
	d := newDatabase(config)
	if err := d.checkRoot(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Load restores a Database from a snapshot file into config.Engine, which must
// be empty. The file becomes the backing snapshot.
func Load(ctx context.Context, path string, config Config) (*Database, error) {
	records, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}

	config.SnapshotPath = path
	d := newDatabase(config)
	for _, r := range records {
		switch n := r.Node.(type) {
		case graph.Container:
			err = d.links.createContainer(ctx, r.Key, n.Children)
		case graph.Leaf:
			err = d.links.createLeaf(ctx, r.Key, n.Attrs)
		}
		if err != nil {
			return nil, fmt.Errorf("restore node %d: %w", r.Key, err)
		}
	}
	if err := d.checkRoot(ctx); err != nil {
		return nil, err
	}

	d.logger.Debug("loaded snapshot", "path", path, "nodes", len(records))
	return d, nil
}

func (d *Database) checkRoot(ctx context.Context) error {
	if _, err := d.links.getChildren(ctx, RootKey); err != nil {
		return fmt.Errorf("root container: %w", err)
	}
	return nil
}

// SnapshotPath returns the backing file path, or "" if unbacked.
func (d *Database) SnapshotPath() string {
	return d.snap.path
}

// Insert stores entry as a new leaf under parent and returns its key.
//
// parent must exist (ErrKeyNotFound) and be a container (ErrNodeNotLink).
// If linking the leaf to parent fails, the leaf is left orphaned and its key
// is returned along with the error. If the snapshot write fails, the leaf
// stays inserted and its key is returned along with the error.
func (d *Database) Insert(ctx context.Context, entry Entry, parent Key) (Key, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Validate the parent before anything is written
	if _, err := d.links.getChildren(ctx, parent); err != nil {
		return 0, err
	}

	attrs, err := encodeEntry(entry)
	if err != nil {
		return 0, err
	}

	key, err := d.allocate(ctx)
	if err != nil {
		return 0, err
	}
	if err := d.links.createLeaf(ctx, key, attrs); err != nil {
		return 0, err
	}
	if err := d.links.appendChild(ctx, parent, key); err != nil {
		d.logger.Error("leaf orphaned", "key", key, "parent", parent, "error", err)
		return key, err
	}

	d.logger.Debug("inserted entry", "key", key, "parent", parent, "path", entry.Path)
	return key, d.persist(ctx)
}

// Get returns the entry stored at key.
func (d *Database) Get(ctx context.Context, key Key) (Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	attrs, err := d.links.getLeaf(ctx, key)
	if err != nil {
		return Entry{}, err
	}
	return decodeEntry(attrs)
}

// MakeDir creates an empty container and returns its key. The container has
// no parent until it is passed to Link.
func (d *Database) MakeDir(ctx context.Context) (Key, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key, err := d.allocate(ctx)
	if err != nil {
		return 0, err
	}
	if err := d.links.createContainer(ctx, key, nil); err != nil {
		return 0, err
	}

	d.logger.Debug("created container", "key", key)
	return key, d.persist(ctx)
}

// Link appends an existing node to parent's children. Links are not
// deduplicated; a node may be linked under several containers.
func (d *Database) Link(ctx context.Context, parent, child Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ok, err := d.links.nodeExists(ctx, child)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	if err := d.links.appendChild(ctx, parent, child); err != nil {
		return err
	}

	d.logger.Debug("linked node", "key", child, "parent", parent)
	return d.persist(ctx)
}

// NodeChildren returns the keys of a container's children in insertion order.
func (d *Database) NodeChildren(ctx context.Context, key Key) ([]Key, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.links.getChildren(ctx, key)
}

// IterChildren returns an iterator over a container's leaf children.
// The child list is fixed when the iterator is created; entries are read
// as the iterator advances.
func (d *Database) IterChildren(ctx context.Context, key Key) (*ChildIter, error) {
	children, err := d.NodeChildren(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ChildIter{
		ctx:      ctx,
		db:       d,
		children: children,
	}, nil
}

// Snapshot writes the backing file now. It does nothing for an unbacked Database.
func (d *Database) Snapshot(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.persist(ctx)
}

// allocate draws a key not present in the engine.
func (d *Database) allocate(ctx context.Context) (Key, error) {
	k, err := d.alloc.Next(func(k uint32) (bool, error) {
		return d.links.nodeExists(ctx, Key(k))
	})
	if err != nil {
		return 0, mapEngineError(err)
	}
	return Key(k), nil
}

// persist writes the snapshot. Callers hold the write lock.
func (d *Database) persist(ctx context.Context) error {
	if err := d.snap.write(ctx, d.links.engine); err != nil {
		d.logger.Error("snapshot write failed", "path", d.snap.path, "error", err)
		return err
	}
	return nil
}
