// Package store provides a hierarchical entry store on top of a keyed link graph.
//
// Every node is addressed by a 32-bit key. A node is either a container,
// holding an ordered list of child keys, or a leaf, holding an [Entry]. The
// root container lives at [RootKey] and is created by [New].
//
// # Key Features
//
//   - Random key allocation with bounded collision retry
//   - Parent validation on insert (must exist and be a container)
//   - Kind enforcement: containers and leaves share one key space
//   - Optional whole-store snapshot after every mutation
//   - Snapshot restore via [Load]
//   - Pluggable engines: in-memory ([graph.Memory]) or DynamoDB
//
// # Usage
//
//	db, err := store.NewBacked(ctx, "/var/lib/tree.yaml", store.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	dir, err := db.MakeDir(ctx)
//	...
//	key, err := db.Insert(ctx, store.Entry{Path: "a.txt"}, dir)
//
// # Snapshots
//
// With a snapshot path configured, each successful mutation serializes the
// whole store and overwrites the file. A failed write is not rolled back:
// Insert and MakeDir return the new key together with an error wrapping
// [ErrFile] or [ErrSerialize]. The node exists in the store but not on disk.
//
// Insert writes the leaf before linking it to its parent. If the link fails
// (a transport error from a remote engine), the leaf stays in the engine
// without a parent. Insert returns its key with the error and logs it at
// ERROR so it can be linked with [Database.Link] or cleaned up.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrKeyAlreadyPresent] - a key was created twice
//   - [ErrKeyNotFound] - referenced key doesn't exist
//   - [ErrNodeNotLink] - expected a container, found a leaf
//   - [ErrNodeNotData] - expected a leaf, found a container
//   - [ErrPathNotPresent] - leaf record has no path attribute
//   - [ErrInvalidPath] - entry path is not valid UTF-8
//   - [ErrFile] - snapshot file I/O failed
//   - [ErrSerialize] - snapshot encoding or decoding failed
//   - [ErrKeySpaceExhausted] - key allocation gave up after repeated collisions
package store
