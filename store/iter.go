package store

import (
	"context"
	"fmt"
	"iter"
)

// ChildIter walks the children of a container, one Get per step.
//
//	it, err := db.IterChildren(ctx, store.RootKey)
//	if err != nil {
//	    return err
//	}
//	for it.Next() {
//	    fmt.Println(it.Key(), it.Entry().Path)
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// Under IterateSkip, children that cannot be read as entries (containers,
// missing keys, records without a path) are skipped and Err stays nil.
// Under IterateFailFast, the first such child ends the iteration and Err
// reports it. A ChildIter cannot be restarted.
type ChildIter struct {
	ctx      context.Context
	db       *Database
	children []Key
	pos      int

	key   Key
	entry Entry
	err   error
}

// Next advances to the next readable child.
func (it *ChildIter) Next() bool {
	if it.err != nil {
		return false
	}
	for it.pos < len(it.children) {
		key := it.children[it.pos]
		it.pos++

		entry, err := it.db.Get(it.ctx, key)
		if err != nil {
			if it.db.config.Iteration == IterateFailFast {
				it.err = fmt.Errorf("child %d: %w", key, err)
				return false
			}
			it.db.logger.Warn("skipping unreadable child", "key", key, "error", err)
			continue
		}

		it.key, it.entry = key, entry
		return true
	}
	return false
}

// Key returns the current child's key.
func (it *ChildIter) Key() Key {
	return it.key
}

// Entry returns the current child's entry.
func (it *ChildIter) Entry() Entry {
	return it.entry
}

// Err returns the error that stopped a fail-fast iteration.
func (it *ChildIter) Err() error {
	return it.err
}

// All returns the remaining children as a sequence. Check Err afterwards.
func (it *ChildIter) All() iter.Seq2[Key, Entry] {
	return func(yield func(Key, Entry) bool) {
		for it.Next() {
			if !yield(it.key, it.entry) {
				return
			}
		}
	}
}
