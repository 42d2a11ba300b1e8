package store

import (
	"context"

	"github.com/jacentio/entrytree/graph"
)

// linkGraph wraps an engine with container/leaf-aware calls.
// Every method returns package errors.
type linkGraph struct {
	engine graph.Engine
}

func (g linkGraph) nodeExists(ctx context.Context, key Key) (bool, error) {
	ok, err := g.engine.Contains(ctx, key)
	return ok, mapEngineError(err)
}

func (g linkGraph) createLeaf(ctx context.Context, key Key, attrs graph.Attrs) error {
	return mapEngineError(g.engine.Insert(ctx, key, attrs))
}

func (g linkGraph) createContainer(ctx context.Context, key Key, children []Key) error {
	if children == nil {
		children = []Key{}
	}
	return mapEngineError(g.engine.InsertLink(ctx, key, children))
}

func (g linkGraph) appendChild(ctx context.Context, parent, child Key) error {
	return mapEngineError(g.engine.AppendLinks(ctx, parent, child))
}

func (g linkGraph) getLeaf(ctx context.Context, key Key) (graph.Attrs, error) {
	attrs, err := g.engine.Get(ctx, key)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return attrs, nil
}

func (g linkGraph) getChildren(ctx context.Context, key Key) ([]Key, error) {
	children, err := g.engine.GetLinks(ctx, key)
	if err != nil {
		return nil, mapEngineError(err)
	}
	return children, nil
}
