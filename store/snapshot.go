package store

import (
	"context"
	"os"

	"github.com/jacentio/entrytree/graph"
)

// snapshotWriter rewrites the backing file with a full serialization of the
// engine. The zero value writes nothing.
type snapshotWriter struct {
	path string
}

func (w snapshotWriter) enabled() bool {
	return w.path != ""
}

// write serializes engine and truncates-and-writes the backing file.
func (w snapshotWriter) write(ctx context.Context, engine graph.Engine) error {
	if !w.enabled() {
		return nil
	}
	data, err := engine.SerializeToString(ctx)
	if err != nil {
		return serializeError(err)
	}
	if err := os.WriteFile(w.path, []byte(data), 0o644); err != nil {
		return fileError("write", w.path, err)
	}
	return nil
}

// readSnapshot loads the records of a snapshot file.
func readSnapshot(path string) ([]graph.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError("read", path, err)
	}
	records, err := graph.DecodeSnapshot(string(data))
	if err != nil {
		return nil, serializeError(err)
	}
	return records, nil
}
