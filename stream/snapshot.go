// Package stream provides DynamoDB Streams handlers for DynamoDB-backed entry trees.
package stream

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/entrytree/internal/shard"
)

// Snapshotter rewrites a snapshot of the whole tree.
// *store.Database satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// Handler processes node table stream events for one namespace.
type Handler struct {
	target    Snapshotter
	namespace string
	logger    *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(target Snapshotter, namespace string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		target:    target,
		namespace: namespace,
		logger:    logger,
	}
}

// HandleSnapshot rewrites the snapshot once per batch that inserted or
// modified nodes of the handler's namespace.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleSnapshot(ctx context.Context, event events.DynamoDBEvent) error {
	changes := 0
	for _, record := range event.Records {
		if h.relevant(record) {
			changes++
		}
	}
	if changes == 0 {
		return nil
	}

	h.logger.Info("refreshing snapshot",
		"namespace", h.namespace,
		"changes", changes,
	)

	if err := h.target.Snapshot(ctx); err != nil {
		h.logger.Error("snapshot failed",
			"namespace", h.namespace,
			"error", err,
		)
		return err // Will retry, eventually DLQ
	}
	return nil
}

// relevant reports whether a record changed a node of the namespace.
// Nodes are never deleted, so REMOVE events (table cleanup) are ignored.
func (h *Handler) relevant(record events.DynamoDBEventRecord) bool {
	if record.EventName != "INSERT" && record.EventName != "MODIFY" {
		return false
	}

	pk := getStringAttr(record.Change.Keys, "pk")
	if shard.Namespace(pk) != h.namespace {
		return false
	}

	h.logger.Debug("node changed",
		"eventID", record.EventID,
		"event", record.EventName,
		"key", getNumberAttr(record.Change.Keys, "sk"),
		"kind", getStringAttr(record.Change.NewImage, "kind"),
	)
	return true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
