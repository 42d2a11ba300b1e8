// Command snapshotter is an AWS Lambda function that keeps a snapshot file in
// sync with a DynamoDB-backed entry tree. Subscribe it to the node table's
// stream.
//
// Environment:
//
//	ENTRYTREE_TABLE          node table name (default "entrytree_nodes")
//	ENTRYTREE_NAMESPACE      namespace of the tree (required)
//	ENTRYTREE_SHARDS         shard count the tree was written with (default 1)
//	ENTRYTREE_SNAPSHOT_PATH  snapshot file, e.g. on a mounted EFS volume (required)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/entrytree/graph/dynamo"
	"github.com/jacentio/entrytree/store"
	"github.com/jacentio/entrytree/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	handler, err := setup(context.Background(), logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	lambda.Start(handler.HandleSnapshot)
}

func setup(ctx context.Context, logger *slog.Logger) (*stream.Handler, error) {
	namespace := os.Getenv("ENTRYTREE_NAMESPACE")
	if namespace == "" {
		return nil, errors.New("ENTRYTREE_NAMESPACE is required")
	}
	snapshotPath := os.Getenv("ENTRYTREE_SNAPSHOT_PATH")
	if snapshotPath == "" {
		return nil, errors.New("ENTRYTREE_SNAPSHOT_PATH is required")
	}

	engineCfg := dynamo.DefaultConfig()
	engineCfg.Namespace = namespace
	if table := os.Getenv("ENTRYTREE_TABLE"); table != "" {
		engineCfg.Table = table
	}
	if shards := os.Getenv("ENTRYTREE_SHARDS"); shards != "" {
		n, err := strconv.Atoi(shards)
		if err != nil {
			return nil, fmt.Errorf("parse ENTRYTREE_SHARDS: %w", err)
		}
		engineCfg.NumShards = n
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	engine := dynamo.New(dynamodb.NewFromConfig(awsCfg), engineCfg)

	storeCfg := store.DefaultConfig()
	storeCfg.Engine = engine
	storeCfg.SnapshotPath = snapshotPath
	storeCfg.Logger = logger

	db, err := store.Open(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open tree %s: %w", namespace, err)
	}

	logger.Info("snapshotter ready",
		"table", engineCfg.Table,
		"namespace", namespace,
		"shards", engineCfg.NumShards,
		"path", snapshotPath,
	)
	return stream.NewHandler(db, namespace, logger), nil
}
