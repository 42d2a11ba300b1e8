// Package dynamo provides a graph.Engine stored in a DynamoDB table.
//
// Each node is one item:
//
//	pk        S  namespace#NN (shard of the node key)
//	sk        N  node key
//	kind      S  "container" or "leaf"
//	children  L  child keys (containers only)
//	attrs     M  attribute record (leaves only)
//
// Kind checks are conditional writes, so an append to a leaf or a missing
// node is rejected by DynamoDB rather than by a read-then-write.
package dynamo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entrytree/graph"
	"github.com/jacentio/entrytree/internal/shard"
)

const (
	kindContainer = "container"
	kindLeaf      = "leaf"
)

// Client is the subset of *dynamodb.Client used by the Engine.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	dynamodb.QueryAPIClient
}

// Engine stores an entry tree in DynamoDB.
type Engine struct {
	client Client
	config Config
}

var _ graph.Engine = (*Engine)(nil)

// New creates a new Engine instance.
func New(client Client, config Config) *Engine {
	config.validate()
	return &Engine{
		client: client,
		config: config,
	}
}

// Namespace returns the namespace this engine reads and writes.
func (e *Engine) Namespace() string {
	return e.config.Namespace
}

// key returns the primary key of a node.
func (e *Engine) key(k graph.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: shard.NodePK(e.config.Namespace, uint32(k), e.config.NumShards)},
		"sk": &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(k), 10)},
	}
}

func (e *Engine) Contains(ctx context.Context, key graph.Key) (bool, error) {
	result, err := e.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(e.config.Table),
		Key:                  e.key(key),
		ProjectionExpression: aws.String("pk"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return false, err
	}
	return result.Item != nil, nil
}

func (e *Engine) Insert(ctx context.Context, key graph.Key, attrs graph.Attrs) error {
	item := e.key(key)
	item["kind"] = &types.AttributeValueMemberS{Value: kindLeaf}
	item["attrs"] = &types.AttributeValueMemberM{Value: attrs}
	if attrs == nil {
		item["attrs"] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
	}
	return e.putNew(ctx, item)
}

func (e *Engine) InsertLink(ctx context.Context, key graph.Key, children []graph.Key) error {
	item := e.key(key)
	item["kind"] = &types.AttributeValueMemberS{Value: kindContainer}
	item["children"] = marshalChildren(children)
	return e.putNew(ctx, item)
}

// putNew writes item unless its key is already taken.
func (e *Engine) putNew(ctx context.Context, item map[string]types.AttributeValue) error {
	_, err := e.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(e.config.Table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return graph.ErrKeyAlreadyPresent
	}
	return err
}

func (e *Engine) Get(ctx context.Context, key graph.Key) (graph.Attrs, error) {
	item, err := e.getNode(ctx, key)
	if err != nil {
		return nil, err
	}
	if getStringAttr(item, "kind") != kindLeaf {
		return nil, graph.ErrNodeNotData
	}
	attrs := graph.Attrs{}
	if m, ok := item["attrs"].(*types.AttributeValueMemberM); ok {
		for k, v := range m.Value {
			attrs[k] = v
		}
	}
	return attrs, nil
}

func (e *Engine) GetLinks(ctx context.Context, key graph.Key) ([]graph.Key, error) {
	item, err := e.getNode(ctx, key)
	if err != nil {
		return nil, err
	}
	if getStringAttr(item, "kind") != kindContainer {
		return nil, graph.ErrNodeNotLink
	}
	return unmarshalChildren(item["children"])
}

// getNode reads a node item, returning graph.ErrKeyNotFound if absent.
func (e *Engine) getNode(ctx context.Context, key graph.Key) (map[string]types.AttributeValue, error) {
	result, err := e.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(e.config.Table),
		Key:            e.key(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, graph.ErrKeyNotFound
	}
	return result.Item, nil
}

func (e *Engine) AppendLinks(ctx context.Context, parent, child graph.Key) error {
	_, err := e.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(e.config.Table),
		Key:                 e.key(parent),
		UpdateExpression:    aws.String("SET #children = list_append(#children, :child)"),
		ConditionExpression: aws.String("attribute_exists(pk) AND #kind = :container"),
		ExpressionAttributeNames: map[string]string{
			"#children": "children",
			"#kind":     "kind",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":child":     marshalChildren([]graph.Key{child}),
			":container": &types.AttributeValueMemberS{Value: kindContainer},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})

	// The old item tells a missing parent from a leaf parent
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		if condErr.Item == nil {
			return graph.ErrKeyNotFound
		}
		return graph.ErrNodeNotLink
	}
	return err
}

// Records returns every node of the namespace sorted by key.
func (e *Engine) Records(ctx context.Context) ([]graph.Record, error) {
	numShards := e.config.NumShards

	// Fast path for single shard (default)
	if numShards == 1 {
		records, err := e.queryShard(ctx, 0)
		if err != nil {
			return nil, err
		}
		sortRecords(records)
		return records, nil
	}

	// Multi-shard fan-out
	var mu sync.Mutex
	var all []graph.Record
	var wg sync.WaitGroup
	errs := make(chan error, numShards)

	for shardNum := 0; shardNum < numShards; shardNum++ {
		wg.Add(1)
		go func(shardNum int) {
			defer wg.Done()

			records, err := e.queryShard(ctx, shardNum)
			if err != nil {
				errs <- fmt.Errorf("shard %02x: %w", shardNum, err)
				return
			}

			mu.Lock()
			all = append(all, records...)
			mu.Unlock()
		}(shardNum)
	}

	go func() {
		wg.Wait()
		close(errs)
	}()

	for err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sortRecords(all)
	return all, nil
}

func (e *Engine) queryShard(ctx context.Context, shardNum int) ([]graph.Record, error) {
	var records []graph.Record

	paginator := dynamodb.NewQueryPaginator(e.client, &dynamodb.QueryInput{
		TableName:              aws.String(e.config.Table),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: shard.PK(e.config.Namespace, shardNum)},
		},
		ConsistentRead: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			record, err := unmarshalRecord(item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
	}

	return records, nil
}

func (e *Engine) SerializeToString(ctx context.Context) (string, error) {
	records, err := e.Records(ctx)
	if err != nil {
		return "", err
	}
	return graph.EncodeSnapshot(records)
}

// unmarshalRecord converts a node item to a graph.Record.
func unmarshalRecord(item map[string]types.AttributeValue) (graph.Record, error) {
	n, ok := item["sk"].(*types.AttributeValueMemberN)
	if !ok {
		return graph.Record{}, errors.New("node item without sk")
	}
	k, err := strconv.ParseUint(n.Value, 10, 32)
	if err != nil {
		return graph.Record{}, fmt.Errorf("parse sk %q: %w", n.Value, err)
	}
	key := graph.Key(k)

	switch kind := getStringAttr(item, "kind"); kind {
	case kindContainer:
		children, err := unmarshalChildren(item["children"])
		if err != nil {
			return graph.Record{}, fmt.Errorf("node %d: %w", key, err)
		}
		return graph.Record{Key: key, Node: graph.Container{Children: children}}, nil
	case kindLeaf:
		attrs := graph.Attrs{}
		if m, ok := item["attrs"].(*types.AttributeValueMemberM); ok {
			for name, v := range m.Value {
				attrs[name] = v
			}
		}
		return graph.Record{Key: key, Node: graph.Leaf{Attrs: attrs}}, nil
	default:
		return graph.Record{}, fmt.Errorf("node %d: unknown kind %q", key, kind)
	}
}

// marshalChildren builds a list of numbers. Always a list, never NULL, so
// list_append has something to append to.
func marshalChildren(children []graph.Key) *types.AttributeValueMemberL {
	values := make([]types.AttributeValue, 0, len(children))
	for _, c := range children {
		values = append(values, &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(c), 10)})
	}
	return &types.AttributeValueMemberL{Value: values}
}

func unmarshalChildren(av types.AttributeValue) ([]graph.Key, error) {
	l, ok := av.(*types.AttributeValueMemberL)
	if !ok {
		return nil, nil
	}
	children := make([]graph.Key, 0, len(l.Value))
	for _, v := range l.Value {
		n, ok := v.(*types.AttributeValueMemberN)
		if !ok {
			return nil, fmt.Errorf("child is %T, not a number", v)
		}
		k, err := strconv.ParseUint(n.Value, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse child %q: %w", n.Value, err)
		}
		children = append(children, graph.Key(k))
	}
	return children, nil
}

// getStringAttr extracts a string attribute from an item.
func getStringAttr(item map[string]types.AttributeValue, key string) string {
	if v, ok := item[key].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func sortRecords(records []graph.Record) {
	slices.SortFunc(records, func(a, b graph.Record) int {
		return cmp.Compare(a.Key, b.Key)
	})
}
