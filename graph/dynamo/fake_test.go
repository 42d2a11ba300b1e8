package dynamo

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory stand-in for the node table. It understands
// exactly the expressions the Engine issues.
type fakeClient struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	queries  int
	failGet  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(key map[string]types.AttributeValue) string {
	pk := key["pk"].(*types.AttributeValueMemberS).Value
	sk := key["sk"].(*types.AttributeValueMemberN).Value
	return pk + "|" + sk
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *fakeClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	item, ok := f.items[itemID(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := itemID(params.Item)
	if _, exists := f.items[id]; exists && aws.ToString(params.ConditionExpression) == "attribute_not_exists(pk)" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[id] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := itemID(params.Key)
	item, exists := f.items[id]
	kind, _ := item["kind"].(*types.AttributeValueMemberS)
	if !exists || kind == nil || kind.Value != kindContainer {
		condErr := &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		if exists && params.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			condErr.Item = copyItem(item)
		}
		return nil, condErr
	}
	current := item["children"].(*types.AttributeValueMemberL)
	extra := params.ExpressionAttributeValues[":child"].(*types.AttributeValueMemberL)
	merged := append(slices.Clone(current.Value), extra.Value...)
	updated := copyItem(item)
	updated["children"] = &types.AttributeValueMemberL{Value: merged}
	f.items[id] = updated
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	pk := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		if item["pk"].(*types.AttributeValueMemberS).Value == pk {
			matched = append(matched, copyItem(item))
		}
	}
	slices.SortFunc(matched, func(a, b map[string]types.AttributeValue) int {
		return cmp.Compare(skOf(a), skOf(b))
	})

	if params.ExclusiveStartKey != nil {
		start := skOf(params.ExclusiveStartKey)
		i := slices.IndexFunc(matched, func(item map[string]types.AttributeValue) bool {
			return skOf(item) > start
		})
		if i < 0 {
			matched = nil
		} else {
			matched = matched[i:]
		}
	}

	out := &dynamodb.QueryOutput{}
	if f.pageSize > 0 && len(matched) > f.pageSize {
		matched = matched[:f.pageSize]
		last := matched[len(matched)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": last["pk"], "sk": last["sk"]}
	}
	out.Items = matched
	out.Count = int32(len(matched))
	return out, nil
}

func skOf(item map[string]types.AttributeValue) uint64 {
	n, _ := strconv.ParseUint(item["sk"].(*types.AttributeValueMemberN).Value, 10, 64)
	return n
}

var errThrottled = errors.New("throttled")
