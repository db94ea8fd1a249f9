package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// table holds the schema and items of one mock table.
type table struct {
	description types.TableDescription
	keyNames    []string                                  // hash key first, then range key
	items       map[string]map[string]types.AttributeValue // compositeKey -> item
}

// DynamoDBClient is an in-memory implementation of the aws.DynamoDBClient
// interface. Items are stored under a composite key built from the table's
// key schema.
type DynamoDBClient struct {
	mu            sync.RWMutex
	tables        map[string]*table
	batchWrites   []dynamodb.BatchWriteItemInput
	updateItems   []dynamodb.UpdateItemInput
	failNextWrite bool
	failMu        sync.Mutex
}

// NewDynamoDBClient creates a new mock DynamoDB client
func NewDynamoDBClient() *DynamoDBClient {
	return &DynamoDBClient{
		tables:      make(map[string]*table),
		batchWrites: make([]dynamodb.BatchWriteItemInput, 0),
		updateItems: make([]dynamodb.UpdateItemInput, 0),
	}
}

// validationError mirrors how the SDK surfaces a ValidationException, which
// DynamoDB does not model as a typed error.
func validationError(msg string) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: msg}
}

func resourceNotFound(name string) error {
	return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
}

// compositeKey builds a deterministic storage key from the key attributes.
func (t *table) compositeKey(item map[string]types.AttributeValue) (string, error) {
	parts := make([]string, 0, len(t.keyNames))
	for _, name := range t.keyNames {
		v := attributeToString(item[name])
		if v == "" {
			return "", validationError("The provided key element does not match the schema: missing " + name)
		}
		parts = append(parts, name+"="+v)
	}
	return strings.Join(parts, "#"), nil
}

// attributeToString converts an AttributeValue to a string for key generation
func attributeToString(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

// lookup returns the named table. The caller must hold mu.
func (m *DynamoDBClient) lookup(name *string) (*table, error) {
	t, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, resourceNotFound(aws.ToString(name))
	}
	return t, nil
}

// SetFailNextWrite configures the client to fail the next write operation
func (m *DynamoDBClient) SetFailNextWrite(fail bool) {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	m.failNextWrite = fail
}

// shouldFail safely checks and resets the failNextWrite flag
func (m *DynamoDBClient) shouldFail() bool {
	m.failMu.Lock()
	defer m.failMu.Unlock()

	if m.failNextWrite {
		m.failNextWrite = false
		return true
	}
	return false
}

func (m *DynamoDBClient) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.TableName)
	if _, ok := m.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}

	t := &table{items: make(map[string]map[string]types.AttributeValue)}
	for _, kt := range []types.KeyType{types.KeyTypeHash, types.KeyTypeRange} {
		for _, k := range params.KeySchema {
			if k.KeyType == kt {
				t.keyNames = append(t.keyNames, aws.ToString(k.AttributeName))
			}
		}
	}
	if len(t.keyNames) == 0 {
		return nil, validationError("No hash key specified in key schema")
	}

	t.description = types.TableDescription{
		TableName:            params.TableName,
		TableArn:             aws.String("arn:aws:dynamodb:us-east-1:123456789012:table/" + name),
		TableStatus:          types.TableStatusActive,
		KeySchema:            params.KeySchema,
		AttributeDefinitions: params.AttributeDefinitions,
	}
	if params.BillingMode != "" {
		t.description.BillingModeSummary = &types.BillingModeSummary{BillingMode: params.BillingMode}
	}
	m.tables[name] = t

	desc := t.description
	return &dynamodb.CreateTableOutput{TableDescription: &desc}, nil
}

func (m *DynamoDBClient) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	desc := t.description
	desc.ItemCount = aws.Int64(int64(len(t.items)))
	return &dynamodb.DescribeTableOutput{Table: &desc}, nil
}

func (m *DynamoDBClient) DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	delete(m.tables, aws.ToString(params.TableName))
	desc := t.description
	desc.TableStatus = types.TableStatusDeleting
	return &dynamodb.DeleteTableOutput{TableDescription: &desc}, nil
}

func (m *DynamoDBClient) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return &dynamodb.ListTablesOutput{TableNames: names}, nil
}

func (m *DynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.shouldFail() {
		return nil, fmt.Errorf("simulated put failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := t.compositeKey(params.Item)
	if err != nil {
		return nil, err
	}
	t.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *DynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := t.compositeKey(params.Key)
	if err != nil {
		return nil, err
	}
	delete(t.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

// Scan returns every item ordered by composite key.
func (m *DynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	items := t.sortedItems()
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items)), ScannedCount: int32(len(items))}, nil
}

// Query supports key conditions of the form "attr = :value", optionally
// joined with AND.
func (m *DynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}

	conditions := make(map[string]string)
	for _, clause := range strings.Split(aws.ToString(params.KeyConditionExpression), " AND ") {
		parts := strings.Split(strings.TrimSpace(clause), " = ")
		if len(parts) != 2 {
			return nil, validationError("unsupported key condition: " + clause)
		}
		name := strings.TrimSpace(parts[0])
		if resolved, ok := params.ExpressionAttributeNames[name]; ok {
			name = resolved
		}
		conditions[name] = attributeToString(params.ExpressionAttributeValues[strings.TrimSpace(parts[1])])
	}

	matched := make([]map[string]types.AttributeValue, 0)
	for _, item := range t.sortedItems() {
		ok := true
		for name, want := range conditions {
			if attributeToString(item[name]) != want {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return &dynamodb.QueryOutput{Items: matched, Count: int32(len(matched))}, nil
}

// BatchWriteItem implements the DynamoDBClient interface for batch writing items.
func (m *DynamoDBClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.batchWrites = append(m.batchWrites, *params)
	m.mu.Unlock()

	if m.shouldFail() {
		return nil, fmt.Errorf("simulated batch write failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for tableName, writeRequests := range params.RequestItems {
		if len(writeRequests) > 25 {
			return nil, validationError("Too many items requested for the BatchWriteItem call")
		}
		t, err := m.lookup(aws.String(tableName))
		if err != nil {
			return nil, err
		}

		for _, writeRequest := range writeRequests {
			if writeRequest.PutRequest != nil {
				key, err := t.compositeKey(writeRequest.PutRequest.Item)
				if err != nil {
					return nil, err
				}
				t.items[key] = copyItem(writeRequest.PutRequest.Item)
			}

			if writeRequest.DeleteRequest != nil {
				key, err := t.compositeKey(writeRequest.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				delete(t.items, key)
			}
		}
	}

	return &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]types.WriteRequest),
	}, nil
}

// UpdateItem parses and applies SET and REMOVE expressions. A missing item is
// created from the key, as DynamoDB does.
func (m *DynamoDBClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	m.updateItems = append(m.updateItems, *params)
	m.mu.Unlock()

	if m.shouldFail() {
		return nil, fmt.Errorf("simulated update failure")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	compositeKey, err := t.compositeKey(params.Key)
	if err != nil {
		return nil, err
	}

	item, exists := t.items[compositeKey]
	if !exists {
		item = copyItem(params.Key)
		t.items[compositeKey] = item
	}

	if params.UpdateExpression == nil {
		return &dynamodb.UpdateItemOutput{}, nil
	}
	expr := *params.UpdateExpression

	resolveName := func(ref string) string {
		if resolved, ok := params.ExpressionAttributeNames[ref]; ok {
			return resolved
		}
		return ref
	}

	// SET #attr1 = :val1, #attr2 = :val2
	if idx := strings.Index(expr, "SET "); idx != -1 {
		setExpr := expr[idx+4:]
		if setEnd := strings.Index(setExpr, " REMOVE"); setEnd != -1 {
			setExpr = setExpr[:setEnd]
		}

		for _, assignment := range strings.Split(setExpr, ",") {
			parts := strings.Split(strings.TrimSpace(assignment), "=")
			if len(parts) != 2 {
				continue
			}
			attrName := resolveName(strings.TrimSpace(parts[0]))
			if val, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]; ok {
				item[attrName] = val
			}
		}
	}

	// REMOVE #attr1, #attr2
	if idx := strings.Index(expr, "REMOVE "); idx != -1 {
		for _, attr := range strings.Split(expr[idx+7:], ",") {
			delete(item, resolveName(strings.TrimSpace(attr)))
		}
	}

	return &dynamodb.UpdateItemOutput{}, nil
}

// sortedItems returns copies of the items ordered by composite key. The
// caller must hold mu.
func (t *table) sortedItems() []map[string]types.AttributeValue {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, copyItem(t.items[k]))
	}
	return items
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

// GetItem returns a specific item from the table by its key attributes.
// Returns nil if the item or the table doesn't exist.
func (m *DynamoDBClient) GetItem(tableName string, key map[string]types.AttributeValue) map[string]types.AttributeValue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	compositeKey, err := t.compositeKey(key)
	if err != nil {
		return nil
	}
	if item, ok := t.items[compositeKey]; ok {
		return copyItem(item)
	}
	return nil
}

// ItemCount returns the number of items in the table, or -1 if it doesn't exist.
func (m *DynamoDBClient) ItemCount(tableName string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if t, ok := m.tables[tableName]; ok {
		return len(t.items)
	}
	return -1
}

// GetBatchWrites returns the batch write requests that were made
func (m *DynamoDBClient) GetBatchWrites() []dynamodb.BatchWriteItemInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]dynamodb.BatchWriteItemInput(nil), m.batchWrites...)
}

// GetUpdateItems returns the update item requests that were made
func (m *DynamoDBClient) GetUpdateItems() []dynamodb.UpdateItemInput {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]dynamodb.UpdateItemInput(nil), m.updateItems...)
}
