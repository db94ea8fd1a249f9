// Package database wraps the DynamoDB client. Items are exchanged in the
// SDK's attribute value form; PutRecord and ScanInto offer a typed path via
// the attributevalue marshaller.
package database

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gurre/awswrap/aws"
)

// Item is a DynamoDB item or key in attribute value form.
type Item = map[string]types.AttributeValue

// Database owns one DynamoDB client handle.
type Database struct {
	client aws.DynamoDBClient
}

// NewDatabase creates a Database around client.
func NewDatabase(client aws.DynamoDBClient) *Database {
	return &Database{client: client}
}

// CreateTable creates a table. A nil throughput creates an on-demand table.
func (d *Database) CreateTable(
	ctx context.Context,
	table string,
	keySchema []types.KeySchemaElement,
	attributeDefinitions []types.AttributeDefinition,
	throughput *types.ProvisionedThroughput,
) (string, error) {
	input := &dynamodb.CreateTableInput{
		TableName:            sdkaws.String(table),
		KeySchema:            keySchema,
		AttributeDefinitions: attributeDefinitions,
	}
	if throughput != nil {
		input.BillingMode = types.BillingModeProvisioned
		input.ProvisionedThroughput = throughput
	} else {
		input.BillingMode = types.BillingModePayPerRequest
	}

	if _, err := d.client.CreateTable(ctx, input); err != nil {
		return "", err
	}
	return fmt.Sprintf("Table '%s' created successfully.", table), nil
}

// DescribeTable returns the table metadata.
func (d *Database) DescribeTable(ctx context.Context, table string) (*types.TableDescription, error) {
	resp, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: sdkaws.String(table),
	})
	if err != nil {
		return nil, err
	}
	return resp.Table, nil
}

// ListTables returns the table names of a single ListTables page.
func (d *Database) ListTables(ctx context.Context) ([]string, error) {
	resp, err := d.client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, err
	}
	return resp.TableNames, nil
}

// PutItem writes item, replacing any item with the same key.
func (d *Database) PutItem(ctx context.Context, table string, item Item) (string, error) {
	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(table),
		Item:      item,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Item added to table '%s'.", table), nil
}

// ScanTable returns the items of a single Scan page.
func (d *Database) ScanTable(ctx context.Context, table string) ([]Item, error) {
	resp, err := d.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: sdkaws.String(table),
	})
	if err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []Item{}, nil
	}
	return resp.Items, nil
}

// QueryItems returns the items matching keyCondition.
func (d *Database) QueryItems(ctx context.Context, table, keyCondition string, values Item) ([]Item, error) {
	resp, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 sdkaws.String(table),
		KeyConditionExpression:    sdkaws.String(keyCondition),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []Item{}, nil
	}
	return resp.Items, nil
}

// UpdateItem applies updateExpression to the item at key. names may be nil
// when the expression uses no attribute name placeholders.
func (d *Database) UpdateItem(
	ctx context.Context,
	table string,
	key Item,
	updateExpression string,
	values Item,
	names map[string]string,
) (string, error) {
	input := &dynamodb.UpdateItemInput{
		TableName:                 sdkaws.String(table),
		Key:                       key,
		UpdateExpression:          sdkaws.String(updateExpression),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := d.client.UpdateItem(ctx, input); err != nil {
		return "", err
	}
	return fmt.Sprintf("Item updated in table '%s'.", table), nil
}

// DeleteItem removes the item at key.
func (d *Database) DeleteItem(ctx context.Context, table string, key Item) (string, error) {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: sdkaws.String(table),
		Key:       key,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Item deleted from table '%s'.", table), nil
}

// DeleteTable deletes the table.
func (d *Database) DeleteTable(ctx context.Context, table string) (string, error) {
	_, err := d.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: sdkaws.String(table),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Table '%s' deleted successfully.", table), nil
}

// BatchWriteItems puts every item through a BatchWriter. Buffered writes are
// flushed before returning, also when a Put fails part way.
func (d *Database) BatchWriteItems(ctx context.Context, table string, items []Item) (msg string, err error) {
	bw := d.NewBatchWriter(table)
	defer func() {
		if cerr := bw.Close(ctx); cerr != nil && err == nil {
			msg, err = "", cerr
		}
	}()

	for _, item := range items {
		if err := bw.Put(ctx, item); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Batch write to table '%s' completed successfully.", table), nil
}
