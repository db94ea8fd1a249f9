package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// PutRecord marshals v with the attributevalue encoder and writes it.
func (d *Database) PutRecord(ctx context.Context, table string, v any) (string, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}
	return d.PutItem(ctx, table, item)
}

// ScanInto scans the table and unmarshals the items into out, which must be a
// pointer to a slice.
func (d *Database) ScanInto(ctx context.Context, table string, out any) error {
	items, err := d.ScanTable(ctx, table)
	if err != nil {
		return err
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal items: %w", err)
	}
	return nil
}
