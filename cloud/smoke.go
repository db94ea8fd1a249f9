package cloud

import (
	"context"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	json "github.com/goccy/go-json"
	"github.com/gurre/awswrap/database"
	"github.com/gurre/awswrap/metrics"
	"github.com/sirupsen/logrus"
)

// SmokeOptions names the resources a smoke run creates and removes.
type SmokeOptions struct {
	Table string
	Queue string // empty skips the queue scenario
}

// smokeRun records every step of a smoke run.
type smokeRun struct {
	m   *metrics.Metrics
	log logrus.FieldLogger
}

func (r smokeRun) step(service, name string, fn func() error) error {
	if err := fn(); err != nil {
		r.m.RecordError(service)
		r.log.WithFields(logrus.Fields{"service": service, "step": name}).WithError(err).Error("step failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	r.m.RecordOperation(service)
	r.log.WithFields(logrus.Fields{"service": service, "step": name}).Debug("step passed")
	return nil
}

// RunSmoke exercises the table lifecycle and, when opts.Queue is set, the
// dead-letter queue wiring against the live services. It stops at the first
// failing step; resources created before that step are not removed.
func (c *Client) RunSmoke(ctx context.Context, opts SmokeOptions, m *metrics.Metrics, log logrus.FieldLogger) error {
	r := smokeRun{m: m, log: log}
	if err := c.tableScenario(ctx, opts.Table, r); err != nil {
		return err
	}
	if opts.Queue == "" {
		return nil
	}
	return c.queueScenario(ctx, opts.Queue, r)
}

// tableScenario creates a table keyed on id, round-trips one item through
// put, update and delete, and deletes the table again.
func (c *Client) tableScenario(ctx context.Context, table string, r smokeRun) error {
	db := c.Database
	key := database.Item{"id": &types.AttributeValueMemberS{Value: "1"}}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"create table", func() error {
			_, err := db.CreateTable(ctx, table,
				[]types.KeySchemaElement{{AttributeName: sdkaws.String("id"), KeyType: types.KeyTypeHash}},
				[]types.AttributeDefinition{{AttributeName: sdkaws.String("id"), AttributeType: types.ScalarAttributeTypeS}},
				&types.ProvisionedThroughput{ReadCapacityUnits: sdkaws.Int64(5), WriteCapacityUnits: sdkaws.Int64(5)},
			)
			return err
		}},
		{"put item", func() error {
			_, err := db.PutItem(ctx, table, database.Item{
				"id":   &types.AttributeValueMemberS{Value: "1"},
				"name": &types.AttributeValueMemberS{Value: "Alice"},
				"age":  &types.AttributeValueMemberN{Value: "30"},
			})
			return err
		}},
		{"scan after put", func() error {
			return expectNames(ctx, db, table, "Alice")
		}},
		{"update item", func() error {
			_, err := db.UpdateItem(ctx, table, key, "SET #name = :name",
				database.Item{":name": &types.AttributeValueMemberS{Value: "Updated Alice"}},
				map[string]string{"#name": "name"},
			)
			return err
		}},
		{"scan after update", func() error {
			return expectNames(ctx, db, table, "Updated Alice")
		}},
		{"delete item", func() error {
			_, err := db.DeleteItem(ctx, table, key)
			return err
		}},
		{"scan after delete", func() error {
			return expectNames(ctx, db, table)
		}},
		{"delete table", func() error {
			_, err := db.DeleteTable(ctx, table)
			return err
		}},
		{"describe deleted table", func() error {
			if _, err := db.DescribeTable(ctx, table); err == nil {
				return fmt.Errorf("table %s still described after delete", table)
			}
			return nil
		}},
	}

	for _, s := range steps {
		if err := r.step("dynamodb", s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// expectNames scans table and checks the name attribute of every item.
func expectNames(ctx context.Context, db *database.Database, table string, names ...string) error {
	items, err := db.ScanTable(ctx, table)
	if err != nil {
		return err
	}
	if len(items) != len(names) {
		return fmt.Errorf("expected %d items, got %d", len(names), len(items))
	}
	for i, item := range items {
		got, ok := item["name"].(*types.AttributeValueMemberS)
		if !ok || got.Value != names[i] {
			return fmt.Errorf("expected name %q, got %v", names[i], item["name"])
		}
	}
	return nil
}

// queueScenario wires a dead-letter queue to a fresh queue and checks the
// redrive policy before deleting both queues.
func (c *Client) queueScenario(ctx context.Context, name string, r smokeRun) error {
	q := c.Queue
	var dlqURL, dlqARN, url string

	steps := []struct {
		name string
		fn   func() error
	}{
		{"create dead-letter queue", func() (err error) {
			dlqURL, dlqARN, err = q.CreateDeadLetterQueue(ctx, name+"-dlq")
			return err
		}},
		{"create queue", func() (err error) {
			url, err = q.CreateQueue(ctx, name)
			if err == nil && !strings.HasPrefix(url, "https://") {
				err = fmt.Errorf("unexpected queue URL %q", url)
			}
			return err
		}},
		{"associate dead-letter queue", func() error {
			_, err := q.AssociateDeadLetterQueue(ctx, url, dlqARN, 0)
			return err
		}},
		{"check redrive policy", func() error {
			attrs, err := q.GetQueueAttributes(ctx, url)
			if err != nil {
				return err
			}
			var policy struct {
				DeadLetterTargetArn string `json:"deadLetterTargetArn"`
				MaxReceiveCount     any    `json:"maxReceiveCount"`
			}
			if err := json.Unmarshal([]byte(attrs["RedrivePolicy"]), &policy); err != nil {
				return fmt.Errorf("invalid redrive policy: %w", err)
			}
			if policy.DeadLetterTargetArn != dlqARN || fmt.Sprint(policy.MaxReceiveCount) != "5" {
				return fmt.Errorf("unexpected redrive policy %s", attrs["RedrivePolicy"])
			}
			return nil
		}},
		{"send and receive", func() error {
			if _, err := q.SendMessage(ctx, url, "smoke"); err != nil {
				return err
			}
			msgs, err := q.ReceiveMessages(ctx, url, 1)
			if err != nil {
				return err
			}
			for _, msg := range msgs {
				if _, err := q.DeleteMessage(ctx, url, sdkaws.ToString(msg.ReceiptHandle)); err != nil {
					return err
				}
			}
			return nil
		}},
		{"delete queues", func() error {
			if _, err := q.DeleteQueue(ctx, url); err != nil {
				return err
			}
			_, err := q.DeleteQueue(ctx, dlqURL)
			return err
		}},
	}

	for _, s := range steps {
		if err := r.step("sqs", s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}
