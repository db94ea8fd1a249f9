// Package queue wraps the SQS client, including the dead-letter queue
// composites and FIFO name validation.
package queue

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	json "github.com/goccy/go-json"
	"github.com/gurre/awswrap/aws"
)

const (
	// FIFOSuffix is the suffix every FIFO queue name must carry.
	FIFOSuffix = ".fifo"

	// DefaultMaxMessages is used when ReceiveMessages is called with maxNumber <= 0.
	DefaultMaxMessages = 10

	// DefaultMaxReceiveCount is used when AssociateDeadLetterQueue is called
	// with maxReceiveCount <= 0.
	DefaultMaxReceiveCount = 5

	receiveWaitSeconds = 10
)

// ErrInvalidFIFOName is returned by CreateFIFOQueue before any call is made
// when the name lacks FIFOSuffix.
var ErrInvalidFIFOName = errors.New("FIFO queue names must end with '.fifo'")

// BatchEntry is one message of a SendMessageBatch call. ID must be unique
// within the batch.
type BatchEntry struct {
	ID   string
	Body string
}

// redrivePolicy is the RedrivePolicy attribute document.
type redrivePolicy struct {
	DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	MaxReceiveCount     string `json:"maxReceiveCount"`
}

// Queue owns one SQS client handle.
type Queue struct {
	client aws.SQSClient
}

// NewQueue creates a Queue around client.
func NewQueue(client aws.SQSClient) *Queue {
	return &Queue{client: client}
}

// CreateQueue creates a standard queue and returns its URL.
func (q *Queue) CreateQueue(ctx context.Context, name string) (string, error) {
	return q.CreateQueueWithAttributes(ctx, name, nil)
}

// CreateQueueWithAttributes creates a queue with attrs and returns its URL.
func (q *Queue) CreateQueueWithAttributes(ctx context.Context, name string, attrs map[string]string) (string, error) {
	input := &sqs.CreateQueueInput{
		QueueName: sdkaws.String(name),
	}
	if len(attrs) > 0 {
		input.Attributes = attrs
	}
	resp, err := q.client.CreateQueue(ctx, input)
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.QueueUrl), nil
}

// ListQueues returns the queue URLs of a single ListQueues page.
func (q *Queue) ListQueues(ctx context.Context) ([]string, error) {
	resp, err := q.client.ListQueues(ctx, &sqs.ListQueuesInput{})
	if err != nil {
		return nil, err
	}
	return resp.QueueUrls, nil
}

// DeleteQueue deletes the queue at url.
func (q *Queue) DeleteQueue(ctx context.Context, url string) (string, error) {
	_, err := q.client.DeleteQueue(ctx, &sqs.DeleteQueueInput{
		QueueUrl: sdkaws.String(url),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Queue at '%s' deleted successfully.", url), nil
}

// SendMessage sends body and returns the message ID.
func (q *Queue) SendMessage(ctx context.Context, url, body string) (string, error) {
	resp, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(url),
		MessageBody: sdkaws.String(body),
	})
	if err != nil {
		return "", err
	}
	return sdkaws.ToString(resp.MessageId), nil
}

// SendMessageBatch sends entries in one call. The confirmation counts the
// entries SQS reports as successful.
func (q *Queue) SendMessageBatch(ctx context.Context, url string, entries []BatchEntry) (string, error) {
	requests := make([]types.SendMessageBatchRequestEntry, 0, len(entries))
	for _, e := range entries {
		requests = append(requests, types.SendMessageBatchRequestEntry{
			Id:          sdkaws.String(e.ID),
			MessageBody: sdkaws.String(e.Body),
		})
	}

	resp, err := q.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: sdkaws.String(url),
		Entries:  requests,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d messages sent successfully.", len(resp.Successful)), nil
}

// ReceiveMessages long-polls for up to maxNumber messages.
func (q *Queue) ReceiveMessages(ctx context.Context, url string, maxNumber int) ([]types.Message, error) {
	if maxNumber <= 0 {
		maxNumber = DefaultMaxMessages
	}
	resp, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(url),
		MaxNumberOfMessages: int32(maxNumber),
		WaitTimeSeconds:     receiveWaitSeconds,
	})
	if err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		return []types.Message{}, nil
	}
	return resp.Messages, nil
}

// DeleteMessage deletes one message by receipt handle.
func (q *Queue) DeleteMessage(ctx context.Context, url, receiptHandle string) (string, error) {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      sdkaws.String(url),
		ReceiptHandle: sdkaws.String(receiptHandle),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Message deleted from queue at '%s'.", url), nil
}

// DeleteMessagesBatch deletes messages by receipt handle. Entry IDs are the
// handle's index in receiptHandles.
func (q *Queue) DeleteMessagesBatch(ctx context.Context, url string, receiptHandles []string) (string, error) {
	entries := make([]types.DeleteMessageBatchRequestEntry, 0, len(receiptHandles))
	for i, handle := range receiptHandles {
		entries = append(entries, types.DeleteMessageBatchRequestEntry{
			Id:            sdkaws.String(strconv.Itoa(i)),
			ReceiptHandle: sdkaws.String(handle),
		})
	}

	resp, err := q.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: sdkaws.String(url),
		Entries:  entries,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d messages deleted successfully.", len(resp.Successful)), nil
}

// GetQueueAttributes returns every attribute of the queue.
func (q *Queue) GetQueueAttributes(ctx context.Context, url string) (map[string]string, error) {
	resp, err := q.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       sdkaws.String(url),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameAll},
	})
	if err != nil {
		return nil, err
	}
	return resp.Attributes, nil
}

// SetQueueAttributes sets attrs on the queue.
func (q *Queue) SetQueueAttributes(ctx context.Context, url string, attrs map[string]string) (string, error) {
	_, err := q.client.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl:   sdkaws.String(url),
		Attributes: attrs,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Attributes updated for queue at '%s'.", url), nil
}

// CreateDeadLetterQueue creates a queue and returns its URL and ARN. If the
// attribute lookup fails the queue stays created.
func (q *Queue) CreateDeadLetterQueue(ctx context.Context, name string) (url, arn string, err error) {
	url, err = q.CreateQueue(ctx, name)
	if err != nil {
		return "", "", err
	}

	resp, err := q.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       sdkaws.String(url),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", "", err
	}
	return url, resp.Attributes[string(types.QueueAttributeNameQueueArn)], nil
}

// AssociateDeadLetterQueue sets the redrive policy of the queue at url to
// dlqARN.
func (q *Queue) AssociateDeadLetterQueue(ctx context.Context, url, dlqARN string, maxReceiveCount int) (string, error) {
	if maxReceiveCount <= 0 {
		maxReceiveCount = DefaultMaxReceiveCount
	}
	policy, err := json.Marshal(redrivePolicy{
		DeadLetterTargetArn: dlqARN,
		MaxReceiveCount:     strconv.Itoa(maxReceiveCount),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode redrive policy: %w", err)
	}

	_, err = q.client.SetQueueAttributes(ctx, &sqs.SetQueueAttributesInput{
		QueueUrl: sdkaws.String(url),
		Attributes: map[string]string{
			string(types.QueueAttributeNameRedrivePolicy): string(policy),
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Dead-letter queue associated with queue at '%s'.", url), nil
}

// CreateFIFOQueue creates a FIFO queue and returns its URL. attrs is not
// modified.
func (q *Queue) CreateFIFOQueue(ctx context.Context, name string, attrs map[string]string) (string, error) {
	if !strings.HasSuffix(name, FIFOSuffix) {
		return "", ErrInvalidFIFOName
	}

	merged := make(map[string]string, len(attrs)+1)
	maps.Copy(merged, attrs)
	merged[string(types.QueueAttributeNameFifoQueue)] = "true"

	return q.CreateQueueWithAttributes(ctx, name, merged)
}

// MonitorMessageCount returns the approximate number of visible messages.
func (q *Queue) MonitorMessageCount(ctx context.Context, url string) (int, error) {
	resp, err := q.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       sdkaws.String(url),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameApproximateNumberOfMessages},
	})
	if err != nil {
		return 0, err
	}

	raw := resp.Attributes[string(types.QueueAttributeNameApproximateNumberOfMessages)]
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid message count %q: %w", raw, err)
	}
	return n, nil
}
