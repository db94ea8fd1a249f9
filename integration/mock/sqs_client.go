package mock

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	accountID = "123456789012"
	region    = "us-east-1"
)

type message struct {
	id      string
	body    string
	receipt string // empty while visible
}

type queue struct {
	name       string
	attributes map[string]string
	messages   []*message
}

// SQSClient is an in-memory implementation of the aws.SQSClient interface.
// Received messages stay invisible until deleted.
type SQSClient struct {
	mu     sync.Mutex
	queues map[string]*queue // URL -> queue
	nextID int
}

// NewSQSClient creates an empty mock SQS client
func NewSQSClient() *SQSClient {
	return &SQSClient{queues: make(map[string]*queue)}
}

func queueURL(name string) string {
	return fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", region, accountID, name)
}

func nonExistentQueue(url string) error {
	return &types.QueueDoesNotExist{Message: aws.String("The specified queue does not exist: " + url)}
}

func (m *SQSClient) lookup(url *string) (*queue, error) {
	q, ok := m.queues[aws.ToString(url)]
	if !ok {
		return nil, nonExistentQueue(aws.ToString(url))
	}
	return q, nil
}

func (m *SQSClient) id() string {
	m.nextID++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID)
}

func (m *SQSClient) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.QueueName)
	if params.Attributes["FifoQueue"] == "true" && !strings.HasSuffix(name, ".fifo") {
		return nil, &types.InvalidAttributeName{Message: aws.String("The name of a FIFO queue can only include alphanumeric characters, hyphens, or underscores, must end with .fifo suffix")}
	}

	url := queueURL(name)
	if _, ok := m.queues[url]; !ok {
		attrs := map[string]string{
			"QueueArn":                    fmt.Sprintf("arn:aws:sqs:%s:%s:%s", region, accountID, name),
			"ApproximateNumberOfMessages": "0",
			"VisibilityTimeout":           "30",
		}
		for k, v := range params.Attributes {
			attrs[k] = v
		}
		m.queues[url] = &queue{name: name, attributes: attrs}
	}
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(url)}, nil
}

func (m *SQSClient) DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(params.QueueUrl); err != nil {
		return nil, err
	}
	delete(m.queues, aws.ToString(params.QueueUrl))
	return &sqs.DeleteQueueOutput{}, nil
}

func (m *SQSClient) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := make([]string, 0, len(m.queues))
	for url, q := range m.queues {
		if strings.HasPrefix(q.name, aws.ToString(params.QueueNamePrefix)) {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return &sqs.ListQueuesOutput{QueueUrls: urls}, nil
}

// send appends a message. The caller must hold mu.
func (m *SQSClient) send(q *queue, body string) string {
	msg := &message{id: m.id(), body: body}
	q.messages = append(q.messages, msg)
	return msg.id
}

func (m *SQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String(m.send(q, aws.ToString(params.MessageBody)))}, nil
}

func (m *SQSClient) SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}
	if len(params.Entries) == 0 {
		return nil, &types.EmptyBatchRequest{Message: aws.String("There should be at least one SendMessageBatchRequestEntry in the request.")}
	}

	out := &sqs.SendMessageBatchOutput{}
	for _, e := range params.Entries {
		id := m.send(q, aws.ToString(e.MessageBody))
		out.Successful = append(out.Successful, types.SendMessageBatchResultEntry{
			Id:        e.Id,
			MessageId: aws.String(id),
		})
	}
	return out, nil
}

func (m *SQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}

	limit := int(params.MaxNumberOfMessages)
	if limit <= 0 {
		limit = 1
	}
	out := &sqs.ReceiveMessageOutput{}
	for _, msg := range q.messages {
		if len(out.Messages) == limit {
			break
		}
		if msg.receipt != "" {
			continue
		}
		msg.receipt = "receipt-" + msg.id
		out.Messages = append(out.Messages, types.Message{
			MessageId:     aws.String(msg.id),
			Body:          aws.String(msg.body),
			ReceiptHandle: aws.String(msg.receipt),
		})
	}
	return out, nil
}

// remove deletes the message with receipt. The caller must hold mu.
func (q *queue) remove(receipt string) bool {
	for i, msg := range q.messages {
		if msg.receipt != "" && msg.receipt == receipt {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return true
		}
	}
	return false
}

func (m *SQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}
	if !q.remove(aws.ToString(params.ReceiptHandle)) {
		return nil, &types.ReceiptHandleIsInvalid{Message: aws.String(aws.ToString(params.ReceiptHandle))}
	}
	return &sqs.DeleteMessageOutput{}, nil
}

func (m *SQSClient) DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}

	out := &sqs.DeleteMessageBatchOutput{}
	for _, e := range params.Entries {
		if q.remove(aws.ToString(e.ReceiptHandle)) {
			out.Successful = append(out.Successful, types.DeleteMessageBatchResultEntry{Id: e.Id})
			continue
		}
		out.Failed = append(out.Failed, types.BatchResultErrorEntry{
			Id:   e.Id,
			Code: aws.String("ReceiptHandleIsInvalid"),
		})
	}
	return out, nil
}

func (m *SQSClient) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}

	visible := 0
	for _, msg := range q.messages {
		if msg.receipt == "" {
			visible++
		}
	}
	q.attributes["ApproximateNumberOfMessages"] = strconv.Itoa(visible)

	all := false
	for _, name := range params.AttributeNames {
		if name == types.QueueAttributeNameAll {
			all = true
		}
	}

	attrs := make(map[string]string)
	if all {
		for k, v := range q.attributes {
			attrs[k] = v
		}
	} else {
		for _, name := range params.AttributeNames {
			if v, ok := q.attributes[string(name)]; ok {
				attrs[string(name)] = v
			}
		}
	}
	return &sqs.GetQueueAttributesOutput{Attributes: attrs}, nil
}

func (m *SQSClient) SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, err := m.lookup(params.QueueUrl)
	if err != nil {
		return nil, err
	}
	for k, v := range params.Attributes {
		q.attributes[k] = v
	}
	return &sqs.SetQueueAttributesOutput{}, nil
}
