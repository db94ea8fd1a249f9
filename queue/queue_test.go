package queue

import (
	"context"
	"strings"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSQSClient implements the aws.SQSClient interface for testing
type mockSQSClient struct {
	calls        int
	createInputs []*sqs.CreateQueueInput
	setInputs    []*sqs.SetQueueAttributesInput
	receiveInput *sqs.ReceiveMessageInput
	deleteBatch  *sqs.DeleteMessageBatchInput
	attributes   map[string]string
	err          error
}

func (m *mockSQSClient) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	m.calls++
	m.createInputs = append(m.createInputs, params)
	if m.err != nil {
		return nil, m.err
	}
	url := "https://sqs.us-east-1.amazonaws.com/123456789012/" + sdkaws.ToString(params.QueueName)
	return &sqs.CreateQueueOutput{QueueUrl: sdkaws.String(url)}, nil
}

func (m *mockSQSClient) DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	m.calls++
	return &sqs.DeleteQueueOutput{}, m.err
}

func (m *mockSQSClient) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, optFns ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	m.calls++
	return &sqs.ListQueuesOutput{}, m.err
}

func (m *mockSQSClient) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls++
	return &sqs.SendMessageOutput{MessageId: sdkaws.String("msg-1")}, m.err
}

func (m *mockSQSClient) SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error) {
	m.calls++
	out := &sqs.SendMessageBatchOutput{}
	for _, e := range params.Entries {
		out.Successful = append(out.Successful, types.SendMessageBatchResultEntry{Id: e.Id, MessageId: sdkaws.String("m-" + sdkaws.ToString(e.Id))})
	}
	return out, m.err
}

func (m *mockSQSClient) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	m.calls++
	m.receiveInput = params
	return &sqs.ReceiveMessageOutput{}, m.err
}

func (m *mockSQSClient) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.calls++
	return &sqs.DeleteMessageOutput{}, m.err
}

func (m *mockSQSClient) DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
	m.calls++
	m.deleteBatch = params
	out := &sqs.DeleteMessageBatchOutput{}
	for _, e := range params.Entries {
		out.Successful = append(out.Successful, types.DeleteMessageBatchResultEntry{Id: e.Id})
	}
	return out, m.err
}

func (m *mockSQSClient) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.GetQueueAttributesOutput{Attributes: m.attributes}, nil
}

func (m *mockSQSClient) SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, optFns ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error) {
	m.calls++
	m.setInputs = append(m.setInputs, params)
	return &sqs.SetQueueAttributesOutput{}, m.err
}

func TestCreateQueue(t *testing.T) {
	q := NewQueue(&mockSQSClient{})

	url, err := q.CreateQueue(context.Background(), "test-queue")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://"))
	assert.True(t, strings.HasSuffix(url, "/test-queue"))
}

func TestCreateFIFOQueueRejectsName(t *testing.T) {
	client := &mockSQSClient{}
	q := NewQueue(client)

	_, err := q.CreateFIFOQueue(context.Background(), "test-queue", nil)
	require.ErrorIs(t, err, ErrInvalidFIFOName)
	assert.Equal(t, "FIFO queue names must end with '.fifo'", err.Error())
	assert.Zero(t, client.calls, "no provider call may be made")
}

func TestCreateFIFOQueue(t *testing.T) {
	client := &mockSQSClient{}
	q := NewQueue(client)

	attrs := map[string]string{"ContentBasedDeduplication": "true"}
	url, err := q.CreateFIFOQueue(context.Background(), "test-queue.fifo", attrs)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, "test-queue.fifo"))

	sent := client.createInputs[0].Attributes
	assert.Equal(t, "true", sent["FifoQueue"])
	assert.Equal(t, "true", sent["ContentBasedDeduplication"])
	assert.NotContains(t, attrs, "FifoQueue", "caller attributes must not be modified")

	// A second call without attributes starts from an empty set.
	_, err = q.CreateFIFOQueue(context.Background(), "other.fifo", nil)
	require.NoError(t, err)
	assert.Len(t, client.createInputs[1].Attributes, 1)
}

func TestCreateDeadLetterQueue(t *testing.T) {
	arn := "arn:aws:sqs:us-east-1:123456789012:dlq"
	client := &mockSQSClient{attributes: map[string]string{"QueueArn": arn}}
	q := NewQueue(client)

	url, gotARN, err := q.CreateDeadLetterQueue(context.Background(), "dlq")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://"))
	assert.Equal(t, arn, gotARN)
	assert.Equal(t, 2, client.calls)
}

func TestAssociateDeadLetterQueue(t *testing.T) {
	tests := []struct {
		name     string
		maxCount int
		want     string
	}{
		{name: "default", maxCount: 0, want: "5"},
		{name: "explicit", maxCount: 3, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSQSClient{}
			q := NewQueue(client)

			msg, err := q.AssociateDeadLetterQueue(context.Background(), "https://queue", "arn:dlq", tt.maxCount)
			require.NoError(t, err)
			assert.Equal(t, "Dead-letter queue associated with queue at 'https://queue'.", msg)

			raw := client.setInputs[0].Attributes["RedrivePolicy"]
			var policy map[string]string
			require.NoError(t, json.Unmarshal([]byte(raw), &policy))
			assert.Equal(t, "arn:dlq", policy["deadLetterTargetArn"])
			assert.Equal(t, tt.want, policy["maxReceiveCount"])
		})
	}
}

func TestReceiveMessagesDefaults(t *testing.T) {
	client := &mockSQSClient{}
	q := NewQueue(client)

	msgs, err := q.ReceiveMessages(context.Background(), "https://queue", 0)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.EqualValues(t, 10, client.receiveInput.MaxNumberOfMessages)
	assert.EqualValues(t, 10, client.receiveInput.WaitTimeSeconds)
}

func TestSendAndDeleteBatch(t *testing.T) {
	client := &mockSQSClient{}
	q := NewQueue(client)

	msg, err := q.SendMessageBatch(context.Background(), "https://queue", []BatchEntry{
		{ID: "a", Body: "one"},
		{ID: "b", Body: "two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2 messages sent successfully.", msg)

	msg, err = q.DeleteMessagesBatch(context.Background(), "https://queue", []string{"r0", "r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, "3 messages deleted successfully.", msg)
	assert.Equal(t, "2", sdkaws.ToString(client.deleteBatch.Entries[2].Id))
}

func TestMonitorMessageCount(t *testing.T) {
	q := NewQueue(&mockSQSClient{attributes: map[string]string{"ApproximateNumberOfMessages": "7"}})
	n, err := q.MonitorMessageCount(context.Background(), "https://queue")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	q = NewQueue(&mockSQSClient{attributes: map[string]string{"ApproximateNumberOfMessages": "x"}})
	_, err = q.MonitorMessageCount(context.Background(), "https://queue")
	assert.Error(t, err)
}

func TestProviderErrorUnchanged(t *testing.T) {
	want := &types.QueueDoesNotExist{Message: sdkaws.String("missing")}
	q := NewQueue(&mockSQSClient{err: want})

	_, err := q.DeleteMessage(context.Background(), "https://queue", "r")
	assert.Same(t, want, err)
}
