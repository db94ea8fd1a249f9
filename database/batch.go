package database

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gurre/awswrap/aws"
)

// MaxBatchSize is the BatchWriteItem request limit.
const MaxBatchSize = 25

// maxUnprocessedRounds bounds how often the same unprocessed requests are
// resubmitted before Flush gives up.
const maxUnprocessedRounds = 8

// BatchWriter buffers put and delete requests for one table and sends them in
// BatchWriteItem calls of up to MaxBatchSize requests. Requests DynamoDB
// reports as unprocessed go back into the buffer and are sent again by the
// same flush. Callers must Close the writer, typically with defer, so the
// buffer is flushed on every exit path.
//
// A BatchWriter is not safe for concurrent use.
type BatchWriter struct {
	client aws.DynamoDBClient
	table  string
	buffer []types.WriteRequest
	rounds int
}

// NewBatchWriter returns a BatchWriter for table.
func (d *Database) NewBatchWriter(table string) *BatchWriter {
	return &BatchWriter{
		client: d.client,
		table:  table,
		buffer: make([]types.WriteRequest, 0, MaxBatchSize),
	}
}

// Put buffers a put request, sending a batch once the buffer is full.
func (w *BatchWriter) Put(ctx context.Context, item Item) error {
	w.buffer = append(w.buffer, types.WriteRequest{
		PutRequest: &types.PutRequest{Item: item},
	})
	return w.flushFull(ctx)
}

// Delete buffers a delete request, sending a batch once the buffer is full.
func (w *BatchWriter) Delete(ctx context.Context, key Item) error {
	w.buffer = append(w.buffer, types.WriteRequest{
		DeleteRequest: &types.DeleteRequest{Key: key},
	})
	return w.flushFull(ctx)
}

// Pending returns the number of buffered requests.
func (w *BatchWriter) Pending() int {
	return len(w.buffer)
}

// Flush sends every buffered request.
func (w *BatchWriter) Flush(ctx context.Context) error {
	for len(w.buffer) > 0 {
		if err := w.send(ctx); err != nil {
			return err
		}
	}
	w.rounds = 0
	return nil
}

// Close flushes the remaining buffer.
func (w *BatchWriter) Close(ctx context.Context) error {
	return w.Flush(ctx)
}

func (w *BatchWriter) flushFull(ctx context.Context) error {
	for len(w.buffer) >= MaxBatchSize {
		if err := w.send(ctx); err != nil {
			return err
		}
	}
	return nil
}

// send removes up to MaxBatchSize requests from the buffer and writes them.
// The chunk leaves the buffer before the call, so a failed call is not sent
// again by a later flush.
func (w *BatchWriter) send(ctx context.Context) error {
	n := len(w.buffer)
	if n > MaxBatchSize {
		n = MaxBatchSize
	}
	chunk := make([]types.WriteRequest, n)
	copy(chunk, w.buffer[:n])
	w.buffer = w.buffer[n:]

	output, err := w.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			w.table: chunk,
		},
	})
	if err != nil {
		return err
	}

	unprocessed := output.UnprocessedItems[w.table]
	if len(unprocessed) < n {
		// rounds counts consecutive calls that accepted nothing
		w.rounds = 0
	}
	if len(unprocessed) == 0 {
		return nil
	}

	if w.rounds >= maxUnprocessedRounds {
		return fmt.Errorf("%d requests for table %s still unprocessed after %d rounds", len(unprocessed), w.table, w.rounds)
	}
	if !backoffWait(ctx, w.rounds) {
		return ctx.Err()
	}
	w.rounds++
	w.buffer = append(w.buffer, unprocessed...)
	return nil
}

// backoffWait sleeps for an exponentially increasing duration with jitter.
// Returns false if the context is cancelled during the wait.
func backoffWait(ctx context.Context, attempt int) bool {
	base := 50 * time.Millisecond
	maxDelay := 5 * time.Second

	delay := base * time.Duration(1<<uint(attempt))
	if delay > maxDelay {
		delay = maxDelay
	}
	delay += time.Duration(rand.Int64N(int64(delay)))

	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
