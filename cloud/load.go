package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gurre/awswrap/checkpoint"
	"github.com/gurre/awswrap/database"
	"github.com/gurre/awswrap/metrics"
	"github.com/sirupsen/logrus"
)

// LoadRequest describes a load of DynamoDB JSON lines from S3 into a table.
type LoadRequest struct {
	Bucket  string
	Prefix  string // every object under Prefix is loaded
	Table   string
	Workers int // defaults to 1

	// Checkpoint, when set, records every object whose items have been
	// flushed. Objects already recorded are skipped.
	Checkpoint checkpoint.Store
}

// OpenCheckpoint opens the checkpoint store named by uri. s3:// stores use
// the client's S3 handle.
func (c *Client) OpenCheckpoint(uri string) (checkpoint.Store, error) {
	return checkpoint.NewStore(c.s3, uri)
}

// progress serialises checkpoint updates from concurrent workers.
type progress struct {
	mu    sync.Mutex
	store checkpoint.Store
	state checkpoint.State
}

func (p *progress) markDone(ctx context.Context, key string) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.state.Add(key)
	if err := p.store.Save(ctx, next); err != nil {
		return err
	}
	p.state = next
	return nil
}

// loadProgress reads the checkpoint for req. It returns nil when req has no
// checkpoint store.
func loadProgress(ctx context.Context, req LoadRequest) (*progress, error) {
	if req.Checkpoint == nil {
		return nil, nil
	}
	state, err := req.Checkpoint.Load(ctx)
	if err != nil {
		return nil, err
	}
	if (state.Table != "" && state.Table != req.Table) || (state.Bucket != "" && state.Bucket != req.Bucket) {
		return nil, fmt.Errorf("checkpoint belongs to s3://%s into table %s", state.Bucket, state.Table)
	}
	state.Table, state.Bucket = req.Table, req.Bucket
	return &progress{store: req.Checkpoint, state: state}, nil
}

// LoadItems streams every object under req.Prefix, decodes each line with
// database.DecodeItemJSON and batch-writes the items to req.Table. Corrupt
// lines are counted and skipped. Each worker owns a BatchWriter that is
// flushed before the worker returns. The first failing worker cancels the
// rest.
func (c *Client) LoadItems(parent context.Context, req LoadRequest, m *metrics.Metrics, log logrus.FieldLogger) error {
	if req.Bucket == "" || req.Table == "" {
		return fmt.Errorf("bucket and table are required")
	}
	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	prog, err := loadProgress(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	objects, err := c.Storage.ListObjectsWithPrefix(ctx, req.Bucket, req.Prefix)
	if err != nil {
		m.RecordError("s3")
		return err
	}
	m.RecordOperation("s3")

	keys := make([]string, 0, len(objects))
	skipped := 0
	for _, obj := range objects {
		key := sdkaws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") {
			continue
		}
		if prog != nil && prog.state.Done(key) {
			skipped++
			continue
		}
		keys = append(keys, key)
	}
	log.WithFields(logrus.Fields{
		"bucket":  req.Bucket,
		"prefix":  req.Prefix,
		"objects": len(keys),
		"skipped": skipped,
		"workers": workers,
	}).Info("loading items")

	tasks := make(chan string)
	results := make(chan error, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			if err := c.loadWorker(ctx, req, tasks, prog, m); err != nil {
				results <- fmt.Errorf("worker %d failed: %w", workerID, err)
				cancel()
			}
		}(i)
	}

sendLoop:
	for _, key := range keys {
		select {
		case tasks <- key:
		case <-ctx.Done():
			break sendLoop
		}
	}
	close(tasks)
	wg.Wait()
	close(results)

	var errs []error
	for err := range results {
		errs = append(errs, err)
	}
	if err := parent.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// loadWorker drains tasks into a single BatchWriter. Items count as written
// once the final flush succeeds. With a checkpoint, the writer is flushed
// after every object so the object can be recorded as done. The final flush
// ignores cancellation so a sibling's failure does not drop buffered puts.
func (c *Client) loadWorker(ctx context.Context, req LoadRequest, tasks <-chan string, prog *progress, m *metrics.Metrics) (err error) {
	bw := c.Database.NewBatchWriter(req.Table)
	accepted := 0
	defer func() {
		if cerr := bw.Close(context.WithoutCancel(ctx)); cerr != nil {
			m.RecordError("dynamodb")
			if err == nil {
				err = cerr
			}
			return
		}
		if err == nil {
			m.RecordOperation("dynamodb")
			m.RecordItems(accepted)
		}
	}()

	for key := range tasks {
		err := c.Storage.StreamLines(ctx, req.Bucket, key, func(line []byte, _ int64) error {
			if len(bytes.TrimSpace(line)) == 0 {
				return nil
			}
			item, err := database.DecodeItemJSON(line)
			if errors.Is(err, database.ErrCorruptLine) {
				m.RecordCorrupt()
				return nil
			}
			if err != nil {
				return err
			}
			if err := bw.Put(ctx, item); err != nil {
				m.RecordError("dynamodb")
				return err
			}
			accepted++
			return nil
		})
		if err != nil {
			m.RecordError("s3")
			return fmt.Errorf("failed to load %s: %w", key, err)
		}
		m.RecordOperation("s3")

		if prog == nil {
			continue
		}
		if err := bw.Flush(ctx); err != nil {
			m.RecordError("dynamodb")
			return fmt.Errorf("failed to flush %s: %w", key, err)
		}
		if err := prog.markDone(ctx, key); err != nil {
			return fmt.Errorf("failed to record %s: %w", key, err)
		}
	}
	return nil
}
