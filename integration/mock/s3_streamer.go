package mock

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
)

// Stream provides a simplified implementation of s3streamer.Streamer for
// testing purposes. It reads the stored object line by line; the offset
// passed to fn is the byte offset of the line's end, as the real streamer
// reports it, and offset skips that many bytes before streaming.
func (m *S3Client) Stream(ctx context.Context, bucket, key string, offset int64, fn func([]byte, int64) error) error {
	m.mu.RLock()
	content, ok := m.Files[objectPath(bucket, key)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("mock S3: key not found: %s", objectPath(bucket, key))
	}
	if offset > int64(len(content)) {
		return fmt.Errorf("mock S3: offset %d beyond object size %d", offset, len(content))
	}

	scanner := bufio.NewScanner(bytes.NewReader(content[offset:]))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	pos := offset
	for scanner.Scan() {
		line := scanner.Bytes()
		pos += int64(len(line)) + 1
		if err := fn(line, pos); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error scanning lines: %w", err)
	}
	return nil
}
