// Package storage wraps the S3 client with bucket and object operations that
// return either the SDK objects or short confirmation messages.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gurre/awswrap/aws"
	"github.com/gurre/s3streamer"
)

// regionWithoutLocationConstraint is the only region where CreateBucket must
// be sent without a LocationConstraint.
const regionWithoutLocationConstraint = "us-east-1"

// Storage owns one S3 client handle bound to a single region.
type Storage struct {
	client   aws.S3Client
	streamer s3streamer.Streamer
	region   string
}

// NewStorage creates a Storage. streamer may be nil, in which case StreamLines
// returns an error.
func NewStorage(client aws.S3Client, streamer s3streamer.Streamer, region string) *Storage {
	return &Storage{
		client:   client,
		streamer: streamer,
		region:   region,
	}
}

// CreateBucket creates a bucket in the wrapper's region.
func (s *Storage) CreateBucket(ctx context.Context, bucket string) (string, error) {
	input := &s3.CreateBucketInput{
		Bucket: sdkaws.String(bucket),
	}
	if s.region != "" && s.region != regionWithoutLocationConstraint {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return "", err
	}
	return fmt.Sprintf("Bucket '%s' created successfully.", bucket), nil
}

// DeleteBucket deletes an empty bucket.
func (s *Storage) DeleteBucket(ctx context.Context, bucket string) (string, error) {
	_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: sdkaws.String(bucket),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Bucket '%s' deleted successfully.", bucket), nil
}

// UploadFile stores content under key.
func (s *Storage) UploadFile(ctx context.Context, bucket, key, content string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
		Body:   strings.NewReader(content),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("File '%s' uploaded to bucket '%s'.", key, bucket), nil
}

// DownloadFile returns the object body as a string.
func (s *Storage) DownloadFile(ctx context.Context, bucket, key string) (string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read object body: %w", err)
	}
	return string(data), nil
}

// ListBuckets returns every bucket owned by the caller.
func (s *Storage) ListBuckets(ctx context.Context) ([]types.Bucket, error) {
	resp, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	return resp.Buckets, nil
}

// ListObjects returns the objects of a single ListObjectsV2 page. An empty
// bucket yields an empty, non-nil slice.
func (s *Storage) ListObjects(ctx context.Context, bucket string) ([]types.Object, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: sdkaws.String(bucket),
	})
	if err != nil {
		return nil, err
	}
	if resp.Contents == nil {
		return []types.Object{}, nil
	}
	return resp.Contents, nil
}

// ListObjectsWithPrefix returns every object whose key starts with prefix,
// following continuation tokens until the listing is exhausted.
func (s *Storage) ListObjectsWithPrefix(ctx context.Context, bucket, prefix string) ([]types.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: sdkaws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = sdkaws.String(prefix)
	}

	objects := make([]types.Object, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Contents...)
	}
	return objects, nil
}

// DeleteObject removes key from bucket.
func (s *Storage) DeleteObject(ctx context.Context, bucket, key string) (string, error) {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(bucket),
		Key:    sdkaws.String(key),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Object '%s' deleted from bucket '%s'.", key, bucket), nil
}

// StreamLines calls fn for every line of the object, in order. The offset
// passed to fn is the line's position as reported by the streamer.
func (s *Storage) StreamLines(ctx context.Context, bucket, key string, fn func(line []byte, offset int64) error) error {
	if s.streamer == nil {
		return fmt.Errorf("line streaming is not configured")
	}
	return s.streamer.Stream(ctx, bucket, key, 0, fn)
}
