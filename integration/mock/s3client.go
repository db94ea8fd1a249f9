package mock

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client is an in-memory implementation of the aws.S3Client interface and
// of s3streamer.Streamer.
type S3Client struct {
	mu sync.RWMutex
	// Maps bucket name to creation time
	buckets map[string]time.Time
	// Maps bucket/key to object content
	Files map[string][]byte
	// Location constraints received by CreateBucket, by bucket
	Locations map[string]types.BucketLocationConstraint
	// PageSize caps the keys returned per ListObjectsV2 call; 0 means 1000
	PageSize int
}

// NewS3Client creates an empty mock S3 client
func NewS3Client() *S3Client {
	return &S3Client{
		buckets:   make(map[string]time.Time),
		Files:     make(map[string][]byte),
		Locations: make(map[string]types.BucketLocationConstraint),
	}
}

// AddObject stores content at bucket/key, creating the bucket if needed.
func (m *S3Client) AddObject(bucket, key string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = time.Now()
	}
	m.Files[objectPath(bucket, key)] = content
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

func etag(content []byte) *string {
	sum := md5.Sum(content)
	return aws.String(`"` + hex.EncodeToString(sum[:]) + `"`)
}

func noSuchBucket(bucket string) error {
	return &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist: " + bucket)}
}

func (m *S3Client) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := aws.ToString(params.Bucket)
	if _, ok := m.buckets[bucket]; ok {
		return nil, &types.BucketAlreadyOwnedByYou{Message: aws.String(bucket)}
	}
	m.buckets[bucket] = time.Now()
	if params.CreateBucketConfiguration != nil {
		m.Locations[bucket] = params.CreateBucketConfiguration.LocationConstraint
	}
	return &s3.CreateBucketOutput{Location: aws.String("/" + bucket)}, nil
}

func (m *S3Client) DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := aws.ToString(params.Bucket)
	if _, ok := m.buckets[bucket]; !ok {
		return nil, noSuchBucket(bucket)
	}
	for path := range m.Files {
		if strings.HasPrefix(path, bucket+"/") {
			return nil, fmt.Errorf("mock S3: bucket %s is not empty", bucket)
		}
	}
	delete(m.buckets, bucket)
	return &s3.DeleteBucketOutput{}, nil
}

func (m *S3Client) ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &s3.ListBucketsOutput{}
	for _, name := range names {
		out.Buckets = append(out.Buckets, types.Bucket{
			Name:         aws.String(name),
			CreationDate: aws.Time(m.buckets[name]),
		})
	}
	return out, nil
}

func (m *S3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	bucket := aws.ToString(params.Bucket)

	m.mu.RLock()
	_, ok := m.buckets[bucket]
	m.mu.RUnlock()
	if !ok {
		return nil, noSuchBucket(bucket)
	}

	var content []byte
	if params.Body != nil {
		var err error
		content, err = io.ReadAll(params.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
	}

	m.mu.Lock()
	m.Files[objectPath(bucket, aws.ToString(params.Key))] = content
	m.mu.Unlock()

	return &s3.PutObjectOutput{ETag: etag(content)}, nil
}

func (m *S3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	content, ok := m.Files[objectPath(aws.ToString(params.Bucket), aws.ToString(params.Key))]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String(aws.ToString(params.Key))}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(content)),
		ContentLength: aws.Int64(int64(len(content))),
		ETag:          etag(content),
	}, nil
}

func (m *S3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bucket := aws.ToString(params.Bucket)
	if _, ok := m.buckets[bucket]; !ok {
		return nil, noSuchBucket(bucket)
	}

	prefix := objectPath(bucket, aws.ToString(params.Prefix))
	keys := make([]string, 0)
	for path := range m.Files {
		if strings.HasPrefix(path, prefix) {
			keys = append(keys, strings.TrimPrefix(path, bucket+"/"))
		}
	}
	sort.Strings(keys)

	// The continuation token is the last key of the previous page
	if token := aws.ToString(params.ContinuationToken); token != "" {
		keys = keys[sort.SearchStrings(keys, token+"\x00"):]
	}
	limit := 1000
	if m.PageSize > 0 {
		limit = m.PageSize
	}
	if maxKeys := aws.ToInt32(params.MaxKeys); maxKeys > 0 && int(maxKeys) < limit {
		limit = int(maxKeys)
	}

	out := &s3.ListObjectsV2Output{
		Name:        params.Bucket,
		Prefix:      params.Prefix,
		IsTruncated: aws.Bool(false),
	}
	if len(keys) > limit {
		keys = keys[:limit]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	out.KeyCount = aws.Int32(int32(len(keys)))
	for _, key := range keys {
		content := m.Files[objectPath(bucket, key)]
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(content))),
			ETag: etag(content),
		})
	}
	return out, nil
}

func (m *S3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Files, objectPath(aws.ToString(params.Bucket), aws.ToString(params.Key)))
	return &s3.DeleteObjectOutput{}, nil
}
