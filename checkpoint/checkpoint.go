// Package checkpoint persists the progress of an item load so an interrupted
// load can be resumed without rewriting objects that were already loaded.
package checkpoint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	json "github.com/goccy/go-json"
	"github.com/gurre/awswrap/aws"
)

// State records which source objects have been fully written to a table.
type State struct {
	Table     string   `json:"table"`
	Bucket    string   `json:"bucket"`
	Completed []string `json:"completed"` // object keys, sorted
}

// Done reports whether key has been loaded.
func (s State) Done(key string) bool {
	_, found := slices.BinarySearch(s.Completed, key)
	return found
}

// Add returns a copy of s with key marked as loaded.
func (s State) Add(key string) State {
	i, found := slices.BinarySearch(s.Completed, key)
	if found {
		return s
	}
	s.Completed = slices.Insert(slices.Clone(s.Completed), i, key)
	return s
}

// Store loads and saves State. Load returns an empty State when nothing has
// been saved yet.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
}

// NewStore opens the store named by uri: s3://bucket/key, file:///abs/path,
// or an empty string for an in-memory store.
func NewStore(client aws.S3Client, uri string) (Store, error) {
	if uri == "" {
		return NewMemoryStore(), nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid checkpoint URI: %w", err)
	}
	switch u.Scheme {
	case "s3":
		return NewS3Store(client, uri)
	case "file":
		return NewFileStore(uri)
	default:
		return nil, fmt.Errorf("unsupported checkpoint URI scheme: %q", u.Scheme)
	}
}

// S3Store keeps the state in one S3 object.
type S3Store struct {
	client aws.S3Client
	bucket string
	key    string
}

// NewS3Store creates an S3Store from an s3://bucket/key URI.
func NewS3Store(client aws.S3Client, uri string) (*S3Store, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 URI: %w", err)
	}
	if u.Scheme != "s3" {
		return nil, fmt.Errorf("invalid S3 URI scheme: %s", u.Scheme)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("S3 URI must name a bucket and key: %s", uri)
	}
	if client == nil {
		return nil, fmt.Errorf("S3 client is required for %s", uri)
	}

	return &S3Store{
		client: client,
		bucket: u.Host,
		key:    key,
	}, nil
}

// Load reads the checkpoint object. A missing object yields an empty State.
func (s *S3Store) Load(ctx context.Context) (State, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return State{}, nil
		}
		// Some S3-compatible stores answer NotFound instead
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var state State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return State{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return state, nil
}

// Save overwrites the checkpoint object.
func (s *S3Store) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(s.key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// FileStore keeps the state in a local JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore from a file:// URI with an absolute path.
// The parent directory is created if missing.
func NewFileStore(uri string) (*FileStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid file URI: %w", err)
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("invalid file URI scheme: %s", u.Scheme)
	}

	cleanPath := filepath.Clean(u.Path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("checkpoint path must be absolute: %s", cleanPath)
	}
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &FileStore{path: cleanPath}, nil
}

// Load reads the checkpoint file. A missing file yields an empty State.
func (f *FileStore) Load(ctx context.Context) (State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return state, nil
}

// Save writes to a temporary file and renames it over the checkpoint.
func (f *FileStore) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}
	return nil
}
