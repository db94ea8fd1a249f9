package checkpoint_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gurre/awswrap/checkpoint"
	"github.com/gurre/awswrap/integration/mock"
)

func TestStateAdd(t *testing.T) {
	var s checkpoint.State
	s = s.Add("b.json")
	s = s.Add("a.json")
	s = s.Add("b.json")

	if want := []string{"a.json", "b.json"}; !reflect.DeepEqual(s.Completed, want) {
		t.Errorf("Completed = %v, want %v", s.Completed, want)
	}
	if !s.Done("a.json") || s.Done("c.json") {
		t.Errorf("Done mismatch for %v", s.Completed)
	}
}

func TestStateAddDoesNotAlias(t *testing.T) {
	base := checkpoint.State{Completed: make([]string, 1, 4)}
	base.Completed[0] = "m.json"

	first := base.Add("a.json")
	second := base.Add("z.json")

	if !reflect.DeepEqual(first.Completed, []string{"a.json", "m.json"}) {
		t.Errorf("first = %v", first.Completed)
	}
	if !reflect.DeepEqual(second.Completed, []string{"m.json", "z.json"}) {
		t.Errorf("second = %v", second.Completed)
	}
}

func roundTrip(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load empty state: %v", err)
	}
	if len(empty.Completed) != 0 || empty.Table != "" {
		t.Errorf("expected empty state, got %+v", empty)
	}

	state := checkpoint.State{Table: "orders", Bucket: "exports"}.Add("data/part-0.json")
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if !reflect.DeepEqual(loaded, state) {
		t.Errorf("loaded %+v, want %+v", loaded, state)
	}
}

func TestMemoryStore(t *testing.T) {
	roundTrip(t, checkpoint.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkpoint.json")
	store, err := checkpoint.NewFileStore("file://" + path)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	roundTrip(t, store)

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestS3Store(t *testing.T) {
	client := mock.NewS3Client()
	client.AddObject("state", "placeholder", nil)

	store, err := checkpoint.NewS3Store(client, "s3://state/loads/orders.json")
	if err != nil {
		t.Fatalf("failed to create S3 store: %v", err)
	}
	roundTrip(t, store)

	if _, ok := client.Files["state/loads/orders.json"]; !ok {
		t.Error("checkpoint object not written")
	}
}

func TestNewStore(t *testing.T) {
	client := mock.NewS3Client()
	tmp := t.TempDir()

	tests := []struct {
		uri     string
		want    any
		wantErr bool
	}{
		{"", &checkpoint.MemoryStore{}, false},
		{"s3://bucket/key.json", &checkpoint.S3Store{}, false},
		{"file://" + filepath.Join(tmp, "c.json"), &checkpoint.FileStore{}, false},
		{"s3://bucket", nil, true},
		{"file:relative.json", nil, true},
		{"http://example.com/c.json", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			store, err := checkpoint.NewStore(client, tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if reflect.TypeOf(store) != reflect.TypeOf(tt.want) {
				t.Errorf("got %T, want %T", store, tt.want)
			}
		})
	}
}
