package database

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestDecodeItemJSON(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantID string
	}{
		{
			name:   "export item",
			line:   `{"Item":{"id":{"S":"user-1"},"age":{"N":"30"}}}`,
			wantID: "user-1",
		},
		{
			name:   "new image",
			line:   `{"Keys":{"id":{"S":"user-2"}},"NewImage":{"id":{"S":"user-2"},"name":{"S":"Bob"}}}`,
			wantID: "user-2",
		},
		{
			name:   "bare attribute map",
			line:   `{"id":{"S":"user-3"}}`,
			wantID: "user-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := DecodeItemJSON([]byte(tt.line))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			id, ok := item["id"].(*types.AttributeValueMemberS)
			if !ok || id.Value != tt.wantID {
				t.Errorf("expected id %q, got %v", tt.wantID, item["id"])
			}
		})
	}
}

func TestDecodeItemJSONCorrupt(t *testing.T) {
	lines := []string{
		`not json`,
		`{}`,
		`{"Keys":{"id":{"S":"1"}}}`,
	}

	for _, line := range lines {
		_, err := DecodeItemJSON([]byte(line))
		if !errors.Is(err, ErrCorruptLine) {
			t.Errorf("line %q: expected ErrCorruptLine, got %v", line, err)
		}
	}
}
