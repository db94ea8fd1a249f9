package database

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	json "github.com/goccy/go-json"
)

// ErrCorruptLine is returned when a line is not a DynamoDB JSON item.
var ErrCorruptLine = errors.New("corrupt item line")

// DecodeItemJSON parses one line of DynamoDB JSON into an Item. Three shapes
// are accepted:
//   - export lines: {"Item": {...}}
//   - stream-style lines: {"Keys": {...}, "NewImage": {...}}, where NewImage is the item
//   - a bare attribute map: {"id": {"S": "1"}, ...}
func DecodeItemJSON(line []byte) (Item, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLine, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty object", ErrCorruptLine)
	}

	for _, wrapper := range []string{"Item", "NewImage"} {
		if nested, ok := raw[wrapper]; ok {
			item, err := attributevalue.UnmarshalMapJSON(nested)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrCorruptLine, wrapper, err)
			}
			return item, nil
		}
	}

	if _, ok := raw["Keys"]; ok {
		return nil, fmt.Errorf("%w: line has keys but no new image", ErrCorruptLine)
	}

	item, err := attributevalue.UnmarshalMapJSON(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLine, err)
	}
	return item, nil
}
