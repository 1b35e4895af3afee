package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/mozilla/glean-dictionary/internal/output"
)

// object is a JSON object assembled from several parts. Keys are emitted in
// sorted order.
type object map[string]json.RawMessage

// flatten merges the JSON objects parts encode to, left to right. A key in a
// later part replaces the same key of an earlier one.
func flatten(parts ...any) (object, error) {
	merged := make(object)
	for i, part := range parts {
		raw, err := output.MarshalJSON(part)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("part %d is not an object: %w", i, err)
		}
		for k, v := range fields {
			merged[k] = v
		}
	}
	return merged, nil
}
