package glean

import "fmt"

// Tag is a resolved tag definition.
type Tag struct {
	ID          string
	Description string
	History     History
}

// NewTag resolves def into a Tag.
func NewTag(id string, def Definition) (*Tag, error) {
	history, err := ResolveHistory(def.History)
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", id, err)
	}
	return &Tag{
		ID:          id,
		Description: history.Canonical().Description,
		History:     history,
	}, nil
}
