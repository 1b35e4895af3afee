package glean

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Definition is one entry of a metrics, pings or tags manifest.
type Definition struct {
	History             []Revision      `json:"history"`
	InSource            bool            `json:"in-source"`
	Name                string          `json:"name"`
	Origin              string          `json:"origin"`
	SamplingInfo        json.RawMessage `json:"sampling_info,omitempty"`
	IncludeClientID     *bool           `json:"include_client_id,omitempty"`
	IncludeInfoSections *bool           `json:"include_info_sections,omitempty"`
}

// Entry pairs a manifest key with its definition.
type Entry struct {
	ID         string
	Definition Definition
}

// ParseManifest decodes a manifest object, keeping the keys in document
// order.
func ParseManifest(data []byte) ([]Entry, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		var def Definition
		if err := json.Unmarshal(m.value, &def); err != nil {
			return nil, fmt.Errorf("definition %q: %w", m.key, err)
		}
		if len(def.History) == 0 {
			return nil, fmt.Errorf("%w: definition %q has no history", ErrMalformedDefinition, m.key)
		}
		entries = append(entries, Entry{ID: m.key, Definition: def})
	}
	return entries, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeObject reads a top-level JSON object as an ordered list of members.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("manifest is not a JSON object")
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected manifest token %v", tok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to read manifest value for %q: %w", key, err)
		}
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return members, nil
}

// manifestKeys returns the top-level keys of a JSON object in document order.
func manifestKeys(data []byte) ([]string, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.key
	}
	return keys, nil
}
