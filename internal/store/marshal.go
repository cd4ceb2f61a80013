package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalNames encodes rule names as a JSON array TEXT.
// HTML escaping is disabled so names read back byte-identical in the CLI.
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(names); err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalNames(data string) ([]string, error) {
	names := []string{}
	if data == "" {
		return names, nil
	}
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}
