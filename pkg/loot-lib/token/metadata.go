package token

import (
	"encoding/json"
	"fmt"
)

// DefaultApp is the metadata namespace used when a codec is built without an
// explicit application name.
const DefaultApp = "lootforge"

// MarshalMetadata merges the caller-supplied fields over the namespace
// defaults {app, type:"ord"} and returns the JSON blob appended after
// OP_RETURN. Caller fields win on key collision.
func MarshalMetadata(app string, fields map[string]any) ([]byte, error) {
	if len(app) <= 0 {
		app = DefaultApp
	}
	md := map[string]any{
		"app":  app,
		"type": "ord",
	}
	for k, v := range fields {
		md[k] = v
	}
	buf, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %s", err)
	}
	return buf, nil
}

// UnmarshalMetadata parses an OP_RETURN metadata blob.
func UnmarshalMetadata(buf []byte) (map[string]any, error) {
	md := map[string]any{}
	if err := json.Unmarshal(buf, &md); err != nil {
		return nil, fmt.Errorf("invalid metadata: %s", err)
	}
	return md, nil
}
