package r4

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/swm/core"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Resource is an immutable FHIR R4 resource document. Setters return a new
// Resource and leave the receiver untouched, so a Resource can be shared
// between goroutines.
type Resource struct {
	raw []byte
}

// Parse validates data as a resource: a JSON object with a string
// resourceType. data is copied.
func Parse(data []byte) (*Resource, error) {
	trimmed := bytes.TrimSpace(data)
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: malformed JSON", core.ErrInvalidResource)
	}
	doc := gjson.ParseBytes(trimmed)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: resource must be a JSON object", core.ErrInvalidResource)
	}
	if rt := doc.Get("resourceType"); rt.Type != gjson.String || rt.Str == "" {
		return nil, fmt.Errorf("%w: missing resourceType", core.ErrInvalidResource)
	}
	return &Resource{raw: bytes.Clone(trimmed)}, nil
}

// New builds a resource of the given type from a field map.
func New(resourceType string, fields map[string]any) (*Resource, error) {
	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["resourceType"] = resourceType
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", resourceType, err)
	}
	return Parse(b)
}

// ResourceType returns the resourceType field.
func (r *Resource) ResourceType() string {
	if r == nil {
		return ""
	}
	return gjson.GetBytes(r.raw, "resourceType").String()
}

// ID returns the logical id, or "" when the resource has none. An id written
// as a reference such as "Observation/1" or "1/_history/2" yields "1".
func (r *Resource) ID() string {
	if r == nil {
		return ""
	}
	id := gjson.GetBytes(r.raw, "id")
	if id.Type != gjson.String {
		return ""
	}
	return LogicalID(id.Str)
}

// LogicalID strips any version suffix and type prefix from raw.
func LogicalID(raw string) string {
	id, _, _ := strings.Cut(raw, "/_history/")
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		id = id[i+1:]
	}
	return strings.TrimSpace(id)
}

// Get reads a field using gjson path syntax, e.g. "status" or
// "code.coding.0.code".
func (r *Resource) Get(path string) gjson.Result {
	if r == nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.raw, path)
}

// Set returns a copy of r with the field at path replaced.
func (r *Resource) Set(path string, value any) (*Resource, error) {
	raw, err := sjson.SetBytes(bytes.Clone(r.raw), path, value)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return &Resource{raw: raw}, nil
}

// WithID returns a copy of r carrying id.
func (r *Resource) WithID(id string) (*Resource, error) {
	return r.Set("id", id)
}

// Bytes returns a copy of the JSON document.
func (r *Resource) Bytes() []byte {
	return bytes.Clone(r.raw)
}

// MarshalJSON implements json.Marshaler.
func (r *Resource) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	return bytes.Clone(r.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Resource) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	r.raw = parsed.raw
	return nil
}

// String returns the JSON document.
func (r *Resource) String() string {
	if r == nil {
		return "<nil>"
	}
	return string(r.raw)
}
