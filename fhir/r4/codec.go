package r4

import (
	"fmt"

	"github.com/hupe1980/swm/core"
)

var _ core.ResourceCodec[*Resource] = Codec{}

// Codec implements core.ResourceCodec for R4 resources.
type Codec struct{}

// Unmarshal parses a resource document.
func (Codec) Unmarshal(data []byte) (*Resource, error) {
	return Parse(data)
}

// Marshal returns the resource document.
func (Codec) Marshal(r *Resource) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil resource", core.ErrInvalidResource)
	}
	return r.Bytes(), nil
}

// Identify returns the resourceType and id of r.
func (Codec) Identify(r *Resource) (string, string) {
	return r.ResourceType(), r.ID()
}

// WithID returns a copy of r carrying id.
func (Codec) WithID(r *Resource, id string) (*Resource, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil resource", core.ErrInvalidResource)
	}
	return r.WithID(id)
}
