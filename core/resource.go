package core

// ResourceCodec is the capability the engine needs from a FHIR version
// adapter. The engine never looks inside a resource beyond what this
// interface exposes.
type ResourceCodec[R any] interface {
	// Unmarshal decodes a resource from its JSON form. Implementations return
	// an error wrapping ErrInvalidResource for documents that are not a
	// resource.
	Unmarshal(data []byte) (R, error)

	// Marshal encodes a resource to JSON.
	Marshal(r R) ([]byte, error)

	// Identify returns the resource type name and logical id. id is empty
	// when the resource has none and never contains '/'.
	Identify(r R) (resourceType, id string)

	// WithID returns r carrying the given id.
	WithID(r R, id string) (R, error)
}

// Entry is a scratchpad record: a resource stored under its location
// ("<ResourceType>/<id>").
type Entry[R any] struct {
	Location string
	Resource R
}

// ScratchpadStore is a concurrency-safe staging area for resources under
// construction. Locations are unique: a Create or Update on an occupied
// location replaces the stored resource.
type ScratchpadStore[R any] interface {
	// Create stores r and returns its entry. Resources without an id are
	// assigned a random non-negative integer id which is written back onto
	// the stored resource.
	Create(r R) (Entry[R], error)

	// Update stores r under the location derived from its id, creating the
	// entry if absent. It fails with ErrMissingResourceID when r has no id.
	Update(r R) (Entry[R], error)

	// Delete removes the entry at location. Deleting an absent location is
	// not an error; the result reports whether anything was removed.
	Delete(location string) bool

	Get(location string) (R, bool)

	// All returns a point-in-time snapshot of every entry.
	All() []Entry[R]

	Clear()
	Len() int
}
