package scratchpad

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"

	"github.com/hupe1980/swm/core"
)

// maxIDAttempts bounds the retries for a generated id that collides with an
// occupied location.
const maxIDAttempts = 16

// InMemoryStore is a volatile ScratchpadStore keeping resources in a process
// local map guarded by an RWMutex. It is safe for concurrent access; All
// returns a snapshot that later mutations do not affect.
type InMemoryStore[R any] struct {
	codec core.ResourceCodec[R]

	mu        sync.RWMutex
	resources map[string]R // location -> resource
}

// NewInMemoryStore constructs an empty store that identifies resources with codec.
func NewInMemoryStore[R any](codec core.ResourceCodec[R]) *InMemoryStore[R] {
	return &InMemoryStore[R]{codec: codec, resources: make(map[string]R)}
}

// Create stores r under "<type>/<id>". A resource without an id gets a
// random non-negative integer id, written back onto the stored resource.
func (s *InMemoryStore[R]) Create(r R) (core.Entry[R], error) {
	resourceType, id := s.codec.Identify(r)
	if resourceType == "" {
		return core.Entry[R]{}, fmt.Errorf("%w: missing resourceType", core.ErrInvalidResource)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		var err error
		if id, err = s.generateIDLocked(resourceType); err != nil {
			return core.Entry[R]{}, err
		}
	}
	stored, err := s.codec.WithID(r, id)
	if err != nil {
		return core.Entry[R]{}, fmt.Errorf("assign id: %w", err)
	}

	location := Location(resourceType, id)
	s.resources[location] = stored
	return core.Entry[R]{Location: location, Resource: stored}, nil
}

// Update upserts r under the location derived from its id.
func (s *InMemoryStore[R]) Update(r R) (core.Entry[R], error) {
	resourceType, id := s.codec.Identify(r)
	if resourceType == "" {
		return core.Entry[R]{}, fmt.Errorf("%w: missing resourceType", core.ErrInvalidResource)
	}
	if id == "" {
		return core.Entry[R]{}, core.ErrMissingResourceID
	}

	stored, err := s.codec.WithID(r, id)
	if err != nil {
		return core.Entry[R]{}, fmt.Errorf("assign id: %w", err)
	}

	location := Location(resourceType, id)
	s.mu.Lock()
	s.resources[location] = stored
	s.mu.Unlock()
	return core.Entry[R]{Location: location, Resource: stored}, nil
}

// Delete removes the entry at location if present.
func (s *InMemoryStore[R]) Delete(location string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[location]; !ok {
		return false
	}
	delete(s.resources, location)
	return true
}

// Get returns the resource stored at location.
func (s *InMemoryStore[R]) Get(location string) (R, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[location]
	return r, ok
}

// All returns every entry sorted by location. The slice is a snapshot and
// safe for caller mutation.
func (s *InMemoryStore[R]) All() []core.Entry[R] {
	s.mu.RLock()
	entries := make([]core.Entry[R], 0, len(s.resources))
	for location, r := range s.resources {
		entries = append(entries, core.Entry[R]{Location: location, Resource: r})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Location < entries[j].Location })
	return entries
}

// Clear removes every entry.
func (s *InMemoryStore[R]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = make(map[string]R)
}

// Len returns the number of stored entries.
func (s *InMemoryStore[R]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// generateIDLocked picks a random id whose location is free; caller must
// hold the write lock.
func (s *InMemoryStore[R]) generateIDLocked(resourceType string) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := strconv.FormatInt(int64(rand.Int31n(math.MaxInt32)), 10)
		if _, taken := s.resources[Location(resourceType, id)]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free id for %s after %d attempts", resourceType, maxIDAttempts)
}

// Location formats the scratchpad key for a resource.
func Location(resourceType, id string) string {
	return resourceType + "/" + id
}
