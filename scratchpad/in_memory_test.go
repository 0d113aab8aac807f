package scratchpad

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/fhir/r4"
)

// Interface compliance (compile-time assertion)
var _ core.ScratchpadStore[*r4.Resource] = (*InMemoryStore[*r4.Resource])(nil)

func mustParse(t *testing.T, doc string) *r4.Resource {
	t.Helper()
	r, err := r4.Parse([]byte(doc))
	require.NoError(t, err)
	return r
}

func TestInMemoryStore_CreateWithID(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})

	entry, err := s.Create(mustParse(t, `{"resourceType":"Patient","id":"p1"}`))
	require.NoError(t, err)
	assert.Equal(t, "Patient/p1", entry.Location)

	got, ok := s.Get("Patient/p1")
	require.True(t, ok)
	assert.Equal(t, "p1", got.ID())
}

func TestInMemoryStore_CreateAssignsID(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})

	entry, err := s.Create(mustParse(t, `{"resourceType":"Observation","status":"final"}`))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(entry.Location, "Observation/"))

	id := strings.TrimPrefix(entry.Location, "Observation/")
	assert.NotEmpty(t, id)
	assert.NotContains(t, id, "-")
	assert.Equal(t, id, entry.Resource.ID())

	stored, ok := s.Get(entry.Location)
	require.True(t, ok)
	assert.Equal(t, id, stored.ID())
	assert.Equal(t, "final", stored.Get("status").String())
}

func TestInMemoryStore_CreateRequiresResourceType(t *testing.T) {
	s := NewInMemoryStore[string](stringCodec{})
	_, err := s.Create("")
	assert.ErrorIs(t, err, core.ErrInvalidResource)
}

func TestInMemoryStore_Update(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})

	// upsert on absent location
	entry, err := s.Update(mustParse(t, `{"resourceType":"Observation","id":"o1","status":"preliminary"}`))
	require.NoError(t, err)
	assert.Equal(t, "Observation/o1", entry.Location)

	_, err = s.Update(mustParse(t, `{"resourceType":"Observation","id":"o1","status":"final"}`))
	require.NoError(t, err)

	got, ok := s.Get("Observation/o1")
	require.True(t, ok)
	assert.Equal(t, "final", got.Get("status").String())
	assert.Equal(t, 1, s.Len())
}

func TestInMemoryStore_NormalizesReferenceIDs(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})

	entry, err := s.Update(mustParse(t, `{"resourceType":"Observation","id":"1/_history/2"}`))
	require.NoError(t, err)
	assert.Equal(t, "Observation/1", entry.Location)
	assert.Equal(t, "1", entry.Resource.Get("id").String())

	entry, err = s.Create(mustParse(t, `{"resourceType":"Observation","id":"a/b"}`))
	require.NoError(t, err)
	assert.Equal(t, "Observation/b", entry.Location)
	assert.Equal(t, "b", entry.Resource.Get("id").String())

	_, err = s.Update(mustParse(t, `{"resourceType":"Observation","id":"Observation/"}`))
	assert.ErrorIs(t, err, core.ErrMissingResourceID)
	assert.Equal(t, 2, s.Len())
}

func TestInMemoryStore_UpdateWithoutID(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})
	_, err := s.Update(mustParse(t, `{"resourceType":"Observation"}`))
	assert.ErrorIs(t, err, core.ErrMissingResourceID)
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_DeleteIsIdempotent(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})
	_, err := s.Create(mustParse(t, `{"resourceType":"Patient","id":"p1"}`))
	require.NoError(t, err)

	assert.True(t, s.Delete("Patient/p1"))
	assert.False(t, s.Delete("Patient/p1"))
	assert.False(t, s.Delete("Patient/unknown"))

	_, ok := s.Get("Patient/p1")
	assert.False(t, ok)
}

func TestInMemoryStore_AllIsSortedSnapshot(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})
	for _, doc := range []string{
		`{"resourceType":"Patient","id":"b"}`,
		`{"resourceType":"Observation","id":"z"}`,
		`{"resourceType":"Patient","id":"a"}`,
	} {
		_, err := s.Create(mustParse(t, doc))
		require.NoError(t, err)
	}

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Observation/z", all[0].Location)
	assert.Equal(t, "Patient/a", all[1].Location)
	assert.Equal(t, "Patient/b", all[2].Location)

	s.Clear()
	assert.Len(t, all, 3)
	assert.Empty(t, s.All())
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_ConcurrentCreate(t *testing.T) {
	s := NewInMemoryStore[*r4.Resource](r4.Codec{})
	const n = 200

	obs := mustParse(t, `{"resourceType":"Observation"}`)

	var wg sync.WaitGroup
	locations := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := s.Create(obs)
			if err != nil {
				t.Errorf("create failed: %v", err)
				return
			}
			locations <- entry.Location
		}()
	}
	wg.Wait()
	close(locations)

	seen := make(map[string]struct{}, n)
	for loc := range locations {
		seen[loc] = struct{}{}
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, s.Len())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Patient/123", Location("Patient", "123"))
}

// stringCodec treats a string as a resource type with no id.
type stringCodec struct{}

func (stringCodec) Unmarshal(b []byte) (string, error)        { return string(b), nil }
func (stringCodec) Marshal(s string) ([]byte, error)          { return []byte(s), nil }
func (stringCodec) Identify(s string) (string, string)        { return s, "" }
func (stringCodec) WithID(s string, _ string) (string, error) { return s, nil }
