package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/academix/registrar-api/pkg/errors"
)

type entity struct {
	ID   string
	Name string
}

func (e *entity) Key() string { return e.ID }

func TestStorePutGetRemove(t *testing.T) {
	s := New[*entity]()

	require.NoError(t, s.Put(&entity{ID: "a", Name: "first"}))
	assert.True(t, appErrors.Is(s.Put(&entity{ID: "a"}), appErrors.ErrConflict))

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "first", got.Name)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	removed, ok := s.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", removed.ID)
	assert.False(t, s.Exists("a"))
	_, ok = s.Remove("a")
	assert.False(t, ok)
}

func TestStoreValuesInsertionOrder(t *testing.T) {
	s := New[*entity]()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(&entity{ID: fmt.Sprintf("e%d", i)}))
	}
	s.Remove("e2")

	values := s.Values()
	require.Len(t, values, 4)
	assert.Equal(t, "e0", values[0].ID)
	assert.Equal(t, "e3", values[2].ID)

	// the snapshot is a copy; mutating it leaves the store intact
	values[0] = &entity{ID: "zz"}
	again := s.Values()
	assert.Equal(t, "e0", again[0].ID)
}

func TestStoreReplaceAll(t *testing.T) {
	s := New[*entity]()
	require.NoError(t, s.Put(&entity{ID: "old"}))

	s.ReplaceAll([]*entity{{ID: "n1"}, {ID: "n2"}})
	assert.False(t, s.Exists("old"))
	assert.Equal(t, 2, s.Len())
	values := s.Values()
	assert.Equal(t, "n1", values[0].ID)
	assert.Equal(t, "n2", values[1].ID)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New[*entity]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Put(&entity{ID: fmt.Sprintf("e%d", n)})
			s.Values()
			s.Len()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
