package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Put(ctx, "k1", []byte("v1")))

	val, found, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), val)

	_, found, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemStoreGetAllOmitsAbsentKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))

	result, err := s.GetAll(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Equal(t, []byte("1"), result["a"])
	assert.Equal(t, []byte("2"), result["b"])
	_, ok := result["c"]
	assert.False(t, ok)
}

func TestMemStoreRemoveWithVersionRequiresExactVersion(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	require.NoError(t, s.Put(ctx, "k1", []byte("v1")))

	entry, err := s.GetWithVersion(ctx, "k1")
	require.NoError(t, err)
	require.True(t, entry.Found)

	ok, err := s.RemoveWithVersion(ctx, "k1", entry.Version+1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found, "entry must be unchanged after a failed CAS remove")

	ok, err = s.RemoveWithVersion(ctx, "k1", entry.Version)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMockStoreRecordsCallCounts(t *testing.T) {
	ctx := context.Background()
	m := NewMockStore()

	_, _, _ = m.Get(ctx, "k1")
	_, _, _ = m.Get(ctx, "k2")
	_, _ = m.GetAll(ctx, []string{"k1", "k2"})

	assert.Equal(t, 2, m.CallCount("Get"))
	assert.Equal(t, 1, m.CallCount("GetAll"))
	assert.Equal(t, 3, m.TotalCalls())
}
