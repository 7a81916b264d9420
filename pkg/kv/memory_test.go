package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetNXLockSemantics(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	key := TargetLockKey("doc-1")

	ok, err := s.SetNX(ctx, key, []byte("job-a"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, key, []byte("job-b"), 0)
	require.NoError(t, err)
	assert.False(t, ok, "second job must not acquire the same target lock")

	require.NoError(t, s.Delete(ctx, key))
	ok, err = s.SetNX(ctx, key, []byte("job-b"), 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.SetNX(ctx, "k", []byte("v2"), 0)
	require.NoError(t, err)
	assert.True(t, ok, "expired key must be claimable again")
}
