package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "board")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "board", `[]`))
	v, err := s.Get(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Set(ctx, "board", `[{"name":"a"}]`))
	v, err = s.Get(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"a"}]`, v)

	require.NoError(t, s.Del(ctx, "board"))
	_, err = s.Get(ctx, "board")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, s.Del(ctx, "board"))
}

var (
	_ KV = (*MemoryStore)(nil)
	_ KV = (*RedisStore)(nil)
	_ KV = (*PostgresStore)(nil)
)
