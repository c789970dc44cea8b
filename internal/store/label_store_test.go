package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelStoreSetAndGet(t *testing.T) {
	labels := NewLabelStore(openTestDB(t))
	ctx := context.Background()

	_, ok, err := labels.Get(ctx, "alice", "box-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, labels.Set(ctx, "alice", "box-1", "  Winter clothes "))
	name, ok, err := labels.Get(ctx, "alice", "box-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Winter clothes", name)

	require.NoError(t, labels.Set(ctx, "alice", "box-1", "Summer clothes"))
	name, _, err = labels.Get(ctx, "alice", "box-1")
	require.NoError(t, err)
	assert.Equal(t, "Summer clothes", name)

	_, ok, err = labels.Get(ctx, "bob", "box-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLabelStoreBlankRemoves(t *testing.T) {
	labels := NewLabelStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, labels.Set(ctx, "alice", "box-1", "Tools"))
	require.NoError(t, labels.Set(ctx, "alice", "box-1", "   "))

	_, ok, err := labels.Get(ctx, "alice", "box-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, labels.Set(ctx, "alice", "never-labelled", ""))
}

func TestLabelStoreList(t *testing.T) {
	labels := NewLabelStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, labels.Set(ctx, "alice", "a", "Books"))
	require.NoError(t, labels.Set(ctx, "alice", "b", "Games"))
	require.NoError(t, labels.Set(ctx, "bob", "c", "Tools"))

	got, err := labels.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "Books", "b": "Games"}, got)

	empty, err := labels.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
