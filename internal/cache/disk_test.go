package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisk_PutAndRead(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	assert.False(t, d.Has(ctx, "a", 0, 1))

	require.NoError(t, d.Put(ctx, "a", strings.NewReader("0123456789"), 10))

	assert.True(t, d.Has(ctx, "a", 0, 10))
	assert.True(t, d.Has(ctx, "a", 5, -1))
	assert.False(t, d.Has(ctx, "a", 5, 6))
	assert.False(t, d.Has(ctx, "a", 10, -1))

	assert.Equal(t, "3456", readAll(t, d, "a", 3, 4))
	assert.Equal(t, "789", readAll(t, d, "a", 7, -1))
}

func TestDisk_SizeMismatch(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	err = d.Put(ctx, "a", strings.NewReader("short"), 10)
	require.Error(t, err)
	assert.False(t, d.Has(ctx, "a", 0, 1), "partial download must not be visible")
}

func TestDisk_Remove(t *testing.T) {
	ctx := context.Background()
	d, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a", strings.NewReader("x"), 1))
	require.NoError(t, d.Remove(ctx, "a"))
	require.NoError(t, d.Remove(ctx, "a"), "removing twice is fine")

	_, err = d.Open(ctx, "a", 0, 1)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestDisk_KeyCannotEscape(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d.path("../../etc/passwd"), dir))
}
