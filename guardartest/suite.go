// Package guardartest holds a conformance suite for guardar.Backend
// implementations.
package guardartest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/201flaviosilva/guardar"
)

// RunBackendSuite exercises the Backend contract, the Swapper contract when
// implemented, and a Store running on top of the backend. newBackend must
// return an empty backend on every call.
func RunBackendSuite(t *testing.T, newBackend func(t *testing.T) guardar.Backend) {
	t.Helper()

	t.Run("MissingKey", func(t *testing.T) {
		b := newBackend(t)
		v, ok, err := b.GetItem(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("SetGet", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SetItem(ctx, "k", `{"a":1}`))

		v, ok, err := b.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"a":1}`, v)
	})

	t.Run("Overwrite", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SetItem(ctx, "k", "first"))
		require.NoError(t, b.SetItem(ctx, "k", "second"))

		v, _, err := b.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("EmptyValue", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SetItem(ctx, "k", ""))

		v, ok, err := b.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("Remove", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		require.NoError(t, b.SetItem(ctx, "k", "v"))
		require.NoError(t, b.RemoveItem(ctx, "k"))

		_, ok, err := b.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, b.RemoveItem(ctx, "k"), "removing a missing key is not an error")
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()
		keys := []string{"plain", "with space", "a/b", "dots.and:colons", "ünïcödé"}
		for i, k := range keys {
			require.NoError(t, b.SetItem(ctx, k, string(rune('A'+i))))
		}
		for i, k := range keys {
			v, ok, err := b.GetItem(ctx, k)
			require.NoError(t, err)
			assert.True(t, ok, k)
			assert.Equal(t, string(rune('A'+i)), v, k)
		}
	})

	t.Run("CompareAndSwap", func(t *testing.T) {
		b := newBackend(t)
		sw, ok := b.(guardar.Swapper)
		if !ok {
			t.Skip("backend does not implement Swapper")
		}
		ctx := context.Background()

		swapped, err := sw.CompareAndSwap(ctx, "k", "old", "new")
		require.NoError(t, err)
		assert.False(t, swapped, "missing entry must not swap")

		require.NoError(t, b.SetItem(ctx, "k", "old"))
		swapped, err = sw.CompareAndSwap(ctx, "k", "stale", "new")
		require.NoError(t, err)
		assert.False(t, swapped)

		swapped, err = sw.CompareAndSwap(ctx, "k", "old", "new")
		require.NoError(t, err)
		assert.True(t, swapped)

		v, _, err := b.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "new", v)
	})

	t.Run("Store", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		s, err := guardar.New(ctx, b)
		require.NoError(t, err)

		raw, ok, err := b.GetItem(ctx, guardar.DefaultRootKey)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "{}", raw)

		require.NoError(t, s.SetField(ctx, "a", 1))
		require.NoError(t, s.SetField(ctx, "b", []int{1, 2, 3}))
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, keys)

		require.NoError(t, s.RenameRoot(ctx, "other"))
		_, ok, err = b.GetItem(ctx, guardar.DefaultRootKey)
		require.NoError(t, err)
		assert.False(t, ok)

		raw, ok, err = b.GetItem(ctx, "other")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"a":1,"b":[1,2,3]}`, raw)
	})
}
