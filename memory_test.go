package guardar_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/201flaviosilva/guardar"
	"github.com/201flaviosilva/guardar/guardartest"
)

func TestMemory_BackendSuite(t *testing.T) {
	guardartest.RunBackendSuite(t, func(t *testing.T) guardar.Backend {
		return guardar.NewMemory()
	})
}

func TestMemory_LenKeys(t *testing.T) {
	m := guardar.NewMemory()
	ctx := context.Background()

	assert.Equal(t, 0, m.Len())
	require.NoError(t, m.SetItem(ctx, "b", "2"))
	require.NoError(t, m.SetItem(ctx, "a", "1"))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.Keys())
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := guardar.NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = m.SetItem(ctx, "k", "v")
		}()
		go func() {
			defer wg.Done()
			_, _, _ = m.GetItem(ctx, "k")
		}()
		go func() {
			defer wg.Done()
			_, _ = m.CompareAndSwap(ctx, "k", "v", "w")
		}()
	}
	wg.Wait()

	_, ok, err := m.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
