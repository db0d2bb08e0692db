package guardar

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errMockGet    = errors.New("mock get error")
	errMockSet    = errors.New("mock set error")
	errMockRemove = errors.New("mock remove error")
)

// errorBackend is a backend whose calls fail once armed.
type errorBackend struct {
	Memory
	failGet, failSet, failRemove bool
}

func newErrorBackend() *errorBackend {
	return &errorBackend{Memory: Memory{data: make(map[string]string)}}
}

func (e *errorBackend) GetItem(ctx context.Context, key string) (string, bool, error) {
	if e.failGet {
		return "", false, errMockGet
	}
	return e.Memory.GetItem(ctx, key)
}

func (e *errorBackend) SetItem(ctx context.Context, key, value string) error {
	if e.failSet {
		return errMockSet
	}
	return e.Memory.SetItem(ctx, key, value)
}

func (e *errorBackend) CompareAndSwap(ctx context.Context, key, oldValue, newValue string) (bool, error) {
	if e.failSet {
		return false, errMockSet
	}
	return e.Memory.CompareAndSwap(ctx, key, oldValue, newValue)
}

func (e *errorBackend) RemoveItem(ctx context.Context, key string) error {
	if e.failRemove {
		return errMockRemove
	}
	return e.Memory.RemoveItem(ctx, key)
}

func TestParseError_OnEveryReadPath(t *testing.T) {
	b := NewMemory()
	s := newTestStore(t, b)
	ctx := context.Background()
	require.NoError(t, b.SetItem(ctx, DefaultRootKey, `{"broken":`))

	reads := map[string]func() error{
		"GetAll":      func() error { _, err := s.GetAll(ctx); return err },
		"GetField":    func() error { _, err := s.GetField(ctx, "a"); return err },
		"SetField":    func() error { return s.SetField(ctx, "a", 1) },
		"RemoveField": func() error { return s.RemoveField(ctx, "a") },
		"RenameRoot":  func() error { return s.RenameRoot(ctx, "other") },
		"Keys":        func() error { _, err := s.Keys(ctx); return err },
		"Size":        func() error { _, err := s.Size(ctx); return err },
		"Has":         func() error { _, err := s.Has(ctx, "a"); return err },
		"IsEmpty":     func() error { _, err := s.IsEmpty(ctx); return err },
	}
	for name, read := range reads {
		err := read()
		var perr *ParseError
		require.ErrorAs(t, err, &perr, name)
		assert.Equal(t, DefaultRootKey, perr.Key, name)

		var syntaxErr *json.SyntaxError
		assert.ErrorAs(t, err, &syntaxErr, name)
	}

	raw, _, _ := b.GetItem(ctx, DefaultRootKey)
	assert.Equal(t, `{"broken":`, raw, "failed reads must not rewrite the entry")
}

func TestParseError_NotAnObject(t *testing.T) {
	b := NewMemory()
	s := newTestStore(t, b)
	ctx := context.Background()
	require.NoError(t, b.SetItem(ctx, DefaultRootKey, `[1,2,3]`))

	_, err := s.GetAll(ctx)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, ErrNotObject)
	assert.Contains(t, err.Error(), `guardar: parse "guardar"`)
}

func TestClear_RecoversFromCorruption(t *testing.T) {
	b := NewMemory()
	s := newTestStore(t, b)
	ctx := context.Background()
	require.NoError(t, b.SetItem(ctx, DefaultRootKey, `garbage`))

	require.NoError(t, s.Clear(ctx))
	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestBackendErrors_AreWrapped(t *testing.T) {
	ctx := context.Background()

	b := newErrorBackend()
	b.failGet = true
	_, err := New(ctx, b)
	assert.ErrorIs(t, err, errMockGet)
	assert.Contains(t, err.Error(), `guardar: read "guardar"`)

	b = newErrorBackend()
	b.failSet = true
	_, err = New(ctx, b)
	assert.ErrorIs(t, err, errMockSet)

	b = newErrorBackend()
	s := newTestStore(t, b)
	b.failSet = true
	err = s.SetField(ctx, "a", 1)
	assert.ErrorIs(t, err, errMockSet)
	assert.Contains(t, err.Error(), `guardar: swap "guardar"`)
	assert.ErrorIs(t, s.UpdateAll(ctx, map[string]int{}), errMockSet)
	assert.ErrorIs(t, s.Clear(ctx), errMockSet)
	assert.ErrorIs(t, s.SetRootKey(ctx, "new"), errMockSet)

	b.failSet = false
	b.failGet = true
	_, err = s.Keys(ctx)
	assert.ErrorIs(t, err, errMockGet)
}

func TestRenameRoot_RemoveFailureKeepsRoot(t *testing.T) {
	b := newErrorBackend()
	logger := &mockLogger{}
	s := newTestStore(t, b, WithLogger(logger))
	ctx := context.Background()
	require.NoError(t, s.SetField(ctx, "x", 1))

	b.failRemove = true
	err := s.RenameRoot(ctx, "other")
	assert.ErrorIs(t, err, errMockRemove)
	assert.Equal(t, DefaultRootKey, s.RootKey())
	assert.True(t, logger.contains("ERROR: RenameRoot guardar -> other failed"))
}

func TestSerializationError_Message(t *testing.T) {
	err := &SerializationError{Key: "k", Err: ErrNotObject}
	assert.Equal(t, `guardar: serialize "k": guardar: not a JSON object`, err.Error())

	err = &SerializationError{Err: ErrNotObject}
	assert.Equal(t, `guardar: serialize: guardar: not a JSON object`, err.Error())
}
