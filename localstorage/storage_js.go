//go:build js && wasm

package localstorage

import (
	"context"
	"fmt"
	"syscall/js"
)

// Storage wraps one Web Storage object.
type Storage struct {
	kv js.Value
}

// Local returns the window's localStorage.
func Local() *Storage {
	return &Storage{kv: js.Global().Get("localStorage")}
}

// Session returns the window's sessionStorage.
func Session() *Storage {
	return &Storage{kv: js.Global().Get("sessionStorage")}
}

func (s *Storage) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	defer recoverJSError(&err)

	v := s.kv.Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

// SetItem fails when the browser refuses the write, typically because the
// storage quota is exhausted.
func (s *Storage) SetItem(ctx context.Context, key, value string) (err error) {
	defer recoverJSError(&err)

	s.kv.Call("setItem", key, value)
	return nil
}

func (s *Storage) RemoveItem(ctx context.Context, key string) (err error) {
	defer recoverJSError(&err)

	s.kv.Call("removeItem", key)
	return nil
}

// recoverJSError turns an exception thrown by the storage object into an
// error.
func recoverJSError(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if jsErr, ok := r.(js.Error); ok {
		*err = fmt.Errorf("localstorage: %w", jsErr)
		return
	}
	panic(r)
}
