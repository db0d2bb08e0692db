// Package guardar keeps a single JSON object in a key-value backend and
// exposes field-level get/set/delete on top of it.
//
// # Overview
//
// A Store owns one backend entry, the root key (DefaultRootKey unless
// configured). That entry holds the namespace document, a JSON object such
// as
//
//	{"myKey":"myString","count":42}
//
// The backend only needs whole-value reads and writes. Field updates are a
// read of the full document, an in-memory change and a write of the full
// document.
//
// # Quick Start
//
//	ctx := context.Background()
//	s, err := guardar.New(ctx, guardar.NewMemory())
//	if err != nil {
//	    return err
//	}
//
//	s.SetField(ctx, "count", 42)
//	v, _ := s.GetField(ctx, "count")
//	fmt.Println(v.Int()) // 42
//
//	n, ok, _ := guardar.GetAs[int](ctx, s, "count")
//
// # Backends
//
// Anything implementing Backend can be used. This module ships Memory and,
// in sub-packages, a directory backend (filestore), SQLite (sqlitestore),
// S3 (s3store) and browser Web Storage (localstorage, js/wasm only).
//
// # Thread Safety
//
// A Store serializes its own operations, so concurrent callers never lose
// each other's field updates. When several Stores share a root key, lost
// updates are only detected if the backend implements Swapper; the store
// then retries and eventually returns ErrConflict.
//
// # Renaming
//
// RenameRoot moves the document to a new key and deletes the old entry. If
// the destination already holds data, that data is overwritten. The store
// logs a warning in that case but does not refuse.
//
// # Error Handling
//
//	_, err := s.GetAll(ctx)
//	var perr *guardar.ParseError
//	if errors.As(err, &perr) {
//	    // stored content is not a JSON object
//	}
//
// Write paths fail with *SerializationError when a value cannot be encoded.
// Backend failures are wrapped and still match with errors.Is.
package guardar
