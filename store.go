package guardar

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DefaultRootKey is the backend key a Store uses unless WithRootKey says
// otherwise.
const DefaultRootKey = "guardar"

const defaultConflictRetries = 8

// Option customizes Store behavior.
type Option func(*Store)

// WithRootKey sets the initial root key. Empty keys are ignored.
func WithRootKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.rootKey = key
		}
	}
}

// WithLogger specifies a logger for operation logging.
// If not provided, nothing is logged.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogTag sets a tag prefix for all log messages.
func WithLogTag(tag string) Option {
	return func(s *Store) {
		s.logTag = tag
	}
}

// WithConflictRetries bounds how many times a read-modify-write is retried
// after losing a compare-and-swap. It only matters for backends that
// implement Swapper.
func WithConflictRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// Store keeps one JSON object under a root key of a Backend and exposes
// field-level access to it. Every mutation rewrites the whole document.
// A Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	backend Backend
	swapper Swapper
	rootKey string
	retries int
	logger  Logger
	logTag  string
}

// New creates a Store over backend and makes sure a document exists at the
// root key, writing "{}" when the entry is missing.
func New(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	s := &Store{
		backend: backend,
		rootKey: DefaultRootKey,
		retries: defaultConflictRetries,
		logger:  defaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.swapper, _ = backend.(Swapper)

	if _, _, err := s.ensure(ctx); err != nil {
		s.logf(LevelError, ctx, "New %s failed: %v", s.rootKey, err)
		return nil, err
	}
	return s, nil
}

func (s *Store) logf(level Level, ctx context.Context, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if s.logTag != "" {
		msg = s.logTag + " " + msg
	}
	switch level {
	case LevelInfo:
		s.logger.Info(ctx, "%s", msg)
	case LevelWarn:
		s.logger.Warn(ctx, "%s", msg)
	case LevelError:
		s.logger.Error(ctx, "%s", msg)
	case LevelDebug:
		s.logger.Debug(ctx, "%s", msg)
	}
}

// RootKey returns the backend key currently holding the document.
func (s *Store) RootKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootKey
}

// SetRootKey points the store at key, writing "{}" there if nothing exists.
// Data under the previous key is left in place. An empty key keeps the
// current one and only re-runs initialization.
func (s *Store) SetRootKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		s.rootKey = key
	}
	if _, _, err := s.ensure(ctx); err != nil {
		s.logf(LevelError, ctx, "SetRootKey %s failed: %v", s.rootKey, err)
		return err
	}
	return nil
}

// GetAll reads and parses the whole document. Content that is not a JSON
// object fails with *ParseError.
func (s *Store) GetAll(ctx context.Context) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, _, _, err := s.load(ctx)
	if err != nil {
		s.logf(LevelError, ctx, "GetAll failed: %v", err)
		return nil, err
	}
	return obj, nil
}

// GetField returns the value under key. A missing key yields an absent
// Value and no error.
func (s *Store) GetField(ctx context.Context, key string) (Value, error) {
	obj, err := s.GetAll(ctx)
	if err != nil {
		return Value{}, err
	}
	return obj.Get(key), nil
}

// GetAs decodes the value under key into T. The boolean reports whether the
// key was present.
func GetAs[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var zero T
	v, err := s.GetField(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if !v.Exists() {
		return zero, false, nil
	}
	var out T
	if err := v.Decode(&out); err != nil {
		return zero, true, errors.Wrapf(err, "guardar: decode %q", key)
	}
	return out, true, nil
}

// SetField stores value under key. value may be a Value, a json.RawMessage
// or anything encoding/json can encode.
func (s *Store) SetField(ctx context.Context, key string, value any) error {
	if !utf8.ValidString(key) {
		err := &SerializationError{Key: key, Err: ErrInvalidKey}
		s.logf(LevelError, ctx, "SetField %q failed: %v", key, err)
		return err
	}
	v, err := ValueOf(value)
	if err != nil {
		err = &SerializationError{Key: key, Err: err}
		s.logf(LevelError, ctx, "SetField %s failed: %v", key, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.update(ctx, func(o *Object) error {
		o.Set(key, v)
		return nil
	})
	if err != nil {
		s.logf(LevelError, ctx, "SetField %s failed: %v", key, err)
	}
	return err
}

// RemoveField deletes key. The document is rewritten even when key was
// absent.
func (s *Store) RemoveField(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, func(o *Object) error {
		o.Delete(key)
		return nil
	})
	if err != nil {
		s.logf(LevelError, ctx, "RemoveField %s failed: %v", key, err)
	}
	return err
}

// Update runs fn against the current document and writes the result back.
// An error from fn aborts without writing. fn may run more than once when a
// Swapper backend reports a concurrent change.
func (s *Store) Update(ctx context.Context, fn func(*Object) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, fn)
	if err != nil {
		s.logf(LevelError, ctx, "Update failed: %v", err)
	}
	return err
}

// UpdateAll replaces the document with the encoding of data, which must be
// a JSON object. A nil map is written as an empty object.
func (s *Store) UpdateAll(ctx context.Context, data any) error {
	if isNilMap(data) {
		data = json.RawMessage(emptyDocument)
	}
	v, err := ValueOf(data)
	if err == nil && v.Kind() != KindObject {
		err = ErrNotObject
	}
	if err != nil {
		err = &SerializationError{Err: err}
		s.logf(LevelError, ctx, "UpdateAll failed: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.put(ctx, s.rootKey, string(v.raw)); err != nil {
		s.logf(LevelError, ctx, "UpdateAll failed: %v", err)
		return err
	}
	return nil
}

// RenameRoot moves the document to name and removes the old entry. Data
// already stored under name is replaced by the moved document; a warning is
// logged when that discards anything. An empty name keeps the current key.
func (s *Store) RenameRoot(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.rootKey
	if name == "" {
		name = old
	}
	if err := s.rename(ctx, name); err != nil {
		s.logf(LevelError, ctx, "RenameRoot %s -> %s failed: %v", old, name, err)
		return err
	}
	return nil
}

func (s *Store) rename(ctx context.Context, name string) error {
	obj, _, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	doc, err := obj.MarshalJSON()
	if err != nil {
		return &SerializationError{Err: err}
	}

	old := s.rootKey
	if err := s.remove(ctx, old); err != nil {
		return err
	}
	s.rootKey = name

	existing, existed, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	if existed && name != old && strings.TrimSpace(existing) != emptyDocument {
		s.logf(LevelWarn, ctx, "RenameRoot %s -> %s overwrites existing data", old, name)
	}
	return s.put(ctx, name, string(doc))
}

// Clear resets the document to "{}".
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.put(ctx, s.rootKey, emptyDocument); err != nil {
		s.logf(LevelError, ctx, "Clear failed: %v", err)
		return err
	}
	return nil
}

// Keys returns the document's keys in insertion order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	obj, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return obj.Keys(), nil
}

// Size returns the number of keys in the document.
func (s *Store) Size(ctx context.Context) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Has reports whether key is present, including keys holding null.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// IsEmpty reports whether the document has no keys.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.Size(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// ensure writes "{}" at the root key when nothing is stored there. It
// returns what was found. Callers hold s.mu.
func (s *Store) ensure(ctx context.Context) (string, bool, error) {
	raw, ok, err := s.get(ctx, s.rootKey)
	if err != nil || ok {
		return raw, ok, err
	}
	if err := s.put(ctx, s.rootKey, emptyDocument); err != nil {
		return "", false, err
	}
	s.logf(LevelDebug, ctx, "initialized %s", s.rootKey)
	return "", false, nil
}

// load reads and parses the document. A missing entry reads as an empty
// object. Callers hold s.mu.
func (s *Store) load(ctx context.Context) (obj *Object, raw string, present bool, err error) {
	raw, present, err = s.get(ctx, s.rootKey)
	if err != nil {
		return nil, "", false, err
	}
	if !present {
		return NewObject(), "", false, nil
	}
	obj, err = ParseObject([]byte(raw))
	if err != nil {
		return nil, "", false, &ParseError{Key: s.rootKey, Err: err}
	}
	return obj, raw, true, nil
}

// update is the read-modify-write loop. Without a Swapper the write is
// unconditional. Callers hold s.mu.
func (s *Store) update(ctx context.Context, fn func(*Object) error) error {
	for attempt := 0; ; attempt++ {
		obj, raw, present, err := s.load(ctx)
		if err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
		doc, err := obj.MarshalJSON()
		if err != nil {
			return &SerializationError{Err: err}
		}

		if s.swapper == nil || !present {
			return s.put(ctx, s.rootKey, string(doc))
		}
		swapped, err := s.swapper.CompareAndSwap(ctx, s.rootKey, raw, string(doc))
		if err != nil {
			return errors.Wrapf(err, "guardar: swap %q", s.rootKey)
		}
		if swapped {
			return nil
		}
		if attempt >= s.retries {
			return ErrConflict
		}
		s.logf(LevelDebug, ctx, "%s changed concurrently, retry %d", s.rootKey, attempt+1)
	}
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.backend.GetItem(ctx, key)
	if err != nil {
		return "", false, errors.Wrapf(err, "guardar: read %q", key)
	}
	return raw, ok, nil
}

func (s *Store) put(ctx context.Context, key, doc string) error {
	if err := s.backend.SetItem(ctx, key, doc); err != nil {
		return errors.Wrapf(err, "guardar: write %q", key)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	if err := s.backend.RemoveItem(ctx, key); err != nil {
		return errors.Wrapf(err, "guardar: remove %q", key)
	}
	return nil
}

func isNilMap(data any) bool {
	rv := reflect.ValueOf(data)
	return rv.Kind() == reflect.Map && rv.IsNil()
}
