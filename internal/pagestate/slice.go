package pagestate

import "encoding/json"

// Options controls a slice's tiering behavior.
type Options struct {
	// Persist mirrors the slice's view bucket to the persisted tier on every
	// write. Values must be JSON-serializable to actually survive a restart;
	// ones that are not simply stay memory-only.
	Persist bool
}

// Slice is a typed handle on one (view, key) state slice. Handles are cheap;
// every call goes straight to the store, so two handles for the same slice
// always agree.
type Slice[T any] struct {
	store   *Store
	view    ViewID
	key     string
	initial T
	persist bool
}

// For binds a typed slice handle to (view, key) with a default value.
func For[T any](store *Store, view ViewID, key string, initial T, opts Options) *Slice[T] {
	return &Slice[T]{store: store, view: view, key: key, initial: initial, persist: opts.Persist}
}

// Get returns the current value: the memory tier if populated, otherwise a
// value seeded from the persisted tier (persistent slices only), otherwise
// the initial value. Reading never mutates observable state.
func (sl *Slice[T]) Get() T {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	return sl.currentLocked()
}

// Set replaces the value. The memory write always succeeds; the persisted
// mirror is best-effort.
func (sl *Slice[T]) Set(v T) {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	sl.store.setLocked(sl.view, sl.key, v, sl.persist)
}

// Update applies fn to the previous value and stores the result atomically:
// no other writer can interleave between the read and the write. fn must not
// call back into the store.
func (sl *Slice[T]) Update(fn func(prev T) T) {
	sl.store.mu.Lock()
	defer sl.store.mu.Unlock()
	next := fn(sl.currentLocked())
	sl.store.setLocked(sl.view, sl.key, next, sl.persist)
}

func (sl *Slice[T]) currentLocked() T {
	v, ok := sl.store.getLocked(sl.view, sl.key, sl.persist)
	if !ok {
		return sl.initial
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	// A value seeded from the persisted tier arrives as raw JSON and is
	// materialized into T on first typed access.
	if raw, ok := v.(json.RawMessage); ok {
		var typed T
		if err := json.Unmarshal(raw, &typed); err != nil {
			sl.store.logger.Warn("page state: persisted value does not decode, using default",
				"view", sl.view, "key", sl.key, "err", err)
			return sl.initial
		}
		sl.store.bucketLocked(sl.view)[sl.key] = typed
		return typed
	}
	// The escape hatch stored something of another type under this key.
	return sl.initial
}
