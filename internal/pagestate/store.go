// Package pagestate preserves per-view UI state across view switches and,
// optionally, across full restarts of the client.
//
// Every slice of state is addressed by (view, key). The in-memory tier is
// authoritative and always present; the persisted tier is a best-effort
// mirror written only for slices that opt in. Persistence failures never
// reach the caller: losing state across a restart is a nice-to-have, losing
// it across a view switch would be a bug.
package pagestate

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// ViewID identifies one of the client's top-level views. The set is closed.
type ViewID string

const (
	ViewLibrary    ViewID = "LIBRARY"
	ViewStudio     ViewID = "STUDIO"
	ViewTranscribe ViewID = "TRANSCRIBE"
	ViewAudioLab   ViewID = "AUDIO_LAB"
)

// BucketPrefix namespaces persisted buckets, one entry per view.
const BucketPrefix = "page_state_"

// Tier is the persisted mirror of the store. Load returns (nil, nil) when no
// bucket exists. Implementations must tolerate being hit from multiple
// goroutines serially (the store holds its lock across tier calls).
type Tier interface {
	Load(bucket string) ([]byte, error)
	Save(bucket string, data []byte) error
	Delete(bucket string) error
}

// Store is the two-tier page state store. Construct one at application start
// and inject it; a fresh Store per test gives full isolation.
type Store struct {
	mu     sync.Mutex
	tier   Tier
	logger *slog.Logger

	views  map[ViewID]map[string]any
	seeded map[ViewID]bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger routes persistence warnings somewhere other than slog.Default.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore builds a store over the given persisted tier. A nil tier makes
// the store memory-only: persistent slices then behave like plain ones.
func NewStore(tier Tier, opts ...StoreOption) *Store {
	s := &Store{
		tier:   tier,
		logger: slog.Default(),
		views:  make(map[ViewID]map[string]any),
		seeded: make(map[ViewID]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get is the imperative escape hatch: the current memory-tier value for
// (view, key), seeding from the persisted tier on first access. Values that
// arrived via seeding are returned as json.RawMessage; typed access goes
// through Slice.
func (s *Store) Get(view ViewID, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(view, key, true)
}

// Set is the imperative escape hatch counterpart: writes the memory tier and
// mirrors the whole view bucket to the persisted tier.
func (s *Store) Set(view ViewID, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(view, key, value, true)
}

// ClearPersisted drops the persisted bucket for a view. Memory is untouched.
func (s *Store) ClearPersisted(view ViewID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tier == nil {
		return
	}
	if err := s.tier.Delete(BucketPrefix + string(view)); err != nil {
		s.logger.Warn("page state: clear persisted bucket failed", "view", view, "err", err)
	}
}

func (s *Store) bucketLocked(view ViewID) map[string]any {
	b, ok := s.views[view]
	if !ok {
		b = make(map[string]any)
		s.views[view] = b
	}
	return b
}

// seedLocked loads the persisted bucket for view and merges in keys the
// memory tier does not hold yet. Runs at most once per view per process.
func (s *Store) seedLocked(view ViewID) {
	if s.seeded[view] || s.tier == nil {
		s.seeded[view] = true
		return
	}
	s.seeded[view] = true
	data, err := s.tier.Load(BucketPrefix + string(view))
	if err != nil {
		s.logger.Warn("page state: load persisted bucket failed", "view", view, "err", err)
		return
	}
	if len(data) == 0 {
		return
	}
	var persisted map[string]json.RawMessage
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Warn("page state: corrupt persisted bucket ignored", "view", view, "err", err)
		return
	}
	bucket := s.bucketLocked(view)
	for k, raw := range persisted {
		if _, exists := bucket[k]; !exists {
			bucket[k] = raw
		}
	}
}

func (s *Store) getLocked(view ViewID, key string, persist bool) (any, bool) {
	bucket := s.bucketLocked(view)
	if v, ok := bucket[key]; ok {
		return v, true
	}
	if persist {
		s.seedLocked(view)
		if v, ok := bucket[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Store) setLocked(view ViewID, key string, value any, persist bool) {
	s.bucketLocked(view)[key] = value
	if persist {
		s.persistLocked(view)
	}
}

// persistLocked mirrors the whole per-view bucket to the persisted tier.
// Keys that fail to serialize are skipped one by one so the rest of the
// bucket still survives; a tier write failure is logged and swallowed.
func (s *Store) persistLocked(view ViewID) {
	if s.tier == nil {
		return
	}
	bucket := s.bucketLocked(view)
	out := make(map[string]json.RawMessage, len(bucket))
	for k, v := range bucket {
		if raw, ok := v.(json.RawMessage); ok {
			out[k] = raw
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("page state: skipping non-serializable value", "view", view, "key", k, "err", err)
			continue
		}
		out[k] = raw
	}
	data, err := json.Marshal(out)
	if err != nil {
		s.logger.Warn("page state: encode bucket failed", "view", view, "err", err)
		return
	}
	if err := s.tier.Save(BucketPrefix+string(view), data); err != nil {
		s.logger.Warn("page state: persist bucket failed", "view", view, "err", err)
	}
}
