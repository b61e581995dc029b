package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/bus"
)

// Record is any workflow record addressable by a stable string id.
type Record interface {
	RecordID() string
}

// envelope is the persisted shape: a schema version, the record list, and the
// signature of the seed dataset last applied.
type envelope[T Record] struct {
	Version       int    `json:"version"`
	Items         []T    `json:"items"`
	SeedSignature string `json:"seedSignature,omitempty"`
}

// Options name a store's persistence namespace and its change-bus identity.
type Options struct {
	// Namespace keys the backend envelope, e.g. "referral.cases.v1".
	Namespace string
	// Topic is the bus topic change events are published on.
	Topic string
	// EventType tags published events, e.g. "referral.cases.changed".
	EventType string
	// Version is the fixed schema version for this store instance. A
	// persisted envelope with a different version keeps its items but loses
	// its seed signature, forcing the next EnsureSeed to reapply.
	Version int
}

// Store holds an ordered collection of records with deep-copy read/write
// boundaries: callers may freely mutate anything a Store returns without
// affecting stored state, and mutation of stored state goes through Update
// exclusively.
type Store[T Record] struct {
	mu      sync.Mutex
	opts    Options
	backend Backend
	bus     *bus.Bus
	log     zerolog.Logger

	loaded bool
	items  []T
	seed   string
}

// New constructs a Store. State is read lazily on first access.
func New[T Record](opts Options, backend Backend, b *bus.Bus, log zerolog.Logger) *Store[T] {
	return &Store[T]{opts: opts, backend: backend, bus: b, log: log}
}

// cloneValue deep-copies v through a JSON round trip, mirroring the
// serialization boundary the records already cross for persistence.
func cloneValue[T any](v T) T {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func cloneItems[T Record](items []T) []T {
	if len(items) == 0 {
		return []T{}
	}
	return cloneValue(items)
}

// readState decodes the backend envelope, degrading to the empty default on
// any read or decode failure.
func (s *Store[T]) readState(ctx context.Context) ([]T, string) {
	raw, err := s.backend.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Str("namespace", s.opts.Namespace).Msg("store read failed, using defaults")
		return []T{}, ""
	}
	if len(raw) == 0 {
		return []T{}, ""
	}
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil || env.Items == nil {
		s.log.Warn().Str("namespace", s.opts.Namespace).Msg("store envelope corrupt, using defaults")
		return []T{}, ""
	}
	if env.Version != s.opts.Version {
		// Schema moved underneath us: keep the items best-effort but drop
		// the seed signature so the next EnsureSeed reapplies.
		return env.Items, ""
	}
	return env.Items, env.SeedSignature
}

// writeState persists the current state. Write failures are swallowed: the
// in-memory state stays authoritative. The caller announces the change with
// publish after releasing the store mutex, since bus handlers may re-enter
// the store through Reload.
func (s *Store[T]) writeState(ctx context.Context, items []T, seed string) {
	s.items = cloneItems(items)
	s.seed = seed
	s.loaded = true

	env := envelope[T]{Version: s.opts.Version, Items: s.items, SeedSignature: seed}
	data, err := json.Marshal(env)
	if err == nil {
		err = s.backend.Save(ctx, data)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("namespace", s.opts.Namespace).Msg("store write failed, keeping in-memory state")
	}
}

func (s *Store[T]) publish() {
	s.bus.Publish(bus.Event{Type: s.opts.EventType, Topic: s.opts.Topic, Version: s.opts.Version, Source: s})
}

func (s *Store[T]) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.items, s.seed = s.readState(ctx)
		s.loaded = true
	}
}

// Snapshot returns a deep copy of the current items. It never fails; an
// unreadable backend yields an empty list.
func (s *Store[T]) Snapshot(ctx context.Context) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return cloneItems(s.items)
}

// ReplaceAll overwrites the whole collection, persists, broadcasts, and
// returns a deep copy of the new state.
func (s *Store[T]) ReplaceAll(ctx context.Context, items []T, seedSignature string) []T {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	s.writeState(ctx, cloneItems(items), seedSignature)
	out := cloneItems(s.items)
	s.mu.Unlock()

	s.publish()
	return out
}

// EnsureSeed populates the store from factory iff the collection is empty or
// signature differs from the signature recorded at the last seeding.
// Otherwise it is an idempotent no-op and factory is not invoked.
func (s *Store[T]) EnsureSeed(ctx context.Context, factory func() []T, signature string) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	needsSeed := len(s.items) == 0 || (signature != "" && s.seed != signature)
	if !needsSeed {
		s.mu.Unlock()
		return
	}
	s.writeState(ctx, cloneItems(factory()), signature)
	s.mu.Unlock()

	s.publish()
}

// Add inserts rec at the head when prepend is true, at the tail otherwise,
// and returns a deep copy of the stored record.
func (s *Store[T]) Add(ctx context.Context, rec T, prepend bool) T {
	s.mu.Lock()
	s.ensureLoaded(ctx)

	stored := cloneValue(rec)
	items := cloneItems(s.items)
	if prepend {
		items = append([]T{stored}, items...)
	} else {
		items = append(items, stored)
	}
	s.writeState(ctx, items, s.seed)
	out := cloneValue(stored)
	s.mu.Unlock()

	s.publish()
	return out
}

// Update locates the record by id and applies mutate to a draft copy. The
// draft replaces the stored record and a deep copy of it is returned. When id
// is not present, mutate is never invoked and ok is false.
func (s *Store[T]) Update(ctx context.Context, id string, mutate func(draft *T)) (T, bool) {
	s.mu.Lock()
	s.ensureLoaded(ctx)

	items := cloneItems(s.items)
	for i := range items {
		if items[i].RecordID() != id {
			continue
		}
		mutate(&items[i])
		s.writeState(ctx, items, s.seed)
		out := cloneValue(items[i])
		s.mu.Unlock()

		s.publish()
		return out, true
	}
	s.mu.Unlock()

	var zero T
	return zero, false
}

// Find returns a deep copy of the record with the given id.
func (s *Store[T]) Find(ctx context.Context, id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	for i := range s.items {
		if s.items[i].RecordID() == id {
			return cloneValue(s.items[i]), true
		}
	}
	var zero T
	return zero, false
}

// Reset restores the empty default state.
func (s *Store[T]) Reset(ctx context.Context) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	s.writeState(ctx, []T{}, "")
	s.mu.Unlock()

	s.publish()
}

// Reload discards the in-memory cache and re-reads the backend. Used by
// change subscribers, which must treat notifications as invalidate-and-reload
// rather than as deltas.
func (s *Store[T]) Reload(ctx context.Context) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items, s.seed = s.readState(ctx)
	s.loaded = true
	return cloneItems(s.items)
}

// SubscribeExternal registers callback for both change signal sources: the
// backend watch (other processes writing the same namespace) and the
// in-process bus topic (other writers in this process). On either signal the
// store reloads from the backend before callback runs. Events this store
// published itself are skipped: the writer already holds the state it just
// wrote, and reloading after a swallowed write failure would discard it. The
// returned unsubscribe function detaches both listeners and is idempotent.
func (s *Store[T]) SubscribeExternal(callback func()) func() {
	trigger := func() {
		s.Reload(context.Background())
		callback()
	}

	busUnsub := s.bus.Subscribe(s.opts.Topic, func(ev bus.Event) {
		if ev.Source == s {
			return
		}
		trigger()
	})

	stopWatch, err := s.backend.Watch(trigger)
	if err != nil {
		s.log.Warn().Err(err).Str("namespace", s.opts.Namespace).Msg("store watch unavailable")
		stopWatch = func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			busUnsub()
			stopWatch()
		})
	}
}

// Topic returns the bus topic this store publishes on.
func (s *Store[T]) Topic() string { return s.opts.Topic }
