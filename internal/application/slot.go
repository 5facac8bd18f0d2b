package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// Codec converts a slot value to and from its persisted JSON form.
// Decode receives nil when the key has never been written.
type Codec[T any] struct {
	Decode func(raw []byte) (T, error)
	Encode func(v T) ([]byte, error)
}

// Mutator computes the next value of a slot from its current value.
// Returning changed == false makes the access a pure read.
type Mutator[T any] func(current T) (next T, changed bool)

// ChangeHook runs after a changed value has been persisted and before the
// access that produced it returns.
type ChangeHook[T any] func(ctx context.Context, prev, curr T)

// SlotRegistry owns one FIFO queue per storage key. Queues are created on
// first use and live as long as the registry.
type SlotRegistry struct {
	kv     driven.KVStore
	logger *slog.Logger

	mu     sync.Mutex
	queues map[string]*slotQueue
}

// slotQueue is the tail of the operation chain for one key. Each operation
// installs a fresh channel as the new tail and closes it once finished.
type slotQueue struct {
	tail chan struct{}
}

// NewSlotRegistry creates a registry over the given store.
func NewSlotRegistry(kv driven.KVStore, logger *slog.Logger) *SlotRegistry {
	return &SlotRegistry{
		kv:     kv,
		logger: logger,
		queues: make(map[string]*slotQueue),
	}
}

// enqueue reserves the next position in key's queue. The caller must wait
// for prev to close before touching the store and must call done exactly once.
func (r *SlotRegistry) enqueue(key string) (prev <-chan struct{}, done func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[key]
	if !ok {
		closed := make(chan struct{})
		close(closed)
		q = &slotQueue{tail: closed}
		r.queues[key] = q
	}

	next := make(chan struct{})
	prev, q.tail = q.tail, next

	var once sync.Once
	return prev, func() { once.Do(func() { close(next) }) }
}

// Slot is a typed view over one key of the KV store. All accesses to the
// same key, from any Slot sharing the registry, are applied one at a time in
// the order they were issued.
type Slot[T any] struct {
	key      string
	codec    Codec[T]
	onChange ChangeHook[T]
	registry *SlotRegistry

	mu       sync.Mutex
	lastGood T
}

// SlotOption configures a Slot.
type SlotOption[T any] func(*Slot[T])

// OnChange sets the hook invoked after each persisted change.
func OnChange[T any](hook ChangeHook[T]) SlotOption[T] {
	return func(s *Slot[T]) {
		s.onChange = hook
	}
}

// NewSlot creates a Slot for key. The codec's default (Decode(nil)) seeds the
// last known-good value.
func NewSlot[T any](registry *SlotRegistry, key string, codec Codec[T], opts ...SlotOption[T]) *Slot[T] {
	s := &Slot[T]{
		key:      key,
		codec:    codec,
		registry: registry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if v, err := codec.Decode(nil); err == nil {
		s.lastGood = v
	}
	return s
}

// Access reads the slot and optionally applies mutate (nil means read only).
// It never fails: if any step of the operation fails, the last known-good
// value is returned and the failure is logged. Returned values are shared
// and must be treated as read-only.
func (s *Slot[T]) Access(ctx context.Context, mutate Mutator[T]) T {
	v, err := s.Transact(ctx, mutate)
	if err != nil {
		s.registry.logger.Warn("storage slot access degraded",
			"key", s.key,
			"error", err,
		)
	}
	return v
}

// Transact behaves like Access but also reports why an operation fell back
// to the last known-good value.
func (s *Slot[T]) Transact(ctx context.Context, mutate Mutator[T]) (T, error) {
	prev, done := s.registry.enqueue(s.key)

	select {
	case <-prev:
	case <-ctx.Done():
		// Keep our place in line so later operations still wait for prev.
		go func() {
			<-prev
			done()
		}()
		return s.lastKnownGood(), ctx.Err()
	}
	defer done()

	v, err := s.apply(ctx, mutate)
	if err != nil {
		return s.lastKnownGood(), err
	}

	s.mu.Lock()
	s.lastGood = v
	s.mu.Unlock()
	return v, nil
}

// apply performs one read-modify-write against the store.
func (s *Slot[T]) apply(ctx context.Context, mutate Mutator[T]) (result T, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("slot %q: panic: %v", s.key, v)
		}
	}()

	raw, err := s.registry.kv.Get(ctx, s.key)
	if err != nil {
		return result, fmt.Errorf("read slot %q: %w", s.key, err)
	}

	current, err := s.codec.Decode(raw)
	if err != nil {
		return result, fmt.Errorf("decode slot %q: %w", s.key, err)
	}
	if mutate == nil {
		return current, nil
	}

	// Decode a second copy for the hook, since mutate may edit current in place.
	var before T
	if s.onChange != nil {
		if before, err = s.codec.Decode(raw); err != nil {
			return result, fmt.Errorf("decode slot %q: %w", s.key, err)
		}
	}

	next, changed := mutate(current)
	if !changed {
		return current, nil
	}

	encoded, err := s.codec.Encode(next)
	if err != nil {
		return result, fmt.Errorf("encode slot %q: %w", s.key, err)
	}
	if err := s.registry.kv.Set(ctx, s.key, encoded); err != nil {
		return result, fmt.Errorf("write slot %q: %w", s.key, err)
	}

	if s.onChange != nil {
		s.onChange(ctx, before, next)
	}

	return next, nil
}

func (s *Slot[T]) lastKnownGood() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastGood
}
