package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
)

// --- Mock implementations ---

// mockKVStore is an in-memory driven.KVStore. delay slows every call so
// concurrent operations overlap; failSet makes writes fail.
type mockKVStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	delay   time.Duration
	failSet bool
	sets    atomic.Int32

	// afterSet runs after every successful write.
	afterSet func(key string)
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.sets.Add(1)
	if m.failSet {
		return errors.New("disk full")
	}
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	if m.afterSet != nil {
		m.afterSet(key)
	}
	return nil
}

func (m *mockKVStore) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key]
}

// mockResolver returns a fixed result per href, NotProfile otherwise.
type mockResolver struct {
	mu       sync.Mutex
	profiles map[string]model.ProfileData
	calls    map[string]int
	delay    time.Duration

	revalidations map[string]int
}

func newMockResolver(profiles map[string]model.ProfileData) *mockResolver {
	if profiles == nil {
		profiles = make(map[string]model.ProfileData)
	}
	return &mockResolver{
		profiles:     profiles,
		calls:        make(map[string]int),
		revalidations: make(map[string]int),
	}
}

func (m *mockResolver) Resolve(ctx context.Context, href string) model.ProfileData {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return model.NotProfile()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[href]++
	if p, ok := m.profiles[href]; ok {
		return p
	}
	return model.NotProfile()
}

// Revalidate counts as a call too, and is also tracked separately.
func (m *mockResolver) Revalidate(ctx context.Context, href string) model.ProfileData {
	m.mu.Lock()
	m.revalidations[href]++
	m.mu.Unlock()
	return m.Resolve(ctx, href)
}

func (m *mockResolver) revalidateCount(href string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revalidations[href]
}

func (m *mockResolver) set(href string, p model.ProfileData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[href] = p
}

func (m *mockResolver) callCount(href string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[href]
}

// mockPresenter records every presented transition.
type mockPresenter struct {
	mu     sync.Mutex
	states []model.IconState
}

func (m *mockPresenter) Present(_ context.Context, _, curr model.IconState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, curr)
}

func (m *mockPresenter) presented() []model.IconState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.IconState(nil), m.states...)
}

// --- Test helpers ---

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
