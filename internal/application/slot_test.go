package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streetpass/internal/application"
)

// intsCodec stores a JSON list of ints. The literal "bad" fails to decode.
func intsCodec() application.Codec[[]int] {
	return application.Codec[[]int]{
		Decode: func(raw []byte) ([]int, error) {
			if len(raw) == 0 {
				return []int{}, nil
			}
			if string(raw) == "bad" {
				return nil, errors.New("corrupt")
			}
			var v []int
			err := json.Unmarshal(raw, &v)
			return v, err
		},
		Encode: func(v []int) ([]byte, error) {
			return json.Marshal(v)
		},
	}
}

func appendInt(n int) application.Mutator[[]int] {
	return func(cur []int) ([]int, bool) {
		return append(cur, n), true
	}
}

func TestSlot_AccessesApplyInIssueOrder(t *testing.T) {
	kv := newMockKVStore()
	kv.delay = 5 * time.Millisecond
	slot := application.NewSlot(application.NewSlotRegistry(kv, discardLogger()), "k", intsCodec())

	const n = 10
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot.Access(context.Background(), appendInt(i))
		}()
		// Give each goroutine time to take its place in line.
		time.Sleep(2 * time.Millisecond)
	}
	wg.Wait()

	got := slot.Access(context.Background(), nil)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestSlot_ConcurrentWritesAreNotLost(t *testing.T) {
	kv := newMockKVStore()
	kv.delay = time.Millisecond
	registry := application.NewSlotRegistry(kv, discardLogger())

	// Two slots over the same key share one queue.
	a := application.NewSlot(registry, "k", intsCodec())
	b := application.NewSlot(registry, "k", intsCodec())

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				a.Access(context.Background(), appendInt(i))
			} else {
				b.Access(context.Background(), appendInt(i))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, a.Access(context.Background(), nil), 20)
}

func TestSlot_ReadOnlyDoesNotWriteOrNotify(t *testing.T) {
	kv := newMockKVStore()
	var hookCalls int
	slot := application.NewSlot(application.NewSlotRegistry(kv, discardLogger()), "k", intsCodec(),
		application.OnChange(func(context.Context, []int, []int) { hookCalls++ }))

	slot.Access(context.Background(), nil)
	slot.Access(context.Background(), func(cur []int) ([]int, bool) { return cur, false })

	assert.Equal(t, int32(0), kv.sets.Load())
	assert.Equal(t, 0, hookCalls)
}

func TestSlot_OnChangeSeesPreviousAndCurrent(t *testing.T) {
	kv := newMockKVStore()
	var prev, curr []int
	slot := application.NewSlot(application.NewSlotRegistry(kv, discardLogger()), "k", intsCodec(),
		application.OnChange(func(_ context.Context, p, c []int) { prev, curr = p, c }))

	slot.Access(context.Background(), appendInt(1))
	slot.Access(context.Background(), appendInt(2))

	assert.Equal(t, []int{1}, prev)
	assert.Equal(t, []int{1, 2}, curr)
	assert.Equal(t, `[1,2]`, string(kv.raw("k")))
}

func TestSlot_FailuresReturnLastKnownGood(t *testing.T) {
	kv := newMockKVStore()
	slot := application.NewSlot(application.NewSlotRegistry(kv, discardLogger()), "k", intsCodec())

	require.Equal(t, []int{1}, slot.Access(context.Background(), appendInt(1)))

	t.Run("decode error", func(t *testing.T) {
		require.NoError(t, kv.Set(context.Background(), "k", []byte("bad")))

		got, err := slot.Transact(context.Background(), appendInt(2))

		require.Error(t, err)
		assert.Equal(t, []int{1}, got)
		assert.Equal(t, "bad", string(kv.raw("k")), "store untouched")
		require.NoError(t, kv.Set(context.Background(), "k", []byte("[1]")))
	})

	t.Run("mutator panic", func(t *testing.T) {
		got, err := slot.Transact(context.Background(), func([]int) ([]int, bool) { panic("boom") })

		require.Error(t, err)
		assert.Equal(t, []int{1}, got)
	})

	t.Run("write error", func(t *testing.T) {
		kv.failSet = true
		defer func() { kv.failSet = false }()

		assert.Equal(t, []int{1}, slot.Access(context.Background(), appendInt(3)))
	})

	// The queue keeps working after failures.
	assert.Equal(t, []int{1, 4}, slot.Access(context.Background(), appendInt(4)))
}
