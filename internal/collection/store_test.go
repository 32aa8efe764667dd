package collection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/card-grader/internal/models"
)

func startStore(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore()
	s.now = func() time.Time { return t0 }

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func TestStoreConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	s := startStore(t)
	c := card("zard", "Charizard")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Add(context.Background(), c)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, workers, snap.TotalCount())
	assert.Equal(t, 1, snap.UniqueCount())
}

func TestStoreAddLimitedHoldsUnderConcurrency(t *testing.T) {
	s := startStore(t)
	c := card("zard", "Charizard")

	_, err := s.Import(context.Background(), []models.CollectionEntry{{Card: c, Quantity: 8, DateAdded: t0}})
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	var added, rejected int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddLimited(context.Background(), c, 10)
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrQuantityLimit) {
				rejected++
				return
			}
			assert.NoError(t, err)
			added++
		}()
	}
	wg.Wait()

	entry, ok := s.Snapshot().Get("zard")
	require.True(t, ok)
	assert.Equal(t, 10, entry.Quantity)
	assert.Equal(t, 2, added)
	assert.Equal(t, workers-2, rejected)
}

func TestStoreAddLimitedNewEntry(t *testing.T) {
	s := startStore(t)

	st, err := s.AddLimited(context.Background(), card("a", "Alpha"), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalCount())

	_, err = s.AddLimited(context.Background(), card("a", "Alpha"), 1)
	assert.ErrorIs(t, err, ErrQuantityLimit)
	assert.Equal(t, 1, s.Snapshot().TotalCount())
}

func TestStoreReadAfterWrite(t *testing.T) {
	s := startStore(t)

	st, err := s.Add(context.Background(), card("a", "Alpha"))
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalCount())
	assert.Equal(t, 1, s.Snapshot().TotalCount())

	_, err = s.Remove(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Snapshot().TotalCount())
}

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	s := startStore(t)

	var mu sync.Mutex
	var seen []int
	s.Subscribe(func(st State) {
		mu.Lock()
		seen = append(seen, st.TotalCount())
		mu.Unlock()
	})

	ctx := context.Background()
	_, err := s.Add(ctx, card("a", "Alpha"))
	require.NoError(t, err)
	_, err = s.Add(ctx, card("a", "Alpha"))
	require.NoError(t, err)
	_, err = s.Remove(ctx, "missing")
	require.NoError(t, err)
	_, err = s.SetQuantity(ctx, "missing", 3)
	require.NoError(t, err)
	_, err = s.Remove(ctx, "a")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 0}, seen)
}

func TestStoreLoadReplacesState(t *testing.T) {
	s := startStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, card("old", "Old"))
	require.NoError(t, err)

	st, err := s.Load(ctx, []models.CollectionEntry{
		{Card: card("a", "Alpha"), Quantity: 2, DateAdded: t0},
		{Card: card("a", "Alpha"), Quantity: 1, DateAdded: t0},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, st.UniqueCount(), "duplicate ids from storage are merged")
	assert.Equal(t, 3, st.TotalCount())
	_, ok := st.Get("old")
	assert.False(t, ok)

	st, err = s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.UniqueCount())
}

func TestStoreClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewStore()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	_, err := s.Add(context.Background(), card("a", "Alpha"))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestStoreDispatchHonorsCallerContext(t *testing.T) {
	s := NewStore() // never started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Add(ctx, card("a", "Alpha"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
