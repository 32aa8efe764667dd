package collection

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codyseavey/card-grader/internal/models"
)

// ErrStoreClosed is returned by mutations dispatched after Run has returned.
var ErrStoreClosed = errors.New("collection store closed")

// ErrQuantityLimit is returned by AddLimited when the entry is already at the limit.
var ErrQuantityLimit = errors.New("quantity limit reached")

// Listener is called on the store goroutine after every committed change.
// It must not block; hand the state off and return.
type Listener func(State)

type mutation struct {
	apply func(State) (State, bool)
	reply chan State
}

// Store owns the collection state. All mutations go through one goroutine
// (Run), each applied to the latest committed state.
type Store struct {
	ops     chan mutation
	done    chan struct{}
	current atomic.Pointer[State]
	now     func() time.Time

	mu        sync.Mutex
	listeners []Listener
}

// NewStore creates a store holding an empty collection. Call Run before
// dispatching mutations.
func NewStore() *Store {
	s := &Store{
		ops:  make(chan mutation),
		done: make(chan struct{}),
		now:  time.Now,
	}
	s.current.Store(&State{})
	return s
}

// Subscribe registers a listener for committed states.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Run applies mutations until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	log.Println("Collection store started")
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			log.Println("Collection store stopping...")
			return
		case m := <-s.ops:
			cur := *s.current.Load()
			next, changed := m.apply(cur)
			if changed {
				s.current.Store(&next)
				s.notify(next)
			}
			m.reply <- next
		}
	}
}

// Snapshot returns the last committed state.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Add adds one copy of card.
func (s *Store) Add(ctx context.Context, card models.Card) (State, error) {
	return s.dispatch(ctx, func(st State) (State, bool) {
		return st.Add(card, s.now()), true
	})
}

// AddLimited adds one copy of card unless its entry already holds limit
// copies. The check runs inside the serialized mutation, so concurrent adds
// never overshoot.
func (s *Store) AddLimited(ctx context.Context, card models.Card, limit int) (State, error) {
	var atLimit bool
	st, err := s.dispatch(ctx, func(st State) (State, bool) {
		if i := st.index(card.ID); i >= 0 && st.entries[i].Quantity >= limit {
			atLimit = true
			return st, false
		}
		return st.Add(card, s.now()), true
	})
	if err != nil {
		return st, err
	}
	if atLimit {
		return st, ErrQuantityLimit
	}
	return st, nil
}

// Remove drops the entry with the given id; a missing id is not an error.
func (s *Store) Remove(ctx context.Context, id string) (State, error) {
	return s.dispatch(ctx, func(st State) (State, bool) {
		if st.index(id) < 0 {
			return st, false
		}
		return st.Remove(id), true
	})
}

// SetQuantity overwrites an entry's quantity; qty <= 0 removes it.
func (s *Store) SetQuantity(ctx context.Context, id string, qty int) (State, error) {
	return s.dispatch(ctx, func(st State) (State, bool) {
		if st.index(id) < 0 {
			return st, false
		}
		return st.SetQuantity(id, qty), true
	})
}

// Import merges entries into the collection.
func (s *Store) Import(ctx context.Context, entries []models.CollectionEntry) (State, error) {
	return s.dispatch(ctx, func(st State) (State, bool) {
		return st.Import(entries), len(entries) > 0
	})
}

// Load replaces the whole collection with previously persisted entries.
func (s *Store) Load(ctx context.Context, entries []models.CollectionEntry) (State, error) {
	return s.dispatch(ctx, func(State) (State, bool) {
		return NewState(entries), true
	})
}

// Clear empties the collection.
func (s *Store) Clear(ctx context.Context) (State, error) {
	return s.dispatch(ctx, func(State) (State, bool) {
		return State{}, true
	})
}

func (s *Store) dispatch(ctx context.Context, apply func(State) (State, bool)) (State, error) {
	m := mutation{apply: apply, reply: make(chan State, 1)}

	select {
	case s.ops <- m:
	case <-s.done:
		return State{}, ErrStoreClosed
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	// Once accepted the mutation always commits; wait for it unless the caller gives up.
	select {
	case st := <-m.reply:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(st)
	}
}
