package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/card-grader/internal/collection"
	"github.com/codyseavey/card-grader/internal/models"
)

const (
	shutdownFlushTimeout = 10 * time.Second
	defaultRetryDelay    = 5 * time.Second
)

// CollectionSaver persists a collection snapshot.
type CollectionSaver interface {
	Save(ctx context.Context, entries []models.CollectionEntry) error
}

// Autosaver persists the collection after every committed change. Bursts of
// changes inside the debounce window collapse into one save of the latest
// state; the latest state is always the one written. A failed save is retried
// after retryDelay until it succeeds or a newer state replaces it.
type Autosaver struct {
	saver      CollectionSaver
	debounce   time.Duration
	retryDelay time.Duration

	// saveMu is held for the whole of a save so Reset never interleaves with one.
	saveMu sync.Mutex

	mu      sync.Mutex
	pending *collection.State
	signal  chan struct{}
	lastErr error
}

func NewAutosaver(saver CollectionSaver, debounce time.Duration) *Autosaver {
	return &Autosaver{
		saver:      saver,
		debounce:   debounce,
		retryDelay: defaultRetryDelay,
		signal:     make(chan struct{}, 1),
	}
}

// Notify records st as the state to persist. It never blocks, so it can be
// subscribed directly to a collection.Store.
func (a *Autosaver) Notify(st collection.State) {
	a.mu.Lock()
	a.pending = &st
	a.mu.Unlock()

	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Run saves pending states until ctx is cancelled, then flushes whatever is
// still pending.
func (a *Autosaver) Run(ctx context.Context) {
	log.Printf("Autosaver started (debounce %v)", a.debounce)

	var retry <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			a.shutdownFlush()
			return
		case <-retry:
		case <-a.signal:
			if a.debounce > 0 {
				timer := time.NewTimer(a.debounce)
				select {
				case <-ctx.Done():
					timer.Stop()
					a.shutdownFlush()
					return
				case <-timer.C:
				}
			}
		}

		retry = nil
		if err := a.Flush(ctx); err != nil {
			log.Printf("Autosaver: save failed, retrying in %v: %v", a.retryDelay, err)
			retry = time.After(a.retryDelay)
		}
	}
}

// Flush saves the pending state now, if any. On failure the state is kept
// pending unless a newer one arrived meanwhile.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	st := a.pending
	a.pending = nil
	a.mu.Unlock()

	if st == nil {
		return nil
	}

	err := a.saver.Save(ctx, st.Entries())

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err != nil && a.pending == nil {
		a.pending = st
	}
	return err
}

// Reset drops any pending state and runs clearFn while no save is in flight,
// so nothing queued before the reset is written after it. On success the last
// error is cleared too.
func (a *Autosaver) Reset(clearFn func() error) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	if err := clearFn(); err != nil {
		return err
	}

	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
	return nil
}

// LastError returns the result of the most recent save attempt.
func (a *Autosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Autosaver) shutdownFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	defer cancel()

	if err := a.Flush(ctx); err != nil {
		log.Printf("Autosaver: final save failed: %v", err)
		return
	}
	log.Println("Autosaver stopped")
}
