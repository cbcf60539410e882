package store

import (
	"context"
	"sync"

	"github.com/dmitrymomot/lecturefeed/pkg/codec"
)

// Store holds the most recently received batch of notifications.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	current  codec.Batch
	version  uint64
	watchers map[*watcher]struct{}
	closed   bool
	wg       sync.WaitGroup
}

type watcher struct {
	ch   chan codec.Batch
	done chan struct{}
	once sync.Once
}

func (w *watcher) stop() {
	w.once.Do(func() {
		close(w.done)
		close(w.ch)
	})
}

// offer delivers b, replacing an unread older batch. Callers hold the store lock.
func (w *watcher) offer(b codec.Batch) {
	for {
		select {
		case w.ch <- b:
			return
		default:
		}
		select {
		case <-w.ch:
		default:
		}
	}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		current:  codec.Batch{},
		watchers: make(map[*watcher]struct{}),
	}
}

// Current returns a copy of the latest batch. It is never nil, and writing
// into it does not affect the store or any watcher.
func (s *Store) Current() codec.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Version returns the number of replacements made so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Replace swaps the stored batch for a copy of b in full. A nil batch is
// stored as empty.
func (s *Store) Replace(b codec.Batch) {
	b = b.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.current = b
	s.version++
	for w := range s.watchers {
		w.offer(b.Clone())
	}
}

// Reset replaces the stored batch with an empty one.
func (s *Store) Reset() {
	s.Replace(codec.Batch{})
}

// Watch returns a channel that receives the current batch and then every
// replacement. Each watcher gets its own copy of every batch. Delivery is latest-wins: a reader that falls behind sees only
// the newest batch. The channel is closed when ctx is done or the store is
// closed.
func (s *Store) Watch(ctx context.Context) <-chan codec.Batch {
	w := &watcher{
		ch:   make(chan codec.Batch, 1),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		w.stop()
		return w.ch
	}

	w.offer(s.current.Clone())
	s.watchers[w] = struct{}{}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			s.unwatch(w)
		case <-w.done:
		}
	}()

	return w.ch
}

// Close stops all watchers. Further replacements are ignored. It is safe to
// call Close multiple times.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for w := range s.watchers {
		w.stop()
	}
	clear(s.watchers)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Store) unwatch(w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.watchers, w)
	w.stop()
}
