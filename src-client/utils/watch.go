package utils

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Watch is a Discord message kept in sync with one cache entry.
type Watch struct {
	ID        uuid.UUID
	EventID   string
	DateAdded time.Time
	// custom IDs of the buttons attached to the message
	ComponentIDs []string
	// releases the query binding feeding the message
	Close func()
}

// Watches times out live messages, since the handler functions of their
// buttons live in AppState until removed.
type Watches struct {
	mu       sync.Mutex
	ttl      time.Duration
	items    map[uuid.UUID]*Watch
	onRemove func(componentID string)
}

func NewWatches(ttl time.Duration, onRemove func(componentID string)) *Watches {
	return &Watches{
		ttl:      ttl,
		items:    make(map[uuid.UUID]*Watch),
		onRemove: onRemove,
	}
}

func (w *Watches) Add(watch *Watch) {
	if watch.DateAdded.IsZero() {
		watch.DateAdded = time.Now()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items[watch.ID] = watch
}

func (w *Watches) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

func (w *Watches) release(watch *Watch) {
	if watch.Close != nil {
		watch.Close()
	}
	if w.onRemove != nil {
		for _, id := range watch.ComponentIDs {
			w.onRemove(id)
		}
	}
}

// Remove stops the watch id and reports whether it was running.
func (w *Watches) Remove(id uuid.UUID) bool {
	w.mu.Lock()
	watch, ok := w.items[id]
	delete(w.items, id)
	w.mu.Unlock()
	if ok {
		w.release(watch)
	}
	return ok
}

// Expire stops every watch older than the TTL at now.
func (w *Watches) Expire(now time.Time) int {
	w.mu.Lock()
	var expired []*Watch
	for id, watch := range w.items {
		if now.Sub(watch.DateAdded) > w.ttl {
			expired = append(expired, watch)
			delete(w.items, id)
		}
	}
	w.mu.Unlock()

	for _, watch := range expired {
		w.release(watch)
		slog.Info("watch removed from queue", "watch", watch.ID, "event", watch.EventID)
	}
	return len(expired)
}

func (w *Watches) CloseAll() {
	w.mu.Lock()
	items := w.items
	w.items = make(map[uuid.UUID]*Watch)
	w.mu.Unlock()
	for _, watch := range items {
		w.release(watch)
	}
}
