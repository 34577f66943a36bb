package spectate

import (
	"sync"

	"github.com/amalg/go-pacman/internal/game"
)

// subscriberBuffer is how many snapshots a slow watcher may lag behind
// before ticks are dropped for it.
const subscriberBuffer = 16

// Hub fans snapshots out to any number of watchers.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan game.Snapshot]struct{}
	latest *game.Snapshot
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan game.Snapshot]struct{})}
}

// Attach feeds every tick of e into the hub.
func (h *Hub) Attach(e *game.Engine) {
	e.OnTick(h.Publish)
}

// Publish stores s as the latest snapshot and offers it to every watcher.
// It never blocks; a full watcher misses this tick.
func (h *Hub) Publish(s game.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &s
	for ch := range h.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest returns the most recent snapshot, if any was published.
func (h *Hub) Latest() (game.Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return game.Snapshot{}, false
	}
	return *h.latest, true
}

// Subscribe registers a watcher. The returned cancel func must be called
// once the watcher is done; it closes the channel.
func (h *Hub) Subscribe() (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Watchers returns the number of active subscriptions.
func (h *Hub) Watchers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
