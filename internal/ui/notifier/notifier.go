// Package notifier broadcasts dataset changes to the open SSE streams.
package notifier

import (
	"sync"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// Notifier fans out the ids of datasets that were re-fetched. Listeners
// re-read the cache for the ids they display.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan core.DatasetID]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan core.DatasetID]struct{}),
	}
}

// Subscribe returns a channel that receives changed dataset ids.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan core.DatasetID {
	ch := make(chan core.DatasetID, len(core.DatasetIDs()))
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan core.DatasetID) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends each id to all listeners. A full listener misses the id;
// it will see the next one.
func (n *Notifier) Broadcast(ids ...core.DatasetID) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		for _, id := range ids {
			select {
			case ch <- id:
			default:
			}
		}
	}
}

// Len returns the number of subscribed listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
