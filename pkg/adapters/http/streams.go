package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/catena/internal/logging"
)

// StreamManager fans execution results out to the SSE clients of a chain.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // chain ID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for chainID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(chainID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[chainID]; !ok {
		sm.subscribers[chainID] = make(map[chan string]struct{})
	}
	sm.subscribers[chainID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[chainID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, chainID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of chainID without blocking.
func (sm *StreamManager) Broadcast(chainID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[chainID] {
		select {
		case ch <- msg:
		default:
			// Slow client
			sm.logger.Warn("SSE: client buffer full, dropping message", "chain", chainID)
		}
	}
}

// Subscribers returns the number of clients listening to chainID.
func (sm *StreamManager) Subscribers(chainID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[chainID])
}
