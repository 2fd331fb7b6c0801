package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/sitescript/pkg/domain"
)

// StreamManager handles active SSE connections, keyed by script ID.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(id string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[id]; !ok {
		sm.subscribers[id] = make(map[chan<- string]struct{})
	}
	sm.subscribers[id][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[id]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, id)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(id string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[id]; ok {
		sm.logger.Debug("StreamManager: Broadcasting", "script_id", id, "subscribers", len(subs), "payload_size", len(msg))
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "script_id", id)
			}
		}
	}
}

// streamEvent is the SSE payload of a domain.ChangeEvent.
type streamEvent struct {
	*domain.ChangeEvent
	Error string `json:"error,omitempty"`
}

// Hooks returns lifecycle hooks that broadcast every arbiter event of the script.
// It is meant for session.WithHooks.
func (sm *StreamManager) Hooks(id string) domain.LifecycleHooks {
	publish := func(_ context.Context, e *domain.ChangeEvent) {
		payload := streamEvent{ChangeEvent: e}
		if e.Err != nil {
			payload.Error = e.Err.Error()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			sm.logger.Error("SSE: failed to encode event", "script_id", id, "err", err)
			return
		}
		sm.Broadcast(id, string(data))
	}
	return domain.LifecycleHooks{
		OnDocumentChanged: publish,
		OnTextRendered:    publish,
		OnTextRejected:    publish,
		OnEchoSuppressed:  publish,
	}
}
