package services

import (
	"sync"

	"buildtrack/internal/backend"
)

// ProgressTracker holds the last upload percentage reported per session.
type ProgressTracker struct {
	mu     sync.RWMutex
	values map[string]int
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{values: make(map[string]int)}
}

// Func returns a progress callback bound to one session.
func (t *ProgressTracker) Func(sessionID string) backend.ProgressFunc {
	return func(percent int) {
		t.mu.Lock()
		t.values[sessionID] = percent
		t.mu.Unlock()
	}
}

func (t *ProgressTracker) Get(sessionID string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[sessionID]
	return v, ok
}

func (t *ProgressTracker) Clear(sessionID string) {
	t.mu.Lock()
	delete(t.values, sessionID)
	t.mu.Unlock()
}
