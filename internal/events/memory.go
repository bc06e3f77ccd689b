package events

import (
	"context"
	"sync"

	"github.com/clipfeed/notepress/internal/pipeline"
)

// MemoryPublisher records events for inspection. Used in tests and as the
// default when no Pub/Sub topic is configured.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []pipeline.NoteEvent
}

// NewMemoryPublisher returns an empty recorder.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the event.
func (p *MemoryPublisher) Publish(_ context.Context, event pipeline.NoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (p *MemoryPublisher) Events() []pipeline.NoteEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]pipeline.NoteEvent, len(p.events))
	copy(out, p.events)
	return out
}
