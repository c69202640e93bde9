// Package memory keeps audit events in process.
package memory

import (
	"context"
	"sync"

	audit "irdesk/pkg/platform/audit"
)

// InMemoryStore holds events per applicant in append order.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ApplicantID] = append(s.events[event.ApplicantID], event)
	return nil
}

func (s *InMemoryStore) ListByApplicant(_ context.Context, applicantID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[applicantID]...), nil
}
