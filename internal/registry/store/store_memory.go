// Package store holds the shareholder registry: the authoritative {id, company name}
// records that automated matching compares claims against.
package store

import (
	"context"
	"sort"
	"sync"

	"irdesk/internal/registry/models"
)

// InMemoryRegistry keeps registry records in process, indexed by normalized holder id.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	holders map[string]map[string]models.Holder
}

// NewInMemory creates a registry pre-loaded with holders.
func NewInMemory(holders ...models.Holder) *InMemoryRegistry {
	r := &InMemoryRegistry{holders: make(map[string]map[string]models.Holder)}
	r.put(holders)
	return r
}

// Lookup returns every record filed under the normalized form of holderID.
func (r *InMemoryRegistry) Lookup(_ context.Context, holderID string) ([]models.Holder, error) {
	key := models.Holder{ID: holderID}.NormalizedID()
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName := r.holders[key]
	out := make([]models.Holder, 0, len(byName))
	for _, h := range byName {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// BulkUpsert inserts or replaces holders keyed by (id, name). Returns the number written.
func (r *InMemoryRegistry) BulkUpsert(_ context.Context, holders []models.Holder) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(holders), nil
}

func (r *InMemoryRegistry) put(holders []models.Holder) int {
	n := 0
	for _, h := range holders {
		key := h.NormalizedID()
		if key == "" {
			continue
		}
		if r.holders[key] == nil {
			r.holders[key] = make(map[string]models.Holder)
		}
		r.holders[key][h.Name] = h
		n++
	}
	return n
}
