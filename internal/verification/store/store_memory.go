// Package store persists applicants. Stores are pure I/O: they never run workflow
// transitions and report persistence facts with pkg/platform/sentinel errors.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"irdesk/internal/verification/models"
	"irdesk/pkg/platform/sentinel"
)

// InMemoryStore is a process-local applicant store for tests and single-node runs.
type InMemoryStore struct {
	mu         sync.RWMutex
	applicants map[string]models.Applicant
	// identities maps lower-cased emails claimed through CreateIfIdentityAvailable.
	identities map[string]string
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		applicants: make(map[string]models.Applicant),
		identities: make(map[string]string),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applicants[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := a.Clone()
	return &out, nil
}

// FindBy returns applicants whose field equals value exactly, oldest first.
func (s *InMemoryStore) FindBy(_ context.Context, field models.IdentityField, value string) ([]models.Applicant, error) {
	if !field.IsValid() {
		return nil, fmt.Errorf("unsupported identity field %q", field)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Applicant
	for _, a := range s.applicants {
		if a.IdentityValue(field) == value {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, a *models.Applicant) error {
	if a == nil {
		return fmt.Errorf("applicant is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.applicants[a.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.applicants[a.ID] = a.Clone()
	return nil
}

// CreateIfIdentityAvailable creates the applicant unless another registration
// made through this method already claimed the same email (case-insensitive).
func (s *InMemoryStore) CreateIfIdentityAvailable(_ context.Context, a *models.Applicant) error {
	if a == nil {
		return fmt.Errorf("applicant is required")
	}
	key := emailKey(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.identities[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.applicants[a.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.identities[key] = a.ID
	s.applicants[a.ID] = a.Clone()
	return nil
}

// Update applies the non-nil fields of patch and bumps the version.
// Returns sentinel.ErrConflict when patch.ExpectedVersion is set and stale.
func (s *InMemoryStore) Update(_ context.Context, id string, patch models.Patch) (*models.Applicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applicants[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if patch.ExpectedVersion != 0 && patch.ExpectedVersion != a.Version {
		return nil, sentinel.ErrConflict
	}
	if patch.FullName != nil {
		a.FullName = *patch.FullName
	}
	if patch.Email != nil {
		a.Email = *patch.Email
	}
	if patch.Phone != nil {
		a.Phone = *patch.Phone
	}
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.Verification != nil {
		a.Verification = patch.Verification.Clone()
	}
	if !patch.UpdatedAt.IsZero() {
		a.UpdatedAt = patch.UpdatedAt
	}
	a.Version++
	s.applicants[id] = a
	out := a.Clone()
	return &out, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, a := range s.applicants {
		counts[a.Status]++
	}
	return counts, nil
}

// CountLocked counts applicants whose lock clock is after now.
func (s *InMemoryStore) CountLocked(_ context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.applicants {
		if until := lockedUntil(a); until != nil && until.After(now) {
			n++
		}
	}
	return n, nil
}

func lockedUntil(a models.Applicant) *time.Time {
	if a.Verification == nil {
		return nil
	}
	return a.Verification.Step3.LockedUntil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
