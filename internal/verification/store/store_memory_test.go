package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"irdesk/internal/verification/models"
	"irdesk/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newApplicant(name, email string) *models.Applicant {
	a, err := models.NewApplicant(name, email, "", s.now)
	s.Require().NoError(err)
	return a
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	a := s.newApplicant("Maria Santos", "maria@example.com")
	s.Require().NoError(s.store.Create(ctx, a))

	s.Run("find by id returns a copy", func() {
		found, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Email, found.Email)

		found.Email = "changed@example.com"
		again, err := s.store.FindByID(ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("maria@example.com", again.Email)
	})

	s.Run("missing id", func() {
		_, err := s.store.FindByID(ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate id", func() {
		s.ErrorIs(s.store.Create(ctx, a), sentinel.ErrAlreadyUsed)
	})

	s.Run("find by field is exact", func() {
		rows, err := s.store.FindBy(ctx, models.FieldEmail, "maria@example.com")
		s.Require().NoError(err)
		s.Len(rows, 1)

		rows, err = s.store.FindBy(ctx, models.FieldEmail, "MARIA@example.com")
		s.Require().NoError(err)
		s.Empty(rows)
	})

	s.Run("unsupported field", func() {
		_, err := s.store.FindBy(ctx, models.IdentityField("address"), "x")
		s.Error(err)
	})
}

func (s *InMemoryStoreSuite) TestCreateIfIdentityAvailable() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfIdentityAvailable(ctx, s.newApplicant("Maria Santos", "maria@example.com")))

	err := s.store.CreateIfIdentityAvailable(ctx, s.newApplicant("Maria Santos", " MARIA@example.com "))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.NoError(s.store.CreateIfIdentityAvailable(ctx, s.newApplicant("Jose Cruz", "jose@example.com")))
}

func (s *InMemoryStoreSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("applies only set fields and bumps version", func() {
		a := s.newApplicant("Maria Santos", "maria@example.com")
		s.Require().NoError(s.store.Create(ctx, a))

		status := models.StatusFurtherInfo
		later := s.now.Add(time.Hour)
		updated, err := s.store.Update(ctx, a.ID, models.Patch{
			ExpectedVersion: 1,
			Status:          &status,
			UpdatedAt:       later,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusFurtherInfo, updated.Status)
		s.Equal("Maria Santos", updated.FullName)
		s.Equal(2, updated.Version)
		s.Equal(later, updated.UpdatedAt)
	})

	s.Run("stale version conflicts", func() {
		a := s.newApplicant("Jose Cruz", "jose@example.com")
		s.Require().NoError(s.store.Create(ctx, a))
		_, err := s.store.Update(ctx, a.ID, models.Patch{ExpectedVersion: 1})
		s.Require().NoError(err)

		_, err = s.store.Update(ctx, a.ID, models.Patch{ExpectedVersion: 1})
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing applicant", func() {
		_, err := s.store.Update(ctx, "nope", models.Patch{})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestCounts() {
	ctx := context.Background()
	locked := s.newApplicant("Locked One", "locked@example.com")
	until := s.now.Add(48 * time.Hour)
	locked.Status = models.StatusFurtherInfo
	locked.Verification = &models.VerificationState{Step3: models.AutoMatch{LockedUntil: &until, FailedAttempts: 3}}
	lapsed := s.newApplicant("Lapsed One", "lapsed@example.com")
	past := s.now.Add(-time.Hour)
	lapsed.Verification = &models.VerificationState{Step3: models.AutoMatch{LockedUntil: &past}}
	s.Require().NoError(s.store.Create(ctx, locked))
	s.Require().NoError(s.store.Create(ctx, lapsed))
	s.Require().NoError(s.store.Create(ctx, s.newApplicant("Fresh One", "fresh@example.com")))

	counts, err := s.store.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(2, counts[models.StatusPending])
	s.Equal(1, counts[models.StatusFurtherInfo])

	n, err := s.store.CountLocked(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, n)
}
