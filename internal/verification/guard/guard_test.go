package guard_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/models"
	"irdesk/internal/verification/store"
	"irdesk/internal/verification/workflow"
	dErrors "irdesk/pkg/domain-errors"
)

type failingFinder struct{}

func (failingFinder) FindBy(context.Context, models.IdentityField, string) ([]models.Applicant, error) {
	return nil, errors.New("db down")
}

type GuardSuite struct {
	suite.Suite
	store *store.InMemoryStore
	now   time.Time
	guard *guard.Guard
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.guard = guard.New(s.store, guard.WithClock(func() time.Time { return s.now }))
}

// seed stores an applicant; when rejectedAt is set it is locked by three IRO rejections.
func (s *GuardSuite) seed(name, email, phone string, rejectedAt *time.Time) models.Applicant {
	a, err := models.NewApplicant(name, email, phone, s.now)
	s.Require().NoError(err)
	out := *a
	if rejectedAt != nil {
		out = workflow.SetWantsVerification(out, true, *rejectedAt)
		out = workflow.SubmitShareholdingInfo(out, workflow.ClaimInput{ShareholdingsID: "201234", CompanyName: "BDO UNIBANK INC."}, *rejectedAt)
		for i := 0; i < workflow.FailureThreshold; i++ {
			out = workflow.RecordManualReview(out, false, "iro-1", *rejectedAt)
		}
	}
	s.Require().NoError(s.store.Create(context.Background(), &out))
	return out
}

func (s *GuardSuite) TestLockedEmailBlocksRegistration() {
	third := s.now.Add(-2 * time.Hour)
	s.seed("Maria Santos", "maria@example.com", "", &third)

	err := s.guard.Check(context.Background(), guard.Input{Email: "maria@example.com", FullName: "Someone Else"})
	s.Require().Error(err)

	var locked *guard.LockedAccountError
	s.Require().ErrorAs(err, &locked)
	s.Equal(models.FieldEmail, locked.Field)
	s.Equal(third.Add(7*24*time.Hour), locked.LockedUntil)
	s.GreaterOrEqual(locked.RemainingDays, 1)
	s.Equal(7, locked.RemainingDays)
	s.True(dErrors.HasCode(err, dErrors.CodeLocked))
}

func (s *GuardSuite) TestRemainingDaysRoundUp() {
	lockedAt := s.now.Add(-6*24*time.Hour - 23*time.Hour)
	s.seed("Maria Santos", "maria@example.com", "", &lockedAt)

	err := s.guard.Check(context.Background(), guard.Input{Email: "maria@example.com"})
	var locked *guard.LockedAccountError
	s.Require().ErrorAs(err, &locked)
	s.Equal(1, locked.RemainingDays)
}

func (s *GuardSuite) TestLowercaseSpellingIsQueried() {
	third := s.now.Add(-time.Hour)
	s.seed("Maria Santos", "maria@example.com", "", &third)

	err := s.guard.Check(context.Background(), guard.Input{Email: "  Maria@Example.com "})
	var locked *guard.LockedAccountError
	s.Require().ErrorAs(err, &locked)
	s.Equal(models.FieldEmail, locked.Field)
}

func (s *GuardSuite) TestMatchedFieldPriority() {
	third := s.now.Add(-time.Hour)
	s.seed("Maria Santos", "maria@example.com", "+639171234567", &third)

	s.Run("phone when email differs", func() {
		err := s.guard.Check(context.Background(), guard.Input{Email: "new@example.com", Phone: "+639171234567", FullName: "Maria Santos"})
		var locked *guard.LockedAccountError
		s.Require().ErrorAs(err, &locked)
		s.Equal(models.FieldPhone, locked.Field)
	})

	s.Run("name as last resort", func() {
		err := s.guard.Check(context.Background(), guard.Input{Email: "new@example.com", FullName: "Maria  Santos"})
		var locked *guard.LockedAccountError
		s.Require().ErrorAs(err, &locked)
		s.Equal(models.FieldFullName, locked.Field)
	})
}

func (s *GuardSuite) TestPasses() {
	s.Run("unlocked duplicate", func() {
		s.seed("Jose Cruz", "jose@example.com", "", nil)
		s.NoError(s.guard.Check(context.Background(), guard.Input{Email: "jose@example.com"}))
	})

	s.Run("lapsed lock", func() {
		longAgo := s.now.Add(-8 * 24 * time.Hour)
		s.seed("Ana Reyes", "ana@example.com", "", &longAgo)
		s.NoError(s.guard.Check(context.Background(), guard.Input{Email: "ana@example.com"}))
	})

	s.Run("no match", func() {
		s.NoError(s.guard.Check(context.Background(), guard.Input{Email: "nobody@example.com"}))
	})
}

func (s *GuardSuite) TestLookupFailurePropagates() {
	g := guard.New(failingFinder{})
	err := g.Check(context.Background(), guard.Input{Email: "maria@example.com"})
	s.Require().Error(err)
	var locked *guard.LockedAccountError
	s.False(errors.As(err, &locked))
	s.Contains(err.Error(), "db down")
}
