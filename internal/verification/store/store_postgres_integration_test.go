//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"irdesk/internal/verification/models"
	"irdesk/internal/verification/store"
	"irdesk/internal/verification/workflow"
	"irdesk/pkg/platform/sentinel"
	"irdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	err := s.postgres.TruncateTables(context.Background(), "applicant_identities", "applicants")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newApplicant(email string) *models.Applicant {
	a, err := models.NewApplicant("Maria Santos", email, "+639171234567", s.now)
	s.Require().NoError(err)
	return a
}

func (s *PostgresStoreSuite) TestVerificationStateRoundTrip() {
	ctx := context.Background()
	a := s.newApplicant("maria@example.com")
	s.Require().NoError(s.store.Create(ctx, a))

	next := workflow.SetWantsVerification(*a, true, s.now)
	next = workflow.SubmitShareholdingInfo(next, workflow.ClaimInput{ShareholdingsID: "201234", CompanyName: "BDO UNIBANK INC."}, s.now)
	for i := 0; i < workflow.FailureThreshold; i++ {
		next = workflow.RunAutoVerification(next, nil, s.now)
	}

	updated, err := s.store.Update(ctx, a.ID, models.PatchFromTransition(*a, next))
	s.Require().NoError(err)
	s.Equal(2, updated.Version)

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Verification)
	s.Require().NotNil(found.Verification.Step3.LockedUntil)
	s.True(found.Verification.Step3.LockedUntil.Equal(s.now.Add(workflow.LockoutDuration)))
	s.Equal("201234", found.Verification.Step2.ShareholdingsID)
	s.Equal(models.StatusFurtherInfo, found.Status)

	n, err := s.store.CountLocked(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresStoreSuite) TestFindBy() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newApplicant("maria@example.com")))
	s.Require().NoError(s.store.Create(ctx, s.newApplicant("other@example.com")))

	rows, err := s.store.FindBy(ctx, models.FieldPhone, "+639171234567")
	s.Require().NoError(err)
	s.Len(rows, 2)

	rows, err = s.store.FindBy(ctx, models.FieldEmail, "maria@example.com")
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *PostgresStoreSuite) TestUpdateVersionConflict() {
	ctx := context.Background()
	a := s.newApplicant("maria@example.com")
	s.Require().NoError(s.store.Create(ctx, a))

	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := models.StatusFurtherInfo
			_, err := s.store.Update(ctx, a.ID, models.Patch{ExpectedVersion: 1, Status: &status})
			switch {
			case err == nil:
				ok.Add(1)
			case err == sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), ok.Load(), "exactly one writer wins")
	s.Equal(int32(9), conflicts.Load())

	_, err := s.store.Update(ctx, "missing", models.Patch{})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCreateIfIdentityAvailable() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfIdentityAvailable(ctx, s.newApplicant("maria@example.com")))

	err := s.store.CreateIfIdentityAvailable(ctx, s.newApplicant("Maria@Example.com"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	rows, err := s.store.FindBy(ctx, models.FieldEmail, "Maria@Example.com")
	s.Require().NoError(err)
	s.Empty(rows, "losing registration must be rolled back")
}
