//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "irdesk/pkg/platform/audit"
	"irdesk/pkg/platform/audit/store/postgres"
	txcontext "irdesk/pkg/platform/tx"
	"irdesk/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: t0, ApplicantID: "app-1", Action: string(audit.EventApplicantRegistered),
		RequestID: "req-1", ClientIP: "203.0.113.5", Device: "Firefox 121.0 on Linux x86_64",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: t0.Add(time.Minute), ApplicantID: "app-1", Action: string(audit.EventManualReviewRecorded),
		ActorID: "iro-7", Decision: "MATCH",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: t0, ApplicantID: "app-2", Action: string(audit.EventApplicantRegistered),
	}))

	events, err := s.store.ListByApplicant(ctx, "app-1")
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	s.Equal(audit.CategoryCompliance, events[0].Category, "category is derived from the action")
	s.Equal("203.0.113.5", events[0].ClientIP)
	s.Equal("Firefox 121.0 on Linux x86_64", events[0].Device)
	s.True(t0.Equal(events[0].Timestamp))
	s.Equal("iro-7", events[1].ActorID)
	s.Equal("MATCH", events[1].Decision)
}

func (s *AuditStoreSuite) TestAppendJoinsAmbientTransaction() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Append(txcontext.WithTx(ctx, tx), audit.Event{
		Timestamp: time.Now().UTC(), ApplicantID: "app-tx", Action: string(audit.EventApplicantLocked),
	}))
	s.Require().NoError(tx.Rollback())

	events, err := s.store.ListByApplicant(ctx, "app-tx")
	s.Require().NoError(err)
	s.Empty(events, "rolled back events are not visible")
}
