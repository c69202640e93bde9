// Package audit records who did what to which applicant. Events are transport-agnostic
// so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: registrations,
	// IRO decisions, completed verifications.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers lockouts and blocked registrations.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity such as code sends.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by services after a state change is persisted.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	ApplicantID string
	Action      string
	// ActorID is the IRO who acted, when the applicant did not act themselves.
	ActorID   string
	Decision  string
	Reason    string
	RequestID string
	ClientIP  string
	// Device is a summary of the client User-Agent.
	Device string
}

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventApplicantRegistered  AuditEvent = "applicant_registered"
	EventRegistrationBlocked  AuditEvent = "registration_blocked"
	EventVerificationIntent   AuditEvent = "verification_intent_recorded"
	EventClaimSubmitted       AuditEvent = "shareholding_claim_submitted"
	EventAutoMatchRun         AuditEvent = "auto_match_run"
	EventManualReviewRecorded AuditEvent = "manual_review_recorded"
	EventApplicantLocked      AuditEvent = "applicant_locked"
	EventCodeIssued           AuditEvent = "verification_code_issued"
	EventCodeResent           AuditEvent = "verification_code_resent"
	EventCodeVerified         AuditEvent = "verification_code_verified"
	EventCodeRejected         AuditEvent = "verification_code_rejected"
	EventNotificationFailed   AuditEvent = "notification_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicantRegistered:  CategoryCompliance,
	EventVerificationIntent:   CategoryCompliance,
	EventClaimSubmitted:       CategoryCompliance,
	EventManualReviewRecorded: CategoryCompliance,
	EventCodeVerified:         CategoryCompliance,

	EventRegistrationBlocked: CategorySecurity,
	EventApplicantLocked:     CategorySecurity,
	EventCodeRejected:        CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApplicant(ctx context.Context, applicantID string) ([]Event, error)
}
