package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "irdesk/pkg/domain-errors"
)

// Status is the coarse applicant status shown to back-office users.
// It is always the projection of the verification state and is written
// only by workflow transitions.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusFurtherInfo Status = "FURTHER_INFO"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusUnverified  Status = "UNVERIFIED"
)

// AllStatuses lists every coarse status, in display order.
var AllStatuses = []Status{StatusPending, StatusFurtherInfo, StatusApproved, StatusRejected, StatusUnverified}

// MatchResult is the outcome of an automated or manual registry check.
type MatchResult string

const (
	MatchResultMatch   MatchResult = "MATCH"
	MatchResultNoMatch MatchResult = "NO_MATCH"
)

// Channel is the delivery channel of a one-time code.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// ParseChannel validates a channel name, accepting any case.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ChannelEmail, ChannelSMS:
		return c, nil
	case "":
		return "", dErrors.New(dErrors.CodeValidation, "channel is required")
	}
	return "", dErrors.New(dErrors.CodeValidation, "channel must be EMAIL or SMS")
}

// IdentityField names an applicant identifier used for duplicate lookups.
type IdentityField string

const (
	FieldEmail    IdentityField = "email"
	FieldPhone    IdentityField = "phone"
	FieldFullName IdentityField = "full_name"
)

// IsValid checks if the field is one of the queryable identity fields.
func (f IdentityField) IsValid() bool {
	switch f {
	case FieldEmail, FieldPhone, FieldFullName:
		return true
	}
	return false
}

// Intake is step 1: identity captured at registration plus the opt-in decision.
type Intake struct {
	FullName          string `json:"full_name"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	WantsVerification *bool  `json:"wants_verification,omitempty"`
}

// Claim is step 2: the shareholding the applicant says they hold.
// Country is display-only and never used for matching.
type Claim struct {
	ShareholdingsID string    `json:"shareholdings_id"`
	CompanyName     string    `json:"company_name"`
	Country         string    `json:"country,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// AutoMatch is step 3. LockedUntil is the single lock clock for the whole
// workflow: manual review failures write into it too.
type AutoMatch struct {
	LastResult     *MatchResult `json:"last_result,omitempty"`
	FailedAttempts int          `json:"failed_attempts"`
	LockedUntil    *time.Time   `json:"locked_until,omitempty"`
	LastCheckedAt  *time.Time   `json:"last_checked_at,omitempty"`
}

// ManualReview is step 4, recorded by an Investor Relations Officer.
type ManualReview struct {
	LastResult             *MatchResult `json:"last_result,omitempty"`
	FailedAttempts         int          `json:"failed_attempts"`
	LastReviewedAt         *time.Time   `json:"last_reviewed_at,omitempty"`
	ReviewedBy             string       `json:"reviewed_by,omitempty"`
	VerificationDeadlineAt *time.Time   `json:"verification_deadline_at,omitempty"`
}

// OneTimeCode is step 5.
type OneTimeCode struct {
	Channel           Channel    `json:"channel"`
	Code              string     `json:"code"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	InvalidatedAt     *time.Time `json:"invalidated_at,omitempty"`
	ManuallySentAt    *time.Time `json:"manually_sent_at,omitempty"`
	ResendAvailableAt *time.Time `json:"resend_available_at,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
}

// VerificationState holds the independent step records of the workflow.
type VerificationState struct {
	Step1 Intake       `json:"step1"`
	Step2 *Claim       `json:"step2,omitempty"`
	Step3 AutoMatch    `json:"step3"`
	Step4 ManualReview `json:"step4"`
	Step5 *OneTimeCode `json:"step5,omitempty"`
}

// Clone returns a deep copy so transitions never share pointers with their input.
func (s *VerificationState) Clone() *VerificationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Step1.WantsVerification = cloneBool(s.Step1.WantsVerification)
	if s.Step2 != nil {
		claim := *s.Step2
		out.Step2 = &claim
	}
	out.Step3.LastResult = cloneResult(s.Step3.LastResult)
	out.Step3.LockedUntil = cloneTime(s.Step3.LockedUntil)
	out.Step3.LastCheckedAt = cloneTime(s.Step3.LastCheckedAt)
	out.Step4.LastResult = cloneResult(s.Step4.LastResult)
	out.Step4.LastReviewedAt = cloneTime(s.Step4.LastReviewedAt)
	out.Step4.VerificationDeadlineAt = cloneTime(s.Step4.VerificationDeadlineAt)
	if s.Step5 != nil {
		c := *s.Step5
		c.InvalidatedAt = cloneTime(s.Step5.InvalidatedAt)
		c.ManuallySentAt = cloneTime(s.Step5.ManuallySentAt)
		c.ResendAvailableAt = cloneTime(s.Step5.ResendAvailableAt)
		c.VerifiedAt = cloneTime(s.Step5.VerifiedAt)
		out.Step5 = &c
	}
	return &out
}

// Applicant is a person pursuing verified-investor status.
type Applicant struct {
	ID           string             `json:"id"`
	FullName     string             `json:"full_name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone,omitempty"`
	Status       Status             `json:"status"`
	Verification *VerificationState `json:"verification,omitempty"`
	Version      int                `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewApplicant creates an Applicant with domain invariant validation.
// The verification state is left absent; the workflow creates it lazily.
// Email is stored lower-cased so every identity lookup sees one spelling.
func NewApplicant(fullName, email, phone string, now time.Time) (*Applicant, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email cannot be empty")
	}
	if !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email must contain @")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "full name cannot be empty")
	}
	return &Applicant{
		ID:        uuid.NewString(),
		FullName:  fullName,
		Email:     email,
		Phone:     phone,
		Status:    StatusPending,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Clone returns a deep copy of the applicant.
func (a Applicant) Clone() Applicant {
	a.Verification = a.Verification.Clone()
	return a
}

// IdentityValue returns the stored value of an identity field.
func (a Applicant) IdentityValue(field IdentityField) string {
	switch field {
	case FieldEmail:
		return a.Email
	case FieldPhone:
		return a.Phone
	case FieldFullName:
		return a.FullName
	}
	return ""
}

// Patch is a partial update. Nil fields are not written; stores must never
// persist an absent field as an explicit empty value.
type Patch struct {
	// ExpectedVersion guards against lost updates; zero disables the check.
	ExpectedVersion int
	FullName        *string
	Email           *string
	Phone           *string
	Status          *Status
	Verification    *VerificationState
	UpdatedAt       time.Time
}

// PatchFromTransition builds the patch persisting a workflow transition result.
func PatchFromTransition(before, after Applicant) Patch {
	status := after.Status
	return Patch{
		ExpectedVersion: before.Version,
		Status:          &status,
		Verification:    after.Verification.Clone(),
		UpdatedAt:       after.UpdatedAt,
	}
}

// OutboundMessage is a rendered one-time-code message produced by a transition.
// Delivery is the caller's concern.
type OutboundMessage struct {
	ApplicantID string
	Channel     Channel
	To          string
	Subject     string
	Body        string
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneResult(r *MatchResult) *MatchResult {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}
