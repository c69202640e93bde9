package handler

import (
	"time"

	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/models"
	"irdesk/internal/verification/workflow"
	"irdesk/pkg/platform/audit"
)

// ApplicantResponse is the public view of an applicant. The one-time code
// itself is never returned.
type ApplicantResponse struct {
	ID           string                `json:"id"`
	FullName     string                `json:"full_name"`
	Email        string                `json:"email"`
	Phone        string                `json:"phone,omitempty"`
	Status       string                `json:"status"`
	State        string                `json:"state"`
	Lock         *LockResponse         `json:"lock,omitempty"`
	Verification *VerificationResponse `json:"verification,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type LockResponse struct {
	LockedUntil   time.Time `json:"locked_until"`
	RemainingDays int       `json:"remaining_days"`
}

type VerificationResponse struct {
	WantsVerification *bool               `json:"wants_verification,omitempty"`
	Claim             *models.Claim       `json:"claim,omitempty"`
	AutoMatch         models.AutoMatch    `json:"auto_match"`
	ManualReview      models.ManualReview `json:"manual_review"`
	Code              *CodeResponse       `json:"code,omitempty"`
	ManualSendUsed    bool                `json:"manual_send_used"`
}

type CodeResponse struct {
	Channel           string     `json:"channel"`
	IssuedAt          time.Time  `json:"issued_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AttemptsRemaining int        `json:"attempts_remaining"`
	InvalidatedAt     *time.Time `json:"invalidated_at,omitempty"`
	ManuallySentAt    *time.Time `json:"manually_sent_at,omitempty"`
	ResendAvailableAt *time.Time `json:"resend_available_at,omitempty"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
}

// TransitionResponse wraps the applicant after a state-changing call.
// Applied is false when the request was accepted but changed nothing.
type TransitionResponse struct {
	Applied   bool               `json:"applied"`
	Applicant *ApplicantResponse `json:"applicant"`
}

type VerifyCodeResponse struct {
	Success bool `json:"success"`
}

type DeadlineResponse struct {
	Active        bool       `json:"active"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	DaysRemaining int        `json:"days_remaining"`
}

// LockedAccountResponse is the 423 body for a blocked registration.
type LockedAccountResponse struct {
	Error            string    `json:"error"`
	ErrorDescription string    `json:"error_description"`
	Field            string    `json:"field"`
	LockedUntil      time.Time `json:"locked_until"`
	RemainingDays    int       `json:"remaining_days"`
}

type AuditEventResponse struct {
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Device    string    `json:"device,omitempty"`
}

type AuditTrailResponse struct {
	ApplicantID string               `json:"applicant_id"`
	Events      []AuditEventResponse `json:"events"`
}

// FromApplicant renders an applicant as seen at time now.
func FromApplicant(a *models.Applicant, now time.Time) *ApplicantResponse {
	resp := &ApplicantResponse{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		Phone:     a.Phone,
		Status:    string(a.Status),
		State:     string(workflow.Derive(a.Verification, now)),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if info, locked := workflow.Lock(*a, now); locked {
		resp.Lock = &LockResponse{LockedUntil: info.LockedUntil, RemainingDays: info.RemainingDays}
	}
	if s := a.Verification; s != nil {
		v := &VerificationResponse{
			WantsVerification: s.Step1.WantsVerification,
			Claim:             s.Step2,
			AutoMatch:         s.Step3,
			ManualReview:      s.Step4,
		}
		if c := s.Step5; c != nil && c.ManuallySentAt != nil {
			v.ManualSendUsed = true
		}
		if c := s.Step5; c != nil && c.Code != "" {
			v.Code = &CodeResponse{
				Channel:           string(c.Channel),
				IssuedAt:          c.IssuedAt,
				ExpiresAt:         c.ExpiresAt,
				AttemptsRemaining: c.AttemptsRemaining,
				InvalidatedAt:     c.InvalidatedAt,
				ManuallySentAt:    c.ManuallySentAt,
				ResendAvailableAt: c.ResendAvailableAt,
				VerifiedAt:        c.VerifiedAt,
			}
		}
		resp.Verification = v
	}
	return resp
}

func FromLockedAccount(err *guard.LockedAccountError) *LockedAccountResponse {
	return &LockedAccountResponse{
		Error:            "account_locked",
		ErrorDescription: "This account is temporarily locked. Try again later.",
		Field:            string(err.Field),
		LockedUntil:      err.LockedUntil,
		RemainingDays:    err.RemainingDays,
	}
}

func FromDeadline(info workflow.DeadlineInfo, ok bool) *DeadlineResponse {
	if !ok {
		return &DeadlineResponse{}
	}
	deadline := info.Deadline
	return &DeadlineResponse{Active: true, Deadline: &deadline, DaysRemaining: info.DaysRemaining}
}

func FromAuditEvents(applicantID string, events []audit.Event) *AuditTrailResponse {
	out := &AuditTrailResponse{ApplicantID: applicantID, Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, AuditEventResponse{
			Action:    e.Action,
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			ActorID:   e.ActorID,
			Decision:  e.Decision,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			ClientIP:  e.ClientIP,
			Device:    e.Device,
		})
	}
	return out
}
