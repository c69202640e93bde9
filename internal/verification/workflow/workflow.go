// Package workflow implements the shareholder verification state machine.
//
// Every exported transition is a pure function: it takes an applicant value and the
// current time and returns a new applicant value. Inputs are never mutated. When a
// transition's preconditions do not hold it returns its input unchanged, so callers
// detect rejection by the absence of a state change rather than by an error.
//
// The coarse models.Status is recomputed from the derived State at the end of every
// transition and must not be written anywhere else.
package workflow

import (
	"reflect"
	"time"

	"irdesk/internal/verification/models"
)

const (
	// FailureThreshold is the number of failed matches (automated or manual) that locks an applicant.
	FailureThreshold = 3
	// LockoutDuration is how long a lock lasts once the threshold is reached.
	LockoutDuration = 7 * 24 * time.Hour
	// CodeValidity is the lifetime of a one-time code.
	CodeValidity = 168 * time.Hour
	// CodeAttempts is the number of verification attempts a code allows.
	CodeAttempts = 3
	// ResendCooldown is the minimum spacing between code resends.
	ResendCooldown = 60 * time.Second
	// VerificationDeadline is the reminder window after IRO approval.
	VerificationDeadline = 3 * 24 * time.Hour
)

const day = 24 * time.Hour

// State is the fine-grained workflow position, derived from VerificationState.
type State string

const (
	StateNotStarted          State = "NOT_STARTED"
	StateDeclined            State = "DECLINED"
	StateRegistrationPending State = "REGISTRATION_PENDING"
	StateSubmitted           State = "SUBMITTED"
	StateAutoMatched         State = "AUTO_MATCHED"
	StateAutoFailed          State = "AUTO_FAILED"
	StateLocked              State = "LOCKED"
	StateIROApproved         State = "IRO_APPROVED"
	StateIRORejected         State = "IRO_REJECTED"
	StateCodeSent            State = "CODE_SENT"
	StateCodeExpired         State = "CODE_EXPIRED"
	StateCodeInvalid         State = "CODE_INVALID"
	StateVerified            State = "VERIFIED"
)

// Derive computes the workflow state at time now.
func Derive(s *models.VerificationState, now time.Time) State {
	if s == nil {
		return StateNotStarted
	}
	if optedOut(s) {
		return StateDeclined
	}
	if s.Step1.WantsVerification == nil && s.Step2 == nil {
		return StateNotStarted
	}
	if lockedAt(s, now) {
		return StateLocked
	}
	if c := s.Step5; c != nil && c.Code != "" {
		switch {
		case c.VerifiedAt != nil:
			return StateVerified
		case c.InvalidatedAt != nil || c.AttemptsRemaining <= 0:
			return StateCodeInvalid
		case now.After(c.ExpiresAt):
			return StateCodeExpired
		default:
			return StateCodeSent
		}
	}
	if r := s.Step4.LastResult; r != nil {
		if *r == models.MatchResultMatch {
			return StateIROApproved
		}
		return StateIRORejected
	}
	if r := s.Step3.LastResult; r != nil {
		if *r == models.MatchResultMatch {
			return StateAutoMatched
		}
		return StateAutoFailed
	}
	if s.Step2 != nil {
		return StateSubmitted
	}
	return StateRegistrationPending
}

// ProjectStatus maps a workflow state to the coarse applicant status.
func ProjectStatus(st State) models.Status {
	switch st {
	case StateDeclined:
		return models.StatusUnverified
	case StateRegistrationPending, StateAutoFailed, StateLocked, StateIRORejected:
		return models.StatusFurtherInfo
	case StateVerified:
		return models.StatusApproved
	default:
		// NOT_STARTED, SUBMITTED, AUTO_MATCHED, IRO_APPROVED and the code-sent family.
		return models.StatusPending
	}
}

// StatusOf is the status an applicant must carry at time now.
func StatusOf(a models.Applicant, now time.Time) models.Status {
	return ProjectStatus(Derive(a.Verification, now))
}

// Ensure synthesizes the verification state from the applicant identity when absent.
// It is idempotent and never changes an existing state.
func Ensure(a models.Applicant) models.Applicant {
	out := a.Clone()
	if out.Verification == nil {
		out.Verification = &models.VerificationState{
			Step1: models.Intake{
				FullName: a.FullName,
				Email:    a.Email,
				Phone:    a.Phone,
			},
		}
	}
	return out
}

// IsLocked reports whether the applicant's lock clock is in the future.
func IsLocked(a models.Applicant, now time.Time) bool {
	return lockedAt(a.Verification, now)
}

// LockInfo describes an active lock.
type LockInfo struct {
	LockedUntil   time.Time
	RemainingDays int
}

// Lock returns the active lock, if any. RemainingDays is the ceiling of the
// remaining duration in days, so a lock with minutes left still reports 1.
func Lock(a models.Applicant, now time.Time) (LockInfo, bool) {
	if !IsLocked(a, now) {
		return LockInfo{}, false
	}
	until := *a.Verification.Step3.LockedUntil
	return LockInfo{LockedUntil: until, RemainingDays: ceilDays(until.Sub(now))}, true
}

// Changed reports whether a transition produced a different applicant.
func Changed(before, after models.Applicant) bool {
	return !reflect.DeepEqual(before, after)
}

func lockedAt(s *models.VerificationState, now time.Time) bool {
	return s != nil && s.Step3.LockedUntil != nil && now.Before(*s.Step3.LockedUntil)
}

func optedOut(s *models.VerificationState) bool {
	return s.Step1.WantsVerification != nil && !*s.Step1.WantsVerification
}

func verified(s *models.VerificationState) bool {
	return s.Step5 != nil && s.Step5.VerifiedAt != nil
}

// blocked holds the guards shared by every step 2–5 transition.
func blocked(s *models.VerificationState, now time.Time) bool {
	return s == nil || lockedAt(s, now) || optedOut(s) || verified(s)
}

// withdrawCode drops an unconfirmed code once the claim it was issued for
// is no longer fully matched. The manual-send marker is kept.
func withdrawCode(s *models.VerificationState) {
	if s.Step5 == nil || s.Step5.VerifiedAt != nil {
		return
	}
	s.Step5 = manualMarker(s.Step5)
}

// manualMarker reduces c to a code-less record of a spent manual trigger,
// or nil when the trigger was never used.
func manualMarker(c *models.OneTimeCode) *models.OneTimeCode {
	if c == nil || c.ManuallySentAt == nil {
		return nil
	}
	return &models.OneTimeCode{ManuallySentAt: ptr(*c.ManuallySentAt)}
}

func touch(a models.Applicant, now time.Time) models.Applicant {
	a.Status = StatusOf(a, now)
	a.UpdatedAt = now
	return a
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + day - 1) / day)
}

func ptr[T any](v T) *T {
	return &v
}
