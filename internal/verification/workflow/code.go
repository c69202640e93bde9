package workflow

import (
	"crypto/subtle"
	"strings"
	"time"

	"irdesk/internal/verification/code"
	"irdesk/internal/verification/models"
)

// SendCodeInput parameterizes code issuance. Code is generated by the caller
// (see code.Generate) so issuance stays deterministic.
type SendCodeInput struct {
	Channel   models.Channel
	LoginLink string
	Manual    bool
	Code      string
}

// SendVerificationCode issues a one-time code (step 5).
//
// Requires both step 3 and step 4 to report MATCH. The manual trigger works at
// most once per applicant. Returns a nil message when nothing was issued, which
// includes an applicant with no address on the chosen channel. Delivery of a
// non-nil message is the caller's job and its failure does not undo issuance.
func SendVerificationCode(a models.Applicant, in SendCodeInput, now time.Time) (models.Applicant, *models.OutboundMessage) {
	s := a.Verification
	if blocked(s, now) || s.Step2 == nil {
		return a, nil
	}
	if !isMatch(s.Step3.LastResult) || !isMatch(s.Step4.LastResult) {
		return a, nil
	}
	if in.Manual && s.Step5 != nil && s.Step5.ManuallySentAt != nil {
		return a, nil
	}
	if !code.IsWellFormed(in.Code) {
		return a, nil
	}
	channel := in.Channel
	if channel == "" {
		channel = models.ChannelEmail
	}
	to := s.Step1.Email
	if channel == models.ChannelSMS {
		to = s.Step1.Phone
	}
	if to == "" {
		return a, nil
	}

	out := a.Clone()
	s = out.Verification
	issued := &models.OneTimeCode{
		Channel:           channel,
		Code:              in.Code,
		IssuedAt:          now,
		ExpiresAt:         now.Add(CodeValidity),
		AttemptsRemaining: CodeAttempts,
	}
	if prev := s.Step5; prev != nil {
		issued.ManuallySentAt = prev.ManuallySentAt
		issued.ResendAvailableAt = prev.ResendAvailableAt
	}
	if in.Manual {
		issued.ManuallySentAt = ptr(now)
	}
	s.Step5 = issued

	rendered := code.Render(code.RenderInput{
		FullName:  s.Step1.FullName,
		Code:      issued.Code,
		ExpiresAt: issued.ExpiresAt,
		LoginLink: in.LoginLink,
		SMS:       channel == models.ChannelSMS,
	})
	msg := &models.OutboundMessage{
		ApplicantID: a.ID,
		Channel:     channel,
		To:          to,
		Subject:     rendered.Subject,
		Body:        rendered.Body,
	}
	return touch(out, now), msg
}

// ResendVerificationCode re-issues a code on the previous code's channel, at most
// once per ResendCooldown.
func ResendVerificationCode(a models.Applicant, loginLink, newCode string, now time.Time) (models.Applicant, *models.OutboundMessage) {
	s := a.Verification
	if s == nil || lockedAt(s, now) || s.Step5 == nil || s.Step5.Code == "" {
		return a, nil
	}
	if next := s.Step5.ResendAvailableAt; next != nil && now.Before(*next) {
		return a, nil
	}
	out, msg := SendVerificationCode(a, SendCodeInput{
		Channel:   s.Step5.Channel,
		LoginLink: loginLink,
		Code:      newCode,
	}, now)
	if msg == nil {
		return a, nil
	}
	out.Verification.Step5.ResendAvailableAt = ptr(now.Add(ResendCooldown))
	return out, msg
}

// VerifyCode checks an entered code.
//
// A success burns the code (no attempts left) and approves the applicant. A wrong
// entry costs one attempt; the last one stamps InvalidatedAt. Missing, expired,
// invalidated or exhausted codes fail without any state change.
func VerifyCode(a models.Applicant, entered string, now time.Time) (models.Applicant, bool) {
	s := a.Verification
	if s == nil || lockedAt(s, now) || verified(s) {
		return a, false
	}
	c := s.Step5
	if c == nil || c.Code == "" {
		return a, false
	}
	if now.After(c.ExpiresAt) || c.InvalidatedAt != nil || c.AttemptsRemaining <= 0 {
		return a, false
	}

	out := a.Clone()
	c = out.Verification.Step5
	entered = strings.TrimSpace(entered)
	if subtle.ConstantTimeCompare([]byte(entered), []byte(c.Code)) == 1 {
		c.AttemptsRemaining = 0
		c.VerifiedAt = ptr(now)
		return touch(out, now), true
	}

	c.AttemptsRemaining--
	if c.AttemptsRemaining <= 0 {
		c.AttemptsRemaining = 0
		c.InvalidatedAt = ptr(now)
	}
	return touch(out, now), false
}

// DeadlineInfo is the reminder shown after IRO approval.
type DeadlineInfo struct {
	Deadline      time.Time
	DaysRemaining int
}

// VerificationDeadlineInfo returns the days left to confirm a code after IRO approval.
// It reports nothing once a code has been sent or the deadline has passed. Nothing
// in the workflow acts on the deadline; it is a reminder only.
func VerificationDeadlineInfo(a models.Applicant, now time.Time) (DeadlineInfo, bool) {
	s := a.Verification
	if s == nil || a.Status != models.StatusPending {
		return DeadlineInfo{}, false
	}
	if !isMatch(s.Step4.LastResult) || s.Step4.VerificationDeadlineAt == nil {
		return DeadlineInfo{}, false
	}
	if s.Step5 != nil && s.Step5.Code != "" {
		return DeadlineInfo{}, false
	}
	deadline := *s.Step4.VerificationDeadlineAt
	if !now.Before(deadline) {
		return DeadlineInfo{}, false
	}
	return DeadlineInfo{Deadline: deadline, DaysRemaining: ceilDays(deadline.Sub(now))}, true
}

func isMatch(r *models.MatchResult) bool {
	return r != nil && *r == models.MatchResultMatch
}
