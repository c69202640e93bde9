package workflow

import (
	"strings"
	"time"

	regmodels "irdesk/internal/registry/models"
	"irdesk/internal/verification/models"
)

// SetWantsVerification records the step 1 opt-in decision.
//
// Declining clears the claim and any code and zeroes both failure counters so a
// later opt-in starts clean. The lock clock survives: declining is not a way out of
// an active lockout. So does a spent manual trigger.
func SetWantsVerification(a models.Applicant, wants bool, now time.Time) models.Applicant {
	out := Ensure(a)
	s := out.Verification
	s.Step1.WantsVerification = ptr(wants)
	if !wants {
		s.Step2 = nil
		s.Step5 = manualMarker(s.Step5)
		s.Step3 = models.AutoMatch{LockedUntil: s.Step3.LockedUntil}
		s.Step4 = models.ManualReview{}
	}
	return touch(out, now)
}

// ClaimInput is the shareholding an applicant declares at step 2.
type ClaimInput struct {
	ShareholdingsID string
	CompanyName     string
	Country         string
}

// SubmitShareholdingInfo records a step 2 claim.
//
// Matching is not run here; callers with a registry chain RunAutoVerification.
// A new claim discards the outcomes of the previous one (step 3 and 4 results,
// deadline, unconfirmed code) while failure counters and the lock clock carry over.
func SubmitShareholdingInfo(a models.Applicant, in ClaimInput, now time.Time) models.Applicant {
	ensured := Ensure(a)
	if blocked(ensured.Verification, now) {
		return a
	}
	s := ensured.Verification
	s.Step2 = &models.Claim{
		ShareholdingsID: strings.TrimSpace(in.ShareholdingsID),
		CompanyName:     strings.TrimSpace(in.CompanyName),
		Country:         strings.TrimSpace(in.Country),
		SubmittedAt:     now,
	}
	s.Step3.LastResult = nil
	s.Step4.LastResult = nil
	s.Step4.VerificationDeadlineAt = nil
	withdrawCode(s)
	return touch(ensured, now)
}

// RunAutoVerification matches the step 2 claim against registry records (step 3).
//
// Both the id and the company name must equal a record under normalization;
// the country is never compared. A match resets the failure counter and clears
// any lapsed lock. A miss increments the counter and, at the threshold, locks
// the applicant for LockoutDuration.
func RunAutoVerification(a models.Applicant, holders []regmodels.Holder, now time.Time) models.Applicant {
	if blocked(a.Verification, now) || a.Verification.Step2 == nil {
		return a
	}
	out := a.Clone()
	s := out.Verification
	claim := s.Step2
	s.Step3.LastCheckedAt = ptr(now)

	if matchesAny(holders, claim) {
		s.Step3.LastResult = ptr(models.MatchResultMatch)
		s.Step3.FailedAttempts = 0
		s.Step3.LockedUntil = nil
		return touch(out, now)
	}

	s.Step3.LastResult = ptr(models.MatchResultNoMatch)
	s.Step3.FailedAttempts++
	if s.Step3.FailedAttempts >= FailureThreshold {
		s.Step3.LockedUntil = ptr(now.Add(LockoutDuration))
	}
	withdrawCode(s)
	return touch(out, now)
}

// RecordManualReview records an IRO decision (step 4).
//
// Approval starts the VerificationDeadline reminder window; it does not approve the
// applicant, who still has to confirm a code. Rejections count towards the same
// threshold as automated misses and lock through step 3's LockedUntil.
func RecordManualReview(a models.Applicant, match bool, reviewerID string, now time.Time) models.Applicant {
	if blocked(a.Verification, now) || a.Verification.Step2 == nil {
		return a
	}
	out := a.Clone()
	s := out.Verification
	s.Step4.LastReviewedAt = ptr(now)
	s.Step4.ReviewedBy = reviewerID

	if match {
		s.Step4.LastResult = ptr(models.MatchResultMatch)
		s.Step4.FailedAttempts = 0
		s.Step4.VerificationDeadlineAt = ptr(now.Add(VerificationDeadline))
		return touch(out, now)
	}

	s.Step4.LastResult = ptr(models.MatchResultNoMatch)
	s.Step4.FailedAttempts++
	s.Step4.VerificationDeadlineAt = nil
	if s.Step4.FailedAttempts >= FailureThreshold {
		s.Step3.LockedUntil = ptr(now.Add(LockoutDuration))
	}
	withdrawCode(s)
	return touch(out, now)
}

func matchesAny(holders []regmodels.Holder, claim *models.Claim) bool {
	for _, h := range holders {
		if h.Matches(claim.ShareholdingsID, claim.CompanyName) {
			return true
		}
	}
	return false
}
