// Package service orchestrates the verification workflow: it loads an applicant,
// applies a pure transition, persists the result and hands rendered codes to a
// notifier. Transition rules live in the workflow package.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"irdesk/internal/notification"
	regmodels "irdesk/internal/registry/models"
	"irdesk/internal/verification/code"
	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/metrics"
	"irdesk/internal/verification/models"
	"irdesk/internal/verification/workflow"
	dErrors "irdesk/pkg/domain-errors"
	"irdesk/pkg/platform/audit"
	"irdesk/pkg/platform/middleware/metadata"
	"irdesk/pkg/platform/sentinel"
	"irdesk/pkg/requestcontext"
)

type ApplicantStore interface {
	FindByID(ctx context.Context, id string) (*models.Applicant, error)
	Create(ctx context.Context, a *models.Applicant) error
	CreateIfIdentityAvailable(ctx context.Context, a *models.Applicant) error
	Update(ctx context.Context, id string, patch models.Patch) (*models.Applicant, error)
}

type RegistrySource interface {
	Lookup(ctx context.Context, holderID string) ([]regmodels.Holder, error)
}

type DuplicateGuard interface {
	Check(ctx context.Context, in guard.Input) error
}

type Notifier interface {
	Send(ctx context.Context, msg notification.Message) notification.Result
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CodeGenerator returns a fresh one-time code.
type CodeGenerator func() (string, error)

// Service orchestrates applicant registration and verification.
type Service struct {
	applicants     ApplicantStore
	guard          DuplicateGuard
	registry       RegistrySource
	notifier       Notifier
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	generate       CodeGenerator
	loginLink      string
	uniqueIdentity bool
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithRegistry enables automated matching against a shareholder registry.
// Without it, claims wait for manual review.
func WithRegistry(r RegistrySource) Option {
	return func(s *Service) {
		s.registry = r
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) {
		s.generate = g
	}
}

// WithLoginLink sets the link included in emailed codes.
func WithLoginLink(link string) Option {
	return func(s *Service) {
		s.loginLink = link
	}
}

// WithUniqueIdentity makes registration fail with a conflict when the email
// is already registered, closing the race between the guard and the insert.
func WithUniqueIdentity(enabled bool) Option {
	return func(s *Service) {
		s.uniqueIdentity = enabled
	}
}

// New constructs a Service.
func New(applicants ApplicantStore, g DuplicateGuard, opts ...Option) *Service {
	s := &Service{
		applicants: applicants,
		guard:      g,
		generate:   code.Generate,
		tracer:     otel.Tracer("irdesk/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the identity captured at sign-up.
type RegisterInput struct {
	FullName string
	Email    string
	Phone    string
}

// Register creates an applicant after the duplicate-registration guard passes.
// A *guard.LockedAccountError is returned as-is so callers can render the lock.
func (s *Service) Register(ctx context.Context, in RegisterInput) (_ *models.Applicant, err error) {
	ctx, finish := s.startOp(ctx, "register")
	defer func() { finish(err) }()

	if s.guard != nil {
		if err := s.guard.Check(ctx, guard.Input{Email: in.Email, Phone: in.Phone, FullName: in.FullName}); err != nil {
			var locked *guard.LockedAccountError
			if errors.As(err, &locked) {
				s.metrics.IncRegistrationBlocked(string(locked.Field))
				s.logAudit(ctx, string(audit.EventRegistrationBlocked),
					"field", string(locked.Field),
					"reason", "identifier belongs to a locked applicant",
					"remaining_days", locked.RemainingDays)
				return nil, locked
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check registration")
		}
	}

	a, err := models.NewApplicant(in.FullName, in.Email, in.Phone, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	create := s.applicants.Create
	if s.uniqueIdentity {
		create = s.applicants.CreateIfIdentityAvailable
	}
	if err := create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "an applicant with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create applicant")
	}

	s.logAudit(ctx, string(audit.EventApplicantRegistered),
		"applicant_id", a.ID)
	return a, nil
}

// Get loads an applicant.
func (s *Service) Get(ctx context.Context, id string) (*models.Applicant, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Result is the outcome of a state-changing operation. Applied is false when
// the transition was a no-op and nothing was written.
type Result struct {
	Applicant *models.Applicant
	Applied   bool
}

// SetWantsVerification records the applicant's opt-in decision.
func (s *Service) SetWantsVerification(ctx context.Context, id string, wants bool) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "set_wants_verification")
	defer func() { finish(err) }()

	res, err := s.apply(ctx, "set_wants_verification", id, func(_ context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		return workflow.SetWantsVerification(a, wants, now), nil
	})
	if err != nil || !res.Applied {
		return res, err
	}
	decision := "opted_out"
	if wants {
		decision = "opted_in"
	}
	s.logAudit(ctx, string(audit.EventVerificationIntent),
		"applicant_id", id,
		"decision", decision)
	return res, nil
}

// SubmitClaim records the declared shareholding. When a registry is configured
// the automated match runs immediately and both steps are persisted together.
func (s *Service) SubmitClaim(ctx context.Context, id string, claim workflow.ClaimInput) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "submit_claim")
	defer func() { finish(err) }()

	var (
		before  models.Applicant
		matched bool
	)
	res, err := s.apply(ctx, "submit_claim", id, func(ctx context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		before = a
		next := workflow.SubmitShareholdingInfo(a, claim, now)
		if s.registry == nil || !workflow.Changed(a, next) {
			return next, nil
		}
		checked, err := s.autoMatch(ctx, next, now)
		if err != nil {
			// The claim is kept; the match can be re-run once the registry recovers.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "automated match skipped",
					"applicant_id", id,
					"error", err)
			}
			return next, nil
		}
		matched = workflow.Changed(next, checked)
		return checked, nil
	})
	if err != nil || !res.Applied {
		return res, err
	}
	s.logAudit(ctx, string(audit.EventClaimSubmitted),
		"applicant_id", id)
	if matched {
		s.afterAutoMatch(ctx, before, *res.Applicant)
	}
	return res, nil
}

// RunAutoMatch re-runs the automated registry check for the current claim.
func (s *Service) RunAutoMatch(ctx context.Context, id string) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "run_auto_match")
	defer func() { finish(err) }()

	if s.registry == nil {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "no shareholder registry is configured")
	}
	var before models.Applicant
	res, err := s.apply(ctx, "run_auto_match", id, func(ctx context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		before = a
		return s.autoMatch(ctx, a, now)
	})
	if err != nil || !res.Applied {
		return res, err
	}
	s.afterAutoMatch(ctx, before, *res.Applicant)
	return res, nil
}

// RecordReview stores the IRO's manual decision. The reviewer is taken from
// the request context.
func (s *Service) RecordReview(ctx context.Context, id string, match bool) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "record_review")
	defer func() { finish(err) }()

	reviewer := requestcontext.ReviewerID(ctx)
	var before models.Applicant
	res, err := s.apply(ctx, "record_review", id, func(_ context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		before = a
		return workflow.RecordManualReview(a, match, reviewer, now), nil
	})
	if err != nil || !res.Applied {
		return res, err
	}
	s.logAudit(ctx, string(audit.EventManualReviewRecorded),
		"applicant_id", id,
		"actor_id", reviewer,
		"decision", string(matchResult(match)))
	s.noteLockout(ctx, before, *res.Applicant, "manual_review")
	return res, nil
}

// SendCodeInput selects how a code is issued.
type SendCodeInput struct {
	Channel models.Channel
	// Manual marks an IRO-initiated send, which is allowed once.
	Manual bool
}

// SendCode issues a one-time code and delivers it. A delivery failure is
// logged and counted; the issued code stays valid.
func (s *Service) SendCode(ctx context.Context, id string, in SendCodeInput) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "send_code")
	defer func() { finish(err) }()

	otp, err := s.generate()
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	var msg *models.OutboundMessage
	res, err := s.apply(ctx, "send_code", id, func(_ context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		var next models.Applicant
		next, msg = workflow.SendVerificationCode(a, workflow.SendCodeInput{
			Channel:   in.Channel,
			LoginLink: s.loginLink,
			Manual:    in.Manual,
			Code:      otp,
		}, now)
		return next, nil
	})
	if err != nil || !res.Applied {
		return res, err
	}

	trigger := "automatic"
	if in.Manual {
		trigger = "manual"
	}
	s.metrics.IncCodeIssued(string(msg.Channel), trigger)
	s.logAudit(ctx, string(audit.EventCodeIssued),
		"applicant_id", id,
		"actor_id", requestcontext.ReviewerID(ctx),
		"channel", string(msg.Channel),
		"decision", trigger)
	s.notify(ctx, msg)
	return res, nil
}

// ResendCode issues a replacement code on the previous channel, subject to
// the resend cooldown.
func (s *Service) ResendCode(ctx context.Context, id string) (_ Result, err error) {
	ctx, finish := s.startOp(ctx, "resend_code")
	defer func() { finish(err) }()

	otp, err := s.generate()
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	var msg *models.OutboundMessage
	res, err := s.apply(ctx, "resend_code", id, func(_ context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		var next models.Applicant
		next, msg = workflow.ResendVerificationCode(a, s.loginLink, otp, now)
		return next, nil
	})
	if err != nil || !res.Applied {
		return res, err
	}

	s.metrics.IncCodeIssued(string(msg.Channel), "resend")
	s.logAudit(ctx, string(audit.EventCodeResent),
		"applicant_id", id,
		"channel", string(msg.Channel))
	s.notify(ctx, msg)
	return res, nil
}

// VerifyCode checks an entered code. Attempts are persisted whether or not
// the code matches.
func (s *Service) VerifyCode(ctx context.Context, id, entered string) (_ bool, err error) {
	ctx, finish := s.startOp(ctx, "verify_code")
	defer func() { finish(err) }()

	var ok bool
	res, err := s.apply(ctx, "verify_code", id, func(_ context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
		var next models.Applicant
		next, ok = workflow.VerifyCode(a, entered, now)
		return next, nil
	})
	if err != nil {
		return false, err
	}

	s.metrics.IncCodeVerification(ok)
	if ok {
		s.logAudit(ctx, string(audit.EventCodeVerified),
			"applicant_id", id)
		return true, nil
	}
	reason := "code rejected"
	if res.Applied && res.Applicant.Verification != nil && res.Applicant.Verification.Step5 != nil &&
		res.Applicant.Verification.Step5.InvalidatedAt != nil {
		reason = "attempts exhausted"
	}
	s.logAudit(ctx, string(audit.EventCodeRejected),
		"applicant_id", id,
		"reason", reason)
	return false, nil
}

// DeadlineInfo reports the verification deadline after an IRO approval.
// The deadline is informational and never enforced.
func (s *Service) DeadlineInfo(ctx context.Context, id string) (workflow.DeadlineInfo, bool, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return workflow.DeadlineInfo{}, false, err
	}
	info, ok := workflow.VerificationDeadlineInfo(*a, requestcontext.Now(ctx))
	return info, ok, nil
}

// LockInfo reports an active lockout on the applicant.
func (s *Service) LockInfo(ctx context.Context, id string) (workflow.LockInfo, bool, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return workflow.LockInfo{}, false, err
	}
	info, ok := workflow.Lock(*a, requestcontext.Now(ctx))
	return info, ok, nil
}

// AuditTrail lists the recorded audit events for an applicant.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]audit.Event, error) {
	lister, ok := s.auditPublisher.(interface {
		List(ctx context.Context, applicantID string) ([]audit.Event, error)
	})
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "audit trail is not available")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	events, err := lister.List(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

type transitionFunc func(ctx context.Context, a models.Applicant, now time.Time) (models.Applicant, error)

// apply loads the applicant, runs fn and persists the result under the
// version read. No-op transitions are not written.
func (s *Service) apply(ctx context.Context, op, id string, fn transitionFunc) (Result, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	before := a.Clone()
	next, err := fn(ctx, a.Clone(), requestcontext.Now(ctx))
	if err != nil {
		return Result{}, err
	}
	if !workflow.Changed(before, next) {
		s.metrics.IncTransition(op, false)
		return Result{Applicant: a, Applied: false}, nil
	}

	updated, err := s.applicants.Update(ctx, id, models.PatchFromTransition(before, next))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return Result{}, dErrors.New(dErrors.CodeConflict, "applicant was modified concurrently, retry")
		case errors.Is(err, sentinel.ErrNotFound):
			return Result{}, dErrors.New(dErrors.CodeNotFound, "applicant not found")
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to persist transition",
				"operation", op,
				"applicant_id", id,
				"error", err)
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save applicant")
	}
	s.metrics.IncTransition(op, true)
	return Result{Applicant: updated, Applied: true}, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Applicant, error) {
	a, err := s.applicants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "applicant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicant")
	}
	return a, nil
}

func (s *Service) autoMatch(ctx context.Context, a models.Applicant, now time.Time) (models.Applicant, error) {
	if a.Verification == nil || a.Verification.Step2 == nil || workflow.IsLocked(a, now) {
		return a, nil
	}
	holders, err := s.registry.Lookup(ctx, a.Verification.Step2.ShareholdingsID)
	if err != nil {
		return a, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query shareholder registry")
	}
	return workflow.RunAutoVerification(a, holders, now), nil
}

func (s *Service) afterAutoMatch(ctx context.Context, before, after models.Applicant) {
	if after.Verification == nil || after.Verification.Step3.LastResult == nil {
		return
	}
	s.logAudit(ctx, string(audit.EventAutoMatchRun),
		"applicant_id", after.ID,
		"decision", string(*after.Verification.Step3.LastResult))
	s.noteLockout(ctx, before, after, "auto_match")
}

// noteLockout records a lock that the transition started or refreshed.
func (s *Service) noteLockout(ctx context.Context, before, after models.Applicant, step string) {
	now := requestcontext.Now(ctx)
	info, locked := workflow.Lock(after, now)
	if !locked {
		return
	}
	if prev, wasLocked := workflow.Lock(before, now); wasLocked && prev.LockedUntil.Equal(info.LockedUntil) {
		return
	}
	s.metrics.IncLockout(step)
	s.logAudit(ctx, string(audit.EventApplicantLocked),
		"applicant_id", after.ID,
		"reason", step+" failure threshold reached",
		"locked_until", info.LockedUntil)
}

func (s *Service) notify(ctx context.Context, msg *models.OutboundMessage) {
	if msg == nil || s.notifier == nil {
		return
	}
	res := s.notifier.Send(ctx, notification.Message{
		ApplicantID: msg.ApplicantID,
		Channel:     string(msg.Channel),
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
	})
	if res.Success {
		return
	}
	s.metrics.IncNotificationFailure(string(msg.Channel))
	if s.logger != nil {
		s.logger.WarnContext(ctx, "verification code delivery failed",
			"applicant_id", msg.ApplicantID,
			"channel", msg.Channel,
			"error", res.Err)
	}
	s.logAudit(ctx, string(audit.EventNotificationFailed),
		"applicant_id", msg.ApplicantID,
		"reason", errString(res.Err))
}

// startOp opens a span and returns a func that closes it and records latency.
func (s *Service) startOp(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification."+op,
		trace.WithAttributes(attribute.String("verification.operation", op)))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		s.metrics.ObserveOperation(op, time.Since(start))
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ApplicantID: stringAttr(attributes, "applicant_id"),
		Action:      event,
		ActorID:     stringAttr(attributes, "actor_id"),
		Decision:    stringAttr(attributes, "decision"),
		Reason:      stringAttr(attributes, "reason"),
		RequestID:   requestID,
		ClientIP:    metadata.GetClientIP(ctx),
		Device:      metadata.GetDevice(ctx),
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event, "error", err)
	}
}

// stringAttr returns the string value following key in a slog-style
// key/value list.
func stringAttr(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			v, _ := kv[i+1].(string)
			return v
		}
	}
	return ""
}

func matchResult(match bool) models.MatchResult {
	if match {
		return models.MatchResultMatch
	}
	return models.MatchResultNoMatch
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
