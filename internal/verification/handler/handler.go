// Package handler exposes the verification workflow over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"irdesk/internal/verification/guard"
	"irdesk/internal/verification/models"
	"irdesk/internal/verification/service"
	"irdesk/internal/verification/workflow"
	dErrors "irdesk/pkg/domain-errors"
	"irdesk/pkg/platform/audit"
	"irdesk/pkg/platform/httputil"
	authmw "irdesk/pkg/platform/middleware/auth"
	"irdesk/pkg/requestcontext"
)

// Service defines the verification operations used by the handlers.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Applicant, error)
	Get(ctx context.Context, id string) (*models.Applicant, error)
	SetWantsVerification(ctx context.Context, id string, wants bool) (service.Result, error)
	SubmitClaim(ctx context.Context, id string, claim workflow.ClaimInput) (service.Result, error)
	RunAutoMatch(ctx context.Context, id string) (service.Result, error)
	RecordReview(ctx context.Context, id string, match bool) (service.Result, error)
	SendCode(ctx context.Context, id string, in service.SendCodeInput) (service.Result, error)
	ResendCode(ctx context.Context, id string) (service.Result, error)
	VerifyCode(ctx context.Context, id, code string) (bool, error)
	DeadlineInfo(ctx context.Context, id string) (workflow.DeadlineInfo, bool, error)
	AuditTrail(ctx context.Context, id string) ([]audit.Event, error)
}

// Revoker invalidates reviewer tokens before they expire.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Handler wires verification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
	revoker Revoker
}

type Option func(*Handler)

// WithRevoker enables POST /admin/logout.
func WithRevoker(r Revoker) Option {
	return func(h *Handler) {
		h.revoker = r
	}
}

// New constructs a verification handler with its dependencies.
func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the investor-facing endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/applicants", h.HandleRegister)
	r.Get("/applicants/{id}", h.HandleGet)
	r.Post("/applicants/{id}/verification/intent", h.HandleIntent)
	r.Post("/applicants/{id}/verification/claim", h.HandleClaim)
	r.Post("/applicants/{id}/verification/code/resend", h.HandleResend)
	r.Post("/applicants/{id}/verification/code/verify", h.HandleVerify)
	r.Get("/applicants/{id}/verification/deadline", h.HandleDeadline)
}

// RegisterAdmin mounts the IRO endpoints. Callers wrap r with reviewer auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/applicants/{id}", h.HandleGet)
	r.Get("/admin/applicants/{id}/audit", h.HandleAuditTrail)
	r.Post("/admin/applicants/{id}/verification/auto-match", h.HandleAutoMatch)
	r.Post("/admin/applicants/{id}/verification/review", h.HandleReview)
	r.Post("/admin/applicants/{id}/verification/code", h.HandleSendCode)
	if h.revoker != nil {
		r.Post("/admin/logout", h.HandleLogout)
	}
}

// HandleRegister handles POST /applicants.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.service.Register(ctx, service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		var locked *guard.LockedAccountError
		if errors.As(err, &locked) {
			h.logger.InfoContext(ctx, "registration refused for locked identity",
				"request_id", requestID,
				"field", locked.Field,
				"remaining_days", locked.RemainingDays,
			)
			httputil.WriteJSON(w, http.StatusLocked, FromLockedAccount(locked))
			return
		}
		h.writeError(ctx, w, "registration failed", "", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromApplicant(a, requestcontext.Now(ctx)))
}

// HandleGet handles GET /applicants/{id} and its admin twin.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	a, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to load applicant", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromApplicant(a, requestcontext.Now(ctx)))
}

// HandleIntent handles POST /applicants/{id}/verification/intent.
func (h *Handler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[IntentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.service.SetWantsVerification(ctx, id, *req.Wants)
	h.writeTransition(ctx, w, "failed to record verification intent", id, res, err)
}

// HandleClaim handles POST /applicants/{id}/verification/claim.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.service.SubmitClaim(ctx, id, workflow.ClaimInput{
		ShareholdingsID: req.ShareholdingsID,
		CompanyName:     req.CompanyName,
		Country:         req.Country,
	})
	h.writeTransition(ctx, w, "failed to submit shareholding claim", id, res, err)
}

// HandleResend handles POST /applicants/{id}/verification/code/resend.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	res, err := h.service.ResendCode(ctx, id)
	h.writeTransition(ctx, w, "failed to resend code", id, res, err)
}

// HandleVerify handles POST /applicants/{id}/verification/code/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[VerifyCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	success, err := h.service.VerifyCode(ctx, id, req.Code)
	if err != nil {
		h.writeError(ctx, w, "failed to verify code", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &VerifyCodeResponse{Success: success})
}

// HandleDeadline handles GET /applicants/{id}/verification/deadline.
func (h *Handler) HandleDeadline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	info, ok, err := h.service.DeadlineInfo(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to compute deadline", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDeadline(info, ok))
}

// HandleAutoMatch handles POST /admin/applicants/{id}/verification/auto-match.
func (h *Handler) HandleAutoMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	res, err := h.service.RunAutoMatch(ctx, id)
	h.writeTransition(ctx, w, "failed to run automated match", id, res, err)
}

// HandleReview handles POST /admin/applicants/{id}/verification/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.service.RecordReview(ctx, id, *req.Match)
	h.writeTransition(ctx, w, "failed to record review", id, res, err)
}

// HandleSendCode handles POST /admin/applicants/{id}/verification/code.
func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SendCodeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.service.SendCode(ctx, id, service.SendCodeInput{
		Channel: req.ParsedChannel(),
		Manual:  req.Manual,
	})
	h.writeTransition(ctx, w, "failed to send code", id, res, err)
}

// HandleAuditTrail handles GET /admin/applicants/{id}/audit.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	events, err := h.service.AuditTrail(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to list audit events", id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAuditEvents(id, events))
}

// HandleLogout handles POST /admin/logout by revoking the presented token.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := authmw.GetClaims(ctx)
	if claims == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	ttl := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if err := h.revoker.Revoke(ctx, claims.JTI, ttl); err != nil {
		h.writeError(ctx, w, "failed to revoke token", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeTransition(ctx context.Context, w http.ResponseWriter, msg, id string, res service.Result, err error) {
	if err != nil {
		h.writeError(ctx, w, msg, id, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &TransitionResponse{
		Applied:   res.Applied,
		Applicant: FromApplicant(res.Applicant, requestcontext.Now(ctx)),
	})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg, id string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"applicant_id", id,
		"error", err,
	)
	httputil.WriteError(w, err)
}
