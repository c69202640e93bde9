package testutil

import (
	"context"
	"net/http"
	"time"

	authmw "irdesk/pkg/platform/middleware/auth"
	"irdesk/pkg/requestcontext"
)

// WithReviewer marks the request as coming from an authenticated reviewer.
// This simulates what the auth middleware does for admin requests.
func WithReviewer(req *http.Request, reviewerID string) *http.Request {
	if reviewerID == "" {
		return req
	}
	ctx := requestcontext.WithReviewerID(req.Context(), reviewerID)
	ctx = context.WithValue(ctx, authmw.ContextKeyClaims, &authmw.JWTClaims{
		ReviewerID: reviewerID,
		JTI:        "test-" + reviewerID,
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	return req.WithContext(ctx)
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
